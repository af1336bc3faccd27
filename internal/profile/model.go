package profile

import (
	"github.com/google/uuid"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
)

// Clinician is the part of a doctor profile the scheduling engine reads.
type Clinician struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Name            string
	Specialty       string
	ConsultationFee int64
}

type Patient struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
	Email  string
}

var (
	ErrClinicianNotFound = appointment.NotFound("clinician_id", "clinician not found")
	ErrPatientNotFound   = appointment.NotFound("patient_id", "patient profile not found")
)
