package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusNoShow      AppointmentStatus = "no-show"
)

type AppointmentType string

const (
	TypeInPerson AppointmentType = "in-person"
	TypeVideo    AppointmentType = "video"
	TypePhone    AppointmentType = "phone"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type Prescription struct {
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Duration   string `json:"duration"`
	Notes      string `json:"notes,omitempty"`
}

type Payment struct {
	Amount        int64
	Status        PaymentStatus
	TransactionID *string
	PaidAt        *time.Time
}

// Appointment is a booking of one clinician slot by one patient.
//
// status, fee, date and slot are only written inside this package: status
// through the transition table, fee once at creation, date and slot by
// creation and rescheduling.
type Appointment struct {
	ID            uuid.UUID
	ClinicianID   uuid.UUID
	PatientID     uuid.UUID
	Type          AppointmentType
	Reason        string
	Symptoms      []string
	Notes         string
	Diagnosis     string
	Prescription  []Prescription
	FollowUpDate  *time.Time
	Payment       Payment
	CancelReason  *string
	CancelledBy   *uuid.UUID
	FeedbackGiven bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	status AppointmentStatus
	fee    int64
	date   time.Time
	slot   Slot
}

func (a *Appointment) Status() AppointmentStatus { return a.status }

// Fee is the clinician's consultation fee captured when the appointment was booked.
func (a *Appointment) Fee() int64 { return a.fee }

// Date is the calendar date as midnight UTC.
func (a *Appointment) Date() time.Time { return a.date }

func (a *Appointment) Slot() Slot { return a.slot }

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// AvailabilityWindow is one published weekly range of a clinician.
type AvailabilityWindow struct {
	Weekday time.Weekday
	Slot    Slot
}

// ListFilter selects appointments for paginated reads. Nil fields are not applied.
type ListFilter struct {
	ClinicianID *uuid.UUID
	PatientID   *uuid.UUID
	Status      *AppointmentStatus
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
