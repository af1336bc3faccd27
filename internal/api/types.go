package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
	"github.com/hackgods/appointment-lifecycle/internal/earnings"
)

type CreateAppointmentRequest struct {
	ClinicianID     string   `json:"clinician_id"`
	Date            string   `json:"appointment_date"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	AppointmentType string   `json:"appointment_type,omitempty"`
	ReasonForVisit  string   `json:"reason_for_visit"`
	Symptoms        []string `json:"symptoms,omitempty"`
}

type UpdateStatusRequest struct {
	Status       string                     `json:"status"`
	Notes        *string                    `json:"notes,omitempty"`
	Diagnosis    *string                    `json:"diagnosis,omitempty"`
	Prescription []appointment.Prescription `json:"prescription,omitempty"`
	FollowUpDate *string                    `json:"follow_up_date,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type RescheduleRequest struct {
	Date      string `json:"appointment_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type PaymentRequest struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type PaymentResponse struct {
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID                  `json:"id"`
	ClinicianID     uuid.UUID                  `json:"clinician_id"`
	PatientID       uuid.UUID                  `json:"patient_id"`
	Date            string                     `json:"appointment_date"`
	StartTime       string                     `json:"start_time"`
	EndTime         string                     `json:"end_time"`
	Status          string                     `json:"status"`
	AppointmentType string                     `json:"appointment_type"`
	ReasonForVisit  string                     `json:"reason_for_visit"`
	Symptoms        []string                   `json:"symptoms,omitempty"`
	Notes           string                     `json:"notes,omitempty"`
	Diagnosis       string                     `json:"diagnosis,omitempty"`
	Prescription    []appointment.Prescription `json:"prescription,omitempty"`
	FollowUpDate    *string                    `json:"follow_up_date,omitempty"`
	Fee             int64                      `json:"fee"`
	Payment         PaymentResponse            `json:"payment"`
	CancelReason    *string                    `json:"cancellation_reason,omitempty"`
	CancelledBy     *uuid.UUID                 `json:"cancelled_by,omitempty"`
	FeedbackGiven   bool                       `json:"feedback_given"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	slot := a.Slot()
	resp := AppointmentResponse{
		ID:              a.ID,
		ClinicianID:     a.ClinicianID,
		PatientID:       a.PatientID,
		Date:            a.Date().Format(time.DateOnly),
		StartTime:       slot.Start.String(),
		EndTime:         slot.End.String(),
		Status:          string(a.Status()),
		AppointmentType: string(a.Type),
		ReasonForVisit:  a.Reason,
		Symptoms:        a.Symptoms,
		Notes:           a.Notes,
		Diagnosis:       a.Diagnosis,
		Prescription:    a.Prescription,
		Fee:             a.Fee(),
		Payment: PaymentResponse{
			Amount:        a.Payment.Amount,
			Status:        string(a.Payment.Status),
			TransactionID: a.Payment.TransactionID,
			PaidAt:        a.Payment.PaidAt,
		},
		CancelReason:  a.CancelReason,
		CancelledBy:   a.CancelledBy,
		FeedbackGiven: a.FeedbackGiven,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.FollowUpDate != nil {
		d := a.FollowUpDate.Format(time.DateOnly)
		resp.FollowUpDate = &d
	}
	return resp
}

type EarningResponse struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Amount        int64      `json:"amount"`
	PlatformFee   int64      `json:"platform_fee"`
	NetAmount     int64      `json:"net_amount"`
	PayoutStatus  string     `json:"payout_status"`
	IsPaid        bool       `json:"is_paid"`
	PayoutDate    *time.Time `json:"payout_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toEarningResponse(e earnings.Earning) EarningResponse {
	return EarningResponse{
		ID:            e.ID,
		AppointmentID: e.AppointmentID,
		Amount:        e.Amount,
		PlatformFee:   e.PlatformFee,
		NetAmount:     e.NetAmount,
		PayoutStatus:  string(e.PayoutStatus),
		IsPaid:        e.IsPaid,
		PayoutDate:    e.PayoutDate,
		CreatedAt:     e.CreatedAt,
	}
}

type PageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
