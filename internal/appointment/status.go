package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// statusEdges lists the targets reachable through a status update.
// Rescheduling and cancellation have their own operations.
var statusEdges = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:     {StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted},
	StatusConfirmed:   {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusRescheduled: {StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted},
}

func ParseStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(s); st {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusRescheduled, StatusNoShow:
		return st, nil
	}
	return "", validationError("status", fmt.Sprintf("unknown status %q", s))
}

func ParseType(s string) (AppointmentType, error) {
	switch t := AppointmentType(s); t {
	case "":
		return TypeInPerson, nil
	case TypeInPerson, TypeVideo, TypePhone:
		return t, nil
	}
	return "", validationError("type", fmt.Sprintf("unknown appointment type %q", s))
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(s); p {
	case PaymentPending, PaymentPaid, PaymentRefunded, PaymentFailed:
		return p, nil
	}
	return "", validationError("payment_status", fmt.Sprintf("unknown payment status %q", s))
}

// IsTerminal reports whether no further cancel or reschedule is possible.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Blocks reports whether an appointment in this status still occupies its slot.
func (s AppointmentStatus) Blocks() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// CanTransition reports whether a status update may move from one status to another.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range statusEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (a *Appointment) transition(to AppointmentStatus, at time.Time) error {
	if !CanTransition(a.status, to) {
		return &Error{
			Kind:    KindInvalidTransition,
			Field:   "status",
			Message: fmt.Sprintf("cannot move from %s to %s", a.status, to),
		}
	}
	a.status = to
	a.touch(at)
	return nil
}

func (a *Appointment) cancel(by *uuid.UUID, reason string, at time.Time) error {
	if a.status.IsTerminal() {
		return terminalError(a.status)
	}
	a.status = StatusCancelled
	a.CancelledBy = by
	if reason != "" {
		a.CancelReason = &reason
	}
	if a.Payment.Status == PaymentPaid {
		a.Payment.Status = PaymentRefunded
	}
	a.touch(at)
	return nil
}

func (a *Appointment) reschedule(date time.Time, slot Slot, at time.Time) error {
	if a.status.IsTerminal() {
		return terminalError(a.status)
	}
	a.status = StatusRescheduled
	a.date = date
	a.slot = slot
	a.touch(at)
	return nil
}

// touch keeps UpdatedAt monotonically non-decreasing.
func (a *Appointment) touch(at time.Time) {
	if at.After(a.UpdatedAt) {
		a.UpdatedAt = at
	}
}

func terminalError(s AppointmentStatus) *Error {
	return &Error{
		Kind:    KindAlreadyTerminal,
		Field:   "status",
		Message: fmt.Sprintf("appointment is already %s", s),
	}
}
