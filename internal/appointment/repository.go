package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/appointment-lifecycle/internal/earnings"
)

// Store is the persistence boundary of the lifecycle manager.
type Store interface {
	// WithTx runs fn in one transaction. fn's error rolls everything back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, int, error)
}

// Tx contains the reads and writes made inside a lifecycle transaction.
type Tx interface {
	// GetAppointmentForUpdate locks the row until the transaction ends.
	GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For conflict checks. Returns appointments of the clinician on date whose status blocks the slot.
	ListBlockingForDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]Appointment, error)

	// InsertAppointment must map a storage level overlap into ErrSlotUnavailable.
	InsertAppointment(ctx context.Context, a *Appointment) error
	// UpdateAppointment writes a only if its stored status is still from.
	UpdateAppointment(ctx context.Context, a *Appointment, from AppointmentStatus) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error

	Earnings() earnings.Writer
}

// DayReader is the read the conflict checker needs.
type DayReader interface {
	ListBlockingForDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]Appointment, error)
}
