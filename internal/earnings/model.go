package earnings

import (
	"time"

	"github.com/google/uuid"
)

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutProcessed PayoutStatus = "processed"
	PayoutFailed    PayoutStatus = "failed"
)

// Earning is an append-only compensation record for a clinician.
type Earning struct {
	ID            uuid.UUID
	ClinicianID   uuid.UUID
	AppointmentID *uuid.UUID
	Amount        int64
	PlatformFee   int64
	NetAmount     int64
	PayoutStatus  PayoutStatus
	IsPaid        bool
	PayoutDate    *time.Time
	CreatedAt     time.Time
}
