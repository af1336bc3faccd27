package earnings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-lifecycle/internal/metrics"
)

// ErrAlreadyPosted is returned when an earning already exists for the appointment.
var ErrAlreadyPosted = errors.New("earning already posted for appointment")

// Writer persists earnings. InsertEarning must return ErrAlreadyPosted when the
// appointment already has one, enforced by the storage layer.
type Writer interface {
	InsertEarning(ctx context.Context, e *Earning) error
}

type Poster struct {
	rateBps int64
	log     *zap.Logger
	metrics *metrics.Scheduling
	now     func() time.Time
}

// NewPoster creates a poster deducting rateBps basis points as platform fee.
func NewPoster(rateBps int64, logger *zap.Logger, m *metrics.Scheduling) *Poster {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rateBps < 0 {
		rateBps = 0
	}
	if rateBps > maxBps {
		rateBps = maxBps
	}
	return &Poster{
		rateBps: rateBps,
		log:     logger,
		metrics: m,
		now:     time.Now,
	}
}

const maxBps = 10000

// Split returns the platform fee and net payout for gross, rounding the fee half up.
// gross must be non-negative and rateBps within [0, 10000]. The product is split
// around 10000 so it cannot overflow int64 for any gross.
func Split(gross, rateBps int64) (platformFee, net int64) {
	whole, rem := gross/maxBps, gross%maxBps
	platformFee = whole*rateBps + (rem*rateBps+maxBps/2)/maxBps
	return platformFee, gross - platformFee
}

// Post records the clinician's earning for a completed appointment. A second call for
// the same appointment returns ErrAlreadyPosted and writes nothing.
func (p *Poster) Post(ctx context.Context, w Writer, clinicianID, appointmentID uuid.UUID, gross int64) (*Earning, error) {
	if gross < 0 {
		return nil, fmt.Errorf("post earning: negative amount %d", gross)
	}

	fee, net := Split(gross, p.rateBps)
	apptID := appointmentID

	e := &Earning{
		ID:            uuid.New(),
		ClinicianID:   clinicianID,
		AppointmentID: &apptID,
		Amount:        gross,
		PlatformFee:   fee,
		NetAmount:     net,
		PayoutStatus:  PayoutPending,
		IsPaid:        false,
		CreatedAt:     p.now().UTC(),
	}

	if err := w.InsertEarning(ctx, e); err != nil {
		if errors.Is(err, ErrAlreadyPosted) {
			p.metrics.ObserveEarning("duplicate")
			p.log.Info("earning already posted",
				zap.String("appointment_id", appointmentID.String()),
			)
			return nil, ErrAlreadyPosted
		}
		return nil, fmt.Errorf("insert earning: %w", err)
	}

	p.metrics.ObserveEarning("posted")
	p.log.Info("earning posted",
		zap.String("earning_id", e.ID.String()),
		zap.String("appointment_id", appointmentID.String()),
		zap.String("clinician_id", clinicianID.String()),
		zap.Int64("amount", e.Amount),
		zap.Int64("net_amount", e.NetAmount),
	)
	return e, nil
}
