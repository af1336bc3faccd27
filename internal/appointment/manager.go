package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-lifecycle/internal/config"
	"github.com/hackgods/appointment-lifecycle/internal/earnings"
	"github.com/hackgods/appointment-lifecycle/internal/metrics"
	redisclient "github.com/hackgods/appointment-lifecycle/internal/redis"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
	EventEarningPosted          = "EARNING_POSTED"
	EventPaymentRecorded        = "PAYMENT_RECORDED"
)

var statusEvents = map[AppointmentStatus]string{
	StatusConfirmed: EventAppointmentConfirmed,
	StatusCancelled: EventAppointmentCancelled,
	StatusCompleted: EventAppointmentCompleted,
	StatusNoShow:    EventAppointmentNoShow,
}

// Manager owns the appointment state machine. It is the only writer of status,
// fee and the booked interval.
type Manager struct {
	store   Store
	locker  redisclient.Locker
	poster  *earnings.Poster
	loc     *time.Location
	log     *zap.Logger
	metrics *metrics.Scheduling
	now     func() time.Time
}

type Option func(*Manager)

// WithClock overrides time.Now, used for "is the date in the future" guards.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithMetrics(ms *metrics.Scheduling) Option {
	return func(m *Manager) { m.metrics = ms }
}

func NewManager(store Store, locker redisclient.Locker, poster *earnings.Poster, cfg config.Config, logger *zap.Logger, opts ...Option) *Manager {
	if locker == nil {
		locker = redisclient.NopLocker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	m := &Manager{
		store:  store,
		locker: locker,
		poster: poster,
		loc:    loc,
		log:    logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewAppointment carries the inputs of a booking. Fee is the clinician's current
// consultation fee and is snapshotted onto the appointment.
type NewAppointment struct {
	ClinicianID uuid.UUID
	PatientID   uuid.UUID
	Date        time.Time
	Slot        Slot
	Type        AppointmentType
	Reason      string
	Symptoms    []string
	Fee         int64
}

// SlotCheck is an extra guard on a target interval, run inside the reschedule
// transaction once the caller is known to be a party and the record is live.
type SlotCheck func(ctx context.Context, clinicianID uuid.UUID, date time.Time, slot Slot) error

// StatusUpdate is a clinician's status change plus optional clinical fields to merge.
type StatusUpdate struct {
	Status       AppointmentStatus
	Notes        *string
	Diagnosis    *string
	Prescription []Prescription
	FollowUpDate *time.Time
}

// Location is the canonical zone dates are interpreted in.
func (m *Manager) Location() *time.Location { return m.loc }

// Today returns the current calendar date in the canonical zone.
func (m *Manager) Today() time.Time { return DateOf(m.now(), m.loc) }

// Create books a pending appointment after checking the slot against the clinician's
// other appointments that day.
func (m *Manager) Create(ctx context.Context, req NewAppointment) (*Appointment, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, validationError("reason_for_visit", "reason for visit is required")
	}
	if req.ClinicianID == uuid.Nil {
		return nil, validationError("clinician_id", "clinician is required")
	}
	if req.PatientID == uuid.Nil {
		return nil, validationError("patient_id", "patient is required")
	}
	if err := req.Slot.validate(); err != nil {
		return nil, err
	}
	if req.Fee < 0 {
		return nil, validationError("fee", "fee cannot be negative")
	}
	typ, err := ParseType(string(req.Type))
	if err != nil {
		return nil, err
	}

	date := DateOf(req.Date, time.UTC)
	if err := m.requireFuture("date", date); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	appt := &Appointment{
		ID:          uuid.New(),
		ClinicianID: req.ClinicianID,
		PatientID:   req.PatientID,
		Type:        typ,
		Reason:      reason,
		Symptoms:    req.Symptoms,
		Payment: Payment{
			Amount: req.Fee,
			Status: PaymentPending,
		},
		FeedbackGiven: false,
		CreatedAt:     now,
		UpdatedAt:     now,
		status:        StatusPending,
		fee:           req.Fee,
		date:          date,
		slot:          req.Slot,
	}

	err = m.withDayLock(ctx, req.ClinicianID, date, func(ctx context.Context) error {
		return m.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
			if err := CheckSlot(ctx, tx, appt.ClinicianID, date, appt.slot, uuid.Nil); err != nil {
				m.observeConflict(err, "check")
				return err
			}
			if err := tx.InsertAppointment(ctx, appt); err != nil {
				m.observeConflict(err, "storage")
				return err
			}
			return m.logEvent(ctx, tx, appt.ID, EventAppointmentCreated, map[string]any{
				"clinician_id": appt.ClinicianID.String(),
				"patient_id":   appt.PatientID.String(),
				"date":         date.Format(time.DateOnly),
				"slot":         appt.slot.String(),
				"fee":          appt.fee,
			})
		})
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("appointment created",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("clinician_id", appt.ClinicianID.String()),
		zap.String("date", date.Format(time.DateOnly)),
		zap.String("slot", appt.slot.String()),
	)
	return appt, nil
}

// Reschedule moves an appointment to a new date and interval. Its own current interval
// is ignored by the conflict check.
func (m *Manager) Reschedule(ctx context.Context, id, actor uuid.UUID, date time.Time, slot Slot, checks ...SlotCheck) (*Appointment, error) {
	if err := slot.validate(); err != nil {
		return nil, err
	}
	date = DateOf(date, time.UTC)
	if err := m.requireFuture("date", date); err != nil {
		return nil, err
	}

	// the clinician is needed for the lock key; it never changes on a record
	current, err := m.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *Appointment
	err = m.withDayLock(ctx, current.ClinicianID, date, func(ctx context.Context) error {
		return m.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
			appt, err := tx.GetAppointmentForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := requireParty(appt, actor); err != nil {
				return err
			}
			if appt.status.IsTerminal() {
				return terminalError(appt.status)
			}
			for _, check := range checks {
				if err := check(ctx, appt.ClinicianID, date, slot); err != nil {
					return err
				}
			}
			if err := CheckSlot(ctx, tx, appt.ClinicianID, date, slot, appt.ID); err != nil {
				m.observeConflict(err, "check")
				return err
			}

			from := appt.status
			prevDate, prevSlot := appt.date, appt.slot
			if err := appt.reschedule(date, slot, m.now().UTC()); err != nil {
				return err
			}
			if err := tx.UpdateAppointment(ctx, appt, from); err != nil {
				m.observeConflict(err, "storage")
				return err
			}
			updated = appt
			return m.logEvent(ctx, tx, appt.ID, EventAppointmentRescheduled, map[string]any{
				"from_date": prevDate.Format(time.DateOnly),
				"from_slot": prevSlot.String(),
				"to_date":   date.Format(time.DateOnly),
				"to_slot":   slot.String(),
				"by":        actor.String(),
			})
		})
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("appointment rescheduled",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("date", date.Format(time.DateOnly)),
		zap.String("slot", slot.String()),
	)
	return updated, nil
}

// Cancel cancels a live appointment on behalf of its clinician or patient. A paid
// payment is flagged refunded.
func (m *Manager) Cancel(ctx context.Context, id, actor uuid.UUID, reason string) (*Appointment, error) {
	var updated *Appointment
	err := m.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		appt, err := tx.GetAppointmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := requireParty(appt, actor); err != nil {
			return err
		}
		if err := m.applyCancel(ctx, tx, appt, actor, reason); err != nil {
			return err
		}
		updated = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (m *Manager) applyCancel(ctx context.Context, tx Tx, appt *Appointment, actor uuid.UUID, reason string) error {
	from := appt.status
	refund := appt.Payment.Status == PaymentPaid
	by := actor
	if err := appt.cancel(&by, strings.TrimSpace(reason), m.now().UTC()); err != nil {
		return err
	}
	if err := tx.UpdateAppointment(ctx, appt, from); err != nil {
		return err
	}

	m.log.Info("appointment cancelled",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("by", actor.String()),
		zap.Bool("refund_requested", refund),
	)
	return m.logEvent(ctx, tx, appt.ID, EventAppointmentCancelled, map[string]any{
		"from":     string(from),
		"by":       actor.String(),
		"reason":   reason,
		"refunded": refund,
	})
}

// UpdateStatus applies a clinician's status change. Completing a paid appointment
// posts the clinician's earning in the same transaction; repeating the completion is
// a no-op that returns the record.
func (m *Manager) UpdateStatus(ctx context.Context, id, actor uuid.UUID, upd StatusUpdate) (*Appointment, error) {
	if err := validatePrescription(upd.Prescription); err != nil {
		return nil, err
	}

	var updated *Appointment
	err := m.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		appt, err := tx.GetAppointmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if appt.ClinicianID != actor {
			return Forbidden("only the clinician of record can change the status")
		}

		if appt.status == StatusCompleted && upd.Status == StatusCompleted {
			updated = appt
			return m.postEarning(ctx, tx, appt)
		}

		if !CanTransition(appt.status, upd.Status) {
			return &Error{
				Kind:    KindInvalidTransition,
				Field:   "status",
				Message: fmt.Sprintf("cannot move from %s to %s", appt.status, upd.Status),
			}
		}

		mergeClinical(appt, upd)

		if upd.Status == StatusCancelled {
			if err := m.applyCancel(ctx, tx, appt, actor, ""); err != nil {
				return err
			}
			updated = appt
			return nil
		}

		from := appt.status
		if err := appt.transition(upd.Status, m.now().UTC()); err != nil {
			return err
		}
		if err := tx.UpdateAppointment(ctx, appt, from); err != nil {
			return err
		}
		if err := m.logEvent(ctx, tx, appt.ID, statusEvents[upd.Status], map[string]any{
			"from": string(from),
			"to":   string(upd.Status),
		}); err != nil {
			return err
		}

		updated = appt
		if appt.status == StatusCompleted {
			return m.postEarning(ctx, tx, appt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("appointment status updated",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("status", string(updated.status)),
	)
	return updated, nil
}

// RecordPayment applies a payment collaborator's outcome. Only paid and failed are
// accepted; refunded is driven by cancellation.
func (m *Manager) RecordPayment(ctx context.Context, id uuid.UUID, status PaymentStatus, transactionID string) (*Appointment, error) {
	if status != PaymentPaid && status != PaymentFailed {
		return nil, validationError("payment_status", fmt.Sprintf("payment status %q cannot be recorded", status))
	}

	var updated *Appointment
	err := m.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		appt, err := tx.GetAppointmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if appt.Payment.Status == PaymentRefunded {
			return &Error{Kind: KindInvalidTransition, Field: "payment_status", Message: "payment already refunded"}
		}

		now := m.now().UTC()
		appt.Payment.Status = status
		if transactionID != "" {
			txn := transactionID
			appt.Payment.TransactionID = &txn
		}
		if status == PaymentPaid {
			appt.Payment.PaidAt = &now
			// a cancellation already happened, record the refund intent right away
			if appt.status == StatusCancelled {
				appt.Payment.Status = PaymentRefunded
			}
		}
		appt.touch(now)

		if err := tx.UpdateAppointment(ctx, appt, appt.status); err != nil {
			return err
		}
		if err := m.logEvent(ctx, tx, appt.ID, EventPaymentRecorded, map[string]any{
			"status":         string(appt.Payment.Status),
			"transaction_id": transactionID,
		}); err != nil {
			return err
		}

		updated = appt
		if appt.status == StatusCompleted {
			return m.postEarning(ctx, tx, appt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := m.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// List returns a page of appointments and the total match count.
func (m *Manager) List(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20 // default
	}
	if f.Limit > 100 {
		f.Limit = 100 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	appts, total, err := m.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	return appts, total, nil
}

// postEarning is a no-op unless the appointment is completed and paid.
func (m *Manager) postEarning(ctx context.Context, tx Tx, appt *Appointment) error {
	if appt.status != StatusCompleted || appt.Payment.Status != PaymentPaid || m.poster == nil {
		return nil
	}
	e, err := m.poster.Post(ctx, tx.Earnings(), appt.ClinicianID, appt.ID, appt.fee)
	if errors.Is(err, earnings.ErrAlreadyPosted) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.logEvent(ctx, tx, appt.ID, EventEarningPosted, map[string]any{
		"earning_id":   e.ID.String(),
		"amount":       e.Amount,
		"platform_fee": e.PlatformFee,
		"net_amount":   e.NetAmount,
	})
}

func (m *Manager) requireFuture(field string, date time.Time) error {
	if !date.After(m.Today()) {
		return validationError(field, fmt.Sprintf("%s must be after today", date.Format(time.DateOnly)))
	}
	return nil
}

func (m *Manager) withDayLock(ctx context.Context, clinicianID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:clinician:%s:%s", clinicianID, date.Format(time.DateOnly))

	err := m.locker.WithLock(ctx, key, fn)
	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		m.metrics.ObserveConflict("lock")
		return &Error{
			Kind:      KindSlotUnavailable,
			Field:     "booking_lock",
			Message:   fmt.Sprintf("another booking for this clinician on %s is in progress, retry the same slot", date.Format(time.DateOnly)),
			Retryable: true,
		}
	case errors.Is(err, redisclient.ErrLockUnavailable):
		// the storage constraint still guarantees no overlap
		m.log.Warn("booking lock unavailable, continuing without it",
			zap.String("key", key),
			zap.Error(err),
		)
		return fn(ctx)
	}
	return err
}

func (m *Manager) observeConflict(err error, source string) {
	if errors.Is(err, ErrSlotUnavailable) {
		m.metrics.ObserveConflict(source)
	}
}

func (m *Manager) logEvent(ctx context.Context, tx Tx, appointmentID uuid.UUID, eventType string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		m.log.Warn("failed to marshal event payload",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     m.now().UTC(),
	}

	if err := tx.InsertEvent(ctx, ev); err != nil {
		return fmt.Errorf("insert event %s: %w", eventType, err)
	}
	return nil
}

func requireParty(appt *Appointment, actor uuid.UUID) error {
	if actor != appt.ClinicianID && actor != appt.PatientID {
		return Forbidden("caller is neither the clinician nor the patient of record")
	}
	return nil
}

func validatePrescription(items []Prescription) error {
	for i, p := range items {
		switch {
		case strings.TrimSpace(p.Medication) == "":
			return validationError(fmt.Sprintf("prescription[%d].medication", i), "medication is required")
		case strings.TrimSpace(p.Dosage) == "":
			return validationError(fmt.Sprintf("prescription[%d].dosage", i), "dosage is required")
		case strings.TrimSpace(p.Frequency) == "":
			return validationError(fmt.Sprintf("prescription[%d].frequency", i), "frequency is required")
		case strings.TrimSpace(p.Duration) == "":
			return validationError(fmt.Sprintf("prescription[%d].duration", i), "duration is required")
		}
	}
	return nil
}

func mergeClinical(appt *Appointment, upd StatusUpdate) {
	if upd.Notes != nil {
		appt.Notes = *upd.Notes
	}
	if upd.Diagnosis != nil {
		appt.Diagnosis = *upd.Diagnosis
	}
	if upd.Prescription != nil {
		appt.Prescription = upd.Prescription
	}
	if upd.FollowUpDate != nil {
		d := DateOf(*upd.FollowUpDate, time.UTC)
		appt.FollowUpDate = &d
	}
}
