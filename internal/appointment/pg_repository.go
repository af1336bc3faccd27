package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/appointment-lifecycle/internal/earnings"
)

// pgExclusionViolation is raised by the appointments_no_overlap constraint.
const pgExclusionViolation = "23P01"

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

const appointmentColumns = `id, clinician_id, patient_id, appointment_date, start_minute, end_minute,
	status, appointment_type, reason, symptoms, notes, diagnosis, prescription, follow_up_date,
	fee, payment_amount, payment_status, payment_transaction_id, payment_paid_at,
	cancel_reason, cancelled_by, feedback_given, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start, end int
	var status, typ, paymentStatus string
	var prescription []byte

	err := row.Scan(
		&a.ID,
		&a.ClinicianID,
		&a.PatientID,
		&a.date,
		&start,
		&end,
		&status,
		&typ,
		&a.Reason,
		&a.Symptoms,
		&a.Notes,
		&a.Diagnosis,
		&prescription,
		&a.FollowUpDate,
		&a.fee,
		&a.Payment.Amount,
		&paymentStatus,
		&a.Payment.TransactionID,
		&a.Payment.PaidAt,
		&a.CancelReason,
		&a.CancelledBy,
		&a.FeedbackGiven,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.slot = Slot{Start: Clock(start), End: Clock(end)}
	a.status = AppointmentStatus(status)
	a.Type = AppointmentType(typ)
	a.Payment.Status = PaymentStatus(paymentStatus)
	a.date = DateOf(a.date, time.UTC)
	if len(prescription) > 0 {
		if err := json.Unmarshal(prescription, &a.Prescription); err != nil {
			return nil, fmt.Errorf("decode prescription: %w", err)
		}
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func encodePrescription(p []Prescription) ([]byte, error) {
	if p == nil {
		p = []Prescription{}
	}
	return json.Marshal(p)
}

// mapWriteError turns the overlap exclusion constraint into a business error.
func mapWriteError(a *Appointment, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return SlotUnavailable(a.date.Format(time.DateOnly), a.slot, "slot was taken by a concurrent booking")
	}
	return err
}

// Interface methods

func (r *PgRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	pgTx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &pgTxStore{tx: pgTx}); err != nil {
		_ = pgTx.Rollback(ctx)
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return mapCommitError(err)
	}
	return nil
}

func mapCommitError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return &Error{Kind: KindSlotUnavailable, Field: pgErr.ConstraintName, Message: "slot was taken by a concurrent booking"}
	}
	return fmt.Errorf("commit tx: %w", err)
}

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	where, args := listWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments`+where+`
		ORDER BY appointment_date DESC, start_minute DESC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	result, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func listWhere(f ListFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ClinicianID != nil {
		add("clinician_id = $%d", *f.ClinicianID)
	}
	if f.PatientID != nil {
		add("patient_id = $%d", *f.PatientID)
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.From != nil {
		add("appointment_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("appointment_date <= $%d", *f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type pgTxStore struct {
	tx pgx.Tx
}

func (s *pgTxStore) GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := s.tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanAppointment(row)
}

// ListBlockingForDay locks the clinician's live rows for that day so a concurrent
// reschedule into the same day waits for this transaction.
func (s *pgTxStore) ListBlockingForDay(ctx context.Context, clinicianID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinician_id = $1
		  AND appointment_date = $2
		  AND status NOT IN ('cancelled', 'no-show')
		ORDER BY start_minute
		FOR UPDATE
	`, clinicianID, date)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (s *pgTxStore) InsertAppointment(ctx context.Context, a *Appointment) error {
	prescription, err := encodePrescription(a.Prescription)
	if err != nil {
		return fmt.Errorf("encode prescription: %w", err)
	}
	symptoms := a.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}

	_, err = s.tx.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24)
	`, a.ID, a.ClinicianID, a.PatientID, a.date, int(a.slot.Start), int(a.slot.End),
		string(a.status), string(a.Type), a.Reason, symptoms, a.Notes, a.Diagnosis, prescription, a.FollowUpDate,
		a.fee, a.Payment.Amount, string(a.Payment.Status), a.Payment.TransactionID, a.Payment.PaidAt,
		a.CancelReason, a.CancelledBy, a.FeedbackGiven, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if mapped := mapWriteError(a, err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// UpdateAppointment never writes fee, clinician or patient.
func (s *pgTxStore) UpdateAppointment(ctx context.Context, a *Appointment, from AppointmentStatus) error {
	prescription, err := encodePrescription(a.Prescription)
	if err != nil {
		return fmt.Errorf("encode prescription: %w", err)
	}

	tag, err := s.tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
		    appointment_date = $3,
		    start_minute = $4,
		    end_minute = $5,
		    notes = $6,
		    diagnosis = $7,
		    prescription = $8,
		    follow_up_date = $9,
		    payment_status = $10,
		    payment_transaction_id = $11,
		    payment_paid_at = $12,
		    cancel_reason = $13,
		    cancelled_by = $14,
		    updated_at = $15
		WHERE id = $1
		  AND status = $16
	`, a.ID, string(a.status), a.date, int(a.slot.Start), int(a.slot.End),
		a.Notes, a.Diagnosis, prescription, a.FollowUpDate,
		string(a.Payment.Status), a.Payment.TransactionID, a.Payment.PaidAt,
		a.CancelReason, a.CancelledBy, a.UpdatedAt, string(from))
	if err != nil {
		if mapped := mapWriteError(a, err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update appointment %s: status is no longer %s", a.ID, from)
	}
	return nil
}

func (s *pgTxStore) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func (s *pgTxStore) Earnings() earnings.Writer {
	return earnings.NewPgRepository(s.tx)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
