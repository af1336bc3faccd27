package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore reads clinician and patient profiles owned by the profile service.
type PgStore struct {
	db DB
}

func NewPgStore(db DB) *PgStore {
	return &PgStore{db: db}
}

const clinicianColumns = `id, user_id, name, specialty, consultation_fee`

func scanClinician(row pgx.Row) (*Clinician, error) {
	var c Clinician
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Specialty, &c.ConsultationFee); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicianNotFound
		}
		return nil, fmt.Errorf("scan clinician: %w", err)
	}
	return &c, nil
}

func (s *PgStore) ClinicianByID(ctx context.Context, id uuid.UUID) (*Clinician, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+clinicianColumns+`
		FROM clinicians
		WHERE id = $1
	`, id)
	return scanClinician(row)
}

func (s *PgStore) ClinicianByUserID(ctx context.Context, userID uuid.UUID) (*Clinician, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+clinicianColumns+`
		FROM clinicians
		WHERE user_id = $1
	`, userID)
	return scanClinician(row)
}

func (s *PgStore) PatientByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	var p Patient
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, email
		FROM patients
		WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}

// WeeklyAvailability returns the clinician's published weekly ranges.
func (s *PgStore) WeeklyAvailability(ctx context.Context, clinicianID uuid.UUID) ([]appointment.AvailabilityWindow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT weekday, start_minute, end_minute
		FROM clinician_availability
		WHERE clinician_id = $1
		ORDER BY weekday, start_minute
	`, clinicianID)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	var windows []appointment.AvailabilityWindow
	for rows.Next() {
		var weekday, start, end int
		if err := rows.Scan(&weekday, &start, &end); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		windows = append(windows, appointment.AvailabilityWindow{
			Weekday: time.Weekday(weekday),
			Slot:    appointment.Slot{Start: appointment.Clock(start), End: appointment.Clock(end)},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return windows, nil
}

// UpsertClinician is used by the seeder.
func (s *PgStore) UpsertClinician(ctx context.Context, c Clinician) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO clinicians (id, user_id, name, specialty, consultation_fee, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    specialty = EXCLUDED.specialty,
		    consultation_fee = EXCLUDED.consultation_fee,
		    updated_at = now()
	`, c.ID, c.UserID, c.Name, c.Specialty, c.ConsultationFee)
	if err != nil {
		return fmt.Errorf("upsert clinician: %w", err)
	}
	return nil
}

func (s *PgStore) InsertAvailability(ctx context.Context, clinicianID uuid.UUID, w appointment.AvailabilityWindow) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO clinician_availability (clinician_id, weekday, start_minute, end_minute)
		VALUES ($1, $2, $3, $4)
	`, clinicianID, int(w.Weekday), int(w.Slot.Start), int(w.Slot.End))
	if err != nil {
		return fmt.Errorf("insert availability: %w", err)
	}
	return nil
}

func (s *PgStore) InsertPatient(ctx context.Context, p Patient) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO patients (id, user_id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`, p.ID, p.UserID, p.Name, p.Email)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}
