package earnings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DBTX
}

func NewPgRepository(db DBTX) *PgRepository {
	return &PgRepository{db: db}
}

// InsertEarning relies on the unique constraint on earnings.appointment_id.
func (r *PgRepository) InsertEarning(ctx context.Context, e *Earning) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO earnings (id, clinician_id, appointment_id, amount, platform_fee, net_amount,
			payout_status, is_paid, payout_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (appointment_id) DO NOTHING
	`, e.ID, e.ClinicianID, e.AppointmentID, e.Amount, e.PlatformFee, e.NetAmount,
		string(e.PayoutStatus), e.IsPaid, e.PayoutDate, e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyPosted
		}
		return fmt.Errorf("insert earning: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyPosted
	}
	return nil
}

func scanEarning(row pgx.Row) (*Earning, error) {
	var e Earning
	var status string

	err := row.Scan(
		&e.ID,
		&e.ClinicianID,
		&e.AppointmentID,
		&e.Amount,
		&e.PlatformFee,
		&e.NetAmount,
		&status,
		&e.IsPaid,
		&e.PayoutDate,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.PayoutStatus = PayoutStatus(status)
	return &e, nil
}

const earningColumns = `id, clinician_id, appointment_id, amount, platform_fee, net_amount,
	payout_status, is_paid, payout_date, created_at`

func (r *PgRepository) ListByClinician(ctx context.Context, clinicianID uuid.UUID, limit, offset int) ([]Earning, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM earnings WHERE clinician_id = $1`, clinicianID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count earnings: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+earningColumns+`
		FROM earnings
		WHERE clinician_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, clinicianID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list earnings: %w", err)
	}
	defer rows.Close()

	var result []Earning
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}
