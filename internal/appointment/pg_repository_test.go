package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAppointment() *Appointment {
	now := time.Now().UTC()
	return &Appointment{
		ID:          uuid.New(),
		ClinicianID: uuid.New(),
		PatientID:   uuid.New(),
		Type:        TypeVideo,
		Reason:      "checkup",
		Payment:     Payment{Amount: 1500, Status: PaymentPending},
		CreatedAt:   now,
		UpdatedAt:   now,
		status:      StatusPending,
		fee:         1500,
		date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		slot:        Slot{Start: 600, End: 630},
	}
}

// anyArgs pads an expectation for columns the test does not pin.
func anyArgs(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = pgxmock.AnyArg()
	}
	return out
}

// insertArgs pins identity, day, interval and status of an insert; the remaining 15 columns match anything.
func insertArgs(a *Appointment) []any {
	args := []any{a.ID, a.ClinicianID, a.PatientID, a.date, int(a.slot.Start), int(a.slot.End),
		string(a.status), string(a.Type), a.Reason}
	return append(args, anyArgs(15)...)
}

// updateArgs pins the new status and interval plus the guarded prior status.
func updateArgs(a *Appointment, from AppointmentStatus) []any {
	args := []any{a.ID, string(a.status), a.date, int(a.slot.Start), int(a.slot.End)}
	args = append(args, anyArgs(10)...)
	return append(args, string(from))
}

func TestInsertExclusionViolationIsSlotUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	a := testAppointment()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(insertArgs(a)...).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"})
	mock.ExpectRollback()

	repo := NewPgRepository(mock)
	err = repo.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InsertAppointment(ctx, a)
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertOtherFailureIsWrapped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("connection reset")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO appointments").WithArgs(anyArgs(24)...).WillReturnError(boom)
	mock.ExpectRollback()

	repo := NewPgRepository(mock)
	err = repo.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InsertAppointment(ctx, testAppointment())
	})
	assert.ErrorIs(t, err, boom)
	_, isBusiness := KindOf(err)
	assert.False(t, isBusiness)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommitsAndLogsEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	a := testAppointment()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(insertArgs(a)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(EventAppointmentCreated, &a.ID, []byte(`{}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewPgRepository(mock)
	err = repo.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		if err := tx.InsertAppointment(ctx, a); err != nil {
			return err
		}
		return tx.InsertEvent(ctx, EventLog{EventType: EventAppointmentCreated, AppointmentID: &a.ID, Payload: []byte(`{}`)})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxBeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("pool exhausted")
	mock.ExpectBegin().WillReturnError(boom)

	repo := NewPgRepository(mock)
	called := false
	err = repo.WithTx(context.Background(), func(context.Context, Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitExclusionViolationIsSlotUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"})

	repo := NewPgRepository(mock)
	err = repo.WithTx(context.Background(), func(context.Context, Tx) error { return nil })
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppointmentStaleStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	a := testAppointment()
	a.status = StatusConfirmed

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments").
		WithArgs(updateArgs(a, StatusPending)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	repo := NewPgRepository(mock)
	err = repo.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpdateAppointment(ctx, a, StatusPending)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no longer pending")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppointmentNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("FROM appointments").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err = NewPgRepository(mock).GetAppointment(context.Background(), id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppointmentsBuildsFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	clinician := uuid.New()
	status := StatusConfirmed

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM appointments WHERE clinician_id = \\$1 AND status = \\$2").
		WithArgs(clinician, "confirmed").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("LIMIT \\$3 OFFSET \\$4").
		WithArgs(clinician, "confirmed", 20, 40).
		WillReturnRows(mock.NewRows([]string{"id"}))

	got, total, err := NewPgRepository(mock).ListAppointments(context.Background(), ListFilter{
		ClinicianID: &clinician,
		Status:      &status,
		Limit:       20,
		Offset:      40,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWhere(t *testing.T) {
	where, args := listWhere(ListFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	patient := uuid.New()
	where, args = listWhere(ListFilter{PatientID: &patient, From: &from, To: &to})
	assert.Equal(t, " WHERE patient_id = $1 AND appointment_date >= $2 AND appointment_date <= $3", where)
	assert.Equal(t, []any{patient, from, to}, args)
}
