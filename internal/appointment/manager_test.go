package appointment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
	"github.com/hackgods/appointment-lifecycle/internal/appointment/apptest"
	"github.com/hackgods/appointment-lifecycle/internal/config"
	"github.com/hackgods/appointment-lifecycle/internal/earnings"
	redisclient "github.com/hackgods/appointment-lifecycle/internal/redis"
)

var (
	bookingDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fixedNow    = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	store     *apptest.Store
	mgr       *appointment.Manager
	clinician uuid.UUID
	patient   uuid.UUID
}

func newFixture(t *testing.T, opts ...appointment.Option) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := apptest.New()
	poster := earnings.NewPoster(1000, logger, nil)
	opts = append([]appointment.Option{appointment.WithClock(func() time.Time { return fixedNow })}, opts...)
	return &fixture{
		store:     store,
		mgr:       appointment.NewManager(store, redisclient.NopLocker{}, poster, config.Config{Location: time.UTC}, logger, opts...),
		clinician: uuid.New(),
		patient:   uuid.New(),
	}
}

func slot(t *testing.T, start, end string) appointment.Slot {
	t.Helper()
	s, err := appointment.NewSlot(start, end)
	require.NoError(t, err)
	return s
}

func (f *fixture) book(t *testing.T, start, end string) *appointment.Appointment {
	t.Helper()
	a, err := f.mgr.Create(context.Background(), appointment.NewAppointment{
		ClinicianID: f.clinician,
		PatientID:   f.patient,
		Date:        bookingDate,
		Slot:        slot(t, start, end),
		Reason:      "follow-up",
		Fee:         1500,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) setStatus(t *testing.T, id uuid.UUID, status appointment.AppointmentStatus) *appointment.Appointment {
	t.Helper()
	a, err := f.mgr.UpdateStatus(context.Background(), id, f.clinician, appointment.StatusUpdate{Status: status})
	require.NoError(t, err)
	return a
}

func (f *fixture) pay(t *testing.T, id uuid.UUID) {
	t.Helper()
	_, err := f.mgr.RecordPayment(context.Background(), id, appointment.PaymentPaid, "txn_"+id.String()[:8])
	require.NoError(t, err)
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")

	assert.Equal(t, appointment.StatusPending, a.Status())
	assert.Equal(t, appointment.TypeInPerson, a.Type)
	assert.Equal(t, int64(1500), a.Fee())
	assert.Equal(t, int64(1500), a.Payment.Amount)
	assert.Equal(t, appointment.PaymentPending, a.Payment.Status)
	assert.False(t, a.FeedbackGiven)
	assert.Equal(t, bookingDate, a.Date())

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, appointment.EventAppointmentCreated, events[0].EventType)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := appointment.NewAppointment{
		ClinicianID: f.clinician,
		PatientID:   f.patient,
		Date:        bookingDate,
		Slot:        slot(t, "10:00", "10:30"),
		Reason:      "checkup",
		Fee:         1500,
	}

	tests := []struct {
		name   string
		mutate func(*appointment.NewAppointment)
	}{
		{"empty reason", func(n *appointment.NewAppointment) { n.Reason = "   " }},
		{"inverted slot", func(n *appointment.NewAppointment) { n.Slot = appointment.Slot{Start: 630, End: 600} }},
		{"today is not future", func(n *appointment.NewAppointment) { n.Date = fixedNow }},
		{"past date", func(n *appointment.NewAppointment) { n.Date = fixedNow.AddDate(0, 0, -3) }},
		{"unknown type", func(n *appointment.NewAppointment) { n.Type = "telepathy" }},
		{"negative fee", func(n *appointment.NewAppointment) { n.Fee = -1 }},
		{"missing clinician", func(n *appointment.NewAppointment) { n.ClinicianID = uuid.Nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := f.mgr.Create(ctx, req)
			assert.ErrorIs(t, err, appointment.ErrValidation)
		})
	}

	_, total, err := f.store.ListAppointments(ctx, appointment.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBookingConflict(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, "10:00", "10:30")
	f.setStatus(t, first.ID, appointment.StatusConfirmed)

	_, err := f.mgr.Create(context.Background(), appointment.NewAppointment{
		ClinicianID: f.clinician,
		PatientID:   uuid.New(),
		Date:        bookingDate,
		Slot:        slot(t, "10:15", "10:45"),
		Reason:      "overlap",
		Fee:         1500,
	})
	require.ErrorIs(t, err, appointment.ErrSlotUnavailable)

	adjacent := f.book(t, "10:30", "11:00")
	assert.Equal(t, appointment.StatusPending, adjacent.Status())

	// another clinician is unaffected
	other, err := f.mgr.Create(context.Background(), appointment.NewAppointment{
		ClinicianID: uuid.New(),
		PatientID:   f.patient,
		Date:        bookingDate,
		Slot:        slot(t, "10:15", "10:45"),
		Reason:      "second opinion",
	})
	require.NoError(t, err)
	assert.NotNil(t, other)
}

func TestCancelledAndNoShowFreeTheSlot(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")
	_, err := f.mgr.Cancel(context.Background(), a.ID, f.patient, "")
	require.NoError(t, err)

	b := f.book(t, "10:00", "10:30")
	f.setStatus(t, b.ID, appointment.StatusNoShow)

	c := f.book(t, "10:00", "10:30")
	assert.Equal(t, appointment.StatusPending, c.Status())
}

func TestConcurrentBookingsNeverOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.mgr.Create(ctx, appointment.NewAppointment{
				ClinicianID: f.clinician,
				PatientID:   uuid.New(),
				Date:        bookingDate,
				Slot:        appointment.Slot{Start: 600, End: 630},
				Reason:      "race",
				Fee:         1500,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func TestRescheduleRunsSlotChecksAfterGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "10:00", "10:30")
	b := f.book(t, "11:00", "11:30")
	f.setStatus(t, b.ID, appointment.StatusCancelled)

	closed := errors.New("outside published hours")
	calls := 0
	reject := func(context.Context, uuid.UUID, time.Time, appointment.Slot) error {
		calls++
		return closed
	}

	_, err := f.mgr.Reschedule(ctx, a.ID, uuid.New(), bookingDate, slot(t, "20:00", "20:30"), reject)
	assert.ErrorIs(t, err, appointment.ErrForbidden)

	_, err = f.mgr.Reschedule(ctx, b.ID, f.patient, bookingDate, slot(t, "20:00", "20:30"), reject)
	assert.ErrorIs(t, err, appointment.ErrAlreadyTerminal)
	assert.Zero(t, calls)

	_, err = f.mgr.Reschedule(ctx, a.ID, f.patient, bookingDate, slot(t, "20:00", "20:30"), reject)
	assert.ErrorIs(t, err, closed)
	assert.Equal(t, 1, calls)

	got, err := f.mgr.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00-10:30", got.Slot().String())

	var seen uuid.UUID
	accept := func(_ context.Context, clinicianID uuid.UUID, _ time.Time, _ appointment.Slot) error {
		seen = clinicianID
		return nil
	}
	_, err = f.mgr.Reschedule(ctx, a.ID, f.patient, bookingDate, slot(t, "12:00", "12:30"), accept)
	require.NoError(t, err)
	assert.Equal(t, f.clinician, seen)
}

func TestRescheduleExcludesOwnInterval(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")
	f.setStatus(t, a.ID, appointment.StatusConfirmed)

	moved, err := f.mgr.Reschedule(context.Background(), a.ID, f.patient, bookingDate, slot(t, "10:15", "10:45"))
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusRescheduled, moved.Status())
	assert.Equal(t, "10:15-10:45", moved.Slot().String())
	assert.Equal(t, int64(1500), moved.Fee())

	// rescheduled records still block their new interval
	_, err = f.mgr.Create(context.Background(), appointment.NewAppointment{
		ClinicianID: f.clinician,
		PatientID:   uuid.New(),
		Date:        bookingDate,
		Slot:        slot(t, "10:40", "11:00"),
		Reason:      "late",
	})
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)
}

func TestRescheduleGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "10:00", "10:30")
	b := f.book(t, "11:00", "11:30")

	_, err := f.mgr.Reschedule(ctx, a.ID, f.clinician, bookingDate, slot(t, "11:15", "11:45"))
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)

	_, err = f.mgr.Reschedule(ctx, a.ID, uuid.New(), bookingDate, slot(t, "12:00", "12:30"))
	assert.ErrorIs(t, err, appointment.ErrForbidden)

	_, err = f.mgr.Reschedule(ctx, a.ID, f.patient, fixedNow, slot(t, "12:00", "12:30"))
	assert.ErrorIs(t, err, appointment.ErrValidation)

	_, err = f.mgr.Reschedule(ctx, uuid.New(), f.patient, bookingDate, slot(t, "12:00", "12:30"))
	assert.ErrorIs(t, err, appointment.ErrNotFound)

	f.setStatus(t, b.ID, appointment.StatusNoShow)
	_, err = f.mgr.Reschedule(ctx, b.ID, f.patient, bookingDate, slot(t, "12:00", "12:30"))
	assert.ErrorIs(t, err, appointment.ErrAlreadyTerminal)

	got, err := f.mgr.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00-10:30", got.Slot().String())
	assert.Equal(t, appointment.StatusPending, got.Status())
}

func TestCompletionPostsEarningOnce(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")
	f.setStatus(t, a.ID, appointment.StatusConfirmed)
	f.pay(t, a.ID)

	done := f.setStatus(t, a.ID, appointment.StatusCompleted)
	assert.Equal(t, appointment.StatusCompleted, done.Status())

	// a retried completion is a no-op
	again := f.setStatus(t, a.ID, appointment.StatusCompleted)
	assert.Equal(t, appointment.StatusCompleted, again.Status())

	posted := f.store.Earnings()
	require.Len(t, posted, 1)
	e := posted[0]
	assert.Equal(t, int64(1500), e.Amount)
	assert.Equal(t, int64(150), e.PlatformFee)
	assert.Equal(t, int64(1350), e.NetAmount)
	assert.Equal(t, earnings.PayoutPending, e.PayoutStatus)
	assert.False(t, e.IsPaid)
	assert.Equal(t, f.clinician, e.ClinicianID)
	require.NotNil(t, e.AppointmentID)
	assert.Equal(t, a.ID, *e.AppointmentID)

	var posts int
	for _, ev := range f.store.Events() {
		if ev.EventType == appointment.EventEarningPosted {
			posts++
		}
	}
	assert.Equal(t, 1, posts)
}

func TestCompletionWithoutPaymentPostsNothing(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")
	f.setStatus(t, a.ID, appointment.StatusConfirmed)
	f.setStatus(t, a.ID, appointment.StatusCompleted)
	assert.Empty(t, f.store.Earnings())

	// payment arriving after completion posts the earning
	f.pay(t, a.ID)
	assert.Len(t, f.store.Earnings(), 1)

	f.setStatus(t, a.ID, appointment.StatusCompleted)
	assert.Len(t, f.store.Earnings(), 1)
}

func TestUpdateStatusMergesClinicalFields(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")

	notes, diagnosis := "rest", "mild flu"
	followUp := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	got, err := f.mgr.UpdateStatus(context.Background(), a.ID, f.clinician, appointment.StatusUpdate{
		Status:    appointment.StatusCompleted,
		Notes:     &notes,
		Diagnosis: &diagnosis,
		Prescription: []appointment.Prescription{
			{Medication: "paracetamol", Dosage: "500mg", Frequency: "tid", Duration: "5d"},
		},
		FollowUpDate: &followUp,
	})
	require.NoError(t, err)
	assert.Equal(t, "rest", got.Notes)
	assert.Equal(t, "mild flu", got.Diagnosis)
	require.Len(t, got.Prescription, 1)
	require.NotNil(t, got.FollowUpDate)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), *got.FollowUpDate)

	_, err = f.mgr.UpdateStatus(context.Background(), a.ID, f.clinician, appointment.StatusUpdate{
		Status:       appointment.StatusCompleted,
		Prescription: []appointment.Prescription{{Medication: "x"}},
	})
	assert.ErrorIs(t, err, appointment.ErrValidation)
}

func TestUpdateStatusIllegalTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "10:00", "10:30")
	cancelled, err := f.mgr.Cancel(ctx, a.ID, f.clinician, "clinic closed")
	require.NoError(t, err)

	_, err = f.mgr.UpdateStatus(ctx, a.ID, f.clinician, appointment.StatusUpdate{Status: appointment.StatusCompleted})
	require.ErrorIs(t, err, appointment.ErrInvalidTransition)

	got, err := f.mgr.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, cancelled.Status(), got.Status())
	assert.Equal(t, cancelled.UpdatedAt, got.UpdatedAt)

	b := f.book(t, "11:00", "11:30")
	f.setStatus(t, b.ID, appointment.StatusCompleted)
	_, err = f.mgr.UpdateStatus(ctx, b.ID, f.clinician, appointment.StatusUpdate{Status: appointment.StatusPending})
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition)
}

func TestUpdateStatusForbiddenForPatient(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")

	_, err := f.mgr.UpdateStatus(context.Background(), a.ID, f.patient, appointment.StatusUpdate{Status: appointment.StatusConfirmed})
	assert.ErrorIs(t, err, appointment.ErrForbidden)
}

func TestCancelRefundsPaidPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := f.book(t, "10:00", "10:30")
	f.pay(t, paid.ID)
	got, err := f.mgr.Cancel(ctx, paid.ID, f.patient, "travel")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, got.Status())
	assert.Equal(t, appointment.PaymentRefunded, got.Payment.Status)
	require.NotNil(t, got.CancelledBy)
	assert.Equal(t, f.patient, *got.CancelledBy)
	require.NotNil(t, got.CancelReason)
	assert.Equal(t, "travel", *got.CancelReason)

	unpaid := f.book(t, "11:00", "11:30")
	got, err = f.mgr.Cancel(ctx, unpaid.ID, f.clinician, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.PaymentPending, got.Payment.Status)
	assert.Nil(t, got.CancelReason)
}

func TestCancelGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "10:00", "10:30")

	_, err := f.mgr.Cancel(ctx, a.ID, uuid.New(), "")
	assert.ErrorIs(t, err, appointment.ErrForbidden)

	_, err = f.mgr.Cancel(ctx, a.ID, f.patient, "")
	require.NoError(t, err)

	_, err = f.mgr.Cancel(ctx, a.ID, f.patient, "")
	assert.ErrorIs(t, err, appointment.ErrAlreadyTerminal)

	b := f.book(t, "11:00", "11:30")
	f.setStatus(t, b.ID, appointment.StatusCompleted)
	_, err = f.mgr.Cancel(ctx, b.ID, f.patient, "")
	assert.ErrorIs(t, err, appointment.ErrAlreadyTerminal)

	_, err = f.mgr.Cancel(ctx, uuid.New(), f.patient, "")
	assert.ErrorIs(t, err, appointment.ErrNotFound)
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "10:00", "10:30")

	_, err := f.mgr.RecordPayment(ctx, a.ID, appointment.PaymentRefunded, "")
	assert.ErrorIs(t, err, appointment.ErrValidation)

	got, err := f.mgr.RecordPayment(ctx, a.ID, appointment.PaymentFailed, "txn_1")
	require.NoError(t, err)
	assert.Equal(t, appointment.PaymentFailed, got.Payment.Status)
	assert.Nil(t, got.Payment.PaidAt)
	assert.Equal(t, appointment.StatusPending, got.Status())

	got, err = f.mgr.RecordPayment(ctx, a.ID, appointment.PaymentPaid, "txn_2")
	require.NoError(t, err)
	assert.Equal(t, appointment.PaymentPaid, got.Payment.Status)
	require.NotNil(t, got.Payment.PaidAt)
	require.NotNil(t, got.Payment.TransactionID)
	assert.Equal(t, "txn_2", *got.Payment.TransactionID)

	_, err = f.mgr.Cancel(ctx, a.ID, f.patient, "")
	require.NoError(t, err)

	_, err = f.mgr.RecordPayment(ctx, a.ID, appointment.PaymentPaid, "txn_3")
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition)
}

func TestRecordPaymentOnCancelledIsRefunded(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")
	_, err := f.mgr.Cancel(context.Background(), a.ID, f.patient, "")
	require.NoError(t, err)

	got, err := f.mgr.RecordPayment(context.Background(), a.ID, appointment.PaymentPaid, "late_txn")
	require.NoError(t, err)
	assert.Equal(t, appointment.PaymentRefunded, got.Payment.Status)
}

func TestFeeSnapshotIsStable(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00", "10:30")

	// later bookings carry whatever fee the clinician charges then
	_, err := f.mgr.Create(context.Background(), appointment.NewAppointment{
		ClinicianID: f.clinician,
		PatientID:   f.patient,
		Date:        bookingDate,
		Slot:        slot(t, "11:00", "11:30"),
		Reason:      "second visit",
		Fee:         2500,
	})
	require.NoError(t, err)

	f.setStatus(t, a.ID, appointment.StatusConfirmed)
	f.pay(t, a.ID)
	f.setStatus(t, a.ID, appointment.StatusCompleted)

	got, err := f.mgr.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.Fee())
	assert.Equal(t, int64(1500), f.store.Earnings()[0].Amount)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	for _, s := range [][2]string{{"09:00", "09:30"}, {"10:00", "10:30"}, {"11:00", "11:30"}} {
		f.book(t, s[0], s[1])
	}

	page, total, err := f.mgr.List(context.Background(), appointment.ListFilter{ClinicianID: &f.clinician, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "11:00-11:30", page[0].Slot().String())

	page, _, err = f.mgr.List(context.Background(), appointment.ListFilter{ClinicianID: &f.clinician, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "09:00-09:30", page[0].Slot().String())
}

func TestStorageFailureIsNotBusinessError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("database is down")
	f.store.FailNext = boom

	_, err := f.mgr.Create(context.Background(), appointment.NewAppointment{
		ClinicianID: f.clinician,
		PatientID:   f.patient,
		Date:        bookingDate,
		Slot:        slot(t, "10:00", "10:30"),
		Reason:      "checkup",
	})
	assert.ErrorIs(t, err, boom)
	_, isBusiness := appointment.KindOf(err)
	assert.False(t, isBusiness)
}

type busyLocker struct{ err error }

func (l busyLocker) WithLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

func TestDayLockOutcomes(t *testing.T) {
	logger := zaptest.NewLogger(t)
	clock := appointment.WithClock(func() time.Time { return fixedNow })
	req := appointment.NewAppointment{
		ClinicianID: uuid.New(),
		PatientID:   uuid.New(),
		Date:        bookingDate,
		Slot:        appointment.Slot{Start: 600, End: 630},
		Reason:      "checkup",
	}

	contended := appointment.NewManager(apptest.New(), busyLocker{err: redisclient.ErrLockNotAcquired}, nil, config.Config{}, logger, clock)
	_, err := contended.Create(context.Background(), req)
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)
	assert.True(t, appointment.IsRetryable(err))
	var bizErr *appointment.Error
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, "booking_lock", bizErr.Field)

	down := appointment.NewManager(apptest.New(), busyLocker{err: redisclient.ErrLockUnavailable}, nil, config.Config{}, logger, clock)
	a, err := down.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusPending, a.Status())

	// a real overlap is final
	_, err = down.Create(context.Background(), req)
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)
	assert.False(t, appointment.IsRetryable(err))
}

func TestTodayUsesCanonicalZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on May 31 is June 1 in Tokyo, so June 1 is no longer in the future
	late := time.Date(2024, 5, 31, 20, 0, 0, 0, time.UTC)
	mgr := appointment.NewManager(apptest.New(), nil, nil, config.Config{Location: tokyo}, zaptest.NewLogger(t),
		appointment.WithClock(func() time.Time { return late }))

	assert.Equal(t, bookingDate, mgr.Today())
	_, err = mgr.Create(context.Background(), appointment.NewAppointment{
		ClinicianID: uuid.New(),
		PatientID:   uuid.New(),
		Date:        bookingDate,
		Slot:        appointment.Slot{Start: 600, End: 630},
		Reason:      "checkup",
	})
	assert.ErrorIs(t, err, appointment.ErrValidation)
}
