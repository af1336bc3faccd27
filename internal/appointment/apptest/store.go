// Package apptest provides an in-memory appointment.Store for tests.
package apptest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
	"github.com/hackgods/appointment-lifecycle/internal/earnings"
)

// Store keeps appointments, events and earnings in maps. Transactions run one at a time
// against a copy that is swapped in on success, mirroring serializable storage. Inserts
// enforce the same overlap and one-earning-per-appointment constraints as Postgres.
type Store struct {
	mu    sync.Mutex
	state state

	// FailNext, when set, is returned by the next WithTx before fn runs.
	FailNext error
}

type state struct {
	appointments map[uuid.UUID]appointment.Appointment
	earnings     map[uuid.UUID]earnings.Earning
	events       []appointment.EventLog
}

func (s state) clone() state {
	c := state{
		appointments: make(map[uuid.UUID]appointment.Appointment, len(s.appointments)),
		earnings:     make(map[uuid.UUID]earnings.Earning, len(s.earnings)),
		events:       append([]appointment.EventLog(nil), s.events...),
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.earnings {
		c.earnings[k] = v
	}
	return c
}

func New() *Store {
	return &Store{state: state{
		appointments: map[uuid.UUID]appointment.Appointment{},
		earnings:     map[uuid.UUID]earnings.Earning{},
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx appointment.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNext; err != nil {
		s.FailNext = nil
		return err
	}

	tx := &memTx{state: s.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *Store) GetAppointment(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.state.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (s *Store) ListAppointments(_ context.Context, f appointment.ListFilter) ([]appointment.Appointment, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []appointment.Appointment
	for _, a := range s.state.appointments {
		if matches(a, f) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date().Equal(matched[j].Date()) {
			return matched[i].Date().After(matched[j].Date())
		}
		return matched[i].Slot().Start > matched[j].Slot().Start
	})

	total := len(matched)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if f.Limit <= 0 || end > total {
		end = total
	}
	return matched[f.Offset:end], total, nil
}

func matches(a appointment.Appointment, f appointment.ListFilter) bool {
	switch {
	case f.ClinicianID != nil && a.ClinicianID != *f.ClinicianID:
		return false
	case f.PatientID != nil && a.PatientID != *f.PatientID:
		return false
	case f.Status != nil && a.Status() != *f.Status:
		return false
	case f.From != nil && a.Date().Before(*f.From):
		return false
	case f.To != nil && a.Date().After(*f.To):
		return false
	}
	return true
}

// Events returns a copy of the committed event log.
func (s *Store) Events() []appointment.EventLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appointment.EventLog(nil), s.state.events...)
}

// Earnings returns committed earnings in no particular order.
func (s *Store) Earnings() []earnings.Earning {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]earnings.Earning, 0, len(s.state.earnings))
	for _, e := range s.state.earnings {
		out = append(out, e)
	}
	return out
}

// ListByClinician mirrors earnings.PgRepository for facade tests.
func (s *Store) ListByClinician(_ context.Context, clinicianID uuid.UUID, limit, offset int) ([]earnings.Earning, int, error) {
	var out []earnings.Earning
	for _, e := range s.Earnings() {
		if e.ClinicianID == clinicianID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return out[offset:end], total, nil
}

type memTx struct {
	state state
}

func (t *memTx) GetAppointmentForUpdate(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := t.state.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (t *memTx) ListBlockingForDay(_ context.Context, clinicianID uuid.UUID, date time.Time) ([]appointment.Appointment, error) {
	var out []appointment.Appointment
	for _, a := range t.state.appointments {
		if a.ClinicianID == clinicianID && a.Date().Equal(date) && a.Status().Blocks() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *memTx) InsertAppointment(_ context.Context, a *appointment.Appointment) error {
	if err := t.checkOverlap(a); err != nil {
		return err
	}
	t.state.appointments[a.ID] = *a
	return nil
}

func (t *memTx) UpdateAppointment(_ context.Context, a *appointment.Appointment, from appointment.AppointmentStatus) error {
	stored, ok := t.state.appointments[a.ID]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	if stored.Status() != from {
		return &appointment.Error{Kind: appointment.KindInvalidTransition, Field: "status", Message: "stale status"}
	}
	if err := t.checkOverlap(a); err != nil {
		return err
	}
	t.state.appointments[a.ID] = *a
	return nil
}

// checkOverlap plays the role of the appointments_no_overlap exclusion constraint.
func (t *memTx) checkOverlap(a *appointment.Appointment) error {
	if !a.Status().Blocks() {
		return nil
	}
	for _, other := range t.state.appointments {
		if other.ID == a.ID || other.ClinicianID != a.ClinicianID || !other.Date().Equal(a.Date()) {
			continue
		}
		if other.Status().Blocks() && other.Slot().Overlaps(a.Slot()) {
			return appointment.SlotUnavailable(a.Date().Format(time.DateOnly), a.Slot(), "slot was taken by a concurrent booking")
		}
	}
	return nil
}

func (t *memTx) InsertEvent(_ context.Context, ev appointment.EventLog) error {
	ev.ID = int64(len(t.state.events) + 1)
	t.state.events = append(t.state.events, ev)
	return nil
}

func (t *memTx) Earnings() earnings.Writer {
	return earningsWriter{t}
}

type earningsWriter struct {
	tx *memTx
}

func (w earningsWriter) InsertEarning(_ context.Context, e *earnings.Earning) error {
	if e.AppointmentID != nil {
		if _, ok := w.tx.state.earnings[*e.AppointmentID]; ok {
			return earnings.ErrAlreadyPosted
		}
		w.tx.state.earnings[*e.AppointmentID] = *e
		return nil
	}
	w.tx.state.earnings[e.ID] = *e
	return nil
}
