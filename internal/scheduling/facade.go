// Package scheduling is the boundary collaborators call. It resolves callers to
// profiles, normalizes dates, authorizes by role and hands off to the lifecycle
// manager. Business failures come back as *appointment.Error; anything else is
// logged and returned as ErrInternal.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
	"github.com/hackgods/appointment-lifecycle/internal/earnings"
	"github.com/hackgods/appointment-lifecycle/internal/identity"
	"github.com/hackgods/appointment-lifecycle/internal/metrics"
	"github.com/hackgods/appointment-lifecycle/internal/profile"
)

// ErrInternal hides storage and other unexpected failures from callers.
var ErrInternal = errors.New("internal error")

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Profiles interface {
	ClinicianByID(ctx context.Context, id uuid.UUID) (*profile.Clinician, error)
	ClinicianByUserID(ctx context.Context, userID uuid.UUID) (*profile.Clinician, error)
	PatientByUserID(ctx context.Context, userID uuid.UUID) (*profile.Patient, error)
}

type HoursChecker interface {
	IsWithinPublishedHours(ctx context.Context, clinicianID uuid.UUID, date time.Time, slot appointment.Slot) (bool, error)
}

type EarningsReader interface {
	ListByClinician(ctx context.Context, clinicianID uuid.UUID, limit, offset int) ([]earnings.Earning, int, error)
}

type Facade struct {
	mgr          *appointment.Manager
	profiles     Profiles
	hours        HoursChecker
	earnings     EarningsReader
	enforceHours bool
	log          *zap.Logger
	metrics      *metrics.Scheduling
}

type Deps struct {
	Manager  *appointment.Manager
	Profiles Profiles
	Hours    HoursChecker
	Earnings EarningsReader
	// EnforceHours rejects bookings outside the clinician's published weekly hours.
	EnforceHours bool
	Logger       *zap.Logger
	Metrics      *metrics.Scheduling
}

func New(d Deps) *Facade {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Facade{
		mgr:          d.Manager,
		profiles:     d.Profiles,
		hours:        d.Hours,
		earnings:     d.Earnings,
		enforceHours: d.EnforceHours && d.Hours != nil,
		log:          logger,
		metrics:      d.Metrics,
	}
}

type CreateRequest struct {
	ClinicianID uuid.UUID
	Date        string // YYYY-MM-DD, or an RFC 3339 instant collapsed to its date
	StartTime   string // HH:MM
	EndTime     string
	Type        string
	Reason      string
	Symptoms    []string
}

type ListQuery struct {
	Status string
	From   string
	To     string
	Page   int
	Limit  int
}

type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

type StatusRequest struct {
	Status       string
	Notes        *string
	Diagnosis    *string
	Prescription []appointment.Prescription
	FollowUpDate *string
}

type RescheduleRequest struct {
	Date      string
	StartTime string
	EndTime   string
}

// CreateAppointment books a slot for the calling patient at the clinician's current fee.
func (f *Facade) CreateAppointment(ctx context.Context, caller identity.Caller, req CreateRequest) (appt *appointment.Appointment, err error) {
	defer f.observe("create", time.Now(), &err)

	if caller.Role != identity.RolePatient {
		return nil, appointment.Forbidden("only patients can book appointments")
	}
	patient, err := f.profiles.PatientByUserID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	clinician, err := f.profiles.ClinicianByID(ctx, req.ClinicianID)
	if err != nil {
		return nil, err
	}

	date, err := f.parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	slot, err := appointment.NewSlot(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if f.enforceHours {
		if err := f.checkHours(ctx, clinician.ID, date, slot); err != nil {
			return nil, err
		}
	}

	return f.mgr.Create(ctx, appointment.NewAppointment{
		ClinicianID: clinician.ID,
		PatientID:   patient.ID,
		Date:        date,
		Slot:        slot,
		Type:        appointment.AppointmentType(req.Type),
		Reason:      req.Reason,
		Symptoms:    req.Symptoms,
		Fee:         clinician.ConsultationFee,
	})
}

// GetAppointments lists the caller's own appointments. Admins see all of them.
func (f *Facade) GetAppointments(ctx context.Context, caller identity.Caller, q ListQuery) (page Page[appointment.Appointment], err error) {
	defer f.observe("list", time.Now(), &err)

	filter := appointment.ListFilter{}
	switch caller.Role {
	case identity.RoleAdmin:
	case identity.RoleClinician, identity.RolePatient:
		id, err := f.profileID(ctx, caller)
		if err != nil {
			return Page[appointment.Appointment]{}, err
		}
		if caller.Role == identity.RoleClinician {
			filter.ClinicianID = &id
		} else {
			filter.PatientID = &id
		}
	default:
		return Page[appointment.Appointment]{}, appointment.Forbidden("role cannot list appointments")
	}

	if q.Status != "" {
		st, err := appointment.ParseStatus(q.Status)
		if err != nil {
			return Page[appointment.Appointment]{}, err
		}
		filter.Status = &st
	}
	if q.From != "" {
		from, err := f.parseDate("from", q.From)
		if err != nil {
			return Page[appointment.Appointment]{}, err
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := f.parseDate("to", q.To)
		if err != nil {
			return Page[appointment.Appointment]{}, err
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return Page[appointment.Appointment]{}, appointment.Validation("to", "to must not be before from")
	}

	pageNum, limit := paginate(q.Page, q.Limit)
	filter.Limit = limit
	filter.Offset = (pageNum - 1) * limit

	items, total, err := f.mgr.List(ctx, filter)
	if err != nil {
		return Page[appointment.Appointment]{}, err
	}
	return Page[appointment.Appointment]{Items: items, Total: total, Page: pageNum, Limit: limit}, nil
}

func (f *Facade) GetAppointment(ctx context.Context, caller identity.Caller, id uuid.UUID) (appt *appointment.Appointment, err error) {
	defer f.observe("get", time.Now(), &err)

	appt, err = f.mgr.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == identity.RoleAdmin {
		return appt, nil
	}

	actor, err := f.profileID(ctx, caller)
	if err != nil {
		return nil, err
	}
	if actor != appt.ClinicianID && actor != appt.PatientID {
		return nil, appointment.Forbidden("caller is neither the clinician nor the patient of record")
	}
	return appt, nil
}

// UpdateStatus is restricted to the clinician of record.
func (f *Facade) UpdateStatus(ctx context.Context, caller identity.Caller, id uuid.UUID, req StatusRequest) (appt *appointment.Appointment, err error) {
	defer f.observe("update_status", time.Now(), &err)

	if caller.Role != identity.RoleClinician {
		return nil, appointment.Forbidden("only clinicians can change appointment status")
	}
	status, err := appointment.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	upd := appointment.StatusUpdate{
		Status:       status,
		Notes:        req.Notes,
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
	}
	if req.FollowUpDate != nil && *req.FollowUpDate != "" {
		d, err := f.parseDate("follow_up_date", *req.FollowUpDate)
		if err != nil {
			return nil, err
		}
		upd.FollowUpDate = &d
	}

	actor, err := f.profileID(ctx, caller)
	if err != nil {
		return nil, err
	}
	return f.mgr.UpdateStatus(ctx, id, actor, upd)
}

func (f *Facade) CancelAppointment(ctx context.Context, caller identity.Caller, id uuid.UUID, reason string) (appt *appointment.Appointment, err error) {
	defer f.observe("cancel", time.Now(), &err)

	actor, err := f.partyID(ctx, caller)
	if err != nil {
		return nil, err
	}
	return f.mgr.Cancel(ctx, id, actor, reason)
}

func (f *Facade) RescheduleAppointment(ctx context.Context, caller identity.Caller, id uuid.UUID, req RescheduleRequest) (appt *appointment.Appointment, err error) {
	defer f.observe("reschedule", time.Now(), &err)

	actor, err := f.partyID(ctx, caller)
	if err != nil {
		return nil, err
	}
	date, err := f.parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	slot, err := appointment.NewSlot(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	// published hours are checked by the manager after the party and terminal guards
	var checks []appointment.SlotCheck
	if f.enforceHours {
		checks = append(checks, f.checkHours)
	}
	return f.mgr.Reschedule(ctx, id, actor, date, slot, checks...)
}

func (f *Facade) checkHours(ctx context.Context, clinicianID uuid.UUID, date time.Time, slot appointment.Slot) error {
	ok, err := f.hours.IsWithinPublishedHours(ctx, clinicianID, date, slot)
	if err != nil {
		return err
	}
	if !ok {
		return appointment.SlotUnavailable(date.Format(time.DateOnly), slot, "outside the clinician's published hours")
	}
	return nil
}

// RecordPayment is the payment collaborator's entry point.
func (f *Facade) RecordPayment(ctx context.Context, caller identity.Caller, id uuid.UUID, status, transactionID string) (appt *appointment.Appointment, err error) {
	defer f.observe("record_payment", time.Now(), &err)

	if caller.Role != identity.RoleService && caller.Role != identity.RoleAdmin {
		return nil, appointment.Forbidden("only the payment service can record payments")
	}
	ps, err := appointment.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}
	return f.mgr.RecordPayment(ctx, id, ps, transactionID)
}

// ListEarnings returns the calling clinician's earnings, newest first.
func (f *Facade) ListEarnings(ctx context.Context, caller identity.Caller, page, limit int) (out Page[earnings.Earning], err error) {
	defer f.observe("list_earnings", time.Now(), &err)

	if caller.Role != identity.RoleClinician {
		return Page[earnings.Earning]{}, appointment.Forbidden("only clinicians have earnings")
	}
	clinician, err := f.profiles.ClinicianByUserID(ctx, caller.ID)
	if err != nil {
		return Page[earnings.Earning]{}, err
	}

	pageNum, limit := paginate(page, limit)
	items, total, err := f.earnings.ListByClinician(ctx, clinician.ID, limit, (pageNum-1)*limit)
	if err != nil {
		return Page[earnings.Earning]{}, fmt.Errorf("list earnings: %w", err)
	}
	return Page[earnings.Earning]{Items: items, Total: total, Page: pageNum, Limit: limit}, nil
}

// partyID resolves a clinician or patient caller to the profile id stored on appointments.
func (f *Facade) partyID(ctx context.Context, caller identity.Caller) (uuid.UUID, error) {
	if caller.Role != identity.RoleClinician && caller.Role != identity.RolePatient {
		return uuid.Nil, appointment.Forbidden("only the clinician or patient of record can do this")
	}
	return f.profileID(ctx, caller)
}

func (f *Facade) profileID(ctx context.Context, caller identity.Caller) (uuid.UUID, error) {
	switch caller.Role {
	case identity.RoleClinician:
		c, err := f.profiles.ClinicianByUserID(ctx, caller.ID)
		if err != nil {
			return uuid.Nil, err
		}
		return c.ID, nil
	case identity.RolePatient:
		p, err := f.profiles.PatientByUserID(ctx, caller.ID)
		if err != nil {
			return uuid.Nil, err
		}
		return p.ID, nil
	}
	return uuid.Nil, appointment.Forbidden(fmt.Sprintf("role %q has no profile", caller.Role))
}

// parseDate accepts YYYY-MM-DD, or an RFC 3339 instant collapsed to its calendar
// date in the canonical zone.
func (f *Facade) parseDate(field, s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return appointment.DateOf(t, f.mgr.Location()), nil
	}
	return time.Time{}, appointment.Validation(field, fmt.Sprintf("%q is not a date (YYYY-MM-DD)", s))
}

func paginate(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// observe records the outcome and replaces unexpected errors with ErrInternal.
func (f *Facade) observe(op string, start time.Time, errp *error) {
	err := *errp
	outcome := "ok"

	if err != nil {
		if kind, ok := appointment.KindOf(err); ok {
			outcome = string(kind)
			f.log.Debug("scheduling request rejected",
				zap.String("operation", op),
				zap.String("kind", outcome),
				zap.Error(err),
			)
		} else {
			outcome = "internal"
			f.log.Error("scheduling request failed",
				zap.String("operation", op),
				zap.Error(err),
			)
			*errp = ErrInternal
		}
	}

	f.metrics.ObserveOperation(op, outcome, time.Since(start).Seconds())
}
