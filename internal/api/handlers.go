package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/appointment-lifecycle/internal/appointment"
	"github.com/hackgods/appointment-lifecycle/internal/identity"
	"github.com/hackgods/appointment-lifecycle/internal/scheduling"
)

var errBadBody = appointment.Validation("body", "could not parse JSON")

func createAppointmentHandler(svc *scheduling.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeServiceError(w, errBadBody)
			return
		}

		clinicianID, err := uuid.Parse(req.ClinicianID)
		if err != nil {
			writeServiceError(w, appointment.Validation("clinician_id", "clinician_id must be a valid UUID"))
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), callerFrom(r), scheduling.CreateRequest{
			ClinicianID: clinicianID,
			Date:        req.Date,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Type:        req.AppointmentType,
			Reason:      req.ReasonForVisit,
			Symptoms:    req.Symptoms,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *scheduling.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, limit, ok := pageParams(w, r)
		if !ok {
			return
		}

		result, err := svc.GetAppointments(r.Context(), callerFrom(r), scheduling.ListQuery{
			Status: q.Get("status"),
			From:   q.Get("from"),
			To:     q.Get("to"),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := PageResponse[AppointmentResponse]{
			Items: make([]AppointmentResponse, 0, len(result.Items)),
			Total: result.Total,
			Page:  result.Page,
			Limit: result.Limit,
		}
		for i := range result.Items {
			resp.Items = append(resp.Items, toAppointmentResponse(&result.Items[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *scheduling.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), callerFrom(r), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateStatusHandler(svc *scheduling.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeServiceError(w, errBadBody)
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), callerFrom(r), id, scheduling.StatusRequest{
			Status:       req.Status,
			Notes:        req.Notes,
			Diagnosis:    req.Diagnosis,
			Prescription: req.Prescription,
			FollowUpDate: req.FollowUpDate,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *scheduling.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		// the body is optional
		var req CancelRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeServiceError(w, errBadBody)
				return
			}
		}

		appt, err := svc.CancelAppointment(r.Context(), callerFrom(r), id, req.Reason)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *scheduling.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeServiceError(w, errBadBody)
			return
		}

		appt, err := svc.RescheduleAppointment(r.Context(), callerFrom(r), id, scheduling.RescheduleRequest{
			Date:      req.Date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func recordPaymentHandler(svc *scheduling.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req PaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeServiceError(w, errBadBody)
			return
		}

		appt, err := svc.RecordPayment(r.Context(), callerFrom(r), id, req.Status, req.TransactionID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listEarningsHandler(svc *scheduling.Facade) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit, ok := pageParams(w, r)
		if !ok {
			return
		}

		result, err := svc.ListEarnings(r.Context(), callerFrom(r), page, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := PageResponse[EarningResponse]{
			Items: make([]EarningResponse, 0, len(result.Items)),
			Total: result.Total,
			Page:  result.Page,
			Limit: result.Limit,
		}
		for _, e := range result.Items {
			resp.Items = append(resp.Items, toEarningResponse(e))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, appointment.Validation("id", "id must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &page}, {"limit", &limit}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeServiceError(w, appointment.Validation(p.name, p.name+" must be a non-negative integer"))
			return 0, 0, false
		}
		*p.dst = n
	}
	return page, limit, true
}

// callerFrom is only called behind the auth middleware.
func callerFrom(r *http.Request) identity.Caller {
	c, _ := identity.FromContext(r.Context())
	return c
}
