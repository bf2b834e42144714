package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/appointment-booking/internal/booking"
	"github.com/clinicdesk/appointment-booking/internal/lock"
)

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.PatientID == "" {
			writeError(w, http.StatusBadRequest, "missing_patient_id", "patient_id is required")
			return
		}
		if req.Doctor == "" {
			writeError(w, http.StatusBadRequest, "missing_doctor", "doctor is required")
			return
		}

		in := booking.CreateBookingInput{
			PatientID:         req.PatientID,
			DoctorRef:         req.Doctor,
			SlotIndex:         req.SlotIndex,
			Date:              req.Date,
			SlotStart:         req.SlotStart,
			SlotEnd:           req.SlotEnd,
			DurationMins:      req.DurationMins,
			Status:            booking.Status(req.Status),
			InsuranceCarrier:  req.InsuranceCarrier,
			InsuranceMemberID: req.InsuranceMemberID,
			CancelReason:      req.CancelReason,
			CalendlyEventLink: req.CalendlyEventLink,
		}

		id, err := svc.CreateBooking(r.Context(), in)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		b, err := svc.GetBooking(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(*b))
	}
}

func listBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookings, err := svc.ListBookings(r.Context())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]BookingResponse, 0, len(bookings))
		for _, b := range bookings {
			resp = append(resp, toBookingResponse(b))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		b, err := svc.GetBooking(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(*b))
	}
}

func confirmBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		b, err := svc.ConfirmBooking(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(*b))
	}
}

const maxFormUploadBytes = 32 << 20

func attachFormHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookingIDParam(w, r)
		if !ok {
			return
		}

		if err := r.ParseMultipartForm(maxFormUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_multipart_body", "could not parse multipart form")
			return
		}

		file, header, err := r.FormFile("form")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing_form_file", "multipart field 'form' is required")
			return
		}
		defer file.Close()

		path, err := svc.AttachForm(r.Context(), id, file, header.Filename)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, AttachFormResponse{
			BookingID:  id,
			StoredPath: path,
			FormStatus: string(booking.FormUploaded),
		})
	}
}

func bookingIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func handleBookingError(w http.ResponseWriter, err error) {
	var schemaErr *booking.SchemaError

	switch {
	case errors.Is(err, booking.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrLedgerNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, lock.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "ledger_busy", "the booking ledger is locked by another writer, please retry")
	case errors.As(err, &schemaErr):
		writeError(w, http.StatusUnprocessableEntity, "schema_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
