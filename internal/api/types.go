package api

import (
	"time"

	"github.com/clinicdesk/appointment-booking/internal/booking"
)

type CreateBookingRequest struct {
	PatientID string `json:"patient_id"`
	Doctor    string `json:"doctor"` // doctor id or display name

	// Either slot_index picks a slot from the doctor directory, or the
	// explicit time fields below are used as-is.
	SlotIndex *int `json:"slot_index,omitempty"`

	Date         string `json:"date,omitempty"`
	SlotStart    string `json:"slot_start,omitempty"`
	SlotEnd      string `json:"slot_end,omitempty"`
	DurationMins string `json:"duration_mins,omitempty"`

	Status            string `json:"status,omitempty"`
	InsuranceCarrier  string `json:"insurance_carrier,omitempty"`
	InsuranceMemberID string `json:"insurance_member_id,omitempty"`
	CancelReason      string `json:"cancel_reason,omitempty"`
	CalendlyEventLink string `json:"calendly_event_link,omitempty"`
}

type BookingResponse struct {
	BookingID         int        `json:"booking_id"`
	PatientID         string     `json:"patient_id"`
	PatientName       string     `json:"patient_name"`
	PatientPhone      string     `json:"patient_phone,omitempty"`
	PatientEmail      string     `json:"patient_email,omitempty"`
	MedicalHistory    string     `json:"medical_history,omitempty"`
	InsuranceCarrier  string     `json:"insurance_carrier,omitempty"`
	InsuranceMemberID string     `json:"insurance_member_id,omitempty"`
	DoctorID          string     `json:"doctor_id"`
	DoctorName        string     `json:"doctor_name"`
	Date              string     `json:"date,omitempty"`
	SlotStart         string     `json:"slot_start,omitempty"`
	SlotEnd           string     `json:"slot_end,omitempty"`
	DurationMins      string     `json:"duration_mins,omitempty"`
	Status            string     `json:"status"`
	CancelReason      string     `json:"cancel_reason,omitempty"`
	CalendlyEventLink string     `json:"calendly_event_link,omitempty"`
	FormStatus        string     `json:"form_status"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

type AttachFormResponse struct {
	BookingID  int    `json:"booking_id"`
	StoredPath string `json:"stored_path"`
	FormStatus string `json:"form_status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toBookingResponse(b booking.Booking) BookingResponse {
	resp := BookingResponse{
		BookingID:         b.BookingID,
		PatientID:         b.PatientID,
		PatientName:       b.PatientName,
		PatientPhone:      b.PatientPhone,
		PatientEmail:      b.PatientEmail,
		MedicalHistory:    b.MedicalHistory,
		InsuranceCarrier:  b.InsuranceCarrier,
		InsuranceMemberID: b.InsuranceMemberID,
		DoctorID:          b.DoctorID,
		DoctorName:        b.DoctorName,
		Date:              b.Date,
		SlotStart:         b.SlotStart,
		SlotEnd:           b.SlotEnd,
		DurationMins:      b.DurationMins,
		Status:            string(b.Status),
		CancelReason:      b.CancelReason,
		CalendlyEventLink: b.CalendlyEventLink,
		FormStatus:        string(b.FormStatus),
	}
	if !b.CreatedAt.IsZero() {
		t := b.CreatedAt
		resp.CreatedAt = &t
	}
	return resp
}
