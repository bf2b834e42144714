package booking

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

type FormStatus string

const (
	FormNone     FormStatus = ""
	FormPending  FormStatus = "pending"
	FormUploaded FormStatus = "uploaded"
)

// Patient is a read-only record from the patient directory. Its fields are
// snapshotted into the booking row at creation time, so later directory
// edits never change past bookings.
type Patient struct {
	ID                string
	Name              string
	Phone             string
	Email             string
	MedicalHistory    string
	InsuranceCarrier  string
	InsuranceMemberID string
}

// Doctor is the minimal identity every doctor row must expose.
type Doctor struct {
	ID        string
	Name      string
	Specialty string
	Location  string
}

// DoctorSlot is one bookable time window offered by a doctor.
type DoctorSlot struct {
	DoctorID     string
	DoctorName   string
	Date         string
	SlotStart    string
	SlotEnd      string
	DurationMins string
}

// Booking is one row of the persisted ledger.
type Booking struct {
	BookingID         int
	PatientID         string
	PatientName       string
	PatientPhone      string
	PatientEmail      string
	MedicalHistory    string
	InsuranceCarrier  string
	InsuranceMemberID string
	DoctorID          string
	DoctorName        string
	Date              string
	SlotStart         string
	SlotEnd           string
	DurationMins      string
	Status            Status
	CancelReason      string
	CalendlyEventLink string
	FormStatus        FormStatus
	CreatedAt         time.Time
}

// requiredColumns is the declared schema of the ledger table. Every
// persisted row carries every one of these columns; tables written by older
// builds are back-filled with empty strings on load.
var requiredColumns = []string{
	"booking_id",
	"patient_id",
	"patient_name",
	"patient_phone",
	"patient_email",
	"medical_history",
	"insurance_carrier",
	"insurance_member_id",
	"doctor_id",
	"doctor_name",
	"date",
	"slot_start",
	"slot_end",
	"duration_mins",
	"status",
	"cancel_reason",
	"calendly_event_link",
	"form_status",
	"created_at",
}
