package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/clinicdesk/appointment-booking/internal/lock"
)

// FormStore is where uploaded intake forms end up. Implemented by
// internal/forms.
type FormStore interface {
	Save(bookingID int, filename string, src io.Reader) (string, error)
}

type Service struct {
	ledger   *Ledger
	patients PatientDirectory
	doctors  DoctorDirectory
	store    FormStore
	locker   lock.Locker
}

func NewService(ledger *Ledger, patients PatientDirectory, doctors DoctorDirectory, store FormStore, locker lock.Locker) *Service {
	return &Service{
		ledger:   ledger,
		patients: patients,
		doctors:  doctors,
		store:    store,
		locker:   locker,
	}
}

// CreateBookingInput carries everything needed for a new ledger row.
// Either SlotIndex picks a slot from the doctor directory, or the explicit
// Date/SlotStart/SlotEnd/DurationMins fields describe the time directly.
// Auxiliary fields default to empty strings; Status defaults to pending.
type CreateBookingInput struct {
	PatientID string
	DoctorRef string // doctor id or display name

	SlotIndex *int

	Date         string
	SlotStart    string
	SlotEnd      string
	DurationMins string

	Status            Status
	InsuranceCarrier  string // overrides the patient snapshot when set
	InsuranceMemberID string
	CancelReason      string
	CalendlyEventLink string
}

// CreateBooking resolves the patient and the doctor/slot reference,
// snapshots the patient fields into a new row and appends it to the ledger
// under the ledger lock. It returns the assigned booking id. A failed
// lookup never touches the ledger.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (int, error) {
	patient, err := s.patients.GetPatient(ctx, in.PatientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("load patient: %w", err)
	}

	var slot *DoctorSlot
	if in.SlotIndex != nil {
		slot, err = s.LookupDoctorSlot(ctx, in.DoctorRef, *in.SlotIndex)
		if err != nil {
			return 0, err
		}
	} else {
		doctor, err := s.resolveDoctor(ctx, in.DoctorRef)
		if err != nil {
			return 0, err
		}
		slot = &DoctorSlot{
			DoctorID:     doctor.ID,
			DoctorName:   doctor.Name,
			Date:         in.Date,
			SlotStart:    in.SlotStart,
			SlotEnd:      in.SlotEnd,
			DurationMins: in.DurationMins,
		}
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}
	carrier := in.InsuranceCarrier
	if carrier == "" {
		carrier = patient.InsuranceCarrier
	}
	memberID := in.InsuranceMemberID
	if memberID == "" {
		memberID = patient.InsuranceMemberID
	}

	b := Booking{
		PatientID:         patient.ID,
		PatientName:       patient.Name,
		PatientPhone:      patient.Phone,
		PatientEmail:      patient.Email,
		MedicalHistory:    patient.MedicalHistory,
		InsuranceCarrier:  carrier,
		InsuranceMemberID: memberID,
		DoctorID:          slot.DoctorID,
		DoctorName:        slot.DoctorName,
		Date:              slot.Date,
		SlotStart:         slot.SlotStart,
		SlotEnd:           slot.SlotEnd,
		DurationMins:      slot.DurationMins,
		Status:            status,
		CancelReason:      in.CancelReason,
		CalendlyEventLink: in.CalendlyEventLink,
		FormStatus:        FormPending,
		CreatedAt:         time.Now(),
	}

	var id int
	err = s.locker.WithLedgerLock(ctx, func(lockCtx context.Context) error {
		var appendErr error
		id, appendErr = s.ledger.Append(lockCtx, b)
		return appendErr
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// LookupDoctorSlot resolves a doctor reference (id or display name) and
// picks the Nth slot row for that doctor. Selection is purely positional;
// no availability or conflict check is performed.
func (s *Service) LookupDoctorSlot(ctx context.Context, doctorRef string, slotIndex int) (*DoctorSlot, error) {
	slots, err := s.doctors.GetDoctorSlots(ctx, doctorRef)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor slots: %w", err)
	}
	if slotIndex < 0 || slotIndex >= len(slots) {
		return nil, ErrSlotNotFound
	}
	slot := slots[slotIndex]
	return &slot, nil
}

// AttachForm stores an uploaded intake form and marks the booking's
// form_status as uploaded. The booking must exist before any file is
// written, so an unknown id leaves both the ledger and the upload
// directory untouched.
func (s *Service) AttachForm(ctx context.Context, bookingID int, file io.Reader, filename string) (string, error) {
	var storedPath string
	err := s.locker.WithLedgerLock(ctx, func(lockCtx context.Context) error {
		if _, err := s.ledger.Get(lockCtx, bookingID); err != nil {
			return err
		}

		path, err := s.store.Save(bookingID, filename, file)
		if err != nil {
			return fmt.Errorf("store form: %w", err)
		}
		storedPath = path

		return s.ledger.SetFormStatus(lockCtx, bookingID, FormUploaded)
	})
	if err != nil {
		return "", err
	}
	return storedPath, nil
}

// ConfirmBooking moves a pending booking to confirmed.
func (s *Service) ConfirmBooking(ctx context.Context, id int) (*Booking, error) {
	var updated *Booking
	err := s.locker.WithLedgerLock(ctx, func(lockCtx context.Context) error {
		b, err := s.ledger.UpdateStatus(lockCtx, id, StatusPending, StatusConfirmed)
		if err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListBookings dumps the whole ledger for administrative review.
func (s *Service) ListBookings(ctx context.Context) ([]Booking, error) {
	return s.ledger.List(ctx)
}

// GetBooking returns a single ledger row.
func (s *Service) GetBooking(ctx context.Context, id int) (*Booking, error) {
	return s.ledger.Get(ctx, id)
}

// PendingFormBookings returns bookings created before the cutoff whose
// intake form has not been uploaded yet. Used by the reminder worker.
func (s *Service) PendingFormBookings(ctx context.Context, cutoff time.Time) ([]Booking, error) {
	all, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []Booking
	for _, b := range all {
		if b.FormStatus == FormUploaded || b.Status == StatusCancelled {
			continue
		}
		if b.CreatedAt.IsZero() || b.CreatedAt.After(cutoff) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Service) resolveDoctor(ctx context.Context, ref string) (*Doctor, error) {
	doctors, err := s.doctors.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	for _, d := range doctors {
		if d.ID == ref || d.Name == ref {
			return &d, nil
		}
	}
	return nil, ErrDoctorNotFound
}
