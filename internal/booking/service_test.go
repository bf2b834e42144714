package booking

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clinicdesk/appointment-booking/internal/forms"
	"github.com/clinicdesk/appointment-booking/internal/lock"
)

type fakePatients struct {
	patients map[string]Patient
}

func (f *fakePatients) GetPatient(ctx context.Context, id string) (*Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (f *fakePatients) ListPatients(ctx context.Context) ([]Patient, error) {
	out := make([]Patient, 0, len(f.patients))
	for _, p := range f.patients {
		out = append(out, p)
	}
	return out, nil
}

type fakeDoctors struct {
	doctors []Doctor
	slots   map[string][]DoctorSlot // keyed by doctor id
}

func (f *fakeDoctors) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return f.doctors, nil
}

func (f *fakeDoctors) GetDoctorSlots(ctx context.Context, ref string) ([]DoctorSlot, error) {
	for _, d := range f.doctors {
		if d.ID == ref || d.Name == ref {
			return f.slots[d.ID], nil
		}
	}
	return nil, ErrDoctorNotFound
}

type serviceFixture struct {
	svc        *Service
	ledgerPath string
	uploadDir  string
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	dir := t.TempDir()

	patients := &fakePatients{patients: map[string]Patient{
		"1": {
			ID:                "1",
			Name:              "Maria Santos",
			Phone:             "555-0101",
			Email:             "maria@example.com",
			MedicalHistory:    "asthma",
			InsuranceCarrier:  "BlueShield",
			InsuranceMemberID: "MB000123",
		},
		"2": {ID: "2", Name: "Tom Ng"},
	}}

	doctors := &fakeDoctors{
		doctors: []Doctor{
			{ID: "D001", Name: "Dr. Patel", Specialty: "Cardiology"},
			{ID: "D002", Name: "Dr. Lee", Specialty: "Dermatology"},
		},
		slots: map[string][]DoctorSlot{
			"D001": {
				{DoctorID: "D001", DoctorName: "Dr. Patel", Date: "2025-09-06", SlotStart: "09:00", SlotEnd: "09:30", DurationMins: "30"},
				{DoctorID: "D001", DoctorName: "Dr. Patel", Date: "2025-09-06", SlotStart: "10:00", SlotEnd: "10:30", DurationMins: "30"},
			},
		},
	}

	ledgerPath := filepath.Join(dir, "bookings.csv")
	uploadDir := filepath.Join(dir, "uploaded_forms")

	svc := NewService(
		NewLedger(ledgerPath),
		patients,
		doctors,
		forms.NewStore(uploadDir),
		lock.NewMutexLocker(),
	)

	return &serviceFixture{svc: svc, ledgerPath: ledgerPath, uploadDir: uploadDir}
}

func TestCreateBookingScenario(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	id, err := fx.svc.CreateBooking(ctx, CreateBookingInput{
		PatientID: "1",
		DoctorRef: "Dr. Patel",
		Date:      "2025-09-06",
		SlotStart: "10:00",
		SlotEnd:   "10:30",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected booking id 1, got %d", id)
	}

	pdf := []byte("%PDF-1.4 fake intake form")
	path, err := fx.svc.AttachForm(ctx, 1, bytes.NewReader(pdf), "myform.pdf")
	if err != nil {
		t.Fatalf("attach form: %v", err)
	}
	if !strings.HasSuffix(path, "1_myform.pdf") {
		t.Errorf("stored path = %q, want suffix 1_myform.pdf", path)
	}

	stored, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored form: %v", err)
	}
	if !bytes.Equal(stored, pdf) {
		t.Error("stored form bytes differ from upload")
	}

	all, err := fx.svc.ListBookings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(all))
	}
	if all[0].FormStatus != FormUploaded {
		t.Errorf("form_status = %q, want uploaded", all[0].FormStatus)
	}
}

func TestCreateBookingSnapshotsPatient(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	id, err := fx.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "1", DoctorRef: "D001"})
	if err != nil {
		t.Fatal(err)
	}

	b, err := fx.svc.GetBooking(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if b.PatientName != "Maria Santos" || b.PatientPhone != "555-0101" || b.MedicalHistory != "asthma" {
		t.Errorf("patient snapshot incomplete: %+v", b)
	}
	if b.InsuranceCarrier != "BlueShield" || b.InsuranceMemberID != "MB000123" {
		t.Errorf("insurance snapshot incomplete: %+v", b)
	}
	if b.Status != StatusPending {
		t.Errorf("status = %q, want pending by default", b.Status)
	}
	if b.FormStatus != FormPending {
		t.Errorf("form_status = %q, want pending", b.FormStatus)
	}
}

func TestCreateBookingInsuranceOverride(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	id, err := fx.svc.CreateBooking(ctx, CreateBookingInput{
		PatientID:        "1",
		DoctorRef:        "D001",
		InsuranceCarrier: "Cigna",
	})
	if err != nil {
		t.Fatal(err)
	}

	b, _ := fx.svc.GetBooking(ctx, id)
	if b.InsuranceCarrier != "Cigna" {
		t.Errorf("carrier = %q, want override Cigna", b.InsuranceCarrier)
	}
	if b.InsuranceMemberID != "MB000123" {
		t.Errorf("member id = %q, want snapshot value", b.InsuranceMemberID)
	}
}

func TestCreateBookingUnknownPatientLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "404", DoctorRef: "Dr. Patel"})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}

	if _, err := os.Stat(fx.ledgerPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("ledger file was created for a failed booking")
	}
}

func TestCreateBookingUnknownDoctor(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := fx.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "1", DoctorRef: "Dr. Nobody"})
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}

	if _, err := os.Stat(fx.ledgerPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("ledger file was created for a failed booking")
	}
}

func TestLookupDoctorSlotIsPositional(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	slot, err := fx.svc.LookupDoctorSlot(ctx, "Dr. Patel", 1)
	if err != nil {
		t.Fatalf("lookup slot: %v", err)
	}
	if slot.SlotStart != "10:00" {
		t.Errorf("slot_start = %q, want the second row", slot.SlotStart)
	}

	if _, err := fx.svc.LookupDoctorSlot(ctx, "Dr. Patel", 5); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("expected ErrSlotNotFound for out-of-range index, got %v", err)
	}
	if _, err := fx.svc.LookupDoctorSlot(ctx, "Dr. Lee", 0); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("expected ErrSlotNotFound for doctor without slots, got %v", err)
	}
	if _, err := fx.svc.LookupDoctorSlot(ctx, "Dr. Nobody", 0); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestCreateBookingFromSlotIndex(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	idx := 0
	id, err := fx.svc.CreateBooking(ctx, CreateBookingInput{
		PatientID: "2",
		DoctorRef: "D001",
		SlotIndex: &idx,
	})
	if err != nil {
		t.Fatal(err)
	}

	b, _ := fx.svc.GetBooking(ctx, id)
	if b.SlotStart != "09:00" || b.DurationMins != "30" {
		t.Errorf("slot fields not taken from the directory: %+v", b)
	}
}

func TestAttachFormUnknownBooking(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	// No ledger at all yet.
	_, err := fx.svc.AttachForm(ctx, 1, strings.NewReader("x"), "intake.pdf")
	if !errors.Is(err, ErrLedgerNotFound) {
		t.Fatalf("expected ErrLedgerNotFound, got %v", err)
	}

	if _, err := fx.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "1", DoctorRef: "D001"}); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(fx.ledgerPath)
	if err != nil {
		t.Fatal(err)
	}

	_, err = fx.svc.AttachForm(ctx, 99, strings.NewReader("x"), "intake.pdf")
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}

	after, _ := os.ReadFile(fx.ledgerPath)
	if !bytes.Equal(before, after) {
		t.Error("ledger changed on a failed attach")
	}
	if _, err := os.Stat(fx.uploadDir); !errors.Is(err, os.ErrNotExist) {
		t.Error("upload dir was touched on a failed attach")
	}
}

func TestAttachFormOnlyUpdatesTargetRow(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	for i := 0; i < 2; i++ {
		if _, err := fx.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "1", DoctorRef: "D001"}); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := fx.svc.AttachForm(ctx, 2, strings.NewReader("form"), "intake.pdf"); err != nil {
		t.Fatal(err)
	}

	all, _ := fx.svc.ListBookings(ctx)
	if all[0].FormStatus != FormPending {
		t.Errorf("booking 1 form_status = %q, want pending", all[0].FormStatus)
	}
	if all[1].FormStatus != FormUploaded {
		t.Errorf("booking 2 form_status = %q, want uploaded", all[1].FormStatus)
	}
}

func TestAttachFormOverwritesSameFilename(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	if _, err := fx.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "1", DoctorRef: "D001"}); err != nil {
		t.Fatal(err)
	}

	if _, err := fx.svc.AttachForm(ctx, 1, strings.NewReader("first"), "intake.pdf"); err != nil {
		t.Fatal(err)
	}
	path, err := fx.svc.AttachForm(ctx, 1, strings.NewReader("second"), "intake.pdf")
	if err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "second" {
		t.Errorf("stored bytes = %q, want the later upload", got)
	}
}

func TestConfirmBooking(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	id, err := fx.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "1", DoctorRef: "D001"})
	if err != nil {
		t.Fatal(err)
	}

	b, err := fx.svc.ConfirmBooking(ctx, id)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.Status != StatusConfirmed {
		t.Errorf("status = %q, want confirmed", b.Status)
	}

	if _, err := fx.svc.ConfirmBooking(ctx, id); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("expected ErrInvalidStatusTransition on double confirm, got %v", err)
	}
}

func TestPendingFormBookings(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	for i := 0; i < 2; i++ {
		if _, err := fx.svc.CreateBooking(ctx, CreateBookingInput{PatientID: "1", DoctorRef: "D001"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := fx.svc.AttachForm(ctx, 1, strings.NewReader("form"), "intake.pdf"); err != nil {
		t.Fatal(err)
	}

	overdue, err := fx.svc.PendingFormBookings(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(overdue) != 1 || overdue[0].BookingID != 2 {
		t.Errorf("expected only booking 2 to be flagged, got %+v", overdue)
	}

	none, err := fx.svc.PendingFormBookings(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no bookings before the cutoff, got %d", len(none))
	}
}
