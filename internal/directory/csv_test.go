package directory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinicdesk/appointment-booking/internal/booking"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVPatientDirectory(t *testing.T) {
	path := writeFile(t, "patients.csv",
		"patient_id,name,phone,email,medical_history,insurance_carrier,insurance_member_id\n"+
			"1,Maria Santos,555-0101,maria@example.com,asthma,BlueShield,MB000123\n"+
			"2,Tom Ng,,,,,\n")

	d := NewCSVPatientDirectory(path)
	ctx := context.Background()

	p, err := d.GetPatient(ctx, "1")
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	if p.Name != "Maria Santos" || p.InsuranceCarrier != "BlueShield" {
		t.Errorf("unexpected patient: %+v", p)
	}

	if _, err := d.GetPatient(ctx, "404"); !errors.Is(err, booking.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}

	all, err := d.ListPatients(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 patients, got %d", len(all))
	}
}

func TestCSVPatientDirectoryMissingColumns(t *testing.T) {
	path := writeFile(t, "patients.csv", "id,full_name\n1,Maria Santos\n")

	_, err := NewCSVPatientDirectory(path).ListPatients(context.Background())

	var schemaErr *booking.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 2 {
		t.Errorf("missing = %v, want patient_id and name", schemaErr.Missing)
	}
}

func TestCSVDoctorDirectory(t *testing.T) {
	path := writeFile(t, "doctor_slots.csv",
		"doctor_id,doctor_name,specialty,location,date,slot_start,slot_end,duration_mins\n"+
			"D001,Dr. Patel,Cardiology,Springfield,2025-09-06,09:00,09:30,30\n"+
			"D001,Dr. Patel,Cardiology,Springfield,2025-09-06,10:00,10:30,30\n"+
			"D002,Dr. Lee,Dermatology,Shelbyville,2025-09-07,11:00,11:30,30\n")

	d := NewCSVDoctorDirectory(path)
	ctx := context.Background()

	doctors, err := d.ListDoctors(ctx)
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	if len(doctors) != 2 {
		t.Fatalf("expected 2 distinct doctors, got %d", len(doctors))
	}

	// Lookup works by id and by display name.
	byID, err := d.GetDoctorSlots(ctx, "D001")
	if err != nil {
		t.Fatal(err)
	}
	byName, err := d.GetDoctorSlots(ctx, "Dr. Patel")
	if err != nil {
		t.Fatal(err)
	}
	if len(byID) != 2 || len(byName) != 2 {
		t.Errorf("slot counts: by id %d, by name %d, want 2 each", len(byID), len(byName))
	}
	if byID[0].SlotStart != "09:00" || byID[1].SlotStart != "10:00" {
		t.Errorf("slots out of source order: %+v", byID)
	}

	if _, err := d.GetDoctorSlots(ctx, "Dr. Nobody"); !errors.Is(err, booking.ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestCSVDoctorDirectoryMissingSlotColumns(t *testing.T) {
	path := writeFile(t, "doctor_slots.csv", "doctor_id,doctor_name\nD001,Dr. Patel\n")
	d := NewCSVDoctorDirectory(path)
	ctx := context.Background()

	// Identity-only listings are fine without the schedule columns.
	if _, err := d.ListDoctors(ctx); err != nil {
		t.Fatalf("list doctors: %v", err)
	}

	_, err := d.GetDoctorSlots(ctx, "D001")
	var schemaErr *booking.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for slot request, got %v", err)
	}
}
