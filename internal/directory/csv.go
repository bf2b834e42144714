// Package directory provides the patient and doctor/slot lookups the
// booking service depends on. Sources are read fresh on every call; the
// directories never cache.
package directory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/clinicdesk/appointment-booking/internal/booking"
)

// CSVPatientDirectory reads patients from a CSV file with at least the
// patient_id and name columns.
type CSVPatientDirectory struct {
	path string
}

func NewCSVPatientDirectory(path string) *CSVPatientDirectory {
	return &CSVPatientDirectory{path: path}
}

func (d *CSVPatientDirectory) GetPatient(ctx context.Context, id string) (*booking.Patient, error) {
	patients, err := d.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range patients {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, booking.ErrPatientNotFound
}

func (d *CSVPatientDirectory) ListPatients(ctx context.Context) ([]booking.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header, rows, err := readCSV(d.path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(d.path, header, "patient_id", "name"); err != nil {
		return nil, err
	}

	out := make([]booking.Patient, 0, len(rows))
	for _, row := range rows {
		get := cellGetter(header, row)
		out = append(out, booking.Patient{
			ID:                get("patient_id"),
			Name:              get("name"),
			Phone:             get("phone"),
			Email:             get("email"),
			MedicalHistory:    get("medical_history"),
			InsuranceCarrier:  get("insurance_carrier"),
			InsuranceMemberID: get("insurance_member_id"),
		})
	}
	return out, nil
}

// CSVDoctorDirectory reads doctors and their slots from a single CSV file,
// one row per bookable slot. Every row must carry doctor_id and
// doctor_name; the slot columns are only required when slots are asked for.
type CSVDoctorDirectory struct {
	path string
}

func NewCSVDoctorDirectory(path string) *CSVDoctorDirectory {
	return &CSVDoctorDirectory{path: path}
}

func (d *CSVDoctorDirectory) ListDoctors(ctx context.Context) ([]booking.Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header, rows, err := readCSV(d.path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(d.path, header, "doctor_id", "doctor_name"); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []booking.Doctor
	for _, row := range rows {
		get := cellGetter(header, row)
		id := get("doctor_id")
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, booking.Doctor{
			ID:        id,
			Name:      get("doctor_name"),
			Specialty: get("specialty"),
			Location:  get("location"),
		})
	}
	return out, nil
}

func (d *CSVDoctorDirectory) GetDoctorSlots(ctx context.Context, doctorRef string) ([]booking.DoctorSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header, rows, err := readCSV(d.path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(d.path, header, "doctor_id", "doctor_name", "slot_start", "slot_end"); err != nil {
		return nil, err
	}

	var out []booking.DoctorSlot
	for _, row := range rows {
		get := cellGetter(header, row)
		if get("doctor_id") != doctorRef && get("doctor_name") != doctorRef {
			continue
		}
		out = append(out, booking.DoctorSlot{
			DoctorID:     get("doctor_id"),
			DoctorName:   get("doctor_name"),
			Date:         get("date"),
			SlotStart:    get("slot_start"),
			SlotEnd:      get("slot_end"),
			DurationMins: get("duration_mins"),
		})
	}
	if len(out) == 0 {
		return nil, booking.ErrDoctorNotFound
	}
	return out, nil
}

func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

func requireColumns(source string, header []string, required ...string) error {
	var missing []string
	for _, col := range required {
		if indexOf(header, col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &booking.SchemaError{Source: source, Missing: missing}
	}
	return nil
}

func cellGetter(header, row []string) func(string) string {
	return func(col string) string {
		i := indexOf(header, col)
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}
