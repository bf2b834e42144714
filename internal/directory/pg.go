package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/appointment-booking/internal/booking"
)

// PgDirectory serves both the patient and the doctor/slot lookups from
// Postgres, for installations that keep their master data in a database
// instead of the sample CSV files.
type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func scanPatient(row pgx.Row) (*booking.Patient, error) {
	var p booking.Patient
	var phone, email, history, carrier, memberID *string

	err := row.Scan(&p.ID, &p.Name, &phone, &email, &history, &carrier, &memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrPatientNotFound
		}
		return nil, err
	}

	p.Phone = deref(phone)
	p.Email = deref(email)
	p.MedicalHistory = deref(history)
	p.InsuranceCarrier = deref(carrier)
	p.InsuranceMemberID = deref(memberID)
	return &p, nil
}

func (d *PgDirectory) GetPatient(ctx context.Context, id string) (*booking.Patient, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, name, phone, email, medical_history, insurance_carrier, insurance_member_id
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (d *PgDirectory) ListPatients(ctx context.Context) ([]booking.Patient, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, phone, email, medical_history, insurance_carrier, insurance_member_id
		FROM patients
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (d *PgDirectory) ListDoctors(ctx context.Context) ([]booking.Doctor, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, specialty, location
		FROM doctors
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Doctor
	for rows.Next() {
		var doc booking.Doctor
		var specialty, location *string
		if err := rows.Scan(&doc.ID, &doc.Name, &specialty, &location); err != nil {
			return nil, err
		}
		doc.Specialty = deref(specialty)
		doc.Location = deref(location)
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (d *PgDirectory) GetDoctorSlots(ctx context.Context, doctorRef string) ([]booking.DoctorSlot, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT d.id, d.name, s.date, s.slot_start, s.slot_end, s.duration_mins
		FROM doctor_slots s
		JOIN doctors d ON d.id = s.doctor_id
		WHERE d.id = $1 OR d.name = $1
		ORDER BY s.date, s.slot_start
	`, doctorRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.DoctorSlot
	for rows.Next() {
		var s booking.DoctorSlot
		if err := rows.Scan(&s.DoctorID, &s.DoctorName, &s.Date, &s.SlotStart, &s.SlotEnd, &s.DurationMins); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, booking.ErrDoctorNotFound
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
