package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Ledger owns the persisted bookings table. Every operation reads the
// whole file fresh, mutates in memory and writes the whole file back
// atomically; serialization across operations is the caller's job (the
// Service holds the lock).
type Ledger struct {
	path string
}

func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the location of the ledger file.
func (l *Ledger) Path() string { return l.path }

// Append assigns the next booking id, adds the row and persists the table.
// The id is row_count+1: ids are never reused and form the sequence 1..N
// for N bookings.
func (l *Ledger) Append(ctx context.Context, b Booking) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	t, err := readTable(l.path)
	if errors.Is(err, ErrLedgerNotFound) {
		t = newTable(requiredColumns)
	} else if err != nil {
		return 0, err
	}
	t.ensureColumns(requiredColumns)

	b.BookingID = len(t.rows) + 1
	t.rows = append(t.rows, encodeBooking(t.cols, b))

	if err := l.persist(t); err != nil {
		return 0, err
	}
	return b.BookingID, nil
}

// List returns every booking in insertion order. A ledger that has not
// been created yet reads as empty.
func (l *Ledger) List(ctx context.Context) ([]Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := readTable(l.path)
	if errors.Is(err, ErrLedgerNotFound) {
		return []Booking{}, nil
	}
	if err != nil {
		return nil, err
	}
	t.ensureColumns(requiredColumns)

	out := make([]Booking, 0, len(t.rows))
	for _, row := range t.rows {
		b, err := decodeBooking(t.cols, row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Get returns the booking with the given id.
func (l *Ledger) Get(ctx context.Context, id int) (*Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := readTable(l.path)
	if err != nil {
		return nil, err
	}
	t.ensureColumns(requiredColumns)

	idx, err := t.findBooking(l.path, id)
	if err != nil {
		return nil, err
	}
	b, err := decodeBooking(t.cols, t.rows[idx])
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SetFormStatus updates form_status on the matching row and persists.
func (l *Ledger) SetFormStatus(ctx context.Context, id int, status FormStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t, err := readTable(l.path)
	if err != nil {
		return err
	}
	t.ensureColumns(requiredColumns)

	idx, err := t.findBooking(l.path, id)
	if err != nil {
		return err
	}
	t.rows[idx][t.columnIndex("form_status")] = string(status)

	return l.persist(t)
}

// UpdateStatus moves a booking from one status to another and persists.
// It fails with ErrInvalidStatusTransition when the row is not currently
// in the `from` status.
func (l *Ledger) UpdateStatus(ctx context.Context, id int, from, to Status) (*Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := readTable(l.path)
	if err != nil {
		return nil, err
	}
	t.ensureColumns(requiredColumns)

	idx, err := t.findBooking(l.path, id)
	if err != nil {
		return nil, err
	}
	statusCol := t.columnIndex("status")
	if Status(t.rows[idx][statusCol]) != from {
		return nil, ErrInvalidStatusTransition
	}
	t.rows[idx][statusCol] = string(to)

	if err := l.persist(t); err != nil {
		return nil, err
	}
	b, err := decodeBooking(t.cols, t.rows[idx])
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// persist validates the booking_id uniqueness invariant and writes the
// table atomically. Duplicate ids fail fast instead of being silently
// carried forward.
func (l *Ledger) persist(t *table) error {
	if err := t.checkUniqueIDs(l.path); err != nil {
		return err
	}
	return t.writeAtomic(l.path)
}

// findBooking returns the index of the row with the given id. Duplicate
// ids are a schema violation, not a multi-update.
func (t *table) findBooking(source string, id int) (int, error) {
	idCol := t.columnIndex("booking_id")
	found := -1
	for i, row := range t.rows {
		rowID, err := strconv.Atoi(row[idCol])
		if err != nil {
			return 0, &SchemaError{Source: source, Detail: fmt.Sprintf("row %d: non-integer booking_id %q", i+1, row[idCol])}
		}
		if rowID != id {
			continue
		}
		if found >= 0 {
			return 0, &SchemaError{Source: source, Detail: fmt.Sprintf("duplicate booking_id %d", id)}
		}
		found = i
	}
	if found < 0 {
		return 0, ErrBookingNotFound
	}
	return found, nil
}

func (t *table) checkUniqueIDs(source string) error {
	idCol := t.columnIndex("booking_id")
	seen := make(map[string]bool, len(t.rows))
	for _, row := range t.rows {
		id := row[idCol]
		if seen[id] {
			return &SchemaError{Source: source, Detail: fmt.Sprintf("duplicate booking_id %s", id)}
		}
		seen[id] = true
	}
	return nil
}

func encodeBooking(cols []string, b Booking) []string {
	createdAt := ""
	if !b.CreatedAt.IsZero() {
		createdAt = b.CreatedAt.UTC().Format(time.RFC3339)
	}

	values := map[string]string{
		"booking_id":          strconv.Itoa(b.BookingID),
		"patient_id":          b.PatientID,
		"patient_name":        b.PatientName,
		"patient_phone":       b.PatientPhone,
		"patient_email":       b.PatientEmail,
		"medical_history":     b.MedicalHistory,
		"insurance_carrier":   b.InsuranceCarrier,
		"insurance_member_id": b.InsuranceMemberID,
		"doctor_id":           b.DoctorID,
		"doctor_name":         b.DoctorName,
		"date":                b.Date,
		"slot_start":          b.SlotStart,
		"slot_end":            b.SlotEnd,
		"duration_mins":       b.DurationMins,
		"status":              string(b.Status),
		"cancel_reason":       b.CancelReason,
		"calendly_event_link": b.CalendlyEventLink,
		"form_status":         string(b.FormStatus),
		"created_at":          createdAt,
	}

	row := make([]string, len(cols))
	for i, col := range cols {
		row[i] = values[col] // columns foreign to the schema stay empty
	}
	return row
}

func decodeBooking(cols []string, row []string) (Booking, error) {
	values := make(map[string]string, len(cols))
	for i, col := range cols {
		values[col] = row[i]
	}

	id, err := strconv.Atoi(values["booking_id"])
	if err != nil {
		return Booking{}, &SchemaError{Source: "ledger", Detail: fmt.Sprintf("non-integer booking_id %q", values["booking_id"])}
	}

	var createdAt time.Time
	if v := values["created_at"]; v != "" {
		// Back-filled rows have no timestamp; anything unparsable reads as
		// the zero time rather than failing the whole table.
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			createdAt = ts
		}
	}

	return Booking{
		BookingID:         id,
		PatientID:         values["patient_id"],
		PatientName:       values["patient_name"],
		PatientPhone:      values["patient_phone"],
		PatientEmail:      values["patient_email"],
		MedicalHistory:    values["medical_history"],
		InsuranceCarrier:  values["insurance_carrier"],
		InsuranceMemberID: values["insurance_member_id"],
		DoctorID:          values["doctor_id"],
		DoctorName:        values["doctor_name"],
		Date:              values["date"],
		SlotStart:         values["slot_start"],
		SlotEnd:           values["slot_end"],
		DurationMins:      values["duration_mins"],
		Status:            Status(values["status"]),
		CancelReason:      values["cancel_reason"],
		CalendlyEventLink: values["calendly_event_link"],
		FormStatus:        FormStatus(values["form_status"]),
		CreatedAt:         createdAt,
	}, nil
}
