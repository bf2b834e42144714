package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrLedgerNotFound  = errors.New("booking ledger does not exist yet")

	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// SchemaError reports a violated required-columns contract or a broken
// table invariant such as duplicate booking ids.
type SchemaError struct {
	Source  string   // which table or file the contract belongs to
	Missing []string // required columns absent from the source
	Detail  string   // any other invariant violation
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Detail)
}

// StorageError wraps an I/O failure against the ledger file or the upload
// directory.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
