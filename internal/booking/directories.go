package booking

import "context"

// PatientDirectory is a read-only lookup of patient records. Lookups hit
// the backing source on every call; nothing is cached.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id string) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)
}

// DoctorDirectory exposes doctor identities and their bookable slots.
type DoctorDirectory interface {
	ListDoctors(ctx context.Context) ([]Doctor, error)
	// GetDoctorSlots returns the slot rows for a doctor referenced by id or
	// display name, in source order.
	GetDoctorSlots(ctx context.Context, doctorRef string) ([]DoctorSlot, error)
}
