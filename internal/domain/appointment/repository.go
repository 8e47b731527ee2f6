package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new appointment with a freshly assigned identifier.
	// The (doctor_id, scheduled_at) uniqueness invariant over non-Cancelled
	// rows is enforced at commit time by the storage layer itself, not by a
	// prior application-level check; a violation returns ErrSlotTaken.
	Create(ctx context.Context, a *Appointment) error

	// GetByID returns ErrAppointmentNotFound if no such row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateStatus applies a.Status using compare-and-swap on a.Version.
	// A stale version returns ErrConcurrentModification; on success the
	// incremented version is written back to a.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// ActiveForDoctor returns the doctor's non-Cancelled appointments
	// scheduled at or after from, feeding the booking validator's
	// collision check.
	ActiveForDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]*Appointment, error)

	// List returns a filtered page ordered by scheduled_at, then id,
	// ascending. A page past the end of the result set yields an empty
	// item list, not an error.
	List(ctx context.Context, q *ListQuery) (*Page, error)
}
