package appointment

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// Booking validation failures. These accumulate: a single booking
	// request can come back with several of them at once.
	ErrDoctorUnavailable = errors.New("doctor does not exist or has no declared availability")
	ErrSlotNotOffered    = errors.New("requested slot is not in the doctor's availability")
	ErrPastDate          = errors.New("appointment date must not be in the past")
	ErrNotesRequired     = errors.New("notes must not be empty")
	ErrSlotTaken         = errors.New("time slot is already booked for this doctor")

	// ErrTerminalStatus covers every status transition the lifecycle table
	// does not allow, including any move out of Cancelled or Completed.
	ErrTerminalStatus = errors.New("status transition not permitted")
	ErrInvalidStatus  = errors.New("unknown appointment status")

	ErrInvalidDate = errors.New("invalid date: expected YYYY-MM-DD")

	// ErrConcurrentModification signals a lost optimistic-version race on a
	// status update. Safe to retry; the service retries once automatically.
	ErrConcurrentModification = errors.New("appointment was modified concurrently")

	// ErrStorageUnavailable is transient: the storage collaborator timed
	// out or refused the call. Reads and validation are safe to retry;
	// Create is not retried automatically (no idempotency key).
	ErrStorageUnavailable = errors.New("storage unavailable, try again")
)
