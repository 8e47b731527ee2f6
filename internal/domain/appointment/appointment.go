package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status lifecycle:
//
//	Pending   → Confirmed | Cancelled
//	Confirmed → Completed | Cancelled
//	Cancelled, Completed → (terminal)
//
// Re-applying the current status is a no-op success, not an error.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether the status is a resting state that permits no
// further transition.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`

	// ScheduledAt combines the requested calendar date with the opening
	// clock time of the booked slot, in the service's single timezone.
	ScheduledAt time.Time `gorm:"column:scheduled_at;not null;index" json:"appointment_time"`

	Notes  string `gorm:"column:notes;type:text;not null" json:"notes"`
	Status Status `gorm:"column:status;type:varchar(20);not null;default:'Pending';index" json:"status"`

	// Version serializes concurrent status transitions: every successful
	// update increments it, and a stale writer loses.
	Version int64 `gorm:"column:version;not null;default:0" json:"-"`

	// Denormalized counterparty names, populated on reads for display and
	// name filtering. Not persisted on the appointments table.
	DoctorName  string `gorm:"-" json:"doctor_name,omitempty"`
	PatientName string `gorm:"-" json:"patient_name,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// CanTransitionTo reports whether moving to newStatus is legal from the
// current status. Identity transitions are handled by the caller as no-ops
// and return false here.
func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCompleted, StatusCancelled},
		StatusCancelled: {},
		StatusCompleted: {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// DefaultPageSize is the fixed page size used when the caller does not
// choose one.
const DefaultPageSize = 8

// ListQuery defines filtering and pagination for appointment list queries.
// All filters are optional and combine with logical AND. Exactly one of
// PatientID/DoctorID is set for role-scoped queries; both are nil for
// admin queries.
type ListQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status

	// Half-open instant window [From, To) derived from the inclusive
	// date_from/date_to filter dates.
	From *time.Time
	To   *time.Time

	// Case-insensitive substring match on the counterparty's full name.
	DoctorName  string
	PatientName string

	Page     int
	PageSize int
}

type Page struct {
	Items      []*Appointment `json:"items"`
	TotalCount int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// TotalPagesFor computes ceil(total/pageSize) with a minimum of one page,
// so an empty result set still reports a single (empty) page.
func TotalPagesFor(total int64, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		pages = 1
	}
	return pages
}
