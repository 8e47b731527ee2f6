// Package memory is an in-process implementation of the scheduling
// storage contracts. It backs local development (SCHEDULING_STORAGE_DRIVER=
// memory) and the service test suites, and deliberately mirrors the
// postgres semantics: slot uniqueness is enforced atomically inside the
// store's lock, and status updates use optimistic versioning.
package memory

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/domain"
	"github.com/medibook/medibook/internal/domain/appointment"
)

type Store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*domain.User
	appointments map[uuid.UUID]*appointment.Appointment
}

func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]*domain.User),
		appointments: make(map[uuid.UUID]*appointment.Appointment),
	}
}

// AddUser seeds a directory record, assigning an id if absent.
func (s *Store) AddUser(u *domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	cp := *u
	s.users[u.ID] = &cp
	return u
}

// Appointments exposes the store as an appointment.Repository.
func (s *Store) Appointments() *AppointmentRepository {
	return &AppointmentRepository{store: s}
}

// Directory exposes the store as a read-only user directory.
func (s *Store) Directory() *UserDirectory {
	return &UserDirectory{store: s}
}

type AppointmentRepository struct {
	store *Store
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check-and-insert under one lock acquisition: the memory-store
	// equivalent of the partial unique index.
	for _, existing := range s.appointments {
		if existing.DoctorID == a.DoctorID &&
			existing.Status != appointment.StatusCancelled &&
			existing.ScheduledAt.Equal(a.ScheduledAt) {
			return appointment.ErrSlotTaken
		}
	}

	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	a.Version = 0
	cp := *a
	s.appointments[a.ID] = &cp
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.appointments[a.ID]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	if current.Version != a.Version {
		return appointment.ErrConcurrentModification
	}
	current.Status = a.Status
	current.Version++
	current.UpdatedAt = time.Now()
	a.Version = current.Version
	return nil
}

func (r *AppointmentRepository) ActiveForDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]*appointment.Appointment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*appointment.Appointment
	for _, a := range s.appointments {
		if a.DoctorID == doctorID &&
			a.Status != appointment.StatusCancelled &&
			!a.ScheduledAt.Before(from) {
			cp := *a
			items = append(items, &cp)
		}
	}
	sortAppointments(items)
	return items, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListQuery) (*appointment.Page, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*appointment.Appointment
	for _, a := range s.appointments {
		if !r.matches(a, q) {
			continue
		}
		cp := *a
		if u, ok := s.users[cp.DoctorID]; ok {
			cp.DoctorName = u.FullName
		}
		if u, ok := s.users[cp.PatientID]; ok {
			cp.PatientName = u.FullName
		}
		matched = append(matched, &cp)
	}
	sortAppointments(matched)

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = appointment.DefaultPageSize
	}

	total := int64(len(matched))
	start := (page - 1) * size
	end := start + size
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	items := matched[start:end]
	if items == nil {
		items = []*appointment.Appointment{}
	}

	return &appointment.Page{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: appointment.TotalPagesFor(total, size),
	}, nil
}

func (r *AppointmentRepository) matches(a *appointment.Appointment, q *appointment.ListQuery) bool {
	if q.PatientID != nil && a.PatientID != *q.PatientID {
		return false
	}
	if q.DoctorID != nil && a.DoctorID != *q.DoctorID {
		return false
	}
	if q.Status != nil && a.Status != *q.Status {
		return false
	}
	if q.From != nil && a.ScheduledAt.Before(*q.From) {
		return false
	}
	if q.To != nil && !a.ScheduledAt.Before(*q.To) {
		return false
	}
	if q.DoctorName != "" && !nameMatches(r.store.users[a.DoctorID], q.DoctorName) {
		return false
	}
	if q.PatientName != "" && !nameMatches(r.store.users[a.PatientID], q.PatientName) {
		return false
	}
	return true
}

func nameMatches(u *domain.User, needle string) bool {
	if u == nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.FullName), strings.ToLower(needle))
}

// sortAppointments orders by scheduled time ascending with the id as a
// deterministic tiebreaker, matching the SQL ordering.
func sortAppointments(items []*appointment.Appointment) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ScheduledAt.Equal(items[j].ScheduledAt) {
			return items[i].ScheduledAt.Before(items[j].ScheduledAt)
		}
		return bytes.Compare(items[i].ID[:], items[j].ID[:]) < 0
	})
}

type UserDirectory struct {
	store *Store
}

func (d *UserDirectory) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	u, ok := d.store.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *UserDirectory) GetDoctor(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := d.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrDoctorNotFound
		}
		// Transient failures pass through untouched.
		return nil, err
	}
	if u.Role != domain.RoleDoctor {
		return nil, domain.ErrDoctorNotFound
	}
	return u, nil
}

func ctxErr(ctx context.Context) error {
	if ctx.Err() != nil {
		return appointment.ErrStorageUnavailable
	}
	return nil
}
