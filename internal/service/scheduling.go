package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/medibook/medibook/internal/domain"
	"github.com/medibook/medibook/internal/domain/appointment"
)

// Requester is the explicit identity/role every core operation runs as.
// It is always passed in by the caller, never read from ambient state.
type Requester struct {
	ID   uuid.UUID
	Role domain.Role
}

// UserDirectory is the external user-management collaborator, consumed
// read-only at its boundary.
type UserDirectory interface {
	// GetUser returns domain.ErrUserNotFound if no such user exists.
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetDoctor returns domain.ErrDoctorNotFound if the id does not belong
	// to a user with the doctor role.
	GetDoctor(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type BookAppointmentCommand struct {
	DoctorID uuid.UUID
	Date     string // YYYY-MM-DD in the service timezone
	Slot     string // HH:MM-HH:MM, one of the doctor's declared tokens
	Notes    string
}

// SchedulingService orchestrates booking, status transitions and listing,
// and owns role authorization for all three.
type SchedulingService struct {
	appointments   appointment.Repository
	users          UserDirectory
	validator      *BookingValidator
	queries        *QueryEngine
	storageTimeout time.Duration
	log            *zap.Logger
	tracer         trace.Tracer
}

func NewSchedulingService(
	appointments appointment.Repository,
	users UserDirectory,
	validator *BookingValidator,
	queries *QueryEngine,
	storageTimeout time.Duration,
	log *zap.Logger,
) *SchedulingService {
	return &SchedulingService{
		appointments:   appointments,
		users:          users,
		validator:      validator,
		queries:        queries,
		storageTimeout: storageTimeout,
		log:            log,
		tracer:         otel.Tracer("medibook/scheduling"),
	}
}

// Book reserves a slot for the requesting patient. Only patients may book.
// Validation runs against the doctor's declared catalog and current active
// appointments; the store independently re-verifies slot uniqueness at
// commit time, so a racing duplicate still surfaces as ErrSlotTaken.
func (s *SchedulingService) Book(ctx context.Context, requester Requester, cmd BookAppointmentCommand) (*appointment.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.book")
	defer span.End()

	if requester.Role != domain.RolePatient {
		return nil, ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	doctor, err := s.users.GetDoctor(ctx, cmd.DoctorID)
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, &ValidationErrors{Errs: []error{appointment.ErrDoctorUnavailable}}
		}
		return nil, fmt.Errorf("loading doctor: %w", err)
	}

	// Everything from the start of today onward can collide with the
	// requested slot; past appointments cannot (past dates are rejected).
	existing, err := s.appointments.ActiveForDoctor(ctx, doctor.ID, s.startOfToday())
	if err != nil {
		return nil, fmt.Errorf("loading doctor's appointments: %w", err)
	}

	instant, err := s.validator.Validate(doctor, cmd.Date, cmd.Slot, cmd.Notes, existing)
	if err != nil {
		return nil, err
	}

	a := &appointment.Appointment{
		PatientID:   requester.ID,
		DoctorID:    doctor.ID,
		ScheduledAt: instant,
		Notes:       strings.TrimSpace(cmd.Notes),
		Status:      appointment.StatusPending,
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		if errors.Is(err, appointment.ErrSlotTaken) {
			s.log.Info("booking lost slot race",
				zap.String("doctor_id", doctor.ID.String()),
				zap.Time("scheduled_at", instant),
			)
			return nil, &ValidationErrors{Errs: []error{appointment.ErrSlotTaken}}
		}
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.log.Info("appointment booked",
		zap.String("appointment_id", a.ID.String()),
		zap.String("doctor_id", doctor.ID.String()),
		zap.String("patient_id", requester.ID.String()),
		zap.Time("scheduled_at", instant),
	)
	return a, nil
}

// UpdateStatus moves an appointment through its lifecycle. Doctors may
// transition their own appointments; admins may transition any. A lost
// optimistic-version race is retried once before surfacing.
func (s *SchedulingService) UpdateStatus(ctx context.Context, requester Requester, id uuid.UUID, newStatus appointment.Status) (*appointment.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.update_status")
	defer span.End()

	if requester.Role != domain.RoleDoctor && requester.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	if !newStatus.IsValid() {
		return nil, appointment.ErrInvalidStatus
	}

	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	a, err := s.transition(ctx, requester, id, newStatus)
	if errors.Is(err, appointment.ErrConcurrentModification) {
		s.log.Warn("status update raced, retrying once",
			zap.String("appointment_id", id.String()),
			zap.String("new_status", string(newStatus)),
		)
		a, err = s.transition(ctx, requester, id, newStatus)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment status updated",
		zap.String("appointment_id", a.ID.String()),
		zap.String("status", string(a.Status)),
		zap.String("actor_id", requester.ID.String()),
	)
	return a, nil
}

func (s *SchedulingService) transition(ctx context.Context, requester Requester, id uuid.UUID, newStatus appointment.Status) (*appointment.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if requester.Role == domain.RoleDoctor && a.DoctorID != requester.ID {
		return nil, ErrForbidden
	}

	// Idempotent re-application of the current status succeeds without
	// touching storage.
	if a.Status == newStatus {
		return a, nil
	}
	if !a.CanTransitionTo(newStatus) {
		return nil, appointment.ErrTerminalStatus
	}

	a.Status = newStatus
	if err := s.appointments.UpdateStatus(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the requester's role-scoped, filtered, paginated view of
// appointments.
func (s *SchedulingService) List(ctx context.Context, requester Requester, filters ListFilters) (*appointment.Page, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.list")
	defer span.End()

	if !requester.Role.IsValid() {
		return nil, ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	return s.queries.List(ctx, requester, filters)
}

func (s *SchedulingService) startOfToday() time.Time {
	now := time.Now().In(s.validator.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.validator.loc)
}
