package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medibook/medibook/internal/domain"
	"github.com/medibook/medibook/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	err := r.db.WithContext(ctx).Create(a).Error
	if err != nil {
		// The partial unique index on (doctor_id, scheduled_at) over
		// non-Cancelled rows is the authoritative double-booking guard;
		// hitting it means another booking won the race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appointment.ErrSlotTaken
		}
		return storageErr(err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, storageErr(err)
	}
	return &a, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]any{
			"status":  a.Status,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the row is gone or another writer bumped the version.
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&appointment.Appointment{}).
			Where("id = ?", a.ID).
			Count(&exists).Error; err != nil {
			return storageErr(err)
		}
		if exists == 0 {
			return appointment.ErrAppointmentNotFound
		}
		return appointment.ErrConcurrentModification
	}
	a.Version++
	return nil
}

func (r *AppointmentRepository) ActiveForDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]*appointment.Appointment, error) {
	var items []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND status <> ? AND scheduled_at >= ?",
			doctorID, appointment.StatusCancelled, from).
		Order("scheduled_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListQuery) (*appointment.Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = appointment.DefaultPageSize
	}

	db := r.db.WithContext(ctx).Model(&appointment.Appointment{})

	if q.PatientID != nil {
		db = db.Where("appointments.patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("appointments.doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("appointments.status = ?", *q.Status)
	}
	if q.From != nil {
		db = db.Where("appointments.scheduled_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("appointments.scheduled_at < ?", *q.To)
	}
	if q.DoctorName != "" {
		db = db.Joins("JOIN users AS doctors ON doctors.id = appointments.doctor_id").
			Where("doctors.full_name ILIKE ?", "%"+q.DoctorName+"%")
	}
	if q.PatientName != "" {
		db = db.Joins("JOIN users AS patients ON patients.id = appointments.patient_id").
			Where("patients.full_name ILIKE ?", "%"+q.PatientName+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, storageErr(err)
	}

	var items []*appointment.Appointment
	err := db.
		Order("appointments.scheduled_at ASC, appointments.id ASC").
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, storageErr(err)
	}

	if err := r.fillNames(ctx, items); err != nil {
		return nil, err
	}

	return &appointment.Page{
		Items:      items,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: appointment.TotalPagesFor(total, q.PageSize),
	}, nil
}

// fillNames resolves counterparty display names with one directory query
// per page instead of a join per row.
func (r *AppointmentRepository) fillNames(ctx context.Context, items []*appointment.Appointment) error {
	if len(items) == 0 {
		return nil
	}

	idSet := make(map[uuid.UUID]struct{}, len(items)*2)
	for _, a := range items {
		idSet[a.DoctorID] = struct{}{}
		idSet[a.PatientID] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var users []domain.User
	if err := r.db.WithContext(ctx).
		Select("id", "full_name").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return storageErr(err)
	}

	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	for _, a := range items {
		a.DoctorName = names[a.DoctorID]
		a.PatientName = names[a.PatientID]
	}
	return nil
}

// storageErr classifies transient storage failures so callers can show a
// retryable error instead of an opaque one.
func storageErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return appointment.ErrStorageUnavailable
	}
	return fmt.Errorf("storage: %w", err)
}
