package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medibook/medibook/internal/domain"
)

// UserDirectory is the read-only view of the user-management collaborator's
// table. Writes to users happen elsewhere.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := d.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storageErr(err)
	}
	return &u, nil
}

func (d *UserDirectory) GetDoctor(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := d.db.WithContext(ctx).
		First(&u, "id = ? AND role = ?", id, domain.RoleDoctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, storageErr(err)
	}
	return &u, nil
}
