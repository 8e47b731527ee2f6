package database

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/medibook/medibook/internal/domain"
)

type seedUser struct {
	user     domain.User
	password string
}

// Seed inserts the canonical development accounts: one admin, one doctor
// with declared availability, one patient. Existing emails are left
// untouched, so re-running is safe.
func Seed(db *gorm.DB, log *zap.Logger) error {
	seeds := []seedUser{
		{
			user: domain.User{
				FullName:     "Admin User",
				Email:        "admin@example.com",
				MobileNumber: "+8801000000001",
				Role:         domain.RoleAdmin,
			},
			password: "Admin@123",
		},
		{
			user: domain.User{
				FullName:           "Dr. John",
				Email:              "doctor@example.com",
				MobileNumber:       "+8801000000002",
				Role:               domain.RoleDoctor,
				LicenseNumber:      "DOC-12345",
				ExperienceYears:    5,
				ConsultationFee:    500,
				AvailableTimeslots: "10:00-11:00,11:00-12:00",
			},
			password: "Doctor@123",
		},
		{
			user: domain.User{
				FullName:     "Patient One",
				Email:        "patient@example.com",
				MobileNumber: "+8801000000003",
				Role:         domain.RolePatient,
			},
			password: "Patient@123",
		},
	}

	for _, s := range seeds {
		var existing domain.User
		err := db.Where("email = ?", s.user.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("checking seed user %s: %w", s.user.Email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing seed password: %w", err)
		}
		s.user.PasswordHash = string(hash)

		if err := db.Create(&s.user).Error; err != nil {
			return fmt.Errorf("creating seed user %s: %w", s.user.Email, err)
		}
		log.Info("seeded user",
			zap.String("email", s.user.Email),
			zap.String("role", string(s.user.Role)),
		)
	}

	return nil
}
