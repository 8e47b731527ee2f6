package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role is a closed set: the scheduler recognises exactly these three
// parties and nothing else.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDoctorNotFound = errors.New("doctor not found")
)

// User is a directory record. Admins, doctors and patients share one table;
// the doctor-specific columns are empty for the other roles. Registration
// and profile management happen in a separate service — this core only
// reads the directory.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	FullName     string `gorm:"column:full_name;type:varchar(100);not null" json:"full_name"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	MobileNumber string `gorm:"column:mobile_number;type:varchar(14);uniqueIndex;not null" json:"mobile_number"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Role         Role   `gorm:"column:role;type:varchar(20);not null;index" json:"role"`

	// Address hierarchy (division > district > thana); lookups for these
	// live outside the scheduling core.
	Division string `gorm:"column:division;type:varchar(50)" json:"division,omitempty"`
	District string `gorm:"column:district;type:varchar(50)" json:"district,omitempty"`
	Thana    string `gorm:"column:thana;type:varchar(50)" json:"thana,omitempty"`

	// Doctor-only columns.
	LicenseNumber   string  `gorm:"column:license_number;type:varchar(50)" json:"license_number,omitempty"`
	ExperienceYears int     `gorm:"column:experience_years" json:"experience_years,omitempty"`
	ConsultationFee float64 `gorm:"column:consultation_fee" json:"consultation_fee,omitempty"`

	// AvailableTimeslots is the doctor's declared availability: a
	// comma-separated list of HH:MM-HH:MM tokens, e.g.
	// "10:00-11:00,11:00-12:00". Each token is one atomic bookable slot.
	AvailableTimeslots string `gorm:"column:available_timeslots;type:text" json:"available_timeslots,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}

// Claims is the authenticated identity attached to every request. The core
// never reads ambient session state; handlers resolve the bearer token into
// Claims and pass it down explicitly.
type Claims struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Role     Role
}

type TokenPair struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}
