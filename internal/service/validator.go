package service

import (
	"strings"
	"time"

	"github.com/medibook/medibook/internal/domain"
	"github.com/medibook/medibook/internal/domain/appointment"
	"github.com/medibook/medibook/internal/domain/schedule"
)

const dateLayout = "2006-01-02"

// BookingValidator decides whether a requested (doctor, date, slot) is
// bookable. It is pure: it touches no storage and has no side effects, so
// it can run repeatedly without commitment. The collision check here is
// advisory — the store re-verifies uniqueness at commit time to close the
// check-then-insert race.
type BookingValidator struct {
	loc *time.Location
	now func() time.Time
}

func NewBookingValidator(loc *time.Location) *BookingValidator {
	return &BookingValidator{loc: loc, now: time.Now}
}

// Validate returns the normalized instant to persist, or a
// *ValidationErrors aggregating every violated rule. A missing doctor (or
// one with no declared slots) short-circuits: nothing else is checkable
// without an availability catalog.
func (v *BookingValidator) Validate(
	doctor *domain.User,
	dateStr, slotStr, notes string,
	existing []*appointment.Appointment,
) (time.Time, error) {
	if doctor == nil || !doctor.IsDoctor() {
		return time.Time{}, &ValidationErrors{Errs: []error{appointment.ErrDoctorUnavailable}}
	}
	slots := schedule.Normalize(doctor.AvailableTimeslots)
	if len(slots) == 0 {
		return time.Time{}, &ValidationErrors{Errs: []error{appointment.ErrDoctorUnavailable}}
	}

	var errs []error

	slotOffered := schedule.Contains(slots, slotStr)
	if !slotOffered {
		errs = append(errs, appointment.ErrSlotNotOffered)
	}

	var instant time.Time
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(dateStr), v.loc)
	if err != nil {
		// An unparsable date can never satisfy the not-in-the-past rule.
		errs = append(errs, appointment.ErrPastDate)
	} else {
		today := v.today()
		if day.Before(today) {
			errs = append(errs, appointment.ErrPastDate)
		} else if slotOffered {
			hour, minute, serr := schedule.Start(slotStr)
			if serr == nil {
				instant = time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, v.loc)
			}
		}
	}

	if !instant.IsZero() {
		for _, a := range existing {
			if a.Status != appointment.StatusCancelled &&
				a.DoctorID == doctor.ID &&
				a.ScheduledAt.Equal(instant) {
				errs = append(errs, appointment.ErrSlotTaken)
				break
			}
		}
	}

	if strings.TrimSpace(notes) == "" {
		errs = append(errs, appointment.ErrNotesRequired)
	}

	if len(errs) > 0 {
		return time.Time{}, &ValidationErrors{Errs: errs}
	}
	return instant, nil
}

// today is the current date at midnight in the service timezone.
func (v *BookingValidator) today() time.Time {
	now := v.now().In(v.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.loc)
}
