package service

import (
	"context"
	"strings"
	"time"

	"github.com/medibook/medibook/internal/domain"
	"github.com/medibook/medibook/internal/domain/appointment"
)

// ListFilters carries the raw, optional filter inputs from the boundary.
// All present filters combine with logical AND.
type ListFilters struct {
	Status           string
	DateFrom         string // inclusive, YYYY-MM-DD
	DateTo           string // inclusive, YYYY-MM-DD
	CounterpartyName string
	Page             int
	PageSize         int
}

// QueryEngine applies role-scoped visibility and filter predicates and
// paginates deterministically: scheduled_at ascending, fixed-size
// 1-indexed pages, an empty page past the end rather than an error.
type QueryEngine struct {
	repo            appointment.Repository
	loc             *time.Location
	defaultPageSize int
}

func NewQueryEngine(repo appointment.Repository, loc *time.Location, defaultPageSize int) *QueryEngine {
	if defaultPageSize < 1 {
		defaultPageSize = appointment.DefaultPageSize
	}
	return &QueryEngine{repo: repo, loc: loc, defaultPageSize: defaultPageSize}
}

func (e *QueryEngine) List(ctx context.Context, requester Requester, f ListFilters) (*appointment.Page, error) {
	q := &appointment.ListQuery{}

	// Base visibility: patients and doctors see only their own side of an
	// appointment; admins see everything.
	switch requester.Role {
	case domain.RolePatient:
		id := requester.ID
		q.PatientID = &id
	case domain.RoleDoctor:
		id := requester.ID
		q.DoctorID = &id
	case domain.RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	var errs []error

	if s := strings.TrimSpace(f.Status); s != "" {
		status := appointment.Status(s)
		if !status.IsValid() {
			errs = append(errs, appointment.ErrInvalidStatus)
		} else {
			q.Status = &status
		}
	}

	if s := strings.TrimSpace(f.DateFrom); s != "" {
		day, err := time.ParseInLocation(dateLayout, s, e.loc)
		if err != nil {
			errs = append(errs, appointment.ErrInvalidDate)
		} else {
			q.From = &day
		}
	}
	if s := strings.TrimSpace(f.DateTo); s != "" {
		day, err := time.ParseInLocation(dateLayout, s, e.loc)
		if err != nil {
			errs = append(errs, appointment.ErrInvalidDate)
		} else {
			// date_to is inclusive; the query window is half-open.
			end := day.AddDate(0, 0, 1)
			q.To = &end
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationErrors{Errs: errs}
	}

	// The counterparty is the doctor from a patient's perspective and the
	// patient from a doctor's. Admin requests have no counterparty; the
	// filter is ignored for them.
	if name := strings.TrimSpace(f.CounterpartyName); name != "" {
		switch requester.Role {
		case domain.RolePatient:
			q.DoctorName = name
		case domain.RoleDoctor:
			q.PatientName = name
		}
	}

	q.Page = f.Page
	if q.Page < 1 {
		q.Page = 1
	}
	q.PageSize = f.PageSize
	if q.PageSize < 1 {
		q.PageSize = e.defaultPageSize
	}

	return e.repo.List(ctx, q)
}
