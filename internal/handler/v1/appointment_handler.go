package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/domain/appointment"
	"github.com/medibook/medibook/internal/service"
	"github.com/medibook/medibook/pkg/metrics"
)

type AppointmentHandler struct {
	scheduler *service.SchedulingService
	collector *metrics.Collector
}

func NewAppointmentHandler(scheduler *service.SchedulingService, collector *metrics.Collector) *AppointmentHandler {
	return &AppointmentHandler{scheduler: scheduler, collector: collector}
}

type bookAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Date     string    `json:"date" binding:"required"`
	Slot     string    `json:"slot" binding:"required"`
	Notes    string    `json:"notes"`
}

// Book handles POST /appointments.
func (h *AppointmentHandler) Book(c *gin.Context) {
	claims, ok := requesterFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing identity")
		return
	}

	var req bookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.scheduler.Book(c.Request.Context(),
		service.Requester{ID: claims.UserID, Role: claims.Role},
		service.BookAppointmentCommand{
			DoctorID: req.DoctorID,
			Date:     req.Date,
			Slot:     req.Slot,
			Notes:    req.Notes,
		},
	)
	if err != nil {
		if h.collector != nil {
			if errors.Is(err, appointment.ErrSlotTaken) {
				h.collector.BookingConflictsTotal.Inc()
				h.collector.BookingsTotal.WithLabelValues("conflict").Inc()
			} else {
				h.collector.BookingsTotal.WithLabelValues("rejected").Inc()
			}
		}
		respondServiceError(c, err)
		return
	}

	if h.collector != nil {
		h.collector.BookingsTotal.WithLabelValues("created").Inc()
	}
	respondCreated(c, a)
}

type updateStatusRequest struct {
	Status appointment.Status `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /appointments/:id/status.
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	claims, ok := requesterFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing identity")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.scheduler.UpdateStatus(c.Request.Context(),
		service.Requester{ID: claims.UserID, Role: claims.Role},
		id, req.Status,
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.collector != nil {
		h.collector.StatusTransitionsTotal.WithLabelValues(string(a.Status)).Inc()
	}
	respondOK(c, a)
}

// List handles GET /appointments.
func (h *AppointmentHandler) List(c *gin.Context) {
	claims, ok := requesterFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing identity")
		return
	}

	filters := service.ListFilters{
		Status:           c.Query("status"),
		DateFrom:         c.Query("date_from"),
		DateTo:           c.Query("date_to"),
		CounterpartyName: c.Query("counterparty_name"),
		Page:             parseQueryInt(c, "page", 1),
		PageSize:         parseQueryInt(c, "page_size", 0),
	}

	page, err := h.scheduler.List(c.Request.Context(),
		service.Requester{ID: claims.UserID, Role: claims.Role},
		filters,
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}
