package scheduling

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/practice"
	"github.com/clinic/clinic/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.BookAppointment)
	api.POST("/appointments/cancel", h.CancelAppointment)
	api.GET("/doctors/:id/appointments", h.ListDoctorAppointments)
	api.GET("/doctors/:id/weekly-schedule", h.WeeklySchedule)

	api.POST("/hours", h.SetHours)
	api.POST("/doctors/:id/hours", h.SetHours)
	api.GET("/doctors/:id/hours", h.ListHours)
}

// BookedResponse is returned when an appointment was created.
type BookedResponse struct {
	AppointmentID int64 `json:"appointment_id"`
}

// RejectedResponse is returned when the slot cannot be booked.
type RejectedResponse struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.Invalid("body", "malformed request body")
	}
	return nil
}

func (h *Handler) BookAppointment(c echo.Context) error {
	var req BookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Book(c.Request().Context(), req)
	if err != nil {
		return err
	}
	if !res.Committed() {
		return c.JSON(http.StatusOK, RejectedResponse{Message: "unavailable", Reason: res.Reason})
	}
	return c.JSON(http.StatusOK, BookedResponse{AppointmentID: res.Appointment.ID})
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	var in CancelInput
	if err := bind(c, &in); err != nil {
		return err
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListDoctorAppointments(c echo.Context) error {
	id, err := practice.PathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListDoctorAppointments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) WeeklySchedule(c echo.Context) error {
	id, err := practice.PathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.WeeklySchedule(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// SetHours serves both /hours (doctor_id in the body) and
// /doctors/:id/hours (doctor_id from the path).
func (h *Handler) SetHours(c echo.Context) error {
	var in HoursInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if c.Param("id") != "" {
		id, err := practice.PathID(c)
		if err != nil {
			return err
		}
		if in.DoctorID.Set && in.DoctorID.Value != id {
			return apperr.Invalid("doctor_id", "doctor_id does not match the path")
		}
		in.DoctorID.Value, in.DoctorID.Set = id, true
	}
	sh, err := h.svc.SetHours(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sh)
}

func (h *Handler) ListHours(c echo.Context) error {
	id, err := practice.PathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListHours(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}
