package practice

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.POST("/doctors", h.CreateDoctor)
	api.GET("/doctors/:id", h.GetDoctor)
	api.PUT("/doctors/:id", h.UpdateDoctor)
	api.DELETE("/doctors/:id", h.DeleteDoctor)
	api.GET("/doctors/:id/locations", h.ListDoctorLocations)
	api.POST("/doctor-locations", h.AssignLocation)

	api.GET("/locations", h.ListLocations)
	api.POST("/locations", h.CreateLocation)
	api.GET("/locations/:id", h.GetLocation)
}

// PathID parses the :id route parameter.
func PathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.Invalid("id", "invalid id")
	}
	return id, nil
}

func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.Invalid("body", "malformed request body")
	}
	return nil
}

// -- Doctor Handlers --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var in DoctorInput
	if err := bind(c, &in); err != nil {
		return err
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	items, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	var in DoctorInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if in.DoctorID.Set && in.DoctorID.Value != id {
		return apperr.Invalid("doctor_id", "doctor_id does not match the path")
	}
	in.DoctorID.Value, in.DoctorID.Set = id, true
	d, err := h.svc.UpdateDoctor(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDoctorLocations(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListDoctorLocations(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AssignLocation(c echo.Context) error {
	var in AssignmentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	a, err := h.svc.AssignLocation(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

// -- Location Handlers --

func (h *Handler) CreateLocation(c echo.Context) error {
	var in LocationInput
	if err := bind(c, &in); err != nil {
		return err
	}
	l, err := h.svc.CreateLocation(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) ListLocations(c echo.Context) error {
	items, err := h.svc.ListLocations(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetLocation(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetLocation(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}
