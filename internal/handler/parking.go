package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkwise/parkwise/internal/garage"
	"github.com/parkwise/parkwise/internal/model"
)

// ParkingHandler exposes the check-in/check-out transaction core and
// the availability and session queries over HTTP.
type ParkingHandler struct {
	Svc *garage.Service
}

func NewParkingHandler(svc *garage.Service) *ParkingHandler {
	return &ParkingHandler{Svc: svc}
}

// ----- DTOs -----

type checkInReq struct {
	Plate           string `json:"plate"`
	VehicleType     string `json:"vehicle_type"`
	RateType        string `json:"rate_type"`
	ExpectedMinutes int    `json:"expected_minutes"`
	PreferredFloor  *int   `json:"preferred_floor"`
	Notes           string `json:"notes"`
}

type checkOutReq struct {
	Plate string `json:"plate"`
}

type spotPart struct {
	ID       string   `json:"id"`
	Floor    int      `json:"floor"`
	Bay      string   `json:"bay"`
	Number   int      `json:"number"`
	Type     string   `json:"type"`
	Features []string `json:"features,omitempty"`
}

type sessionPart struct {
	ID              string     `json:"id"`
	Plate           string     `json:"plate"`
	SpotID          string     `json:"spot_id"`
	Status          string     `json:"status"`
	RateType        string     `json:"rate_type"`
	EntryTime       time.Time  `json:"entry_time"`
	ExitTime        *time.Time `json:"exit_time,omitempty"`
	ExpectedExit    *time.Time `json:"expected_exit,omitempty"`
	DurationMinutes *int64     `json:"duration_minutes,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

func toSpotPart(sp *model.Spot) spotPart {
	out := spotPart{
		ID:     sp.ID(),
		Floor:  sp.Floor,
		Bay:    sp.Bay,
		Number: sp.Number,
		Type:   string(sp.Type),
	}
	for _, f := range sp.Features {
		out.Features = append(out.Features, string(f))
	}
	return out
}

func toSessionPart(s *model.Session) sessionPart {
	return sessionPart{
		ID:              s.ID,
		Plate:           s.Plate,
		SpotID:          s.SpotID,
		Status:          string(s.Status),
		RateType:        string(s.RateType),
		EntryTime:       s.EntryTime,
		ExitTime:        s.ExitTime,
		ExpectedExit:    s.ExpectedExit,
		DurationMinutes: s.DurationMinutes,
		Notes:           s.Notes,
	}
}

// CheckIn admits a vehicle into the garage from the URL parameter.
// POST /v1/garages/:id/check-in
func (h *ParkingHandler) CheckIn(c echo.Context) error {
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.Svc.CheckIn(c.Request().Context(), garage.CheckInRequest{
		GarageID:        c.Param("id"),
		Plate:           req.Plate,
		VehicleType:     model.VehicleType(req.VehicleType),
		RateType:        model.RateType(req.RateType),
		ExpectedMinutes: req.ExpectedMinutes,
		Notes:           req.Notes,
		Preferences:     garage.Preferences{PreferredFloor: req.PreferredFloor},
	})
	if err != nil {
		return garageError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"spot":    toSpotPart(res.Spot),
		"session": toSessionPart(res.Session),
	})
}

// CheckOut closes the active session for a plate.
// POST /v1/garages/:id/check-out
func (h *ParkingHandler) CheckOut(c echo.Context) error {
	var req checkOutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.Svc.CheckOut(c.Request().Context(), garage.CheckOutRequest{
		GarageID: c.Param("id"),
		Plate:    req.Plate,
	})
	if err != nil {
		return garageError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"spot":             toSpotPart(res.Spot),
		"session":          toSessionPart(res.Session),
		"duration_minutes": int64(res.TotalDuration / time.Minute),
	})
}

// Availability reports current spot counts, optionally filtered by the
// vehicle_type query parameter.
// GET /v1/garages/:id/availability
func (h *ParkingHandler) Availability(c echo.Context) error {
	var vt *model.VehicleType
	if q := c.QueryParam("vehicle_type"); q != "" {
		t := model.VehicleType(q)
		vt = &t
	}
	snap, err := h.Svc.Availability(c.Request().Context(), c.Param("id"), vt)
	if err != nil {
		return garageError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Sessions lists recorded sessions; ?active=true narrows to vehicles
// currently inside.
// GET /v1/garages/:id/sessions
func (h *ParkingHandler) Sessions(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"
	list, err := h.Svc.Sessions(c.Request().Context(), c.Param("id"), activeOnly)
	if err != nil {
		return garageError(c, err)
	}
	out := make([]sessionPart, 0, len(list))
	for i := range list {
		out = append(out, toSessionPart(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// garageError translates the service's typed errors into HTTP
// responses.  Store failures advertise whether a retry makes sense.
func garageError(c echo.Context, err error) error {
	var ge *garage.Error
	if !errors.As(err, &ge) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	body := echo.Map{
		"error":  string(ge.Kind),
		"detail": ge.Detail,
	}
	if ge.Plate != "" {
		body["plate"] = ge.Plate
	}
	if ge.SpotID != "" {
		body["spot_id"] = ge.SpotID
	}
	if ge.Availability != nil {
		body["availability"] = ge.Availability
	}

	switch ge.Kind {
	case garage.KindValidationFailed:
		return c.JSON(http.StatusBadRequest, body)
	case garage.KindAlreadyCheckedIn:
		return c.JSON(http.StatusConflict, body)
	case garage.KindNoSpotsAvailable:
		return c.JSON(http.StatusServiceUnavailable, body)
	case garage.KindNotCheckedIn:
		return c.JSON(http.StatusNotFound, body)
	default: // store failure
		body["retryable"] = ge.Retryable
		return c.JSON(http.StatusServiceUnavailable, body)
	}
}
