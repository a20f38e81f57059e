package handler // handler package contains garage provisioning handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parkwise/parkwise/internal/model"
	"github.com/parkwise/parkwise/internal/repository"
)

// AdminHandler bundles the provisioning endpoints attendants use to
// set up garages and their spot inventory.
type AdminHandler struct {
	Garages repository.GarageRepository
	Spots   repository.SpotRepository
}

func NewAdminHandler(g repository.GarageRepository, s repository.SpotRepository) *AdminHandler {
	return &AdminHandler{Garages: g, Spots: s}
}

// garage ids are short slugs usable in URLs
var garageIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,31}$`)

type createGarageReq struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateGarage handles POST /v1/garages.
func (h *AdminHandler) CreateGarage(c echo.Context) error {
	var req createGarageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ID = strings.ToLower(strings.TrimSpace(req.ID))
	req.Name = strings.TrimSpace(req.Name)
	if !garageIDPattern.MatchString(req.ID) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a short lowercase slug"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	g := &model.Garage{ID: req.ID, Name: req.Name}
	if err := h.Garages.Create(c.Request().Context(), g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "garage already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, g)
}

// ListGarages handles GET /v1/garages.
func (h *AdminHandler) ListGarages(c echo.Context) error {
	garages, err := h.Garages.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(garages), "items": garages})
}

// baySpec describes one bay of identical spots; Count spots are
// numbered 1..Count within the bay.
type baySpec struct {
	Floor    int      `json:"floor"`
	Bay      string   `json:"bay"`
	Count    int      `json:"count"`
	Type     string   `json:"type"`
	Features []string `json:"features"`
}

type createSpotsReq struct {
	Bays []baySpec `json:"bays"`
}

// CreateSpots handles POST /v1/garages/:id/spots: bulk inventory
// creation, one bay at a time.  Existing spots are skipped, so the
// call is safe to repeat after a partial failure.
func (h *AdminHandler) CreateSpots(c echo.Context) error {
	garageID := c.Param("id")
	if _, err := h.Garages.FindByID(c.Request().Context(), garageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "garage not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	var req createSpotsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Bays) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one bay required"})
	}
	for _, b := range req.Bays {
		if b.Floor < 0 || strings.TrimSpace(b.Bay) == "" || b.Count < 1 || b.Count > 500 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each bay needs floor >= 0, a bay label and 1-500 spots"})
		}
		if !model.SpotType(b.Type).Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown spot type " + b.Type})
		}
	}

	created, skipped := 0, 0
	for _, b := range req.Bays {
		features := make([]model.SpotFeature, 0, len(b.Features))
		for _, f := range b.Features {
			features = append(features, model.SpotFeature(f))
		}
		for n := 1; n <= b.Count; n++ {
			spot := &model.Spot{
				GarageID: garageID,
				Floor:    b.Floor,
				Bay:      strings.ToUpper(strings.TrimSpace(b.Bay)),
				Number:   n,
				Type:     model.SpotType(b.Type),
				Features: features,
				Status:   model.SpotAvailable,
			}
			err := h.Spots.Create(c.Request().Context(), spot)
			switch {
			case err == nil:
				created++
			case errors.Is(err, repository.ErrDuplicate):
				skipped++
			default:
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
			}
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": created, "skipped": skipped})
}

// ListSpots handles GET /v1/garages/:id/spots.
func (h *AdminHandler) ListSpots(c echo.Context) error {
	garageID := c.Param("id")
	if _, err := h.Garages.FindByID(c.Request().Context(), garageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "garage not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	spots, err := h.Spots.ListByGarage(c.Request().Context(), garageID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	out := make([]echo.Map, 0, len(spots))
	for i := range spots {
		sp := &spots[i]
		item := echo.Map{
			"id":     sp.ID(),
			"type":   string(sp.Type),
			"status": string(sp.Status),
		}
		if sp.OccupantPlate != nil {
			item["occupant_plate"] = *sp.OccupantPlate
		}
		out = append(out, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(out), "items": out})
}

type patchSpotReq struct {
	Status string `json:"status"`
}

// PatchSpot handles PATCH /v1/garages/:id/spots/:spot: moves a spot
// between available and out_of_service.  Occupied spots cannot be
// retired until their vehicle checks out.
func (h *AdminHandler) PatchSpot(c echo.Context) error {
	garageID := c.Param("id")
	spotID := strings.ToUpper(c.Param("spot"))

	var req patchSpotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.SpotStatus(req.Status)
	if status != model.SpotAvailable && status != model.SpotOutOfService {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be available or out_of_service"})
	}

	err := h.Spots.SetStatus(c.Request().Context(), garageID, spotID, status)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "spot not found"})
	case errors.Is(err, repository.ErrSpotOccupied):
		return c.JSON(http.StatusConflict, echo.Map{"error": "spot is occupied"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	spot, err := h.Spots.FindByID(c.Request().Context(), garageID, spotID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": spot.ID(), "status": string(spot.Status)})
}
