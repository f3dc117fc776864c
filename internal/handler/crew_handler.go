package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/middleware"
	"github.com/dafibh/washpos/washpos-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CrewHandler handles crew location HTTP requests
type CrewHandler struct {
	crewService *service.CrewService
}

// NewCrewHandler creates a new CrewHandler
func NewCrewHandler(crewService *service.CrewService) *CrewHandler {
	return &CrewHandler{crewService: crewService}
}

// CrewLocationResponse represents a crew member's last known position
type CrewLocationResponse struct {
	CrewID     string  `json:"crewId"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RecordedAt string  `json:"recordedAt"`
}

// GetLocations handles GET /api/v1/crew/locations
// @Summary Crew locations
// @Description Latest known position of each crew member on the branch
// @Tags crew
// @Produce json
// @Security BearerAuth
// @Success 200 {array} CrewLocationResponse
// @Failure 500 {object} ProblemDetails
// @Router /crew/locations [get]
func (h *CrewHandler) GetLocations(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	locations, err := h.crewService.ListLocations(c.Request().Context(), branchID)
	if err != nil {
		log.Error().Err(err).Int32("branch_id", branchID).Msg("Failed to list crew locations")
		return NewInternalError(c, "Failed to list crew locations")
	}

	response := make([]CrewLocationResponse, len(locations))
	for i, loc := range locations {
		response[i] = CrewLocationResponse{
			CrewID:     loc.CrewID,
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			RecordedAt: loc.RecordedAt.Format(time.RFC3339),
		}
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteLocation handles DELETE /api/v1/crew/locations/:crewId
// @Summary Forget a crew location
// @Tags crew
// @Security BearerAuth
// @Param crewId path string true "Crew ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /crew/locations/{crewId} [delete]
func (h *CrewHandler) DeleteLocation(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	crewID := c.Param("crewId")
	if err := h.crewService.RemoveLocation(c.Request().Context(), branchID, crewID); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Invalid crew ID", nil)
		}
		if errors.Is(err, domain.ErrCrewNotFound) {
			return NewNotFoundError(c, "Crew location not found")
		}
		log.Error().Err(err).Int32("branch_id", branchID).Str("crew_id", crewID).Msg("Failed to remove crew location")
		return NewInternalError(c, "Failed to remove crew location")
	}

	return c.NoContent(http.StatusNoContent)
}
