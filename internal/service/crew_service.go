package service

import (
	"context"
	"strings"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// CrewService exposes the stored crew positions of a branch
type CrewService struct {
	locationRepo domain.CrewLocationRepository
}

// NewCrewService creates a new CrewService
func NewCrewService(locationRepo domain.CrewLocationRepository) *CrewService {
	return &CrewService{locationRepo: locationRepo}
}

// ListLocations returns the latest position of every crew member on the branch
func (s *CrewService) ListLocations(ctx context.Context, branchID int32) ([]*domain.CrewLocation, error) {
	return s.locationRepo.ListByBranch(ctx, branchID)
}

// RemoveLocation forgets a crew member's position until the next poll reports it again
func (s *CrewService) RemoveLocation(ctx context.Context, branchID int32, crewID string) error {
	crewID = strings.TrimSpace(crewID)
	if crewID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.locationRepo.Delete(ctx, branchID, crewID); err != nil {
		return err
	}
	log.Info().Int32("branch_id", branchID).Str("crew_id", crewID).Msg("Crew location removed")
	return nil
}
