package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
)

const (
	// default origin used for branch 0; other branches are spread around it
	syntheticOriginLat = 14.5995
	syntheticOriginLng = 120.9842
	// roughly 50m per step
	syntheticStepDegrees = 0.0005
)

// SyntheticLocationSource simulates crew telemetry as a random walk around each
// branch. It stands in for a real tracker feed and is safe for concurrent use.
type SyntheticLocationSource struct {
	crewPerBranch int
	rng           *rand.Rand
	now           func() time.Time

	mu        sync.Mutex
	positions map[string]*domain.CrewLocation
}

// NewSyntheticLocationSource creates a source that reports crewPerBranch members per branch
func NewSyntheticLocationSource(crewPerBranch int, seed int64) *SyntheticLocationSource {
	if crewPerBranch <= 0 {
		crewPerBranch = 1
	}
	return &SyntheticLocationSource{
		crewPerBranch: crewPerBranch,
		rng:           rand.New(rand.NewSource(seed)),
		now:           time.Now,
		positions:     make(map[string]*domain.CrewLocation),
	}
}

// Fetch advances every crew member of the branch one step and returns their positions
func (s *SyntheticLocationSource) Fetch(ctx context.Context, branchID int32) ([]*domain.CrewLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordedAt := s.now().UTC()
	locations := make([]*domain.CrewLocation, 0, s.crewPerBranch)
	for i := 1; i <= s.crewPerBranch; i++ {
		crewID := fmt.Sprintf("crew-%d-%d", branchID, i)
		pos, ok := s.positions[crewID]
		if !ok {
			lat, lng := branchOrigin(branchID)
			pos = &domain.CrewLocation{CrewID: crewID, BranchID: branchID, Latitude: lat, Longitude: lng}
			s.positions[crewID] = pos
		}
		pos.Latitude += (s.rng.Float64()*2 - 1) * syntheticStepDegrees
		pos.Longitude += (s.rng.Float64()*2 - 1) * syntheticStepDegrees
		pos.RecordedAt = recordedAt

		snapshot := *pos
		locations = append(locations, &snapshot)
	}
	return locations, nil
}

// branchOrigin places each branch on a small grid so feeds do not overlap
func branchOrigin(branchID int32) (float64, float64) {
	row := float64(branchID / 10)
	col := float64(branchID % 10)
	return syntheticOriginLat + row*0.02, syntheticOriginLng + col*0.02
}
