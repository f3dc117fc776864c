package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CrewLocationRepository implements domain.CrewLocationRepository with one
// Redis hash per branch, field = crew ID, value = JSON position
type CrewLocationRepository struct {
	client redis.UniversalClient
}

// NewCrewLocationRepository creates a new CrewLocationRepository
func NewCrewLocationRepository(client redis.UniversalClient) *CrewLocationRepository {
	return &CrewLocationRepository{client: client}
}

func branchLocationsKey(branchID int32) string {
	return fmt.Sprintf("crew_locations:%d", branchID)
}

// Put stores the latest position of a crew member
func (r *CrewLocationRepository) Put(ctx context.Context, location *domain.CrewLocation) error {
	data, err := json.Marshal(location)
	if err != nil {
		return fmt.Errorf("encode crew location: %w", err)
	}
	return r.client.HSet(ctx, branchLocationsKey(location.BranchID), location.CrewID, data).Err()
}

// Get retrieves one crew member's position
func (r *CrewLocationRepository) Get(ctx context.Context, branchID int32, crewID string) (*domain.CrewLocation, error) {
	data, err := r.client.HGet(ctx, branchLocationsKey(branchID), crewID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCrewNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeLocation(data)
}

// Delete removes a crew member's position
func (r *CrewLocationRepository) Delete(ctx context.Context, branchID int32, crewID string) error {
	removed, err := r.client.HDel(ctx, branchLocationsKey(branchID), crewID).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrCrewNotFound
	}
	return nil
}

// ListByBranch returns every known crew position of a branch, sorted by crew ID
func (r *CrewLocationRepository) ListByBranch(ctx context.Context, branchID int32) ([]*domain.CrewLocation, error) {
	entries, err := r.client.HGetAll(ctx, branchLocationsKey(branchID)).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*domain.CrewLocation, 0, len(entries))
	for _, raw := range entries {
		loc, err := decodeLocation([]byte(raw))
		if err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CrewID < result[j].CrewID })
	return result, nil
}

func decodeLocation(data []byte) (*domain.CrewLocation, error) {
	var loc domain.CrewLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("decode crew location: %w", err)
	}
	return &loc, nil
}
