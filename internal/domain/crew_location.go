package domain

import (
	"context"
	"time"
)

// CrewLocation is the last known position of a wash crew member
type CrewLocation struct {
	CrewID     string    `json:"crewId"`
	BranchID   int32     `json:"branchId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recordedAt"`
}

// LocationSource produces fresh crew positions for a branch
type LocationSource interface {
	Fetch(ctx context.Context, branchID int32) ([]*CrewLocation, error)
}

// CrewLocationRepository keeps the latest position per (branch, crew)
type CrewLocationRepository interface {
	Put(ctx context.Context, location *CrewLocation) error
	Get(ctx context.Context, branchID int32, crewID string) (*CrewLocation, error)
	Delete(ctx context.Context, branchID int32, crewID string) error
	ListByBranch(ctx context.Context, branchID int32) ([]*CrewLocation, error)
}
