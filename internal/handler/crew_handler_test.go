package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/service"
	"github.com/dafibh/washpos/washpos-backend/internal/testutil"
	"github.com/google/uuid"
)

func newCrewHandler(t *testing.T) (*CrewHandler, *testutil.MockCrewLocationRepository) {
	t.Helper()
	repo := testutil.NewMockCrewLocationRepository()
	for _, loc := range []*domain.CrewLocation{
		{CrewID: "crew-1-0", BranchID: 1, Latitude: 14.5547, Longitude: 121.0244, RecordedAt: handlerDay},
		{CrewID: "crew-1-1", BranchID: 1, Latitude: 14.5550, Longitude: 121.0250, RecordedAt: handlerDay},
		{CrewID: "crew-2-0", BranchID: 2, Latitude: 14.6, Longitude: 121.1, RecordedAt: handlerDay},
	} {
		if err := repo.Put(context.Background(), loc); err != nil {
			t.Fatalf("Failed to seed location: %v", err)
		}
	}
	return NewCrewHandler(service.NewCrewService(repo)), repo
}

func TestGetLocations(t *testing.T) {
	handler, _ := newCrewHandler(t)

	c, rec := newJSONContext(newTestEcho(), http.MethodGet, "/api/v1/crew/locations", "")
	setupAuthContext(c, uuid.New(), 1)

	if err := handler.GetLocations(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []CrewLocationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 2 {
		t.Fatalf("Expected 2 locations for branch 1, got %d", len(response))
	}
	if response[0].CrewID != "crew-1-0" || response[0].Latitude != 14.5547 {
		t.Errorf("Unexpected first location %+v", response[0])
	}
	if response[0].RecordedAt != "2026-05-02T07:30:00Z" {
		t.Errorf("Unexpected recordedAt %s", response[0].RecordedAt)
	}
}

func TestDeleteLocation(t *testing.T) {
	handler, repo := newCrewHandler(t)

	c, rec := newJSONContext(newTestEcho(), http.MethodDelete, "/api/v1/crew/locations/crew-1-0", "")
	c.SetParamNames("crewId")
	c.SetParamValues("crew-1-0")
	setupAuthContext(c, uuid.New(), 1)

	if err := handler.DeleteLocation(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if _, err := repo.Get(context.Background(), 1, "crew-1-0"); err != domain.ErrCrewNotFound {
		t.Errorf("Expected location to be removed, got %v", err)
	}
}

func TestDeleteLocation_OtherBranch(t *testing.T) {
	handler, repo := newCrewHandler(t)

	c, rec := newJSONContext(newTestEcho(), http.MethodDelete, "/api/v1/crew/locations/crew-2-0", "")
	c.SetParamNames("crewId")
	c.SetParamValues("crew-2-0")
	setupAuthContext(c, uuid.New(), 1)

	if err := handler.DeleteLocation(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
	if _, err := repo.Get(context.Background(), 2, "crew-2-0"); err != nil {
		t.Errorf("Another branch's location must be kept, got %v", err)
	}
}
