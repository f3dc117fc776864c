package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// LocationPoller periodically pulls crew positions from a LocationSource,
// stores the latest one per crew member and pushes them to dashboards
type LocationPoller struct {
	source         domain.LocationSource
	locationRepo   domain.CrewLocationRepository
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	interval       time.Duration
	branches       []int32
	stopCh         chan struct{}
	doneCh         chan struct{}
	mu             sync.Mutex
	running        bool
}

// LocationPollerConfig holds configuration for the location poller
type LocationPollerConfig struct {
	Interval time.Duration
	Branches []int32
}

// DefaultLocationPollerConfig returns the default poll interval with no branches
func DefaultLocationPollerConfig() LocationPollerConfig {
	return LocationPollerConfig{
		Interval: 30 * time.Second,
	}
}

// NewLocationPoller creates a new location poller
func NewLocationPoller(
	source domain.LocationSource,
	locationRepo domain.CrewLocationRepository,
	logger zerolog.Logger,
	config LocationPollerConfig,
) *LocationPoller {
	if config.Interval <= 0 {
		config.Interval = DefaultLocationPollerConfig().Interval
	}

	return &LocationPoller{
		source:       source,
		locationRepo: locationRepo,
		logger:       logger.With().Str("component", "location_poller").Logger(),
		interval:     config.Interval,
		branches:     config.Branches,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (p *LocationPoller) SetEventPublisher(publisher websocket.EventPublisher) {
	p.eventPublisher = publisher
}

// Start begins polling in the background. Calling Start on a running poller is a no-op.
// A stopped poller can be started again.
func (p *LocationPoller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("branches", len(p.branches)).
		Msg("Starting location poller")

	go p.run(ctx, stopCh, doneCh)
}

// Stop halts polling and waits for the loop to exit. It is safe to call
// concurrently and on a poller that was never started.
func (p *LocationPoller) Stop() {
	p.mu.Lock()
	stopCh, doneCh := p.stopCh, p.doneCh
	p.stopCh = nil
	p.mu.Unlock()

	if doneCh == nil {
		return
	}
	if stopCh != nil {
		p.logger.Info().Msg("Stopping location poller")
		close(stopCh)
	}
	<-doneCh
	if stopCh != nil {
		p.logger.Info().Msg("Location poller stopped")
	}
}

// IsRunning reports whether the poll loop is active
func (p *LocationPoller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *LocationPoller) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	defer p.setStopped()

	p.pollAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *LocationPoller) setStopped() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// pollAll refreshes every configured branch; one failing branch does not stop the rest
func (p *LocationPoller) pollAll(ctx context.Context) {
	updated := 0
	failed := 0

	for _, branchID := range p.branches {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		default:
		}

		n, err := p.PollBranch(ctx, branchID)
		if err != nil {
			p.logger.Error().Err(err).Int32("branch_id", branchID).Msg("Failed to poll crew locations")
			failed++
			continue
		}
		updated += n
	}

	p.logger.Debug().
		Int("branches", len(p.branches)).
		Int("updated", updated).
		Int("failed", failed).
		Msg("Completed location poll")
}

// PollBranch fetches and stores one branch's crew positions, returning how many were stored
func (p *LocationPoller) PollBranch(ctx context.Context, branchID int32) (int, error) {
	locations, err := p.source.Fetch(ctx, branchID)
	if err != nil {
		return 0, err
	}

	stored := make([]*domain.CrewLocation, 0, len(locations))
	for _, loc := range locations {
		loc.BranchID = branchID
		if err := p.locationRepo.Put(ctx, loc); err != nil {
			p.logger.Warn().Err(err).Int32("branch_id", branchID).Str("crew_id", loc.CrewID).Msg("Failed to store crew location")
			continue
		}
		stored = append(stored, loc)
	}

	if len(stored) > 0 && p.eventPublisher != nil {
		p.eventPublisher.Publish(branchID, websocket.CrewLocationUpdated(stored))
	}
	return len(stored), nil
}
