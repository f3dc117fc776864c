package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed or saturated client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is the part of a connection the hub needs
type ClientInterface interface {
	ID() string
	BranchID() int32
	Send(data []byte) error
	Close() error
}

// Hub fans events out to every dashboard connected to a branch.
// It is safe for concurrent use.
type Hub struct {
	branches map[int32]map[string]ClientInterface
	mu       sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		branches: make(map[int32]map[string]ClientInterface),
	}
}

// Register adds a client under its branch
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	branchID := client.BranchID()
	if h.branches[branchID] == nil {
		h.branches[branchID] = make(map[string]ClientInterface)
	}
	h.branches[branchID][client.ID()] = client

	log.Debug().
		Int32("branch_id", branchID).
		Str("client_id", client.ID()).
		Msg("WebSocket client registered")
}

// Unregister removes a client; unknown clients are ignored
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(client.BranchID(), client.ID())
}

// remove must be called with mu held
func (h *Hub) remove(branchID int32, clientID string) bool {
	clients, ok := h.branches[branchID]
	if !ok {
		return false
	}
	if _, exists := clients[clientID]; !exists {
		return false
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(h.branches, branchID)
	}
	log.Debug().
		Int32("branch_id", branchID).
		Str("client_id", clientID).
		Msg("WebSocket client unregistered")
	return true
}

// Broadcast sends an event to every client of a branch.
// Clients whose send buffer is full or closed are dropped from the hub.
func (h *Hub) Broadcast(branchID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("branch_id", branchID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	targets := make([]ClientInterface, 0, len(h.branches[branchID]))
	for _, client := range h.branches[branchID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	var stale []ClientInterface
	for _, client := range targets {
		if err := client.Send(data); err != nil {
			log.Warn().
				Err(err).
				Int32("branch_id", branchID).
				Str("client_id", client.ID()).
				Msg("Dropping unresponsive WebSocket client")
			stale = append(stale, client)
		}
	}

	if len(stale) > 0 {
		h.mu.Lock()
		for _, client := range stale {
			h.remove(branchID, client.ID())
		}
		h.mu.Unlock()
		for _, client := range stale {
			_ = client.Close()
		}
	}

	log.Debug().
		Int32("branch_id", branchID).
		Str("event_type", event.Type).
		Int("client_count", len(targets)-len(stale)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients connected to a branch
func (h *Hub) ClientCount(branchID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.branches[branchID])
}

// TotalClientCount returns the number of connected clients across all branches
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.branches {
		total += len(clients)
	}
	return total
}

// Shutdown closes every connection; used on server shutdown
func (h *Hub) Shutdown() {
	h.mu.Lock()
	all := make([]ClientInterface, 0)
	for _, clients := range h.branches {
		for _, client := range clients {
			all = append(all, client)
		}
	}
	h.branches = make(map[int32]map[string]ClientInterface)
	h.mu.Unlock()

	for _, client := range all {
		_ = client.Close()
	}
	log.Info().Int("client_count", len(all)).Msg("WebSocket hub shut down")
}
