package websocket

// EventPublisher publishes events to the dashboards of a branch
type EventPublisher interface {
	Publish(branchID int32, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher
func (h *Hub) Publish(branchID int32, event Event) {
	h.Broadcast(branchID, event)
}

// NoOpPublisher drops every event (tests, or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(branchID int32, event Event) {}
