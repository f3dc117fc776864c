package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	client := newMockClient("till-1", 1)
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish(1, SaleRecorded(map[string]interface{}{"id": float64(42)}))

	assert.Len(t, client.GetMessages(), 1)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish(1, SessionOpened(map[string]interface{}{"id": float64(1)}))
	})
}
