package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Connection timing for dashboard sockets
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512

	// outboxSize is how many events may queue before a subscriber is considered stuck
	outboxSize = 64
)

// Subscriber is one dashboard connection receiving a branch's events
type Subscriber struct {
	id       string
	branchID int32
	conn     *websocket.Conn
	hub      *Hub
	outbox   chan []byte
	done     chan struct{}
	stopOnce sync.Once
	closeErr error
}

// NewSubscriber wraps an upgraded connection for branchID
func NewSubscriber(conn *websocket.Conn, branchID int32, hub *Hub) *Subscriber {
	return &Subscriber{
		id:       uuid.New().String(),
		branchID: branchID,
		conn:     conn,
		hub:      hub,
		outbox:   make(chan []byte, outboxSize),
		done:     make(chan struct{}),
	}
}

// ID returns the subscriber's connection id
func (s *Subscriber) ID() string {
	return s.id
}

// BranchID returns the branch whose events the subscriber receives
func (s *Subscriber) BranchID() int32 {
	return s.branchID
}

// Send queues an encoded event. It never blocks: a closed or full outbox returns ErrClientClosed.
func (s *Subscriber) Send(data []byte) error {
	select {
	case <-s.done:
		return ErrClientClosed
	default:
	}

	select {
	case s.outbox <- data:
		return nil
	case <-s.done:
		return ErrClientClosed
	default:
		return ErrClientClosed
	}
}

// Close sends a close frame, stops both loops and closes the connection.
// Later calls return the first result.
func (s *Subscriber) Close() error {
	s.stopOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// IsClosed reports whether Close has been called
func (s *Subscriber) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Serve registers the subscriber with its hub and blocks until the peer goes away
// or the subscriber is closed. Events are written from a separate goroutine.
func (s *Subscriber) Serve() {
	s.hub.Register(s)
	go s.writeLoop()
	s.readLoop()
}

// readLoop only services control frames; the socket is push-only
func (s *Subscriber) readLoop() {
	defer func() {
		s.hub.Unregister(s)
		_ = s.Close()
	}()

	s.conn.SetReadLimit(maxInboundSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", s.id).
					Int32("branch_id", s.branchID).
					Msg("Dashboard socket closed unexpectedly")
			}
			return
		}
	}
}

func (s *Subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case data := <-s.outbox:
			if err := s.write(websocket.TextMessage, data); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", s.id).
					Int32("branch_id", s.branchID).
					Msg("Dashboard socket write failed")
				_ = s.Close()
				return
			}

		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				_ = s.Close()
				return
			}
		}
	}
}

func (s *Subscriber) write(messageType int, data []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}
