package hub

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
)

var (
	// ErrSlowSubscriber is returned by Send when the subscriber's buffer is full.
	ErrSlowSubscriber = errors.New("subscriber send buffer full")

	// ErrSubscriberClosed is returned by Send after Close.
	ErrSubscriberClosed = errors.New("subscriber closed")
)

const maxClientMessageSize = 4096

// Options configures WebSocket subscriptions.
type Options struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration

	// Authenticate, when set, must accept the upgrade request.
	Authenticate func(r *http.Request) error

	// CheckOrigin overrides the upgrader's same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// OptionsFrom converts WebSocket configuration. cfg may be nil.
func OptionsFrom(cfg *config.WebSocketConfig) Options {
	if cfg == nil {
		cfg = &config.WebSocketConfig{}
		cfg.ApplyDefaults()
	}

	return Options{
		SendBuffer:   cfg.SendBuffer,
		WriteTimeout: cfg.WriteTimeout.Duration,
		PingInterval: cfg.PingInterval.Duration,
	}
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	return o
}

// WebSocketSubscriber delivers messages to one WebSocket connection.
type WebSocketSubscriber struct {
	id   string
	conn *websocket.Conn
	opts Options
	log  *logger.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewWebSocketSubscriber wraps an upgraded connection. Call Start to begin delivery.
func NewWebSocketSubscriber(conn *websocket.Conn, opts Options, log *logger.Logger) *WebSocketSubscriber {
	opts = opts.withDefaults()

	return &WebSocketSubscriber{
		id:   uuid.NewString(),
		conn: conn,
		opts: opts,
		log:  log,
		send: make(chan []byte, opts.SendBuffer),
		done: make(chan struct{}),
	}
}

func (s *WebSocketSubscriber) ID() string { return s.id }

// Send queues msg without blocking.
func (s *WebSocketSubscriber) Send(msg []byte) error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}

	select {
	case s.send <- msg:
		return nil
	default:
		return ErrSlowSubscriber
	}
}

// Close terminates the connection. It is safe to call more than once.
func (s *WebSocketSubscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// Start runs the reader and writer goroutines. Either one ending removes the
// subscriber from h and closes the connection.
func (s *WebSocketSubscriber) Start(h *Hub) {
	go s.writeLoop(h)
	go s.readLoop(h)
}

func (s *WebSocketSubscriber) stop(h *Hub) {
	h.Unregister(s.id)
	_ = s.Close()
}

func (s *WebSocketSubscriber) writeLoop(h *Hub) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()
	defer s.stop(h)

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Debugf("write to subscriber %s failed: %v", s.id, err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debugf("ping to subscriber %s failed: %v", s.id, err)
				return
			}
		}
	}
}

// readLoop discards client messages; its only job is to notice disconnects and pongs.
func (s *WebSocketSubscriber) readLoop(h *Hub) {
	defer s.stop(h)

	pongWait := 2 * s.opts.PingInterval
	s.conn.SetReadLimit(maxClientMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debugf("subscriber %s disconnected: %v", s.id, err)
			}
			return
		}
	}
}

// Handler upgrades requests to WebSocket subscriptions registered with h.
func Handler(h *Hub, opts Options, log *logger.Logger) http.Handler {
	opts = opts.withDefaults()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     opts.CheckOrigin,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.Authenticate != nil {
			if err := opts.Authenticate(r); err != nil {
				log.Debugf("websocket subscription rejected from %s: %v", r.RemoteAddr, err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the error response
			log.Debugf("websocket upgrade failed from %s: %v", r.RemoteAddr, err)
			return
		}

		sub := NewWebSocketSubscriber(conn, opts, log)
		h.Register(sub)
		sub.Start(h)
	})
}
