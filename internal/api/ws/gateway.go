package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/auth"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/observability"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/service"
)

// sendBuffer is the per-connection outbound queue depth. A connection
// that falls this far behind is considered dead slow and its deliveries
// start failing (the dispatcher logs and moves on).
const sendBuffer = 64

// Services bundles the command targets the gateway routes to. Bound
// after construction because the dispatcher, which the services need,
// needs the gateway as its sender.
type Services struct {
	Session *service.SessionService
	Chat    *service.ChatService
	Triage  *service.TriageService
	Tickets *service.TicketService
	Catalog *service.CatalogService
}

// Gateway owns all live websocket connections. It is the transport
// half of the realtime layer: inbound frames are decoded and routed to
// services, outbound events are queued per connection and written by a
// dedicated writer goroutine so one slow client never blocks dispatch.
type Gateway struct {
	logger   *zap.Logger
	metrics  *observability.Metrics
	services Services

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewGateway constructs the gateway. Call BindServices before serving.
func NewGateway(logger *zap.Logger, metrics *observability.Metrics) *Gateway {
	return &Gateway{
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*session),
	}
}

// BindServices attaches the command targets.
func (g *Gateway) BindServices(services Services) {
	g.services = services
}

// session is one live websocket connection.
type session struct {
	id   string
	conn *websocket.Conn
	send chan realtime.Envelope
	done chan struct{}

	mu     sync.Mutex
	userID string
	role   domain.Role
	claims *auth.Claims
}

func (s *session) identity() (string, domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.role
}

func (s *session) setIdentity(userID string, role domain.Role) {
	s.mu.Lock()
	s.userID = userID
	s.role = role
	s.mu.Unlock()
}

// Send implements realtime.Sender. It queues the event on the target
// connection's outbound channel without blocking.
func (g *Gateway) Send(connectionID string, event realtime.EventName, payload any) error {
	g.mu.RLock()
	sess, ok := g.sessions[connectionID]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %s not registered", connectionID)
	}

	envelope := realtime.Envelope{Event: event, Payload: payload}
	select {
	case sess.send <- envelope:
		return nil
	case <-sess.done:
		return fmt.Errorf("connection %s closed", connectionID)
	default:
		return fmt.Errorf("connection %s send buffer full", connectionID)
	}
}

// Handler returns the fiber handler serving the websocket endpoint.
func (g *Gateway) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		g.serve(conn)
	})
}

// UpgradeRequired rejects plain HTTP requests on the websocket route.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (g *Gateway) serve(conn *websocket.Conn) {
	sess := &session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan realtime.Envelope, sendBuffer),
		done: make(chan struct{}),
	}
	if claims, ok := conn.Locals(auth.ClaimsKey).(*auth.Claims); ok {
		sess.claims = claims
	}

	g.mu.Lock()
	g.sessions[sess.id] = sess
	g.mu.Unlock()
	g.logger.Debug("websocket connected", zap.String("connection_id", sess.id))

	go g.writeLoop(sess)
	g.readLoop(sess)

	g.mu.Lock()
	delete(g.sessions, sess.id)
	g.mu.Unlock()
	close(sess.done)

	if g.services.Session != nil {
		g.services.Session.Disconnect(sess.id)
	}
	g.logger.Debug("websocket disconnected", zap.String("connection_id", sess.id))
}

func (g *Gateway) writeLoop(sess *session) {
	for {
		select {
		case envelope := <-sess.send:
			if err := sess.conn.WriteJSON(envelope); err != nil {
				g.logger.Warn("websocket write failed",
					zap.String("connection_id", sess.id),
					zap.String("event", string(envelope.Event)),
					zap.Error(err))
				_ = sess.conn.Close()
				return
			}
		case <-sess.done:
			return
		}
	}
}

func (g *Gateway) readLoop(sess *session) {
	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame commandEnvelope
		if err := json.Unmarshal(raw, &frame); err != nil {
			g.sendError(sess, "BAD_FRAME", "malformed command envelope")
			continue
		}
		g.route(sess, frame)
	}
}
