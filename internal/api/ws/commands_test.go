package ws

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/auth"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/realtime"
)

func newTestSession(g *Gateway) *session {
	sess := &session{
		id:   "conn-test",
		send: make(chan realtime.Envelope, sendBuffer),
		done: make(chan struct{}),
	}
	g.mu.Lock()
	g.sessions[sess.id] = sess
	g.mu.Unlock()
	return sess
}

func expectErrorFrame(t *testing.T, sess *session, wantCode string) {
	t.Helper()
	select {
	case envelope := <-sess.send:
		if envelope.Event != eventError {
			t.Fatalf("event = %q, want %q", envelope.Event, eventError)
		}
		payload, ok := envelope.Payload.(errorPayload)
		if !ok {
			t.Fatalf("payload type %T", envelope.Payload)
		}
		if payload.Code != wantCode {
			t.Errorf("error code = %q, want %q", payload.Code, wantCode)
		}
	default:
		t.Fatal("no frame queued")
	}
}

func TestRouteRejectsUnknownCommand(t *testing.T) {
	t.Parallel()
	g := NewGateway(zap.NewNop(), nil)
	sess := newTestSession(g)

	g.route(sess, commandEnvelope{Command: "SelfDestruct"})
	expectErrorFrame(t, sess, "VALIDATION_FAILED")
}

func TestRouteRequiresAnnouncedIdentity(t *testing.T) {
	t.Parallel()
	g := NewGateway(zap.NewNop(), nil)
	sess := newTestSession(g)

	raw, _ := json.Marshal(map[string]string{"chatroom_id": "room-1", "text": "hi"})
	g.route(sess, commandEnvelope{Command: cmdSendMessage, Payload: raw})
	expectErrorFrame(t, sess, "UNAUTHORIZED")
}

func TestRouteGatesStaffCommands(t *testing.T) {
	t.Parallel()
	g := NewGateway(zap.NewNop(), nil)
	sess := newTestSession(g)
	sess.setIdentity("req", domain.RoleRequester)

	raw, _ := json.Marshal(map[string]string{"name": "Billing"})
	g.route(sess, commandEnvelope{Command: cmdCreateMainTag, Payload: raw})
	expectErrorFrame(t, sess, "UNAUTHORIZED")
}

func TestAnnounceIdentityMustMatchToken(t *testing.T) {
	t.Parallel()
	g := NewGateway(zap.NewNop(), nil)
	sess := newTestSession(g)
	sess.claims = &auth.Claims{UserID: "alice", Role: domain.RoleRequester}

	raw, _ := json.Marshal(map[string]string{"user_id": "mallory", "role": "REQUESTER"})
	g.route(sess, commandEnvelope{Command: cmdAnnouncePresence, Payload: raw})
	expectErrorFrame(t, sess, "UNAUTHORIZED")

	if userID, _ := sess.identity(); userID != "" {
		t.Errorf("identity bound despite token mismatch: %q", userID)
	}
}

func TestRouteRejectsMalformedPayload(t *testing.T) {
	t.Parallel()
	g := NewGateway(zap.NewNop(), nil)
	sess := newTestSession(g)
	sess.setIdentity("staff1", domain.RoleStaff)

	g.route(sess, commandEnvelope{Command: cmdCreateMainTag, Payload: json.RawMessage(`{"name":`)})
	expectErrorFrame(t, sess, "VALIDATION_FAILED")
}
