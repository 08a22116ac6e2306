package realtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/observability"
	"github.com/goldenticket/goldenticket/internal/presence"
)

// Sender delivers one event to one connection. The websocket gateway
// implements this; tests substitute a recorder.
type Sender interface {
	Send(connectionID string, event EventName, payload any) error
}

// UserDirectory lists known users so predicate selectors can resolve
// to connection sets.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Dispatcher fans a named event out to a target selector: a single
// connection, a user's connections, a filtered user set, or everyone.
// Delivery is fire-and-forget per connection: a failed send is logged
// and counted but never aborts the rest of the batch or surfaces to
// the triggering command.
type Dispatcher struct {
	registry *presence.Registry
	users    UserDirectory
	sender   Sender
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(registry *presence.Registry, users UserDirectory, sender Sender, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		users:    users,
		sender:   sender,
		logger:   logger,
		metrics:  metrics,
	}
}

// ToConnection sends to exactly one connection (the command's caller).
func (d *Dispatcher) ToConnection(connectionID string, event EventName, payload any) {
	d.deliver([]string{connectionID}, event, payload)
}

// ToAll sends to every currently live connection.
func (d *Dispatcher) ToAll(event EventName, payload any) {
	d.deliver(d.registry.AllConnections(), event, payload)
}

// ToUser sends to every live connection of one user. A user with zero
// connections is a no-op, not an error.
func (d *Dispatcher) ToUser(userID string, event EventName, payload any) {
	d.deliver(d.registry.ConnectionsFor(userID), event, payload)
}

// ToUsers sends to the union of the users' connections. Overlapping
// sets are deduplicated so each connection receives the event once.
func (d *Dispatcher) ToUsers(userIDs []string, event EventName, payload any) {
	seen := make(map[string]struct{})
	var conns []string
	for _, userID := range userIDs {
		for _, connID := range d.registry.ConnectionsFor(userID) {
			if _, dup := seen[connID]; dup {
				continue
			}
			seen[connID] = struct{}{}
			conns = append(conns, connID)
		}
	}
	d.deliver(conns, event, payload)
}

// ToUsersWhere sends to every connection of every user satisfying the
// predicate, e.g. "all staff and admins".
func (d *Dispatcher) ToUsersWhere(ctx context.Context, pred func(domain.User) bool, event EventName, payload any) {
	users, err := d.users.ListUsers(ctx)
	if err != nil {
		d.logger.Warn("dispatch: listing users failed", zap.String("event", string(event)), zap.Error(err))
		return
	}
	var ids []string
	for _, user := range users {
		if pred(user) {
			ids = append(ids, user.ID)
		}
	}
	d.ToUsers(ids, event, payload)
}

func (d *Dispatcher) deliver(connectionIDs []string, event EventName, payload any) {
	for _, connID := range connectionIDs {
		if err := d.sender.Send(connID, event, payload); err != nil {
			d.metrics.RecordDispatchFailure(string(event))
			d.logger.Warn("dispatch: send failed",
				zap.String("event", string(event)),
				zap.String("connection_id", connID),
				zap.Error(err))
			continue
		}
		d.metrics.RecordEvent(string(event))
	}
}
