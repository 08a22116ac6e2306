package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/api/dto"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/presence"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/repository"
	"github.com/goldenticket/goldenticket/pkg/util"
)

// SessionService handles connection lifecycle commands: presence
// announcement with the bootstrap snapshot, admin broadcasts, and
// disconnect pruning.
type SessionService struct {
	registry   *presence.Registry
	chatrooms  repository.ChatroomRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	catalog    *CatalogService
	dispatcher *realtime.Dispatcher
	logger     *zap.Logger
}

// SessionDependencies bundles collaborators for SessionService.
type SessionDependencies struct {
	Registry     *presence.Registry
	ChatroomRepo repository.ChatroomRepository
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	Catalog      *CatalogService
	Dispatcher   *realtime.Dispatcher
	Logger       *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	return &SessionService{
		registry:   deps.Registry,
		chatrooms:  deps.ChatroomRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Announce registers the connection under the user and replies with
// the presence snapshot: catalogs, users grouped by role, and the
// chatrooms and tickets visible to the caller's role. Requesters see
// only their own; staff and admin see everything.
func (s *SessionService) Announce(ctx context.Context, userID string, role domain.Role, connectionID string) error {
	s.registry.Connect(userID, connectionID)
	s.logger.Info("presence announced",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.String("connection_id", connectionID))

	staffView := role == domain.RoleStaff || role == domain.RoleAdmin

	tags, err := s.catalog.Tags(ctx)
	if err != nil {
		return err
	}
	faqs, err := s.catalog.FAQs(ctx)
	if err != nil {
		return err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return err
	}

	var rooms []domain.Chatroom
	if staffView {
		rooms, err = s.chatrooms.ListAll(ctx)
	} else {
		rooms, err = s.chatrooms.ListForUser(ctx, userID)
	}
	if err != nil {
		return err
	}

	var tickets []domain.Ticket
	if staffView {
		tickets, err = s.tickets.ListAll(ctx)
	} else {
		tickets, err = s.tickets.ListForRequester(ctx, userID)
	}
	if err != nil {
		return err
	}

	grouped := make(map[string][]dto.UserDTO)
	for _, user := range users {
		key := string(user.Role)
		grouped[key] = append(grouped[key], dto.NewUserDTO(user))
	}

	s.dispatcher.ToConnection(connectionID, realtime.EventPresenceSnapshot, dto.PresenceSnapshotDTO{
		Tags:       dto.NewMainTagDTOs(tags),
		FAQs:       dto.NewFAQDTOs(faqs),
		Users:      grouped,
		Chatrooms:  dto.NewChatroomDTOs(rooms),
		Tickets:    dto.NewTicketDTOs(tickets),
		Statuses:   domain.TicketStatuses(),
		Priorities: domain.TicketPriorities(),
	})
	return nil
}

// Broadcast emits an announce notice to every live connection.
func (s *SessionService) Broadcast(text string) error {
	if text == "" {
		return util.NewValidationError("broadcast text required", nil)
	}
	s.dispatcher.ToAll(realtime.EventAnnounce, dto.AnnouncePayload{Text: text})
	return nil
}

// Disconnect prunes the connection from presence. In-flight workflow
// steps already past persistence are unaffected.
func (s *SessionService) Disconnect(connectionID string) {
	if userID, ok := s.registry.Disconnect(connectionID); ok {
		s.logger.Info("presence dropped",
			zap.String("user_id", userID),
			zap.String("connection_id", connectionID))
	}
}
