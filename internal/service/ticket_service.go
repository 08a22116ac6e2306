package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/api/dto"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/repository"
	"github.com/goldenticket/goldenticket/pkg/util"
)

// TicketService owns the ticket lifecycle and keeps the bound
// chatroom's closed state synchronized with ticket status. Tickets are
// created only by escalating a chatroom, never standalone.
type TicketService struct {
	tickets    repository.TicketRepository
	chatrooms  repository.ChatroomRepository
	users      repository.UserRepository
	chat       *ChatService
	dispatcher *realtime.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for TicketService.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ChatroomRepo repository.ChatroomRepository
	UserRepo     repository.UserRepository
	Chat         *ChatService
	Dispatcher   *realtime.Dispatcher
	Logger       *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		chatrooms:  deps.ChatroomRepo,
		users:      deps.UserRepo,
		chat:       deps.Chat,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// EscalateInput describes a chatroom escalation.
type EscalateInput struct {
	Title       string
	RequesterID string
	MainTag     string
	SubTag      string
	Priority    domain.TicketPriority
	ChatroomID  string
}

// TicketUpdateInput describes staff edits to a ticket. EditorID is the
// identity issuing the command, supplied explicitly by the gateway and
// recorded for audit.
type TicketUpdateInput struct {
	TicketID   string
	Title      string
	Status     domain.TicketStatus
	Priority   domain.TicketPriority
	MainTag    *string
	SubTag     *string
	AssigneeID *string
	EditorID   string
}

// Escalate creates a ticket bound to the chatroom and notifies the
// requester plus every staff/admin connection of the new ticket and
// the updated chatroom.
func (s *TicketService) Escalate(ctx context.Context, input EscalateInput) (*domain.Ticket, error) {
	room, err := s.chatrooms.GetByID(ctx, input.ChatroomID)
	if err != nil {
		return nil, err
	}
	if room.HasTicket() {
		return nil, util.NewConflict("chatroom already escalated", map[string]any{
			"chatroom_id": room.ID,
		})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	ticket := &domain.Ticket{
		Title:       input.Title,
		RequesterID: input.RequesterID,
		ChatroomID:  input.ChatroomID,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		MainTag:     input.MainTag,
		SubTag:      input.SubTag,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.chatrooms.BindTicket(ctx, input.ChatroomID, ticket.ID); err != nil {
		return nil, err
	}

	room, err = s.chatrooms.GetByID(ctx, input.ChatroomID)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	s.logger.Info("chatroom escalated",
		zap.String("chatroom_id", room.ID),
		zap.String("ticket_id", ticket.ID),
		zap.String("priority", string(ticket.Priority)))

	s.broadcastTicket(ctx, ticket, room)
	return ticket, nil
}

// Update applies field changes to a ticket. Closing the ticket closes
// its bound chatroom; reopening an open ticket whose chatroom is
// closed reopens it. A ticket without a bound chatroom is a
// data-consistency violation and aborts the update.
func (s *TicketService) Update(ctx context.Context, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, err
	}

	room, err := s.chatrooms.GetByTicketID(ctx, ticket.ID)
	if err != nil {
		if util.IsNotFound(err) {
			return nil, util.NewIntegrityViolation("ticket has no bound chatroom", map[string]any{
				"ticket_id": ticket.ID,
			})
		}
		return nil, err
	}

	editorID := input.EditorID
	ticket.Title = input.Title
	ticket.Status = input.Status
	ticket.Priority = input.Priority
	ticket.EditorID = &editorID
	if input.MainTag != nil {
		ticket.MainTag = *input.MainTag
	}
	if input.SubTag != nil {
		ticket.SubTag = *input.SubTag
	}
	if input.AssigneeID != nil {
		ticket.AssigneeID = input.AssigneeID
	}
	if input.Status == domain.TicketStatusClosed {
		if ticket.ClosedAt == nil {
			now := time.Now()
			ticket.ClosedAt = &now
		}
	} else {
		ticket.ClosedAt = nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	switch {
	case input.Status == domain.TicketStatusClosed && !room.Closed:
		if room, err = s.chat.Close(ctx, room.ID); err != nil {
			return nil, err
		}
	case input.Status == domain.TicketStatusOpen && room.Closed:
		if room, err = s.chat.Reopen(ctx, room.ID); err != nil {
			return nil, err
		}
	}

	ticket, err = s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	s.broadcastTicket(ctx, ticket, room)
	return ticket, nil
}

// View sends one ticket snapshot to the caller only.
func (s *TicketService) View(ctx context.Context, ticketID, callerConnID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	s.dispatcher.ToConnection(callerConnID, realtime.EventTicketUpdated, dto.TicketPayload{
		Ticket: dto.NewTicketDTO(ticket),
	})
	return nil
}

// broadcastTicket delivers the refreshed ticket and chatroom to every
// staff/admin connection and every member connection of the bound
// chatroom. The sets overlap; the dispatcher deduplicates by
// connection so each connection sees each event once.
func (s *TicketService) broadcastTicket(ctx context.Context, ticket *domain.Ticket, room *domain.Chatroom) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Warn("ticket broadcast: listing users failed", zap.Error(err))
		users = nil
	}
	var targets []string
	for _, user := range users {
		if user.IsStaff() {
			targets = append(targets, user.ID)
		}
	}
	targets = append(targets, room.MemberIDs()...)
	targets = append(targets, ticket.RequesterID)

	s.dispatcher.ToUsers(targets, realtime.EventTicketUpdated, dto.TicketPayload{
		Ticket: dto.NewTicketDTO(ticket),
	})
	s.dispatcher.ToUsers(targets, realtime.EventChatroomUpdated, dto.ChatroomPayload{
		Chatroom: dto.NewChatroomDTO(room),
	})
}
