package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/ai"
	"github.com/goldenticket/goldenticket/internal/api/dto"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/repository"
)

// Assistant produces a raw triage reply for one user message.
type Assistant interface {
	GetReply(ctx context.Context, chatroomID, message, userID string) (string, error)
}

// TriageService drives the per-message workflow: relay the message,
// refresh seen state, and while the chatroom is unticketed run the AI
// turn that decides whether a human needs to take over. Once a ticket
// is bound the AI is never invoked again for that chatroom.
type TriageService struct {
	messages   repository.MessageRepository
	chatrooms  repository.ChatroomRepository
	users      repository.UserRepository
	chat       *ChatService
	tickets    *TicketService
	assistant  Assistant
	dispatcher *realtime.Dispatcher
	logger     *zap.Logger
	agentID    string
}

// TriageDependencies bundles collaborators for TriageService.
type TriageDependencies struct {
	MessageRepo  repository.MessageRepository
	ChatroomRepo repository.ChatroomRepository
	UserRepo     repository.UserRepository
	Chat         *ChatService
	Tickets      *TicketService
	Assistant    Assistant
	Dispatcher   *realtime.Dispatcher
	Logger       *zap.Logger
	AgentUserID  string
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	return &TriageService{
		messages:   deps.MessageRepo,
		chatrooms:  deps.ChatroomRepo,
		users:      deps.UserRepo,
		chat:       deps.Chat,
		tickets:    deps.Tickets,
		assistant:  deps.Assistant,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		agentID:    deps.AgentUserID,
	}
}

// SendMessage handles one inbound chat message: persist it, relay it
// to staff members of the room (and to all staff/admin once the room
// is ticketed), refresh the sender's seen state, then run the AI turn
// if the room has no bound ticket yet.
func (s *TriageService) SendMessage(ctx context.Context, senderID, chatroomID, text string) error {
	message := &domain.Message{ChatroomID: chatroomID, SenderID: senderID, Body: text}
	if err := s.messages.Create(ctx, message); err != nil {
		return err
	}
	message, err := s.messages.GetByID(ctx, message.ID)
	if err != nil {
		return err
	}
	room, err := s.chatrooms.GetByID(ctx, chatroomID)
	if err != nil {
		return err
	}

	payload := dto.MessageReceivedPayload{
		Chatroom: dto.NewChatroomDTO(room),
		Message:  dto.NewMessageDTO(message),
	}
	// Unticketed rooms relay only to staff who already joined; once a
	// ticket is bound every member and every staff/admin gets the
	// message (human-to-human relay, sender excluded).
	var targets []string
	if room.HasTicket() {
		targets = append(s.membersOf(room, senderID), s.allStaffIDs(ctx)...)
	} else {
		targets = s.staffMembersOf(room, senderID)
	}
	s.dispatcher.ToUsers(targets, realtime.EventMessageReceived, payload)

	if err := s.chat.MarkSeen(ctx, senderID, chatroomID); err != nil {
		return err
	}

	if !room.HasTicket() {
		s.aiTurn(ctx, room, text, senderID)
	}
	return nil
}

// aiTurn runs one triage exchange. AI failure is never fatal to the
// conversation: the fixed fallback reply takes over and forces
// escalation so a human eventually sees the chatroom.
func (s *TriageService) aiTurn(ctx context.Context, room *domain.Chatroom, userMessage, requesterID string) {
	var resp ai.Response
	raw, err := s.assistant.GetReply(ctx, room.ID, userMessage, requesterID)
	if err != nil {
		s.logger.Warn("ai service unavailable", zap.String("chatroom_id", room.ID), zap.Error(err))
		resp = ai.Unavailable()
	} else if resp, err = ai.Parse(raw); err != nil {
		s.logger.Warn("ai reply unparseable", zap.String("chatroom_id", room.ID), zap.Error(err))
		resp = ai.Unavailable()
	}

	reply := &domain.Message{ChatroomID: room.ID, SenderID: s.agentID, Body: resp.Message}
	if err := s.messages.Create(ctx, reply); err != nil {
		s.logger.Error("persisting ai reply failed", zap.String("chatroom_id", room.ID), zap.Error(err))
		s.dispatcher.ToUser(requesterID, realtime.EventInputReenabled, nil)
		return
	}
	reply, err = s.messages.GetByID(ctx, reply.ID)
	if err != nil {
		s.logger.Error("loading ai reply failed", zap.String("chatroom_id", room.ID), zap.Error(err))
		s.dispatcher.ToUser(requesterID, realtime.EventInputReenabled, nil)
		return
	}
	room, err = s.chatrooms.GetByID(ctx, room.ID)
	if err != nil {
		s.logger.Error("reloading chatroom failed", zap.String("chatroom_id", room.ID), zap.Error(err))
		s.dispatcher.ToUser(requesterID, realtime.EventInputReenabled, nil)
		return
	}

	// The AI reply goes to the requester only; staff see the room once
	// it escalates.
	s.dispatcher.ToUser(requesterID, realtime.EventMessageReceived, dto.MessageReceivedPayload{
		Chatroom: dto.NewChatroomDTO(room),
		Message:  dto.NewMessageDTO(reply),
	})

	if !room.HasTicket() && resp.CallAgent {
		_, err := s.tickets.Escalate(ctx, EscalateInput{
			Title:       resp.Title,
			RequesterID: requesterID,
			MainTag:     resp.MainTag,
			SubTag:      resp.SubTag,
			Priority:    resp.Priority,
			ChatroomID:  room.ID,
		})
		if err != nil {
			s.logger.Error("auto escalation failed", zap.String("chatroom_id", room.ID), zap.Error(err))
		}
	}

	// Exactly one re-enable per turn, after the escalation decision,
	// so the client resumes input against the final room state.
	s.dispatcher.ToUser(requesterID, realtime.EventInputReenabled, nil)

	if err := s.chat.MarkSeen(ctx, requesterID, room.ID); err != nil {
		s.logger.Warn("seen refresh after ai reply failed", zap.String("chatroom_id", room.ID), zap.Error(err))
	}
}

func (s *TriageService) membersOf(room *domain.Chatroom, excludeID string) []string {
	var ids []string
	for _, member := range room.Members {
		if member.UserID != excludeID {
			ids = append(ids, member.UserID)
		}
	}
	return ids
}

func (s *TriageService) staffMembersOf(room *domain.Chatroom, excludeID string) []string {
	var ids []string
	for _, member := range room.Members {
		if member.UserID == excludeID {
			continue
		}
		if member.User.IsStaff() {
			ids = append(ids, member.UserID)
		}
	}
	return ids
}

func (s *TriageService) allStaffIDs(ctx context.Context) []string {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Warn("listing staff for relay failed", zap.Error(err))
		return nil
	}
	var ids []string
	for _, user := range users {
		if user.IsStaff() {
			ids = append(ids, user.ID)
		}
	}
	return ids
}
