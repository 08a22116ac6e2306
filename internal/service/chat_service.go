package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/api/dto"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/repository"
	"github.com/goldenticket/goldenticket/pkg/util"
)

// ChatService owns the chatroom lifecycle: admission, membership,
// last-seen bookkeeping and the closed flag. Closing and reopening are
// invoked only by TicketService as a side effect of ticket status.
type ChatService struct {
	chatrooms  repository.ChatroomRepository
	messages   repository.MessageRepository
	users      repository.UserRepository
	dispatcher *realtime.Dispatcher
	logger     *zap.Logger
	maxOpen    int
}

// ChatDependencies bundles collaborators for ChatService.
type ChatDependencies struct {
	ChatroomRepo     repository.ChatroomRepository
	MessageRepo      repository.MessageRepository
	UserRepo         repository.UserRepository
	Dispatcher       *realtime.Dispatcher
	Logger           *zap.Logger
	MaxOpenChatrooms int
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	maxOpen := deps.MaxOpenChatrooms
	if maxOpen <= 0 {
		maxOpen = 3
	}
	return &ChatService{
		chatrooms:  deps.ChatroomRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		maxOpen:    maxOpen,
	}
}

// RequestChat opens a new support chat for a requester unless they
// already hold the maximum number of open unticketed chatrooms. The
// rejection is an event to the caller, not an error.
func (s *ChatService) RequestChat(ctx context.Context, requesterID, callerConnID string) error {
	count, err := s.chatrooms.CountOpenUnticketed(ctx, requesterID)
	if err != nil {
		return err
	}
	if count >= s.maxOpen {
		s.dispatcher.ToConnection(callerConnID, realtime.EventMaxOpenChatroomsReached, nil)
		return nil
	}

	room, err := s.chatrooms.Create(ctx, requesterID)
	if err != nil {
		return err
	}
	s.dispatcher.ToConnection(callerConnID, realtime.EventChatSessionCreated, dto.ChatroomPayload{
		Chatroom: dto.NewChatroomDTO(room),
	})
	return nil
}

// Join adds a staff member to a chatroom. Duplicate joins yield
// AlreadyMember to the caller and leave membership unchanged; on
// success every current member learns of the joiner.
func (s *ChatService) Join(ctx context.Context, userID, chatroomID, callerConnID string) error {
	room, err := s.chatrooms.GetByID(ctx, chatroomID)
	if err != nil {
		return err
	}
	if room.IsMember(userID) {
		s.dispatcher.ToConnection(callerConnID, realtime.EventAlreadyMember, nil)
		return nil
	}

	if err := s.chatrooms.AddMember(ctx, chatroomID, userID); err != nil {
		return err
	}
	joiner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	room, err = s.chatrooms.GetByID(ctx, chatroomID)
	if err != nil {
		return err
	}
	s.dispatcher.ToUsers(room.MemberIDs(), realtime.EventStaffJoinedChatroom, dto.StaffJoinedPayload{
		User:     dto.NewUserDTO(*joiner),
		Chatroom: dto.NewChatroomDTO(room),
	})
	return nil
}

// Open returns a chatroom with its full message history to the caller
// and refreshes the caller's read position.
func (s *ChatService) Open(ctx context.Context, userID, chatroomID, callerConnID string) error {
	room, err := s.chatrooms.GetByID(ctx, chatroomID)
	if err != nil {
		return err
	}
	history, err := s.messages.ListByChatroom(ctx, chatroomID)
	if err != nil {
		return err
	}
	if err := s.MarkSeen(ctx, userID, chatroomID); err != nil {
		return err
	}
	s.dispatcher.ToConnection(callerConnID, realtime.EventChatroomOpened, dto.ChatroomPayload{
		Chatroom: dto.NewChatroomDTOWithMessages(room, history),
	})
	return nil
}

// MarkSeen updates the member's last-seen marker and tells every
// member so clients can render read state.
func (s *ChatService) MarkSeen(ctx context.Context, userID, chatroomID string) error {
	room, err := s.chatrooms.GetByID(ctx, chatroomID)
	if err != nil {
		return err
	}
	if err := s.chatrooms.UpdateLastSeen(ctx, chatroomID, userID); err != nil {
		return err
	}
	s.dispatcher.ToUsers(room.MemberIDs(), realtime.EventSeenUpdated, dto.SeenUpdatedPayload{
		UserID:     userID,
		ChatroomID: chatroomID,
	})
	return nil
}

// Close flips the chatroom closed and returns the refreshed room.
func (s *ChatService) Close(ctx context.Context, chatroomID string) (*domain.Chatroom, error) {
	return s.setClosed(ctx, chatroomID, true)
}

// Reopen clears the closed flag and returns the refreshed room.
func (s *ChatService) Reopen(ctx context.Context, chatroomID string) (*domain.Chatroom, error) {
	return s.setClosed(ctx, chatroomID, false)
}

func (s *ChatService) setClosed(ctx context.Context, chatroomID string, closed bool) (*domain.Chatroom, error) {
	if err := s.chatrooms.SetClosed(ctx, chatroomID, closed); err != nil {
		return nil, err
	}
	room, err := s.chatrooms.GetByID(ctx, chatroomID)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return room, nil
}
