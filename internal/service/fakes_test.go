package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/observability"
	"github.com/goldenticket/goldenticket/internal/presence"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/repository"
)

// fakeSender records every delivery the dispatcher attempts.
type fakeSender struct {
	mu    sync.Mutex
	sends []sentEvent
}

type sentEvent struct {
	ConnID  string
	Event   realtime.EventName
	Payload any
}

func (s *fakeSender) Send(connID string, event realtime.EventName, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, sentEvent{ConnID: connID, Event: event, Payload: payload})
	return nil
}

func (s *fakeSender) count(connID string, event realtime.EventName) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, send := range s.sends {
		if send.ConnID == connID && send.Event == event {
			n++
		}
	}
	return n
}

func (s *fakeSender) total(event realtime.EventName) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, send := range s.sends {
		if send.Event == event {
			n++
		}
	}
	return n
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = nil
}

// fakeUserRepo serves a fixed user directory.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

// fakeChatroomRepo keeps chatrooms in memory.
type fakeChatroomRepo struct {
	mu    sync.Mutex
	rooms map[string]*domain.Chatroom
	users *fakeUserRepo
	seq   int
}

func (r *fakeChatroomRepo) Create(ctx context.Context, requesterID string) (*domain.Chatroom, error) {
	r.mu.Lock()
	r.seq++
	id := fmt.Sprintf("room-%d", r.seq)
	now := time.Now()
	r.rooms[id] = &domain.Chatroom{
		ID:          id,
		RequesterID: requesterID,
		Members:     []domain.ChatroomMember{{UserID: requesterID, JoinedAt: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r *fakeChatroomRepo) GetByID(ctx context.Context, id string) (*domain.Chatroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.copyRoom(room), nil
}

func (r *fakeChatroomRepo) GetByTicketID(ctx context.Context, ticketID string) (*domain.Chatroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.TicketID != nil && *room.TicketID == ticketID {
			return r.copyRoom(room), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeChatroomRepo) ListForUser(ctx context.Context, userID string) ([]domain.Chatroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Chatroom
	for _, room := range r.rooms {
		for _, m := range room.Members {
			if m.UserID == userID {
				out = append(out, *r.copyRoom(room))
				break
			}
		}
	}
	return out, nil
}

func (r *fakeChatroomRepo) ListAll(ctx context.Context) ([]domain.Chatroom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Chatroom
	for _, room := range r.rooms {
		out = append(out, *r.copyRoom(room))
	}
	return out, nil
}

func (r *fakeChatroomRepo) CountOpenUnticketed(ctx context.Context, requesterID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, room := range r.rooms {
		if room.RequesterID == requesterID && room.TicketID == nil && !room.Closed {
			count++
		}
	}
	return count, nil
}

func (r *fakeChatroomRepo) AddMember(ctx context.Context, chatroomID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[chatroomID]
	if !ok {
		return pgx.ErrNoRows
	}
	for _, m := range room.Members {
		if m.UserID == userID {
			return nil
		}
	}
	room.Members = append(room.Members, domain.ChatroomMember{UserID: userID, JoinedAt: time.Now()})
	return nil
}

func (r *fakeChatroomRepo) UpdateLastSeen(ctx context.Context, chatroomID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[chatroomID]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	for i := range room.Members {
		if room.Members[i].UserID == userID {
			room.Members[i].LastSeen = &now
		}
	}
	return nil
}

func (r *fakeChatroomRepo) SetClosed(ctx context.Context, chatroomID string, closed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[chatroomID]
	if !ok {
		return pgx.ErrNoRows
	}
	room.Closed = closed
	return nil
}

func (r *fakeChatroomRepo) BindTicket(ctx context.Context, chatroomID, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[chatroomID]
	if !ok {
		return pgx.ErrNoRows
	}
	room.TicketID = &ticketID
	return nil
}

func (r *fakeChatroomRepo) copyRoom(room *domain.Chatroom) *domain.Chatroom {
	out := *room
	out.Members = make([]domain.ChatroomMember, len(room.Members))
	copy(out.Members, room.Members)
	for i := range out.Members {
		if user, ok := r.users.users[out.Members[i].UserID]; ok {
			out.Members[i].User = user
		}
	}
	return &out
}

// fakeTicketRepo keeps tickets in memory.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	seq     int
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if ticket.ID == "" {
		ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ListForRequester(ctx context.Context, userID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.RequesterID == userID {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		out = append(out, *ticket)
	}
	return out, nil
}

// fakeMessageRepo keeps messages in memory, append-only.
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[string]*domain.Message
	order    []string
	users    *fakeUserRepo
	seq      int
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if message.ID == "" {
		message.ID = fmt.Sprintf("msg-%d", r.seq)
	}
	message.CreatedAt = time.Now()
	clone := *message
	r.messages[message.ID] = &clone
	r.order = append(r.order, message.ID)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *message
	if user, found := r.users.users[clone.SenderID]; found {
		clone.Sender = user
	}
	return &clone, nil
}

func (r *fakeMessageRepo) ListByChatroom(ctx context.Context, chatroomID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, id := range r.order {
		message := r.messages[id]
		if message.ChatroomID != chatroomID {
			continue
		}
		clone := *message
		if user, found := r.users.users[clone.SenderID]; found {
			clone.Sender = user
		}
		out = append(out, clone)
	}
	return out, nil
}

// fakeAssistant returns a canned reply or failure.
type fakeAssistant struct {
	mu    sync.Mutex
	raw   string
	err   error
	calls int
}

func (a *fakeAssistant) GetReply(ctx context.Context, chatroomID, message, userID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.raw, a.err
}

func (a *fakeAssistant) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// fakeTagRepo keeps the tag catalog in memory.
type fakeTagRepo struct {
	mu   sync.Mutex
	tags []domain.MainTag
}

func (r *fakeTagRepo) CreateMain(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tag := range r.tags {
		if tag.Name == name {
			return repository.ErrDuplicateName
		}
	}
	r.tags = append(r.tags, domain.MainTag{ID: fmt.Sprintf("tag-%d", len(r.tags)+1), Name: name})
	return nil
}

func (r *fakeTagRepo) CreateSub(ctx context.Context, name, mainTagName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, tag := range r.tags {
		if tag.Name != mainTagName {
			continue
		}
		for _, sub := range tag.SubTags {
			if sub.Name == name {
				return repository.ErrDuplicateName
			}
		}
		r.tags[i].SubTags = append(r.tags[i].SubTags, domain.SubTag{
			ID:   fmt.Sprintf("sub-%d", len(tag.SubTags)+1),
			Name: name,
		})
		return nil
	}
	return pgx.ErrNoRows
}

func (r *fakeTagRepo) ListCatalog(ctx context.Context) ([]domain.MainTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.MainTag, len(r.tags))
	copy(out, r.tags)
	return out, nil
}

// fakeFAQRepo keeps FAQs in memory.
type fakeFAQRepo struct {
	mu   sync.Mutex
	faqs map[string]*domain.FAQ
	seq  int
}

func (r *fakeFAQRepo) Create(ctx context.Context, faq *domain.FAQ) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if faq.ID == "" {
		faq.ID = fmt.Sprintf("faq-%d", r.seq)
	}
	faq.CreatedAt = time.Now()
	faq.UpdatedAt = faq.CreatedAt
	clone := *faq
	r.faqs[faq.ID] = &clone
	return nil
}

func (r *fakeFAQRepo) Update(ctx context.Context, faq *domain.FAQ) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.faqs[faq.ID]; !ok {
		return pgx.ErrNoRows
	}
	faq.UpdatedAt = time.Now()
	clone := *faq
	r.faqs[faq.ID] = &clone
	return nil
}

func (r *fakeFAQRepo) ListAll(ctx context.Context) ([]domain.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FAQ
	for _, faq := range r.faqs {
		out = append(out, *faq)
	}
	return out, nil
}

// testEnv wires the full service stack over in-memory fakes with a
// few connected users: a requester, two staff, an admin and the agent.
type testEnv struct {
	registry  *presence.Registry
	sender    *fakeSender
	users     *fakeUserRepo
	rooms     *fakeChatroomRepo
	ticketDB  *fakeTicketRepo
	msgs      *fakeMessageRepo
	tagDB     *fakeTagRepo
	faqDB     *fakeFAQRepo
	assistant *fakeAssistant
	chat      *ChatService
	tickets   *TicketService
	triage    *TriageService
	catalog   *CatalogService
	session   *SessionService
}

const agentID = "ai-agent"

func newTestEnv() *testEnv {
	users := &fakeUserRepo{users: map[string]domain.User{
		"req":    {ID: "req", Name: "Rita Requester", Role: domain.RoleRequester},
		"staff1": {ID: "staff1", Name: "Sam Staff", Role: domain.RoleStaff},
		"staff2": {ID: "staff2", Name: "Sue Staff", Role: domain.RoleStaff},
		"adm":    {ID: "adm", Name: "Ada Admin", Role: domain.RoleAdmin},
		agentID:  {ID: agentID, Name: "Golden Agent", Role: domain.RoleAgent},
	}}
	rooms := &fakeChatroomRepo{rooms: make(map[string]*domain.Chatroom), users: users}
	ticketDB := &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
	msgs := &fakeMessageRepo{messages: make(map[string]*domain.Message), users: users}
	tagDB := &fakeTagRepo{}
	faqDB := &fakeFAQRepo{faqs: make(map[string]*domain.FAQ)}

	registry := presence.NewRegistry()
	registry.Connect("req", "conn-req")
	registry.Connect("staff1", "conn-staff1")
	registry.Connect("staff2", "conn-staff2")
	registry.Connect("adm", "conn-adm")

	sender := &fakeSender{}
	logger := zap.NewNop()
	dispatcher := realtime.NewDispatcher(registry, users, sender, logger, observability.NewMetrics())

	chat := NewChatService(ChatDependencies{
		ChatroomRepo: rooms,
		MessageRepo:  msgs,
		UserRepo:     users,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	tickets := NewTicketService(TicketDependencies{
		TicketRepo:   ticketDB,
		ChatroomRepo: rooms,
		UserRepo:     users,
		Chat:         chat,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	assistant := &fakeAssistant{}
	triage := NewTriageService(TriageDependencies{
		MessageRepo:  msgs,
		ChatroomRepo: rooms,
		UserRepo:     users,
		Chat:         chat,
		Tickets:      tickets,
		Assistant:    assistant,
		Dispatcher:   dispatcher,
		Logger:       logger,
		AgentUserID:  agentID,
	})
	catalog := NewCatalogService(CatalogDependencies{
		TagRepo:    tagDB,
		FAQRepo:    faqDB,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	session := NewSessionService(SessionDependencies{
		Registry:     registry,
		ChatroomRepo: rooms,
		TicketRepo:   ticketDB,
		UserRepo:     users,
		Catalog:      catalog,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	return &testEnv{
		registry:  registry,
		sender:    sender,
		users:     users,
		rooms:     rooms,
		ticketDB:  ticketDB,
		msgs:      msgs,
		tagDB:     tagDB,
		faqDB:     faqDB,
		assistant: assistant,
		chat:      chat,
		tickets:   tickets,
		triage:    triage,
		catalog:   catalog,
		session:   session,
	}
}

// openRoom creates a chatroom for the requester directly through the
// repository, skipping admission events.
func (e *testEnv) openRoom(requesterID string) *domain.Chatroom {
	room, err := e.rooms.Create(context.Background(), requesterID)
	if err != nil {
		panic(err)
	}
	return room
}
