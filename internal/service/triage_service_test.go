package service

import (
	"context"
	"errors"
	"testing"

	"github.com/goldenticket/goldenticket/internal/ai"
	"github.com/goldenticket/goldenticket/internal/realtime"
)

const parseableReply = `TITLE: Password reset
PTAG: Account
PSUBTAG: Login
PRIORITY: High
SendToLiveAgent: false
Response: You can reset your password from the settings page.`

const escalatingReply = `TITLE: Refund dispute
PTAG: Billing
PSUBTAG: Refunds
PRIORITY: Urgent
SendToLiveAgent: true
Response: I am bringing in a live agent to help with this refund.`

func TestSendMessageRunsTriageWhileUnticketed(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.assistant.raw = parseableReply
	room := env.openRoom("req")
	ctx := context.Background()

	if err := env.triage.SendMessage(ctx, "req", room.ID, "how do I reset my password?"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got := env.assistant.callCount(); got != 1 {
		t.Fatalf("assistant calls = %d, want 1", got)
	}

	// The reply is visible to the requester only.
	if got := env.sender.count("conn-req", realtime.EventMessageReceived); got != 1 {
		t.Errorf("MessageReceived to requester = %d, want 1", got)
	}
	if got := env.sender.count("conn-staff1", realtime.EventMessageReceived); got != 0 {
		t.Errorf("MessageReceived leaked to staff, count = %d", got)
	}
	if got := env.sender.count("conn-req", realtime.EventInputReenabled); got != 1 {
		t.Errorf("InputReenabled to requester = %d, want exactly 1", got)
	}

	history, _ := env.msgs.ListByChatroom(ctx, room.ID)
	if len(history) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(history))
	}
	if history[1].SenderID != agentID {
		t.Errorf("reply sender = %q, want %q", history[1].SenderID, agentID)
	}

	updated, _ := env.rooms.GetByID(ctx, room.ID)
	if updated.HasTicket() {
		t.Error("room escalated although the reply did not call for a live agent")
	}
}

func TestTriageEscalatesOnLiveAgentRequest(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.assistant.raw = escalatingReply
	room := env.openRoom("req")
	ctx := context.Background()

	if err := env.triage.SendMessage(ctx, "req", room.ID, "I want my money back"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	updated, _ := env.rooms.GetByID(ctx, room.ID)
	if !updated.HasTicket() {
		t.Fatal("room not escalated")
	}
	ticket, err := env.ticketDB.GetByID(ctx, *updated.TicketID)
	if err != nil {
		t.Fatalf("loading ticket: %v", err)
	}
	if ticket.Title != "Refund dispute" || ticket.MainTag != "Billing" {
		t.Errorf("ticket fields = %q/%q, want triage-provided values", ticket.Title, ticket.MainTag)
	}
	if got := env.sender.count("conn-req", realtime.EventInputReenabled); got != 1 {
		t.Errorf("InputReenabled to requester = %d, want exactly 1 even with escalation", got)
	}
}

func TestTriageFallbackOnAssistantFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.assistant.err = errors.New("upstream timeout")
	room := env.openRoom("req")
	ctx := context.Background()

	if err := env.triage.SendMessage(ctx, "req", room.ID, "anyone there?"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	history, _ := env.msgs.ListByChatroom(ctx, room.ID)
	if len(history) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(history))
	}
	if want := ai.Unavailable().Message; history[1].Body != want {
		t.Errorf("fallback reply = %q, want %q", history[1].Body, want)
	}
	updated, _ := env.rooms.GetByID(ctx, room.ID)
	if !updated.HasTicket() {
		t.Error("assistant failure must force escalation")
	}
	if got := env.sender.count("conn-req", realtime.EventInputReenabled); got != 1 {
		t.Errorf("InputReenabled to requester = %d, want exactly 1", got)
	}
}

func TestTriageFallbackOnUnparseableReply(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	env.assistant.raw = "sorry, I cannot help with that"
	room := env.openRoom("req")
	ctx := context.Background()

	if err := env.triage.SendMessage(ctx, "req", room.ID, "help"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	updated, _ := env.rooms.GetByID(ctx, room.ID)
	if !updated.HasTicket() {
		t.Error("unparseable reply must force escalation")
	}
	history, _ := env.msgs.ListByChatroom(ctx, room.ID)
	if want := ai.Unavailable().Message; history[len(history)-1].Body != want {
		t.Errorf("fallback reply = %q, want %q", history[len(history)-1].Body, want)
	}
}

func TestTicketedRoomSkipsAssistant(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	room := env.openRoom("req")
	ctx := context.Background()
	if err := env.rooms.AddMember(ctx, room.ID, "staff1"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := env.rooms.BindTicket(ctx, room.ID, "ticket-live"); err != nil {
		t.Fatalf("BindTicket: %v", err)
	}

	if err := env.triage.SendMessage(ctx, "req", room.ID, "any update?"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got := env.assistant.callCount(); got != 0 {
		t.Errorf("assistant calls on ticketed room = %d, want 0", got)
	}
	if got := env.sender.total(realtime.EventInputReenabled); got != 0 {
		t.Errorf("InputReenabled sent %d times on ticketed room, want 0", got)
	}
	// Ticketed rooms relay to every staff and admin connection.
	for _, conn := range []string{"conn-staff1", "conn-staff2", "conn-adm"} {
		if got := env.sender.count(conn, realtime.EventMessageReceived); got != 1 {
			t.Errorf("MessageReceived to %s = %d, want 1", conn, got)
		}
	}
	if got := env.sender.count("conn-req", realtime.EventMessageReceived); got != 0 {
		t.Errorf("sender echoed their own message %d times, want 0", got)
	}
}

func TestStaffMessageRelaysToMembersAndStaff(t *testing.T) {
	t.Parallel()
	env := newTestEnv()
	room := env.openRoom("req")
	ctx := context.Background()
	if err := env.rooms.AddMember(ctx, room.ID, "staff1"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := env.rooms.AddMember(ctx, room.ID, "staff2"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := env.rooms.BindTicket(ctx, room.ID, "ticket-live"); err != nil {
		t.Fatalf("BindTicket: %v", err)
	}

	if err := env.triage.SendMessage(ctx, "staff1", room.ID, "on it"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got := env.sender.count("conn-staff1", realtime.EventMessageReceived); got != 0 {
		t.Errorf("sender echoed their own message %d times, want 0", got)
	}
	if got := env.sender.count("conn-staff2", realtime.EventMessageReceived); got != 1 {
		t.Errorf("MessageReceived to other staff member = %d, want 1", got)
	}
	if got := env.sender.count("conn-req", realtime.EventMessageReceived); got != 1 {
		t.Errorf("MessageReceived to requester = %d, want 1", got)
	}
	if got := env.assistant.callCount(); got != 0 {
		t.Errorf("assistant calls = %d, want 0", got)
	}
}
