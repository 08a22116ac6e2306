package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/api/dto"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/service"
	"github.com/goldenticket/goldenticket/pkg/util"
)

// commandEnvelope is the inbound wire frame.
type commandEnvelope struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound command names. The catalog matches the outbound events in
// internal/realtime: fixed, closed, clients never extend it.
const (
	cmdAnnouncePresence = "AnnouncePresence"
	cmdBroadcast        = "Broadcast"
	cmdRequestChat      = "RequestChat"
	cmdJoinChatroom     = "JoinChatroom"
	cmdOpenChatroom     = "OpenChatroom"
	cmdMarkSeen         = "MarkSeen"
	cmdSendMessage      = "SendMessage"
	cmdCreateMainTag    = "CreateMainTag"
	cmdCreateSubTag     = "CreateSubTag"
	cmdCreateFAQ        = "CreateFAQ"
	cmdUpdateFAQ        = "UpdateFAQ"
	cmdEscalateToTicket = "EscalateToTicket"
	cmdUpdateTicket     = "UpdateTicket"
	cmdViewTicket       = "ViewTicket"
)

// eventError is the transport-level failure frame. It is not part of
// the domain event catalog: admission rejections have their own named
// events, this carries validation and integrity failures back to the
// offending caller.
const eventError realtime.EventName = "Error"

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const commandTimeout = 30 * time.Second

func (g *Gateway) route(sess *session, frame commandEnvelope) {
	if g.metrics != nil {
		g.metrics.RecordCommand(frame.Command)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch frame.Command {
	case cmdAnnouncePresence:
		err = g.handleAnnounce(ctx, sess, frame.Payload)
	case cmdBroadcast:
		err = g.handleBroadcast(sess, frame.Payload)
	case cmdRequestChat:
		err = g.handleRequestChat(ctx, sess, frame.Payload)
	case cmdJoinChatroom:
		err = g.handleJoinChatroom(ctx, sess, frame.Payload)
	case cmdOpenChatroom:
		err = g.handleOpenChatroom(ctx, sess, frame.Payload)
	case cmdMarkSeen:
		err = g.handleMarkSeen(ctx, sess, frame.Payload)
	case cmdSendMessage:
		err = g.handleSendMessage(ctx, sess, frame.Payload)
	case cmdCreateMainTag:
		err = g.handleCreateMainTag(ctx, sess, frame.Payload)
	case cmdCreateSubTag:
		err = g.handleCreateSubTag(ctx, sess, frame.Payload)
	case cmdCreateFAQ:
		err = g.handleCreateFAQ(ctx, sess, frame.Payload)
	case cmdUpdateFAQ:
		err = g.handleUpdateFAQ(ctx, sess, frame.Payload)
	case cmdEscalateToTicket:
		err = g.handleEscalate(ctx, sess, frame.Payload)
	case cmdUpdateTicket:
		err = g.handleUpdateTicket(ctx, sess, frame.Payload)
	case cmdViewTicket:
		err = g.handleViewTicket(ctx, sess, frame.Payload)
	default:
		err = util.NewValidationError("unknown command", map[string]any{"command": frame.Command})
	}

	if err != nil {
		domainErr := util.ToDomainError(err)
		g.logger.Warn("command failed",
			zap.String("connection_id", sess.id),
			zap.String("command", frame.Command),
			zap.String("code", domainErr.Code),
			zap.Error(err))
		g.sendError(sess, domainErr.Code, domainErr.Message)
	}
}

func (g *Gateway) sendError(sess *session, code, message string) {
	if err := g.Send(sess.id, eventError, errorPayload{Code: code, Message: message}); err != nil {
		g.logger.Warn("error frame undeliverable", zap.String("connection_id", sess.id), zap.Error(err))
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) == 0 {
		return payload, util.NewValidationError("payload required", nil)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, util.NewValidationError("malformed payload", map[string]any{"cause": err.Error()})
	}
	return payload, nil
}

func (g *Gateway) handleAnnounce(ctx context.Context, sess *session, raw json.RawMessage) error {
	req, err := decode[dto.AnnouncePresenceRequest](raw)
	if err != nil {
		return err
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return util.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}
	// With verification enabled the announced identity must match the
	// handshake token; a connection cannot impersonate another user.
	if sess.claims != nil {
		if sess.claims.UserID != req.UserID || sess.claims.Role != role {
			return util.NewUnauthorized("announced identity does not match token")
		}
	}
	sess.setIdentity(req.UserID, role)
	return g.services.Session.Announce(ctx, req.UserID, role, sess.id)
}

// requireIdentity ensures the connection announced presence before
// issuing workflow commands.
func (g *Gateway) requireIdentity(sess *session) (string, domain.Role, error) {
	userID, role := sess.identity()
	if userID == "" {
		return "", "", util.NewUnauthorized("announce presence first")
	}
	return userID, role, nil
}

func requireStaff(role domain.Role) error {
	if role != domain.RoleStaff && role != domain.RoleAdmin {
		return util.NewUnauthorized("staff role required")
	}
	return nil
}

func (g *Gateway) handleBroadcast(sess *session, raw json.RawMessage) error {
	_, role, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	if err := requireStaff(role); err != nil {
		return err
	}
	req, err := decode[dto.BroadcastRequest](raw)
	if err != nil {
		return err
	}
	return g.services.Session.Broadcast(req.Text)
}

func (g *Gateway) handleRequestChat(ctx context.Context, sess *session, raw json.RawMessage) error {
	userID, _, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	req, err := decode[dto.RequestChatRequest](raw)
	if err != nil {
		return err
	}
	requesterID := req.RequesterID
	if requesterID == "" {
		requesterID = userID
	}
	return g.services.Chat.RequestChat(ctx, requesterID, sess.id)
}

func (g *Gateway) handleJoinChatroom(ctx context.Context, sess *session, raw json.RawMessage) error {
	userID, role, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	if err := requireStaff(role); err != nil {
		return err
	}
	req, err := decode[dto.JoinChatroomRequest](raw)
	if err != nil {
		return err
	}
	if req.UserID == "" {
		req.UserID = userID
	}
	return g.services.Chat.Join(ctx, req.UserID, req.ChatroomID, sess.id)
}

func (g *Gateway) handleOpenChatroom(ctx context.Context, sess *session, raw json.RawMessage) error {
	userID, _, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	req, err := decode[dto.OpenChatroomRequest](raw)
	if err != nil {
		return err
	}
	if req.UserID == "" {
		req.UserID = userID
	}
	return g.services.Chat.Open(ctx, req.UserID, req.ChatroomID, sess.id)
}

func (g *Gateway) handleMarkSeen(ctx context.Context, sess *session, raw json.RawMessage) error {
	userID, _, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	req, err := decode[dto.MarkSeenRequest](raw)
	if err != nil {
		return err
	}
	if req.UserID == "" {
		req.UserID = userID
	}
	return g.services.Chat.MarkSeen(ctx, req.UserID, req.ChatroomID)
}

func (g *Gateway) handleSendMessage(ctx context.Context, sess *session, raw json.RawMessage) error {
	userID, _, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	req, err := decode[dto.SendMessageRequest](raw)
	if err != nil {
		return err
	}
	if req.Text == "" {
		return util.NewValidationError("message text required", nil)
	}
	senderID := req.SenderID
	if senderID == "" {
		senderID = userID
	}
	return g.services.Triage.SendMessage(ctx, senderID, req.ChatroomID, req.Text)
}

func (g *Gateway) handleCreateMainTag(ctx context.Context, sess *session, raw json.RawMessage) error {
	_, role, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	if err := requireStaff(role); err != nil {
		return err
	}
	req, err := decode[dto.CreateMainTagRequest](raw)
	if err != nil {
		return err
	}
	if req.Name == "" {
		return util.NewValidationError("tag name required", nil)
	}
	return g.services.Catalog.CreateMainTag(ctx, req.Name, sess.id)
}

func (g *Gateway) handleCreateSubTag(ctx context.Context, sess *session, raw json.RawMessage) error {
	_, role, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	if err := requireStaff(role); err != nil {
		return err
	}
	req, err := decode[dto.CreateSubTagRequest](raw)
	if err != nil {
		return err
	}
	if req.Name == "" || req.MainTagName == "" {
		return util.NewValidationError("tag and parent names required", nil)
	}
	return g.services.Catalog.CreateSubTag(ctx, req.Name, req.MainTagName, sess.id)
}

func (g *Gateway) handleCreateFAQ(ctx context.Context, sess *session, raw json.RawMessage) error {
	_, role, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	if err := requireStaff(role); err != nil {
		return err
	}
	req, err := decode[dto.CreateFAQRequest](raw)
	if err != nil {
		return err
	}
	return g.services.Catalog.CreateFAQ(ctx, &domain.FAQ{
		Title:       req.Title,
		Description: req.Description,
		Solution:    req.Solution,
		MainTag:     req.MainTagName,
		SubTag:      req.SubTagName,
	})
}

func (g *Gateway) handleUpdateFAQ(ctx context.Context, sess *session, raw json.RawMessage) error {
	_, role, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	if err := requireStaff(role); err != nil {
		return err
	}
	req, err := decode[dto.UpdateFAQRequest](raw)
	if err != nil {
		return err
	}
	return g.services.Catalog.UpdateFAQ(ctx, &domain.FAQ{
		ID:          req.FAQID,
		Title:       req.Title,
		Description: req.Description,
		Solution:    req.Solution,
		MainTag:     req.MainTagName,
		SubTag:      req.SubTagName,
		Archived:    req.Archived,
	})
}

func (g *Gateway) handleEscalate(ctx context.Context, sess *session, raw json.RawMessage) error {
	userID, role, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	if err := requireStaff(role); err != nil {
		return err
	}
	req, err := decode[dto.EscalateToTicketRequest](raw)
	if err != nil {
		return err
	}
	requesterID := req.RequesterID
	if requesterID == "" {
		requesterID = userID
	}
	_, err = g.services.Tickets.Escalate(ctx, service.EscalateInput{
		Title:       req.Title,
		RequesterID: requesterID,
		MainTag:     req.MainTag,
		SubTag:      req.SubTag,
		Priority:    domain.NormalizePriority(req.Priority),
		ChatroomID:  req.ChatroomID,
	})
	return err
}

func (g *Gateway) handleUpdateTicket(ctx context.Context, sess *session, raw json.RawMessage) error {
	userID, role, err := g.requireIdentity(sess)
	if err != nil {
		return err
	}
	if err := requireStaff(role); err != nil {
		return err
	}
	req, err := decode[dto.UpdateTicketRequest](raw)
	if err != nil {
		return err
	}
	status, ok := domain.ParseTicketStatus(req.Status)
	if !ok {
		return util.NewValidationError("unknown ticket status", map[string]any{"status": req.Status})
	}
	_, err = g.services.Tickets.Update(ctx, service.TicketUpdateInput{
		TicketID:   req.TicketID,
		Title:      req.Title,
		Status:     status,
		Priority:   domain.NormalizePriority(req.Priority),
		MainTag:    req.MainTag,
		SubTag:     req.SubTag,
		AssigneeID: req.AssigneeID,
		EditorID:   userID,
	})
	return err
}

func (g *Gateway) handleViewTicket(ctx context.Context, sess *session, raw json.RawMessage) error {
	if _, _, err := g.requireIdentity(sess); err != nil {
		return err
	}
	req, err := decode[dto.ViewTicketRequest](raw)
	if err != nil {
		return err
	}
	return g.services.Tickets.View(ctx, req.TicketID, sess.id)
}
