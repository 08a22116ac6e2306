package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/config"
)

const systemPrompt = `You are the first-line support assistant for a helpdesk. Answer the
user's question when you can. Always reply in exactly this format:

TITLE: <short ticket title>
PTAG: <main category>
PSUBTAG: <sub category>
PRIORITY: <Low|Medium|High|Urgent>
SendToLiveAgent: <true|false>
Response: <your reply to the user, may span multiple lines>

Set SendToLiveAgent to true only when the issue needs a human support
agent to resolve.`

// Client wraps the OpenAI chat-completion API behind the triage
// Assistant contract.
type Client struct {
	api    *openai.Client
	model  string
	logger *zap.Logger
	cfg    config.AIConfig
}

// NewClient builds a completion client from config.
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	return &Client{
		api:    openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger,
		cfg:    cfg,
	}
}

// GetReply asks the model for a structured triage reply to one user
// message. The raw text is returned for labeled-field parsing.
func (c *Client) GetReply(ctx context.Context, chatroomID, message, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		MaxTokens:   400,
		Temperature: 0.7,
		User:        userID,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai completion: empty choice list")
	}

	c.logger.Debug("ai reply received",
		zap.String("chatroom_id", chatroomID),
		zap.String("user_id", userID),
		zap.Int("length", len(resp.Choices[0].Message.Content)))
	return resp.Choices[0].Message.Content, nil
}
