package ai

import (
	"errors"
	"regexp"
	"strings"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// Response is the parsed structured output of one triage turn. It is
// transient: the reply text is persisted as an agent message and the
// classification fields feed escalation, but the Response itself is
// never stored.
type Response struct {
	Title     string
	Message   string
	MainTag   string
	SubTag    string
	Priority  domain.TicketPriority
	CallAgent bool
}

// ErrUnparseable signals that the raw model output carried no
// recognizable reply; callers substitute Unavailable().
var ErrUnparseable = errors.New("ai response missing reply field")

var (
	titleRe     = regexp.MustCompile(`(?i)TITLE:\s*(.+)`)
	mainTagRe   = regexp.MustCompile(`(?i)PTAG:\s*(.+)`)
	subTagRe    = regexp.MustCompile(`(?i)PSUBTAG:\s*(.+)`)
	priorityRe  = regexp.MustCompile(`(?i)PRIORITY:\s*(.+)`)
	callAgentRe = regexp.MustCompile(`(?i)SendToLiveAgent:\s*(true|false)`)
	messageRe   = regexp.MustCompile(`(?is)Response:\s*(.+)`)
)

// Parse extracts the labeled fields from a raw model reply. Matching
// is tolerant and case-insensitive; any missing field keeps its
// default (empty title/tags, Medium priority, no escalation). The
// reply field spans to the end of the text and may be multi-line. Only
// a missing reply field makes the output unparseable.
func Parse(raw string) (Response, error) {
	resp := Response{Priority: domain.TicketPriorityMedium}

	if m := titleRe.FindStringSubmatch(raw); m != nil {
		resp.Title = strings.TrimSpace(firstLine(m[1]))
	}
	if m := mainTagRe.FindStringSubmatch(raw); m != nil {
		resp.MainTag = strings.TrimSpace(firstLine(m[1]))
	}
	if m := subTagRe.FindStringSubmatch(raw); m != nil {
		resp.SubTag = strings.TrimSpace(firstLine(m[1]))
	}
	if m := priorityRe.FindStringSubmatch(raw); m != nil {
		resp.Priority = domain.NormalizePriority(strings.TrimSpace(firstLine(m[1])))
	}
	if m := callAgentRe.FindStringSubmatch(raw); m != nil {
		resp.CallAgent = strings.EqualFold(strings.TrimSpace(m[1]), "true")
	}
	if m := messageRe.FindStringSubmatch(raw); m != nil {
		resp.Message = strings.TrimSpace(m[1])
	}

	if resp.Message == "" {
		return resp, ErrUnparseable
	}
	return resp, nil
}

// Unavailable is the fixed fallback used when the AI service fails or
// its output is unparseable. It forces escalation so a human always
// ends up seeing the conversation.
func Unavailable() Response {
	return Response{
		Title:     "AI unavailable, need live agent",
		Message:   "Sorry, the chatbot service is currently down. Sending a live agent...",
		Priority:  domain.TicketPriorityMedium,
		CallAgent: true,
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
