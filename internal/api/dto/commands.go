package dto

// Inbound command payloads. Each arrives as the payload of a
// {command, payload} envelope on an established websocket connection.

// AnnouncePresenceRequest binds the connection to a user identity.
type AnnouncePresenceRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// RequestChatRequest opens a new support chat for a requester.
type RequestChatRequest struct {
	RequesterID string `json:"requester_id"`
}

// JoinChatroomRequest adds a staff member to a chatroom.
type JoinChatroomRequest struct {
	UserID     string `json:"user_id"`
	ChatroomID string `json:"chatroom_id"`
}

// OpenChatroomRequest fetches a chatroom with its message history.
type OpenChatroomRequest struct {
	UserID     string `json:"user_id"`
	ChatroomID string `json:"chatroom_id"`
}

// MarkSeenRequest refreshes the caller's read position.
type MarkSeenRequest struct {
	UserID     string `json:"user_id"`
	ChatroomID string `json:"chatroom_id"`
}

// SendMessageRequest posts a chat message.
type SendMessageRequest struct {
	SenderID   string `json:"sender_id"`
	ChatroomID string `json:"chatroom_id"`
	Text       string `json:"text"`
}

// CreateMainTagRequest adds a top-level tag.
type CreateMainTagRequest struct {
	Name string `json:"name"`
}

// CreateSubTagRequest adds a tag under an existing main tag.
type CreateSubTagRequest struct {
	Name        string `json:"name"`
	MainTagName string `json:"main_tag_name"`
}

// CreateFAQRequest adds an FAQ entry.
type CreateFAQRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
	MainTagName string `json:"main_tag_name"`
	SubTagName  string `json:"sub_tag_name"`
}

// UpdateFAQRequest edits or archives an FAQ entry.
type UpdateFAQRequest struct {
	FAQID       string `json:"faq_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
	MainTagName string `json:"main_tag_name"`
	SubTagName  string `json:"sub_tag_name"`
	Archived    bool   `json:"archived"`
}

// EscalateToTicketRequest creates a ticket from a chatroom.
type EscalateToTicketRequest struct {
	Title       string `json:"title"`
	RequesterID string `json:"requester_id"`
	MainTag     string `json:"main_tag"`
	SubTag      string `json:"sub_tag"`
	Priority    string `json:"priority"`
	ChatroomID  string `json:"chatroom_id"`
}

// UpdateTicketRequest applies staff edits to a ticket.
type UpdateTicketRequest struct {
	TicketID   string  `json:"ticket_id"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	Priority   string  `json:"priority"`
	MainTag    *string `json:"main_tag,omitempty"`
	SubTag     *string `json:"sub_tag,omitempty"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// ViewTicketRequest fetches one ticket for the caller.
type ViewTicketRequest struct {
	TicketID string `json:"ticket_id"`
}

// BroadcastRequest sends an announce notice to every connection.
type BroadcastRequest struct {
	Text string `json:"text"`
}
