package dto

// Outbound event payloads. The event name travels on the envelope;
// these are the shapes beneath it.

// AnnouncePayload carries a broadcast notice.
type AnnouncePayload struct {
	Text string `json:"text"`
}

// ChatroomPayload wraps a chatroom snapshot.
type ChatroomPayload struct {
	Chatroom ChatroomDTO `json:"chatroom"`
}

// TicketPayload wraps a ticket snapshot.
type TicketPayload struct {
	Ticket TicketDTO `json:"ticket"`
}

// StaffJoinedPayload announces a new chatroom member to the room.
type StaffJoinedPayload struct {
	User     UserDTO     `json:"user"`
	Chatroom ChatroomDTO `json:"chatroom"`
}

// SeenUpdatedPayload reports a member's refreshed read position.
type SeenUpdatedPayload struct {
	UserID     string `json:"user_id"`
	ChatroomID string `json:"chatroom_id"`
}

// MessageReceivedPayload delivers one message with its room snapshot.
type MessageReceivedPayload struct {
	Chatroom ChatroomDTO `json:"chatroom"`
	Message  MessageDTO  `json:"message"`
}

// TagCatalogPayload carries the full tag catalog.
type TagCatalogPayload struct {
	Tags []MainTagDTO `json:"tags"`
}

// FAQCatalogPayload carries the full FAQ list.
type FAQCatalogPayload struct {
	FAQs []FAQDTO `json:"faqs"`
}
