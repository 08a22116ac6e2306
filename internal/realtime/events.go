package realtime

// EventName identifies a client-visible event. The catalog is fixed;
// clients switch on these names to route payloads.
type EventName string

const (
	EventAnnounce                EventName = "Announce"
	EventPresenceSnapshot        EventName = "PresenceSnapshot"
	EventMaxOpenChatroomsReached EventName = "MaxOpenChatroomsReached"
	EventChatSessionCreated      EventName = "ChatSessionCreated"
	EventAlreadyMember           EventName = "AlreadyMember"
	EventStaffJoinedChatroom     EventName = "StaffJoinedChatroom"
	EventChatroomOpened          EventName = "ChatroomOpened"
	EventSeenUpdated             EventName = "SeenUpdated"
	EventMessageReceived         EventName = "MessageReceived"
	EventInputReenabled          EventName = "InputReenabled"
	EventTagCatalogUpdated       EventName = "TagCatalogUpdated"
	EventDuplicateTagRejected    EventName = "DuplicateTagRejected"
	EventFAQCatalogUpdated       EventName = "FAQCatalogUpdated"
	EventTicketUpdated           EventName = "TicketUpdated"
	EventChatroomUpdated         EventName = "ChatroomUpdated"
)

// Envelope is the wire frame for one outbound event.
type Envelope struct {
	Event   EventName `json:"event"`
	Payload any       `json:"payload,omitempty"`
}
