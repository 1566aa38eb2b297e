package realtime

import "encoding/json"

// Client → server events.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventTyping            = "typing"
	EventUserOnline        = "user_online"
)

// Server → client events.
const (
	EventNewMessage      = "new_message"
	EventMessageDeleted  = "message_deleted"
	EventMessagesRead    = "messages_read"
	EventUserTyping      = "user_typing"
	EventUserStatus      = "user_status"
	EventNewNotification = "new_notification"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// handshake is the first frame a client must send after the upgrade.
// Connections that fail it never reach presence or any room.
type handshake struct {
	UserID uint64 `json:"user_id"`
	Token  string `json:"token"`
}

type joinPayload struct {
	ConversationID uint64 `json:"conversation_id"`
}

type typingPayload struct {
	ConversationID uint64 `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

// UserTypingEvent is relayed to the other members of a room. Receivers treat
// a missing stop signal as an implicit stop after the sender's debounce
// window, since delivery is not guaranteed.
type UserTypingEvent struct {
	ConversationID uint64 `json:"conversation_id"`
	UserID         uint64 `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

type MessageDeletedEvent struct {
	MessageID      uint64 `json:"message_id"`
	ConversationID uint64 `json:"conversation_id"`
}

type MessagesReadEvent struct {
	ConversationID uint64 `json:"conversation_id"`
	UserID         uint64 `json:"user_id"`
}

type UserStatusEvent struct {
	UserID uint64 `json:"user_id"`
	Online bool   `json:"online"`
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
