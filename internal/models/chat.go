package models

// ChatFrame is the inbound websocket envelope. Only FrameTypeMessage is
// recognized; anything else is rejected without closing the connection.
type ChatFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const FrameTypeMessage = "message"

const (
	EventTypeToken = "token"
	EventTypeDone  = "done"
	EventTypeError = "error"
)

// ChatEvent is the outbound websocket envelope. A turn emits zero or more
// token events terminated by exactly one done or error event.
type ChatEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

func TokenEvent(content string) ChatEvent {
	return ChatEvent{Type: EventTypeToken, Content: content}
}

func DoneEvent() ChatEvent {
	return ChatEvent{Type: EventTypeDone}
}

func ErrorEvent(message string) ChatEvent {
	return ChatEvent{Type: EventTypeError, Message: message}
}
