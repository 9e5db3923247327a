package domain

// MessageType classifies a user-facing message.
type MessageType int

const (
	MessageNotice  MessageType = 1
	MessageSuccess MessageType = 2
	MessageFailure MessageType = 3
)

// Message is a user-facing notice produced by a controller.
type Message struct {
	Type MessageType `json:"type" mapstructure:"type"`
	Text string      `json:"message" mapstructure:"message"`
}

// NewMessage builds a Message.
func NewMessage(t MessageType, text string) Message {
	return Message{Type: t, Text: text}
}
