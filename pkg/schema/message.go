package schema

// Sender identifies the author of a chat message.
type Sender string

const (
	// SenderArchitect is the human operator.
	SenderArchitect Sender = "Architect"

	// SenderEzra is the assistant persona, the unified voice of the collective.
	SenderEzra Sender = "Ezra"

	// SenderSystem is used for error and status messages.
	SenderSystem Sender = "System"
)

// ChatMessage is a single entry in the conversation history.
// Messages are immutable once appended; append order is display order.
type ChatMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Notification is a transient, non-persisted message delivered to one session.
type Notification struct {
	Message string `json:"message"`
	IsError bool   `json:"isError"`
}

// Upload is an inbound attachment payload. Content arrives base64-encoded
// on the wire and decodes into bytes here.
type Upload struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}
