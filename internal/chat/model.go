package chat

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one committed transcript entry.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
