package schema

// Mode is an intent category governing which directive steers generation.
type Mode string

const (
	ModeFunctional Mode = "Functional"
	ModeCreative   Mode = "Creative"
	ModeWisdom     Mode = "Wisdom"
)

// ParseMode maps a raw classifier label to a Mode.
// Unrecognized labels return ModeWisdom and false.
func ParseMode(label string) (Mode, bool) {
	switch Mode(label) {
	case ModeFunctional, ModeCreative, ModeWisdom:
		return Mode(label), true
	}
	return ModeWisdom, false
}

// StateSnapshot is a point-in-time copy of the shared conversation state,
// serialized whole on every broadcast. Field names match the wire protocol.
type StateSnapshot struct {
	History       []ChatMessage     `json:"chat_history"`
	CurrentMode   Mode              `json:"current_mode"`
	Projects      []string          `json:"projects"`
	AgentStatuses map[string]string `json:"agents_status"`
}
