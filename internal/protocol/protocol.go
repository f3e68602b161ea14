package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	// client -> server
	TypeHello     = "HELLO"
	TypeInventory = "INVENTORY"
	TypeTrigger   = "TRIGGER"
	TypeReport    = "REPORT"

	// server -> client
	TypeWelcome    = "WELCOME"
	TypeCandidates = "CANDIDATES"
	TypePlan       = "PLAN"
	TypeAck        = "ACK"
	TypeError      = "ERROR"
)

// Trigger actions.
const (
	ActionOpen       = "OPEN"
	ActionScrollUp   = "SCROLL_UP"
	ActionScrollDown = "SCROLL_DOWN"
	ActionConfirm    = "CONFIRM"
	ActionCancel     = "CANCEL"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
