package notify

import (
	"encoding/json"
	"time"
)

// SettlementsChangedMessage announces that a group's simplified-debt set
// changed after a recompute. It carries only identifiers; consumers fetch
// the current state from the API.
type SettlementsChangedMessage struct {
	GroupID   string    `json:"group_id"`
	Transfers int       `json:"transfers"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSettlementsChangedMessage creates a message for a group recompute.
func NewSettlementsChangedMessage(groupID string, transfers int) SettlementsChangedMessage {
	return SettlementsChangedMessage{
		GroupID:   groupID,
		Transfers: transfers,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m SettlementsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
