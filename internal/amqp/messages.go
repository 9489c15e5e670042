package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindLedgerChanged = "ledger.changed"
	KindGoalCompleted = "goal.completed"
)

// LedgerMessage is a lightweight notification about the ledger. It carries no
// transactions: consumers read the shared store for the current state.
type LedgerMessage struct {
	Kind      string       `json:"kind"`
	Version   uint64       `json:"version,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Goal      *GoalMessage `json:"goal,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// GoalMessage describes a goal that reached its target.
type GoalMessage struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Target  decimal.Decimal `json:"target"`
	Reached decimal.Decimal `json:"reached"`
}

// NewLedgerChangedMessage creates a message for a committed ledger version
func NewLedgerChangedMessage(version uint64, reason string) *LedgerMessage {
	return &LedgerMessage{
		Kind:      KindLedgerChanged,
		Version:   version,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// NewGoalCompletedMessage creates a message for a completed goal
func NewGoalCompletedMessage(goal GoalMessage, at time.Time) *LedgerMessage {
	return &LedgerMessage{
		Kind:      KindGoalCompleted,
		Goal:      &goal,
		Timestamp: at,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerMessageFromJSON creates a message from JSON bytes. Unknown kinds are rejected.
func LedgerMessageFromJSON(data []byte) (*LedgerMessage, error) {
	var msg LedgerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case KindLedgerChanged:
	case KindGoalCompleted:
		if msg.Goal == nil {
			return nil, fmt.Errorf("%s message without goal", msg.Kind)
		}
	default:
		return nil, fmt.Errorf("unknown message kind %q", msg.Kind)
	}
	return &msg, nil
}
