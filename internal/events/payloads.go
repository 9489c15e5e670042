package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerChanged is published after every committed mutation.
type LedgerChanged struct {
	Version uint64
	Reason  string
	// ConfigsChanged is set when the set of recurring configurations changed.
	ConfigsChanged bool
}

type LedgerReset struct {
	Version uint64
}

type RecurringMaterialized struct {
	Count int
	// Frozen lists configuration ids skipped because of an unknown recurrence unit.
	Frozen []int64
}

// GoalCompleted fires once, on the allocation that crosses the goal's target.
type GoalCompleted struct {
	GoalID  string
	Title   string
	Target  decimal.Decimal
	Reached decimal.Decimal
	At      time.Time
}
