package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smartwallet/internal/core"
	"smartwallet/internal/events"
	"smartwallet/internal/schedule"
	"smartwallet/internal/storage"
)

// Tx is the working copy handed to an Apply callback. Slices returned by its
// accessors belong to the working copy and must not be retained after the
// callback returns.
type Tx struct {
	st  storage.State
	now time.Time
	ids *core.IDGenerator

	dirty          map[string]bool
	reset          bool
	configsChanged bool
	pending        []events.Event
}

func newTx(st storage.State, now time.Time, ids *core.IDGenerator) *Tx {
	return &Tx{st: st, now: now, ids: ids, dirty: make(map[string]bool)}
}

func (tx *Tx) Now() time.Time { return tx.now }

func (tx *Tx) Transactions() []core.Transaction { return tx.st.Transactions }

func (tx *Tx) Configs() []core.RecurringConfig { return tx.st.Configs }

func (tx *Tx) Budgets() core.Budgets { return tx.st.Budgets }

func (tx *Tx) Goals() []core.Goal { return tx.st.Goals }

// Emit queues an event that is published only if the mutation commits.
func (tx *Tx) Emit(e events.Event) {
	tx.pending = append(tx.pending, e)
}

// NextID returns a fresh creation-time id.
func (tx *Tx) NextID() int64 { return tx.ids.Next(tx.now) }

func (tx *Tx) touch(keys ...string) {
	for _, k := range keys {
		tx.dirty[k] = true
	}
}

func (tx *Tx) changed() bool { return tx.reset || len(tx.dirty) > 0 }

func (tx *Tx) dirtyKeys() []string {
	keys := make([]string, 0, len(tx.dirty))
	for k := range tx.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddTransaction validates in, prepends it under a fresh id and, for a
// repeating input, registers a recurring configuration sharing that id whose
// first execution is one period after the input date.
func (tx *Tx) AddTransaction(in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t := in.Transaction(tx.NextID())

	if t.Recurring.Repeats() {
		next, err := schedule.NextExecution(t.Date, t.Recurring)
		if err != nil {
			return core.Transaction{}, &core.ValidationError{Field: "recurring", Err: err}
		}
		tx.st.Configs = append(tx.st.Configs, core.RecurringConfig{
			ID:            t.ID,
			Type:          t.Type,
			Amount:        t.Amount,
			Category:      t.Category,
			Description:   t.Description,
			Date:          t.Date,
			Recurring:     t.Recurring,
			NextExecution: next,
		})
		tx.configsChanged = true
		tx.touch(storage.KeyConfigs)
	}

	tx.PrependTransactions(t)
	return t, nil
}

// PrependTransactions puts txs, in the given order, ahead of the existing ones.
func (tx *Tx) PrependTransactions(txs ...core.Transaction) {
	if len(txs) == 0 {
		return
	}
	out := make([]core.Transaction, 0, len(txs)+len(tx.st.Transactions))
	out = append(out, txs...)
	tx.st.Transactions = append(out, tx.st.Transactions...)
	tx.touch(storage.KeyTransactions)
}

// UpdateTransaction replaces the transaction with the given id in place. The
// recurring instance link is kept. It reports false, and changes nothing, for
// an unknown id.
func (tx *Tx) UpdateTransaction(id int64, in core.TransactionInput) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, err
	}
	for i, old := range tx.st.Transactions {
		if old.ID != id {
			continue
		}
		t := in.Transaction(id)
		t.IsRecurringInstance = old.IsRecurringInstance
		t.ConfigID = old.ConfigID
		if old.IsRecurringInstance {
			t.Recurring = ""
		}
		tx.st.Transactions[i] = t
		tx.touch(storage.KeyTransactions)
		return true, nil
	}
	return false, nil
}

// DeleteTransaction removes the transaction and the recurring configuration
// sharing its id. It reports whether anything was removed.
func (tx *Tx) DeleteTransaction(id int64) bool {
	removed := false
	for i, t := range tx.st.Transactions {
		if t.ID == id {
			tx.st.Transactions = append(tx.st.Transactions[:i:i], tx.st.Transactions[i+1:]...)
			tx.touch(storage.KeyTransactions)
			removed = true
			break
		}
	}
	for i, c := range tx.st.Configs {
		if c.ID == id {
			tx.st.Configs = append(tx.st.Configs[:i:i], tx.st.Configs[i+1:]...)
			tx.touch(storage.KeyConfigs)
			tx.configsChanged = true
			removed = true
			break
		}
	}
	return removed
}

// AdvanceConfigs stores new next-execution times keyed by config id. Unknown
// ids and times that would move a config backward are ignored.
func (tx *Tx) AdvanceConfigs(next map[int64]time.Time) {
	for i, c := range tx.st.Configs {
		at, ok := next[c.ID]
		if !ok || !at.After(c.NextExecution) {
			continue
		}
		tx.st.Configs[i].NextExecution = at
		tx.touch(storage.KeyConfigs)
	}
}

// SetBudget stores max(0, parsed raw) for an expense category. Garbage input
// clears the cap to zero rather than failing.
func (tx *Tx) SetBudget(category, raw string) (decimal.Decimal, error) {
	cat, ok := core.LookupCategory(category)
	if !ok {
		return decimal.Zero, &core.ValidationError{Field: "category", Err: core.ErrUnknownCategory}
	}
	if cat.Type != core.Expense {
		return decimal.Zero, &core.ValidationError{Field: "category", Err: core.ErrCategoryTypeMismatch}
	}
	amount := core.ParseBudget(raw)
	if tx.st.Budgets == nil {
		tx.st.Budgets = core.Budgets{}
	}
	tx.st.Budgets[category] = amount
	tx.touch(storage.KeyBudgets)
	return amount, nil
}

// AddGoal validates in and appends a goal with a random id.
func (tx *Tx) AddGoal(in core.GoalInput) (core.Goal, error) {
	if err := in.Validate(); err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
	}
	tx.st.Goals = append(tx.st.Goals, g)
	tx.touch(storage.KeyGoals)
	return g, nil
}

func (tx *Tx) Goal(id string) (core.Goal, bool) {
	for _, g := range tx.st.Goals {
		if g.ID == id {
			return g, true
		}
	}
	return core.Goal{}, false
}

// CreditGoal adds amount to the goal's current amount and returns the goal
// before and after. Amounts only ever grow.
func (tx *Tx) CreditGoal(id string, amount decimal.Decimal) (before, after core.Goal, ok bool) {
	if !amount.IsPositive() {
		return core.Goal{}, core.Goal{}, false
	}
	for i, g := range tx.st.Goals {
		if g.ID != id {
			continue
		}
		before = g
		g.CurrentAmount = g.CurrentAmount.Add(amount)
		tx.st.Goals[i] = g
		tx.touch(storage.KeyGoals)
		return before, g, true
	}
	return core.Goal{}, core.Goal{}, false
}

func (tx *Tx) DeleteGoal(id string) bool {
	for i, g := range tx.st.Goals {
		if g.ID == id {
			tx.st.Goals = append(tx.st.Goals[:i:i], tx.st.Goals[i+1:]...)
			tx.touch(storage.KeyGoals)
			return true
		}
	}
	return false
}

func (tx *Tx) SetTheme(theme string) {
	tx.st.Theme = theme
	tx.touch(storage.KeyTheme)
}

func (tx *Tx) SetCurrency(code string) {
	tx.st.Currency = code
	tx.touch(storage.KeyCurrency)
}

// Reset clears every collection and preference; the store is wiped on commit.
func (tx *Tx) Reset() {
	hadConfigs := len(tx.st.Configs) > 0
	tx.st = storage.State{Budgets: core.Budgets{}}
	tx.dirty = make(map[string]bool)
	tx.reset = true
	tx.configsChanged = hadConfigs
}
