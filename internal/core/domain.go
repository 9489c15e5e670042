package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	NoRepeat Recurrence = "none"
	Daily    Recurrence = "daily"
	Weekly   Recurrence = "weekly"
	Monthly  Recurrence = "monthly"
	Yearly   Recurrence = "yearly"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// RecurringPrefix marks descriptions of machine-generated recurring instances.
const RecurringPrefix = "(recurring) "

const (
	MaxDescriptionLength = 200
	MaxTitleLength       = 100
)

type (
	TransactionType string

	Recurrence string

	// Date is a calendar date without a time component, always at UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID                  int64           `json:"id"`
		Type                TransactionType `json:"type"`
		Amount              decimal.Decimal `json:"amount"`
		Category            string          `json:"category"`
		Description         string          `json:"description,omitempty"`
		Date                Date            `json:"date"`
		Recurring           Recurrence      `json:"recurring,omitempty"`
		IsRecurringInstance bool            `json:"isRecurringInstance,omitempty"`
		ConfigID            int64           `json:"configId,omitempty"`
	}

	// TransactionInput is what a user submits when creating or editing a transaction.
	TransactionInput struct {
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Recurring   Recurrence      `json:"recurring"`
	}

	// RecurringConfig is the template a recurring transaction series is expanded from.
	// Its ID is shared with the transaction that created it.
	RecurringConfig struct {
		ID            int64           `json:"id"`
		Type          TransactionType `json:"type"`
		Amount        decimal.Decimal `json:"amount"`
		Category      string          `json:"category"`
		Description   string          `json:"description,omitempty"`
		Date          Date            `json:"date"`
		Recurring     Recurrence      `json:"recurring"`
		NextExecution time.Time       `json:"nextExecution"`
	}

	// Budgets maps a category key to its spending cap. A missing key means no cap.
	Budgets map[string]decimal.Decimal

	Goal struct {
		ID            string          `json:"id"`
		Title         string          `json:"title"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
	}

	GoalInput struct {
		Title         string          `json:"title"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. Out-of-range days such as 2024-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Older records may carry a full timestamp.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Valid reports whether r is a known recurrence, including NoRepeat.
func (r Recurrence) Valid() bool {
	switch r {
	case NoRepeat, Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// Repeats reports whether r describes a recurring series. The empty value means NoRepeat.
func (r Recurrence) Repeats() bool {
	return r != "" && r != NoRepeat
}

// Validate checks amount, type, category and date. The category must exist
// in the registry and carry the same type as the transaction.
func (in TransactionInput) Validate() error {
	if !in.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if !in.Type.Valid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	cat, ok := LookupCategory(in.Category)
	if !ok {
		return &ValidationError{Field: "category", Err: ErrUnknownCategory}
	}
	if cat.Type != in.Type {
		return &ValidationError{Field: "category", Err: ErrCategoryTypeMismatch}
	}
	if err := in.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if in.Recurring != "" && !in.Recurring.Valid() {
		return &ValidationError{Field: "recurring", Err: ErrInvalidRecurrence}
	}
	if len(in.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

// Transaction materializes the input under the given id.
func (in TransactionInput) Transaction(id int64) Transaction {
	rec := in.Recurring
	if rec == "" {
		rec = NoRepeat
	}
	return Transaction{
		ID:          id,
		Type:        in.Type,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Recurring:   rec,
	}
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Instance builds the transaction emitted for one occurrence of the config.
func (c RecurringConfig) Instance(id int64, on time.Time) Transaction {
	return Transaction{
		ID:                  id,
		Type:                c.Type,
		Amount:              c.Amount,
		Category:            c.Category,
		Description:         RecurringPrefix + c.Description,
		Date:                DateOf(on.UTC()),
		IsRecurringInstance: true,
		ConfigID:            c.ID,
	}
}

func (in GoalInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if len(in.Title) > MaxTitleLength {
		return &ValidationError{Field: "title", Err: ErrTitleTooLong}
	}
	if !in.TargetAmount.IsPositive() {
		return &ValidationError{Field: "targetAmount", Err: ErrInvalidAmount}
	}
	if in.CurrentAmount.IsNegative() {
		return &ValidationError{Field: "currentAmount", Err: ErrInvalidAmount}
	}
	return nil
}

// Completed is derived, never stored.
func (g Goal) Completed() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Progress returns current/target as a ratio; it may exceed 1.
func (g Goal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	return g.CurrentAmount.Div(g.TargetAmount).InexactFloat64()
}

// Clone returns an independent copy of the budgets map.
func (b Budgets) Clone() Budgets {
	out := make(Budgets, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Cap returns the cap for a category and whether one is set.
func (b Budgets) Cap(category string) (decimal.Decimal, bool) {
	v, ok := b[category]
	return v, ok
}
