package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.Error(t, err, "case %d", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []string{"2024-02-30", "2023-02-29", "29/02/2024", ""} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 1, 5))
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-01-05"`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-05T10:11:12.000Z"`), &d))
	assert.Equal(t, NewDate(2024, 1, 5), d)

	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"2024-13-01"`), &d))
}

func validInput() TransactionInput {
	return TransactionInput{
		Type:     Expense,
		Amount:   decimal.NewFromInt(10),
		Category: "food",
		Date:     NewDate(2024, 1, 5),
	}
}

func TestTransactionInputValidate(t *testing.T) {
	require.NoError(t, validInput().Validate())

	cases := []struct {
		name  string
		edit  func(*TransactionInput)
		field string
		want  error
	}{
		{"zero amount", func(in *TransactionInput) { in.Amount = decimal.Zero }, "amount", ErrInvalidAmount},
		{"negative amount", func(in *TransactionInput) { in.Amount = decimal.NewFromInt(-5) }, "amount", ErrInvalidAmount},
		{"bad type", func(in *TransactionInput) { in.Type = "transfer" }, "type", ErrInvalidType},
		{"unknown category", func(in *TransactionInput) { in.Category = "rent" }, "category", ErrUnknownCategory},
		{"income category on expense", func(in *TransactionInput) { in.Category = "salary" }, "category", ErrCategoryTypeMismatch},
		{"missing date", func(in *TransactionInput) { in.Date = Date{} }, "date", ErrInvalidDate},
		{"bad recurrence", func(in *TransactionInput) { in.Recurring = "hourly" }, "recurring", ErrInvalidRecurrence},
		{"long description", func(in *TransactionInput) { in.Description = strings.Repeat("x", 201) }, "description", ErrDescriptionTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.edit(&in)
			err := in.Validate()

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestTransactionInputTransaction(t *testing.T) {
	in := validInput()
	in.Description = "  lunch "
	tx := in.Transaction(42)

	assert.Equal(t, int64(42), tx.ID)
	assert.Equal(t, "lunch", tx.Description)
	assert.Equal(t, NoRepeat, tx.Recurring)
	assert.False(t, tx.IsRecurringInstance)
	assert.True(t, tx.Signed().Equal(decimal.NewFromInt(-10)))
}

func TestRecurringConfigInstance(t *testing.T) {
	cfg := RecurringConfig{
		ID:          7,
		Type:        Income,
		Amount:      decimal.NewFromInt(1000),
		Category:    "salary",
		Description: "pay",
		Recurring:   Monthly,
	}
	tx := cfg.Instance(99, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, int64(99), tx.ID)
	assert.Equal(t, int64(7), tx.ConfigID)
	assert.True(t, tx.IsRecurringInstance)
	assert.Equal(t, RecurringPrefix+"pay", tx.Description)
	assert.Equal(t, "2024-03-01", tx.Date.String())
	assert.Empty(t, tx.Recurring)
}

func TestGoal(t *testing.T) {
	g := Goal{TargetAmount: decimal.NewFromInt(500), CurrentAmount: decimal.NewFromInt(400)}
	assert.False(t, g.Completed())
	assert.InDelta(t, 0.8, g.Progress(), 1e-9)

	g.CurrentAmount = decimal.NewFromInt(550)
	assert.True(t, g.Completed())
	assert.InDelta(t, 1.1, g.Progress(), 1e-9)

	assert.Error(t, GoalInput{Title: " ", TargetAmount: decimal.NewFromInt(1)}.Validate())
	assert.Error(t, GoalInput{Title: "car", TargetAmount: decimal.Zero}.Validate())
	assert.Error(t, GoalInput{Title: "car", TargetAmount: decimal.NewFromInt(1), CurrentAmount: decimal.NewFromInt(-1)}.Validate())
	assert.NoError(t, GoalInput{Title: "car", TargetAmount: decimal.NewFromInt(1)}.Validate())
}

func TestCategories(t *testing.T) {
	c, ok := LookupCategory("food")
	require.True(t, ok)
	assert.Equal(t, "Food", c.NameEn)
	assert.Equal(t, Expense, c.Type)

	_, ok = LookupCategory("rent")
	assert.False(t, ok)
	assert.Equal(t, OtherCategory, CategoryOrFallback("rent").Key)

	assert.Len(t, Categories(), 10)
	assert.Len(t, CategoriesOf(Expense), 7)
	assert.Len(t, CategoriesOf(Income), 3)
}

func TestIDGenerator(t *testing.T) {
	var g IDGenerator
	now := time.UnixMilli(1_700_000_000_000)

	a := g.Next(now)
	b := g.Next(now)
	c := g.Next(now)
	assert.Equal(t, now.UnixMilli(), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)

	g.Seed(now.UnixMilli() + 100)
	assert.Equal(t, now.UnixMilli()+101, g.Next(now))
}
