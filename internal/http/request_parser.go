package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"smartwallet/internal/analytics"
	"smartwallet/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// amountField accepts an amount as a JSON string or number and keeps its
// text so the domain parser sees what the user typed.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = amountField(n.String())
	return nil
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// transactionRequest is the body of POST and PUT /api/transactions.
type transactionRequest struct {
	Type        string      `json:"type"`
	Amount      amountField `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Recurring   string      `json:"recurring"`
}

// Input validates the field syntax and builds the domain input. An empty
// date means today.
func (req transactionRequest) Input(today core.Date) (core.TransactionInput, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.TransactionInput{}, &core.ValidationError{Field: "amount", Err: err}
	}
	date := today
	if s := strings.TrimSpace(req.Date); s != "" {
		if date, err = core.ParseDate(s); err != nil {
			return core.TransactionInput{}, &core.ValidationError{Field: "date", Err: err}
		}
	}
	return core.TransactionInput{
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:      amount,
		Category:    strings.TrimSpace(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        date,
		Recurring:   core.Recurrence(strings.ToLower(strings.TrimSpace(req.Recurring))),
	}, nil
}

// goalRequest is the body of POST /api/goals.
type goalRequest struct {
	Title         string      `json:"title"`
	TargetAmount  amountField `json:"targetAmount"`
	CurrentAmount amountField `json:"currentAmount"`
}

func (req goalRequest) Input() (core.GoalInput, error) {
	target, err := core.ParseAmount(string(req.TargetAmount))
	if err != nil {
		return core.GoalInput{}, &core.ValidationError{Field: "targetAmount", Err: err}
	}
	current := decimal.Zero
	if s := strings.TrimSpace(string(req.CurrentAmount)); s != "" && s != "0" {
		if current, err = core.ParseAmount(s); err != nil {
			return core.GoalInput{}, &core.ValidationError{Field: "currentAmount", Err: err}
		}
	}
	return core.GoalInput{
		Title:         sanitizeInput(req.Title),
		TargetAmount:  target,
		CurrentAmount: current,
	}, nil
}

// amountRequest is the body of budget and allocation requests.
type amountRequest struct {
	Amount amountField `json:"amount"`
}

// preferencesRequest is the body of PUT /api/preferences. Absent fields are
// left unchanged.
type preferencesRequest struct {
	Theme    *string `json:"theme"`
	Currency *string `json:"currency"`
}

// ParseCriteria reads the filter view parameters q, type, category, start,
// end and min from a query string.
func ParseCriteria(query url.Values) (analytics.Criteria, error) {
	c := analytics.Criteria{
		Query:    strings.TrimSpace(query.Get("q")),
		Type:     strings.ToLower(strings.TrimSpace(query.Get("type"))),
		Category: strings.TrimSpace(query.Get("category")),
	}

	switch c.Type {
	case "", analytics.AllValue, string(core.Income), string(core.Expense):
	default:
		return analytics.Criteria{}, fmt.Errorf("invalid type %q", c.Type)
	}

	var err error
	if v := query.Get("start"); v != "" {
		if c.Start, err = core.ParseDate(v); err != nil {
			return analytics.Criteria{}, fmt.Errorf("invalid start date %q", v)
		}
	}
	if v := query.Get("end"); v != "" {
		if c.End, err = core.ParseDate(v); err != nil {
			return analytics.Criteria{}, fmt.Errorf("invalid end date %q", v)
		}
	}
	if v := strings.TrimSpace(query.Get("min")); v != "" {
		floor, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil {
			return analytics.Criteria{}, fmt.Errorf("invalid minimum amount %q", v)
		}
		c.MinAmount = decimal.NewNullDecimal(floor)
	}
	return c, nil
}

// parseBool reads an optional boolean query parameter.
func parseBool(query url.Values, key string) bool {
	b, _ := strconv.ParseBool(query.Get(key))
	return b
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
