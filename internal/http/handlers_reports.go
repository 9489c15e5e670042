package http

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"smartwallet/internal/analytics"
	"smartwallet/internal/core"
	"smartwallet/internal/currency"
	"smartwallet/internal/export"
	wlog "smartwallet/internal/log"
)

// Themes accepted by PUT /api/preferences.
var themes = map[string]bool{"light": true, "dark": true}

// currencyCode returns the persisted display currency or the configured default.
func (s *Server) currencyCode() string {
	if _, code := s.deps.Ledger.Preferences(); code != "" {
		return code
	}
	return s.deps.DefaultCurrency
}

type statsResponse struct {
	analytics.Stats
	Currency string            `json:"currency"`
	Display  map[string]string `json:"display"`
}

// handleStats returns the derived snapshot plus its headline figures
// formatted in the display currency.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Engine.Stats(r.Context())
	code := s.currencyCode()

	display := map[string]string{}
	for name, v := range map[string]decimal.Decimal{
		"balance":          st.Balance,
		"income":           st.Income,
		"expense":          st.Expense,
		"safeToSpend":      st.SafeToSpend,
		"remainingBudgets": st.RemainingBudgets,
		"roundUpSavings":   st.RoundUpSavings,
		"forecastBalance":  st.Forecast.ForecastedBalance,
		"thisMonth":        st.Months.ThisMonth,
		"lastMonth":        st.Months.LastMonth,
	} {
		display[name] = currency.Format(v, code)
	}
	NewJSONResponse().Body(statsResponse{Stats: st, Currency: code, Display: display}).Write(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"points": s.deps.Engine.Chart(c)}).Write(w)
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.Categories()
	switch t := core.TransactionType(strings.ToLower(r.URL.Query().Get("type"))); t {
	case core.Income, core.Expense:
		cats = core.CategoriesOf(t)
	}
	NewJSONResponse().Body(map[string]any{"categories": cats}).Write(w)
}

// handleExportCSV streams the tabular projection of the filtered
// transactions as a CSV attachment.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var buf bytes.Buffer
	res, err := s.deps.Exporter.Export(r.Context(), s.deps.Engine.Transactions(c), &buf)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	name := export.FileName(core.DateOf(s.deps.Ledger.Now()).String())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	wlog.FromContext(r.Context()).InfoContext(r.Context(), "CSV exported",
		wlog.FieldRecordCount, res.Rows, wlog.FieldOperation, wlog.OpExport)
}

type preferences struct {
	Theme      string              `json:"theme"`
	Currency   string              `json:"currency"`
	Currencies []currency.Currency `json:"currencies"`
}

func (s *Server) preferences() preferences {
	theme, _ := s.deps.Ledger.Preferences()
	if theme == "" {
		theme = "light"
	}
	return preferences{Theme: theme, Currency: s.currencyCode(), Currencies: currency.All()}
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.preferences()).Write(w)
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	// Validate both fields before writing either.
	if req.Theme != nil && !themes[*req.Theme] {
		FromError(r, &core.ValidationError{Field: "theme", Err: errUnknownTheme}).Write(w)
		return
	}
	var code string
	if req.Currency != nil {
		c, ok := currency.Lookup(*req.Currency)
		if !ok {
			FromError(r, &core.ValidationError{Field: "currency", Err: errUnknownCurrency}).Write(w)
			return
		}
		code = c.Code
	}

	if req.Theme != nil {
		if err := s.deps.Ledger.SetTheme(r.Context(), *req.Theme); err != nil {
			FromError(r, err).Write(w)
			return
		}
	}
	if code != "" {
		if err := s.deps.Ledger.SetCurrency(r.Context(), code); err != nil {
			FromError(r, err).Write(w)
			return
		}
	}
	NewJSONResponse().Body(s.preferences()).Write(w)
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

// handleReset wipes the ledger. The body must carry {"confirm": true}.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !req.Confirm {
		BadRequestError("reset requires confirm=true").Write(w)
		return
	}
	if err := s.deps.Ledger.ResetAll(r.Context()); err != nil {
		FromError(r, err).Write(w)
		return
	}
	wlog.FromContext(r.Context()).WarnContext(r.Context(), "Ledger reset over HTTP",
		wlog.FieldOperation, wlog.OpReset)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
