package http

import (
	"net/http"

	"smartwallet/internal/analytics"
	"smartwallet/internal/core"
	"smartwallet/internal/ledger"
	wlog "smartwallet/internal/log"
)

type transactionList struct {
	Transactions []core.Transaction    `json:"transactions"`
	Groups       []analytics.DateGroup `json:"groups,omitempty"`
	Count        int                   `json:"count"`
	Totals       analytics.Totals      `json:"totals"`
	Filtered     bool                  `json:"filtered"`
}

// handleListTransactions serves the filter view. group=true adds the
// transactions grouped by day, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	txs := s.deps.Engine.Transactions(c)
	out := transactionList{
		Transactions: txs,
		Count:        len(txs),
		Totals:       analytics.ComputeTotals(txs),
		Filtered:     c.Active(),
	}
	if parseBool(r.URL.Query(), "group") {
		out.Groups = analytics.GroupByDate(txs)
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := req.Input(core.DateOf(s.deps.Ledger.Now()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	t, err := s.deps.Ledger.AddTransaction(r.Context(), in)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	wlog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		wlog.NewFields().
			WithTransaction(t.ID, string(t.Type), t.Category, t.Amount.String()).
			WithOperation(wlog.OpCreate).
			ToSlice()...)
	NewJSONResponse().Status(http.StatusCreated).Body(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ledger.ParseID(r.PathValue("id"))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := req.Input(core.DateOf(s.deps.Ledger.Now()))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	ok, err := s.deps.Ledger.UpdateTransaction(r.Context(), id, in)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	if !ok {
		FromError(r, &core.NotFoundError{Kind: "transaction", ID: r.PathValue("id")}).Write(w)
		return
	}

	for _, t := range s.deps.Ledger.Snapshot().Transactions {
		if t.ID == id {
			NewJSONResponse().Body(t).Write(w)
			return
		}
	}
	// Deleted by a concurrent request between the update and the read.
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ledger.ParseID(r.PathValue("id"))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	if !s.deps.Ledger.DeleteTransaction(r.Context(), id) {
		FromError(r, &core.NotFoundError{Kind: "transaction", ID: r.PathValue("id")}).Write(w)
		return
	}
	wlog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
		wlog.FieldTxID, id, wlog.FieldOperation, wlog.OpDelete)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
