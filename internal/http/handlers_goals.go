package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"smartwallet/internal/analytics"
	"smartwallet/internal/core"
	wlog "smartwallet/internal/log"
)

type budgetList struct {
	Budgets    core.Budgets              `json:"budgets"`
	Categories []analytics.CategorySpend `json:"categories"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets := s.deps.Ledger.Snapshot().Budgets
	if budgets == nil {
		budgets = core.Budgets{}
	}
	NewJSONResponse().Body(budgetList{
		Budgets:    budgets,
		Categories: s.deps.Engine.Stats(r.Context()).CategorySpending,
	}).Write(w)
}

// handleSetBudget stores a cap. Unparseable or negative amounts clear it.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	category := r.PathValue("category")
	amount, err := s.deps.Ledger.SetBudget(r.Context(), category, string(req.Amount))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"category": category, "amount": amount}).Write(w)
}

type goalView struct {
	core.Goal
	Progress  float64         `json:"progress"`
	Completed bool            `json:"completed"`
	Remaining decimal.Decimal `json:"remaining"`
}

func viewGoal(g core.Goal) goalView {
	return goalView{
		Goal:      g,
		Progress:  g.Progress(),
		Completed: g.Completed(),
		Remaining: decimal.Max(decimal.Zero, g.TargetAmount.Sub(g.CurrentAmount)),
	}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals := s.deps.Ledger.Snapshot().Goals
	out := make([]goalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, viewGoal(g))
	}
	NewJSONResponse().Body(map[string]any{"goals": out}).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in, err := req.Input()
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	g, err := s.deps.Ledger.AddGoal(r.Context(), in)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	wlog.FromContext(r.Context()).InfoContext(r.Context(), "Goal created",
		wlog.FieldGoalID, g.ID, wlog.FieldOperation, wlog.OpCreate)
	NewJSONResponse().Status(http.StatusCreated).Body(viewGoal(g)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if !s.deps.Ledger.DeleteGoal(r.Context(), id) {
		FromError(r, &core.NotFoundError{Kind: "goal", ID: id}).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type allocationView struct {
	Goal        goalView         `json:"goal"`
	Transaction core.Transaction `json:"transaction"`
	Completed   bool             `json:"completed"`
	Balance     decimal.Decimal  `json:"balance"`
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	id := r.PathValue("id")
	a, err := s.deps.Allocator.AllocateString(r.Context(), id, string(req.Amount))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	wlog.FromContext(r.Context()).InfoContext(r.Context(), "Allocated to goal",
		wlog.FieldGoalID, id,
		wlog.FieldAmount, a.Transaction.Amount.String(),
		wlog.FieldOperation, wlog.OpAllocate)
	NewJSONResponse().Body(allocationView{
		Goal:        viewGoal(a.Goal),
		Transaction: a.Transaction,
		Completed:   a.Completed,
		Balance:     a.Balance,
	}).Write(w)
}
