package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/djdiptayan1/trackmoji/internal/api/middleware"
	"github.com/djdiptayan1/trackmoji/internal/ledger"
	"github.com/djdiptayan1/trackmoji/internal/service"
)

// TransactionService is the orchestrator surface the transaction endpoints
// depend on.
type TransactionService interface {
	Process(ctx context.Context, text, userPhone string) (*service.ProcessResult, error)
	QueryTransactions(ctx context.Context, question, userPhone string) (*service.QueryResult, error)
	ListTransactions(ctx context.Context, userPhone string) ([]ledger.Transaction, error)
	ListCredits(ctx context.Context, userPhone string) ([]ledger.Credit, error)
	ListDebits(ctx context.Context, userPhone string) ([]ledger.Debit, error)
	Summary(ctx context.Context, userPhone string) (*ledger.Summary, error)
	ByCategory(ctx context.Context, userPhone, category string) (*service.CategoryResult, error)
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	svc        TransactionService
	log        zerolog.Logger
	production bool
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc TransactionService, log zerolog.Logger, production bool) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, log: log, production: production}
}

// Process handles POST /api/transactions
func (h *TransactionsHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string `json:"text"`
		UserPhone string `json:"userPhone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.Process(r.Context(), req.Text, req.UserPhone)
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusCreated, result)
}

// Query handles POST /api/transactions/query
func (h *TransactionsHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question  string `json:"question"`
		UserPhone string `json:"userPhone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.QueryTransactions(r.Context(), req.Question, req.UserPhone)
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, result)
}

// List handles GET /api/transactions/{userPhone}
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userPhone := mux.Vars(r)["userPhone"]

	rows, err := h.svc.ListTransactions(r.Context(), userPhone)
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}
	if rows == nil {
		rows = []ledger.Transaction{}
	}

	middleware.WriteSuccess(w, http.StatusOK, rows)
}

// Summary handles GET /api/transactions/{userPhone}/summary
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userPhone := mux.Vars(r)["userPhone"]

	summary, err := h.svc.Summary(r.Context(), userPhone)
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, summary)
}

// Credits handles GET /api/transactions/{userPhone}/credits
func (h *TransactionsHandler) Credits(w http.ResponseWriter, r *http.Request) {
	userPhone := mux.Vars(r)["userPhone"]

	rows, err := h.svc.ListCredits(r.Context(), userPhone)
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}
	if rows == nil {
		rows = []ledger.Credit{}
	}

	middleware.WriteSuccess(w, http.StatusOK, rows)
}

// Debits handles GET /api/transactions/{userPhone}/debits
func (h *TransactionsHandler) Debits(w http.ResponseWriter, r *http.Request) {
	userPhone := mux.Vars(r)["userPhone"]

	rows, err := h.svc.ListDebits(r.Context(), userPhone)
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}
	if rows == nil {
		rows = []ledger.Debit{}
	}

	middleware.WriteSuccess(w, http.StatusOK, rows)
}

// ByCategory handles GET /api/transactions/{userPhone}/category/{category}
func (h *TransactionsHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	result, err := h.svc.ByCategory(r.Context(), vars["userPhone"], vars["category"])
	if err != nil {
		respondError(w, h.log, h.production, err)
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, result)
}
