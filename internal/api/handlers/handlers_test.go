package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/djdiptayan1/trackmoji/internal/analysis"
	"github.com/djdiptayan1/trackmoji/internal/ledger"
	"github.com/djdiptayan1/trackmoji/internal/service"
)

// mockTransactionService implements TransactionService with overridable funcs.
type mockTransactionService struct {
	ProcessFunc           func(ctx context.Context, text, userPhone string) (*service.ProcessResult, error)
	QueryTransactionsFunc func(ctx context.Context, question, userPhone string) (*service.QueryResult, error)
	ListTransactionsFunc  func(ctx context.Context, userPhone string) ([]ledger.Transaction, error)
	ListCreditsFunc       func(ctx context.Context, userPhone string) ([]ledger.Credit, error)
	ListDebitsFunc        func(ctx context.Context, userPhone string) ([]ledger.Debit, error)
	SummaryFunc           func(ctx context.Context, userPhone string) (*ledger.Summary, error)
	ByCategoryFunc        func(ctx context.Context, userPhone, category string) (*service.CategoryResult, error)
}

func (m *mockTransactionService) Process(ctx context.Context, text, userPhone string) (*service.ProcessResult, error) {
	return m.ProcessFunc(ctx, text, userPhone)
}

func (m *mockTransactionService) QueryTransactions(ctx context.Context, question, userPhone string) (*service.QueryResult, error) {
	return m.QueryTransactionsFunc(ctx, question, userPhone)
}

func (m *mockTransactionService) ListTransactions(ctx context.Context, userPhone string) ([]ledger.Transaction, error) {
	return m.ListTransactionsFunc(ctx, userPhone)
}

func (m *mockTransactionService) ListCredits(ctx context.Context, userPhone string) ([]ledger.Credit, error) {
	return m.ListCreditsFunc(ctx, userPhone)
}

func (m *mockTransactionService) ListDebits(ctx context.Context, userPhone string) ([]ledger.Debit, error) {
	return m.ListDebitsFunc(ctx, userPhone)
}

func (m *mockTransactionService) Summary(ctx context.Context, userPhone string) (*ledger.Summary, error) {
	return m.SummaryFunc(ctx, userPhone)
}

func (m *mockTransactionService) ByCategory(ctx context.Context, userPhone, category string) (*service.CategoryResult, error) {
	return m.ByCategoryFunc(ctx, userPhone, category)
}

// mockUserService implements UserService.
type mockUserService struct {
	CreateUserFunc func(ctx context.Context, userPhone, name string) (*ledger.User, error)
	FindUserFunc   func(ctx context.Context, userPhone string) (*ledger.User, error)
}

func (m *mockUserService) CreateUser(ctx context.Context, userPhone, name string) (*ledger.User, error) {
	return m.CreateUserFunc(ctx, userPhone, name)
}

func (m *mockUserService) FindUser(ctx context.Context, userPhone string) (*ledger.User, error) {
	return m.FindUserFunc(ctx, userPhone)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message  string          `json:"message"`
		Detail   string          `json:"detail"`
		Analysis json.RawMessage `json:"analysis"`
	} `json:"error"`
}

func newRouter(th *TransactionsHandler, uh *UsersHandler) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	if th != nil {
		api.HandleFunc("/transactions", th.Process).Methods(http.MethodPost)
		api.HandleFunc("/transactions/query", th.Query).Methods(http.MethodPost)
		api.HandleFunc("/transactions/{userPhone}", th.List).Methods(http.MethodGet)
		api.HandleFunc("/transactions/{userPhone}/summary", th.Summary).Methods(http.MethodGet)
		api.HandleFunc("/transactions/{userPhone}/credits", th.Credits).Methods(http.MethodGet)
		api.HandleFunc("/transactions/{userPhone}/debits", th.Debits).Methods(http.MethodGet)
		api.HandleFunc("/transactions/{userPhone}/category/{category}", th.ByCategory).Methods(http.MethodGet)
	}
	if uh != nil {
		api.HandleFunc("/users", uh.Create).Methods(http.MethodPost)
		api.HandleFunc("/users/search", uh.Search).Methods(http.MethodGet)
	}
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func TestProcess_Created(t *testing.T) {
	svc := &mockTransactionService{
		ProcessFunc: func(ctx context.Context, text, userPhone string) (*service.ProcessResult, error) {
			return &service.ProcessResult{
				Transaction: &ledger.Transaction{ID: 1, Amount: 500, Type: "credit"},
				Specific:    &ledger.Credit{ID: 1, Amount: 500},
				Analysis:    service.AnalysisEcho{Type: "credit", Amount: 500, Confidence: 0.95},
			}, nil
		},
	}
	router := newRouter(NewTransactionsHandler(svc, zerolog.Nop(), false), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"text":"received 500 from mom","userPhone":"+1555"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Error("success = false, want true")
	}
	if !strings.Contains(string(env.Data), `"specificTransaction"`) {
		t.Errorf("data missing specificTransaction: %s", env.Data)
	}
}

func TestProcess_InvalidBody(t *testing.T) {
	svc := &mockTransactionService{}
	router := newRouter(NewTransactionsHandler(svc, zerolog.Nop(), false), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProcess_UnprocessableEchoesAnalysis(t *testing.T) {
	svc := &mockTransactionService{
		ProcessFunc: func(ctx context.Context, text, userPhone string) (*service.ProcessResult, error) {
			return nil, &service.Error{
				Kind:    service.KindUnprocessable,
				Message: "could not extract a transaction from the text",
				Analysis: &analysis.TransactionAnalysis{
					Type: "unknown", Description: text, Error: "generation failed",
				},
			}
		},
	}
	router := newRouter(NewTransactionsHandler(svc, zerolog.Nop(), false), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"text":"gibberish","userPhone":"+1555"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Error("success = true, want false")
	}
	if env.Error == nil || env.Error.Analysis == nil {
		t.Fatalf("error body missing analysis echo: %s", rec.Body.String())
	}
}

func TestQuery_OK(t *testing.T) {
	svc := &mockTransactionService{
		QueryTransactionsFunc: func(ctx context.Context, question, userPhone string) (*service.QueryResult, error) {
			return &service.QueryResult{
				QueryAnswer: analysis.QueryAnswer{
					Answer:               "Your balance is 300",
					Insights:             []string{},
					SuggestedCategories:  []string{},
					RelevantTransactions: []analysis.TransactionRef{},
				},
				TransactionCount: 2,
			}, nil
		},
	}
	router := newRouter(NewTransactionsHandler(svc, zerolog.Nop(), false), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/query",
		strings.NewReader(`{"question":"what's my balance?","userPhone":"+1555"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !strings.Contains(string(env.Data), `"transactionCount":2`) {
		t.Errorf("data missing transactionCount: %s", env.Data)
	}
}

func TestList_UserNotFound(t *testing.T) {
	svc := &mockTransactionService{
		ListTransactionsFunc: func(ctx context.Context, userPhone string) ([]ledger.Transaction, error) {
			return nil, &service.Error{Kind: service.KindNotFound, Message: "user not found"}
		},
	}
	router := newRouter(NewTransactionsHandler(svc, zerolog.Nop(), false), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/+1999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestByCategory_PassesPathVars(t *testing.T) {
	var gotPhone, gotCategory string
	svc := &mockTransactionService{
		ByCategoryFunc: func(ctx context.Context, userPhone, category string) (*service.CategoryResult, error) {
			gotPhone, gotCategory = userPhone, category
			return &service.CategoryResult{
				Transactions: []ledger.Transaction{},
				Debits:       []ledger.Debit{},
				Category:     category,
			}, nil
		},
	}
	router := newRouter(NewTransactionsHandler(svc, zerolog.Nop(), false), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions/+1555/category/food", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotPhone != "+1555" || gotCategory != "food" {
		t.Errorf("vars = (%q, %q), want (+1555, food)", gotPhone, gotCategory)
	}
}

func TestCreateUser_DuplicateIs400(t *testing.T) {
	svc := &mockUserService{
		CreateUserFunc: func(ctx context.Context, userPhone, name string) (*ledger.User, error) {
			return nil, &service.Error{Kind: service.KindBadRequest, Message: "a user with this phone number already exists"}
		},
	}
	router := newRouter(nil, NewUsersHandler(svc, zerolog.Nop(), false))

	req := httptest.NewRequest(http.MethodPost, "/api/users",
		strings.NewReader(`{"userPhone":"+1555"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchUser_OK(t *testing.T) {
	svc := &mockUserService{
		FindUserFunc: func(ctx context.Context, userPhone string) (*ledger.User, error) {
			return &ledger.User{ID: 1, Phone: userPhone}, nil
		},
	}
	router := newRouter(nil, NewUsersHandler(svc, zerolog.Nop(), false))

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?userPhone=%2B1555", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !strings.Contains(string(env.Data), `"+1555"`) {
		t.Errorf("data missing phone: %s", env.Data)
	}
}

func TestRespondError_HidesDetailInProduction(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		wantDetail bool
	}{
		{"development shows detail", false, true},
		{"production hides detail", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, zerolog.Nop(), tt.production, errors.New("disk on fire"))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Error == nil {
				t.Fatal("missing error body")
			}
			hasDetail := env.Error.Detail != ""
			if hasDetail != tt.wantDetail {
				t.Errorf("detail present = %v, want %v (body %s)", hasDetail, tt.wantDetail, rec.Body.String())
			}
			if env.Error.Message != "Internal server error" {
				t.Errorf("message = %q, want generic", env.Error.Message)
			}
		})
	}
}

type stubPinger struct{ err error }

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

func TestHealth_Healthy(t *testing.T) {
	h := NewHealthHandler(&stubPinger{}, &stubPinger{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("body missing healthy status: %s", rec.Body.String())
	}
}

func TestHealth_DegradedStillAnswers200(t *testing.T) {
	h := NewHealthHandler(&stubPinger{err: errors.New("connection refused")}, &stubPinger{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when degraded", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"degraded"`) {
		t.Errorf("body missing degraded status: %s", rec.Body.String())
	}
}
