package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/djdiptayan1/trackmoji/internal/analysis"
	"github.com/djdiptayan1/trackmoji/internal/ledger"
)

const emptyHistoryAnswer = "You don't have any transactions yet."

// Store is the persistence dependency of the orchestrator. Satisfied by
// *ledger.Store; mocked in tests.
type Store interface {
	CreateUser(ctx context.Context, user *ledger.User) error
	FindUserByPhone(ctx context.Context, phone string) (*ledger.User, error)
	SaveTransaction(ctx context.Context, txn *ledger.Transaction, credit *ledger.Credit, debit *ledger.Debit) error
	ListTransactions(ctx context.Context, userID uint) ([]ledger.Transaction, error)
	ListCredits(ctx context.Context, userID uint) ([]ledger.Credit, error)
	ListDebits(ctx context.Context, userID uint) ([]ledger.Debit, error)
	FilterTransactionsByCategory(ctx context.Context, userID uint, category string) ([]ledger.Transaction, error)
	FilterDebitsByCategory(ctx context.Context, userID uint, category string) ([]ledger.Debit, error)
	Summarize(ctx context.Context, userID uint) (*ledger.Summary, error)
}

// Analyzer converts free text into a structured transaction record.
type Analyzer interface {
	Analyze(ctx context.Context, text, userPhone string) analysis.TransactionAnalysis
}

// QueryEngine answers a question against an already-fetched transaction list.
type QueryEngine interface {
	Query(ctx context.Context, question string, transactions []ledger.Transaction, userPhone string) analysis.QueryAnswer
}

// Service orchestrates analysis, user resolution and ledger writes.
type Service struct {
	store    Store
	analyzer Analyzer
	queries  QueryEngine
	log      zerolog.Logger
}

// New wires the orchestrator with its collaborators.
func New(store Store, analyzer Analyzer, queries QueryEngine, log zerolog.Logger) *Service {
	return &Service{store: store, analyzer: analyzer, queries: queries, log: log}
}

// AnalysisEcho is the condensed analysis returned alongside the created rows.
type AnalysisEcho struct {
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Category   string  `json:"category,omitempty"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ProcessResult combines the unified row, its type-specific sibling and the
// condensed analysis.
type ProcessResult struct {
	Transaction *ledger.Transaction `json:"transaction"`
	Specific    interface{}         `json:"specificTransaction"`
	Analysis    AnalysisEcho        `json:"analysis"`
}

// Process records one transaction from free-form text. The user is created
// lazily on their first transaction; writes to the unified and type-specific
// tables happen in one atomic unit.
func (s *Service) Process(ctx context.Context, text, userPhone string) (*ProcessResult, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(userPhone) == "" {
		return nil, badRequest("text and userPhone are required")
	}

	a := s.analyzer.Analyze(ctx, text, userPhone)

	// An absent type or a zero amount means the model could not determine a
	// transaction. Amount 0 is indistinguishable from "missing" here; that
	// boundary is intentional and covered by tests.
	normalizedType := strings.ToLower(a.Type)
	if a.Type == "" || a.Amount == 0 || (normalizedType != analysis.TypeCredit && normalizedType != analysis.TypeDebit) {
		return nil, unprocessable("could not extract a transaction from the text", &a)
	}

	user, err := s.resolveOrCreateUser(ctx, userPhone)
	if err != nil {
		return nil, err
	}

	date := normalizeDate(a.Date)

	txn := &ledger.Transaction{
		UserID:      user.ID,
		Amount:      a.Amount,
		Type:        a.Type,
		Description: strOrNil(a.Description),
		Category:    strOrNil(a.Category),
		Source:      strOrNil(a.Source),
		Date:        date,
	}

	var credit *ledger.Credit
	var debit *ledger.Debit
	switch normalizedType {
	case analysis.TypeCredit:
		credit = &ledger.Credit{
			UserID:      user.ID,
			Amount:      a.Amount,
			Description: strOrNil(a.Description),
			Source:      strOrNil(a.Source),
			Date:        date,
		}
	case analysis.TypeDebit:
		debit = &ledger.Debit{
			UserID:      user.ID,
			Amount:      a.Amount,
			Description: strOrNil(a.Description),
			Category:    strOrNil(a.Category),
			Date:        date,
		}
	}

	if err := s.store.SaveTransaction(ctx, txn, credit, debit); err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}

	s.log.Info().
		Str("user_phone", userPhone).
		Str("type", a.Type).
		Float64("amount", a.Amount).
		Msg("Transaction recorded")

	result := &ProcessResult{
		Transaction: txn,
		Analysis: AnalysisEcho{
			Type:       a.Type,
			Amount:     a.Amount,
			Category:   a.Category,
			Source:     a.Source,
			Confidence: a.Confidence,
		},
	}
	if credit != nil {
		result.Specific = credit
	} else {
		result.Specific = debit
	}
	return result, nil
}

// QueryResult is a query answer plus the size of the history it considered.
type QueryResult struct {
	analysis.QueryAnswer
	TransactionCount int `json:"transactionCount"`
}

// QueryTransactions answers a natural-language question about the user's
// history. Unlike Process, the user must already exist. An empty history
// short-circuits without a model call.
func (s *Service) QueryTransactions(ctx context.Context, question, userPhone string) (*QueryResult, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(userPhone) == "" {
		return nil, badRequest("question and userPhone are required")
	}

	user, err := s.requireUser(ctx, userPhone)
	if err != nil {
		return nil, err
	}

	transactions, err := s.store.ListTransactions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	if len(transactions) == 0 {
		return &QueryResult{
			QueryAnswer: analysis.QueryAnswer{
				Answer:               emptyHistoryAnswer,
				Insights:             []string{},
				SuggestedCategories:  []string{},
				RelevantTransactions: []analysis.TransactionRef{},
			},
		}, nil
	}

	answer := s.queries.Query(ctx, question, transactions, userPhone)
	return &QueryResult{QueryAnswer: answer, TransactionCount: len(transactions)}, nil
}

// ListTransactions returns the user's unified ledger, newest date first.
func (s *Service) ListTransactions(ctx context.Context, userPhone string) ([]ledger.Transaction, error) {
	user, err := s.requireUser(ctx, userPhone)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListTransactions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return rows, nil
}

// ListCredits returns the user's credit ledger, newest date first.
func (s *Service) ListCredits(ctx context.Context, userPhone string) ([]ledger.Credit, error) {
	user, err := s.requireUser(ctx, userPhone)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListCredits(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	return rows, nil
}

// ListDebits returns the user's debit ledger, newest date first.
func (s *Service) ListDebits(ctx context.Context, userPhone string) ([]ledger.Debit, error) {
	user, err := s.requireUser(ctx, userPhone)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListDebits(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list debits: %w", err)
	}
	return rows, nil
}

// Summary aggregates the user's ledger.
func (s *Service) Summary(ctx context.Context, userPhone string) (*ledger.Summary, error) {
	user, err := s.requireUser(ctx, userPhone)
	if err != nil {
		return nil, err
	}
	summary, err := s.store.Summarize(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return summary, nil
}

// CategoryResult holds the two independent category matches: unified rows
// and debit rows. Neither list is guaranteed to be a subset of the other,
// since the unified table may hold non-debit rows matching the text.
type CategoryResult struct {
	Transactions []ledger.Transaction `json:"transactions"`
	Debits       []ledger.Debit       `json:"debits"`
	Category     string               `json:"category"`
	TotalAmount  float64              `json:"totalAmount"`
	Count        int                  `json:"count"`
}

// ByCategory filters both the unified and debit tables by case-insensitive
// substring match on category.
func (s *Service) ByCategory(ctx context.Context, userPhone, category string) (*CategoryResult, error) {
	if strings.TrimSpace(category) == "" {
		return nil, badRequest("category is required")
	}
	user, err := s.requireUser(ctx, userPhone)
	if err != nil {
		return nil, err
	}

	transactions, err := s.store.FilterTransactionsByCategory(ctx, user.ID, category)
	if err != nil {
		return nil, fmt.Errorf("by category: %w", err)
	}
	debits, err := s.store.FilterDebitsByCategory(ctx, user.ID, category)
	if err != nil {
		return nil, fmt.Errorf("by category: %w", err)
	}

	var total float64
	for _, d := range debits {
		total += d.Amount
	}

	return &CategoryResult{
		Transactions: transactions,
		Debits:       debits,
		Category:     category,
		TotalAmount:  total,
		Count:        len(transactions),
	}, nil
}

// CreateUser registers a user explicitly. Duplicate phones are rejected.
func (s *Service) CreateUser(ctx context.Context, userPhone, name string) (*ledger.User, error) {
	if strings.TrimSpace(userPhone) == "" {
		return nil, badRequest("userPhone is required")
	}

	user := &ledger.User{Phone: userPhone, Name: name}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			return nil, badRequest("a user with this phone number already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// FindUser looks up a user by phone.
func (s *Service) FindUser(ctx context.Context, userPhone string) (*ledger.User, error) {
	return s.requireUser(ctx, userPhone)
}

// requireUser resolves a user that must already exist.
func (s *Service) requireUser(ctx context.Context, userPhone string) (*ledger.User, error) {
	if strings.TrimSpace(userPhone) == "" {
		return nil, badRequest("userPhone is required")
	}
	user, err := s.store.FindUserByPhone(ctx, userPhone)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, notFound("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// resolveOrCreateUser implements the implicit upsert of the write path: a
// user's first transaction creates their account. When a concurrent request
// wins the insert race, the unique phone index fails ours and we retry as a
// lookup.
func (s *Service) resolveOrCreateUser(ctx context.Context, userPhone string) (*ledger.User, error) {
	user, err := s.store.FindUserByPhone(ctx, userPhone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	user = &ledger.User{Phone: userPhone}
	createErr := s.store.CreateUser(ctx, user)
	if createErr == nil {
		return user, nil
	}
	if errors.Is(createErr, ledger.ErrDuplicate) {
		user, err = s.store.FindUserByPhone(ctx, userPhone)
		if err != nil {
			return nil, fmt.Errorf("resolve user after insert race: %w", err)
		}
		return user, nil
	}
	return nil, fmt.Errorf("create user: %w", createErr)
}

// normalizeDate parses the analyzer's date string, falling back to now when
// it is unparseable.
func normalizeDate(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
