package analysis

import (
	"context"

	"google.golang.org/genai"
)

// Transaction types the analyzer is expected to produce. Anything else is
// rejected downstream during validation.
const (
	TypeCredit  = "credit"
	TypeDebit   = "debit"
	TypeUnknown = "unknown"
)

// Generator is the schema-constrained generation dependency. Satisfied by
// *gemini.Client; mocked in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// TransactionAnalysis is the ephemeral structured record produced from one
// piece of free text. It is consumed immediately to create ledger rows and a
// condensed form is echoed back to the caller.
type TransactionAnalysis struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Source      string  `json:"source"`
	Date        string  `json:"date"`
	Confidence  float64 `json:"confidence"`
	Error       string  `json:"error,omitempty"`
}

// TransactionRef is a lightweight reference to a stored transaction inside a
// query answer.
type TransactionRef struct {
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// QueryAnswer is the ephemeral result of answering a natural-language
// question against a user's transaction history.
type QueryAnswer struct {
	Answer               string           `json:"answer"`
	Insights             []string         `json:"insights"`
	SuggestedCategories  []string         `json:"suggestedCategories"`
	RelevantTransactions []TransactionRef `json:"relevantTransactions"`
	TotalAmount          float64          `json:"totalAmount"`
	Error                string           `json:"error,omitempty"`
}
