package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/djdiptayan1/trackmoji/internal/ledger"
)

// Static answers used when the model cannot help.
const (
	fallbackAnswer    = "Sorry, I ran into a problem answering that. Please try again in a moment."
	missingAnswerText = "I could not analyze your transactions for that question."
)

// QueryEngine answers natural-language questions against a user's
// already-fetched transaction list.
type QueryEngine struct {
	gen Generator
	log zerolog.Logger
}

// NewQueryEngine creates a query engine backed by the given generator.
func NewQueryEngine(gen Generator, log zerolog.Logger) *QueryEngine {
	return &QueryEngine{gen: gen, log: log}
}

// querySchema constrains the model output for transaction questions.
var querySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"answer":              {Type: genai.TypeString, Description: "direct answer to the user's question"},
		"insights":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"suggestedCategories": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"relevantTransactions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"amount":      {Type: genai.TypeNumber},
					"type":        {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"date":        {Type: genai.TypeString},
				},
				Required: []string{"amount", "type"},
			},
		},
		"totalAmount": {Type: genai.TypeNumber},
	},
	Required: []string{"answer"},
}

// Query answers the question against the given transactions. It never
// returns an error: internal failures produce a degraded answer with the
// failure message in the Error field. Missing fields in the model output are
// defaulted so callers always get a fully-shaped result.
func (q *QueryEngine) Query(ctx context.Context, question string, transactions []ledger.Transaction, userPhone string) QueryAnswer {
	prompt := buildQueryPrompt(question, transactions, userPhone)

	raw, err := q.gen.Generate(ctx, prompt, querySchema)
	if err != nil {
		q.log.Warn().Err(err).Str("user_phone", userPhone).Msg("Transaction query degraded")
		return QueryAnswer{
			Answer:               fallbackAnswer,
			Insights:             []string{},
			SuggestedCategories:  []string{},
			RelevantTransactions: []TransactionRef{},
			Error:                err.Error(),
		}
	}

	var answer QueryAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		q.log.Warn().Err(err).Str("user_phone", userPhone).Msg("Transaction query returned malformed JSON")
		return QueryAnswer{
			Answer:               fallbackAnswer,
			Insights:             []string{},
			SuggestedCategories:  []string{},
			RelevantTransactions: []TransactionRef{},
			Error:                fmt.Errorf("unmarshal answer: %w", err).Error(),
		}
	}

	if answer.Answer == "" {
		answer.Answer = missingAnswerText
	}
	if answer.Insights == nil {
		answer.Insights = []string{}
	}
	if answer.SuggestedCategories == nil {
		answer.SuggestedCategories = []string{}
	}
	if answer.RelevantTransactions == nil {
		answer.RelevantTransactions = []TransactionRef{}
	}

	return answer
}

// buildQueryPrompt serializes the full transaction list as context. No
// pre-aggregation happens here; arithmetic is the model's job.
func buildQueryPrompt(question string, transactions []ledger.Transaction, userPhone string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a personal finance assistant for user %s.\n\n", userPhone)
	b.WriteString("The user's complete transaction history, newest first:\n\n")

	for _, t := range transactions {
		desc := ""
		if t.Description != nil {
			desc = *t.Description
		}
		cat := ""
		if t.Category != nil {
			cat = *t.Category
		}
		src := ""
		if t.Source != nil {
			src = *t.Source
		}
		fmt.Fprintf(&b, "- date=%s type=%s amount=%.2f description=%q category=%q source=%q\n",
			t.Date.Format(time.RFC3339), t.Type, t.Amount, desc, cat, src)
	}

	fmt.Fprintf(&b, `
Balance rules:
- "credit" transactions add to the user's balance.
- "debit" transactions subtract from the user's balance.

Question: %q

Answer the question using only the transactions above. Respond with a single
JSON object matching the declared schema: a direct "answer", any useful
"insights", "suggestedCategories" for better tracking, the
"relevantTransactions" you based the answer on, and "totalAmount" when the
question implies a sum.`, question)

	return b.String()
}
