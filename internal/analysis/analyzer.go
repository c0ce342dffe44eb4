package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Analyzer classifies free-form text into a structured transaction record.
type Analyzer struct {
	gen Generator
	log zerolog.Logger
}

// NewAnalyzer creates an analyzer backed by the given generator.
func NewAnalyzer(gen Generator, log zerolog.Logger) *Analyzer {
	return &Analyzer{gen: gen, log: log}
}

// analysisSchema constrains the model output for transaction analysis.
var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"type":        {Type: genai.TypeString, Description: "\"credit\" or \"debit\""},
		"amount":      {Type: genai.TypeNumber, Description: "non-negative magnitude of the transaction"},
		"description": {Type: genai.TypeString, Description: "short description of the transaction"},
		"category":    {Type: genai.TypeString, Description: "spending category, e.g. food, transport, rent"},
		"source":      {Type: genai.TypeString, Description: "who the money came from or went to"},
		"date":        {Type: genai.TypeString, Description: "ISO-8601 date of the transaction, if mentioned"},
		"confidence":  {Type: genai.TypeNumber, Description: "confidence in the classification, 0 to 1"},
	},
	Required: []string{"type", "amount", "description", "category", "source", "confidence"},
}

// Analyze converts text into a TransactionAnalysis. It never returns an
// error: any internal failure yields a degraded analysis with type "unknown"
// and the failure message in the Error field, so the caller can validate the
// result through one uniform path.
func (a *Analyzer) Analyze(ctx context.Context, text, userPhone string) TransactionAnalysis {
	prompt := buildAnalysisPrompt(text, userPhone)

	raw, err := a.gen.Generate(ctx, prompt, analysisSchema)
	if err != nil {
		a.log.Warn().Err(err).Str("user_phone", userPhone).Msg("Transaction analysis degraded")
		return a.fallback(text, err)
	}

	var result TransactionAnalysis
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		a.log.Warn().Err(err).Str("user_phone", userPhone).Msg("Transaction analysis returned malformed JSON")
		return a.fallback(text, fmt.Errorf("unmarshal analysis: %w", err))
	}

	if result.Date == "" {
		result.Date = time.Now().Format(time.RFC3339)
	}

	// Confidence is passed through as returned, not clamped to [0,1].
	return result
}

func (a *Analyzer) fallback(text string, cause error) TransactionAnalysis {
	return TransactionAnalysis{
		Type:        TypeUnknown,
		Amount:      0,
		Description: text,
		Category:    "unknown",
		Source:      "unknown",
		Date:        time.Now().Format(time.RFC3339),
		Confidence:  0,
		Error:       cause.Error(),
	}
}

func buildAnalysisPrompt(text, userPhone string) string {
	return fmt.Sprintf(`You are a financial transaction classifier for user %s.

Analyze the following message and extract one transaction from it:

%q

Classification rules:
- If money flows TO the user (they received it, were given it, or earned it), the type is "credit".
- If money flows FROM the user (they spent it, paid it, or bought something), the type is "debit".
- The direction of money flow decides the type, not the verb alone.
- "amount" is the non-negative numeric magnitude, never signed.
- "source" is the counterparty: who the money came from (credit) or went to (debit).
- Only include "date" if the message mentions one; format it as ISO-8601.
- "confidence" is your confidence in the classification between 0 and 1.

Respond with a single JSON object matching the declared schema.`, userPhone, text)
}
