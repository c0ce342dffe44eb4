package service

import (
	"github.com/djdiptayan1/trackmoji/internal/analysis"
)

// Kind classifies orchestrator errors so the HTTP boundary can map them to
// status codes without string matching.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindNotFound
	KindUnprocessable
	KindConflict
)

// Error is a typed orchestrator error. Unprocessable errors carry the
// partial analysis so the boundary can echo it to the caller.
type Error struct {
	Kind     Kind
	Message  string
	Analysis *analysis.TransactionAnalysis
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func unprocessable(message string, a *analysis.TransactionAnalysis) *Error {
	return &Error{Kind: KindUnprocessable, Message: message, Analysis: a}
}
