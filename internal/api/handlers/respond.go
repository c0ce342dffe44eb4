package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/djdiptayan1/trackmoji/internal/api/middleware"
	"github.com/djdiptayan1/trackmoji/internal/ledger"
	"github.com/djdiptayan1/trackmoji/internal/service"
)

// respondError is the error boundary: orchestrator errors map by kind,
// persistence errors map by sentinel, anything else becomes a generic 500.
// The underlying error text is exposed only outside production mode.
func respondError(w http.ResponseWriter, log zerolog.Logger, production bool, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		body := middleware.ErrorBody{Message: svcErr.Message}
		if svcErr.Analysis != nil {
			body.Analysis = svcErr.Analysis
		}
		middleware.WriteErrorBody(w, statusForKind(svcErr.Kind), body)
		return
	}

	switch {
	case errors.Is(err, ledger.ErrDuplicate):
		middleware.WriteError(w, http.StatusConflict, "duplicate record")
	case errors.Is(err, ledger.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "record not found")
	default:
		log.Error().Err(err).Msg("Unhandled error")
		body := middleware.ErrorBody{Message: "Internal server error"}
		if !production {
			body.Detail = err.Error()
		}
		middleware.WriteErrorBody(w, http.StatusInternalServerError, body)
	}
}

func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
