// Package handlers implements the HTTP endpoints of the banking profile service.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/iQube-Protocol/moneypenny/internal/api/middleware"
	"github.com/iQube-Protocol/moneypenny/internal/domain"
	"github.com/iQube-Protocol/moneypenny/internal/extraction"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
)

// Error codes returned alongside the message.
const (
	CodeExtractionUnavailable = "extraction_unavailable"
	CodeInvalidStatement      = "invalid_statement"
	CodeBadRequest            = "bad_request"
)

// writeProfilingError maps a pipeline error onto a response. Provider failures are a bad
// gateway; a statement that fails validation is the client's problem.
func writeProfilingError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.Is(err, extraction.ErrExtractionUnavailable):
		middleware.WriteErrorCode(w, http.StatusBadGateway, CodeExtractionUnavailable, "Statement extraction is unavailable", nil)
	case errors.As(err, &verr):
		middleware.WriteErrorCode(w, http.StatusBadRequest, CodeInvalidStatement, "Statement failed validation", verr.Errors)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to profile statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to profile statement")
	}
}
