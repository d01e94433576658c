package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gobazaar/marketcore/internal/domain"
	"github.com/gobazaar/marketcore/internal/observability"
)

// MapError translates a business-rule failure into an HTTP status and a
// caller-safe message. Anything outside the domain taxonomy is reported as a
// generic unavailable condition; the core never guesses intent.
func MapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDuplicateOrder):
		return http.StatusConflict, err.Error()

	case errors.Is(err, domain.ErrProductUnavailable):
		return http.StatusGone, err.Error()

	case errors.Is(err, domain.ErrSelfOrder),
		errors.Is(err, domain.ErrSelfMessage),
		errors.Is(err, domain.ErrEmptyText),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()

	default:
		if observability.Log != nil {
			observability.Log.Error("internal error", zap.Error(err))
		}
		return http.StatusInternalServerError, "internal server error"
	}
}
