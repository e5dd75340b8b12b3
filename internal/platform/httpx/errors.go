// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/questhub/questhub/internal/shared"
)

// StatusError is implemented by errors that carry their own HTTP status,
// such as upstream API failures passed through to the client.
type StatusError interface {
	error
	HTTPStatus() int
	Title() string
}

// StatusFor returns the HTTP status that RespondError would use for err.
func StatusFor(err error) int {
	status, _, _ := classify(err)
	return status
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status, title, detail := classify(err)
	Problem(w, status, title, detail)
}

func classify(err error) (int, string, string) {
	var se StatusError
	switch {
	case errors.Is(err, shared.ErrWrongPassword):
		return http.StatusUnauthorized, "Unauthorized", shared.ErrWrongPassword.Error()
	case errors.Is(err, shared.ErrCannotDecryptToken):
		return http.StatusUnauthorized, "Unauthorized", shared.ErrCannotDecryptToken.Error()
	case errors.Is(err, shared.ErrMissingParameters):
		return http.StatusBadRequest, "Missing Parameters", err.Error()
	case errors.Is(err, shared.ErrParse):
		return http.StatusBadRequest, "Parse Error", err.Error()
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest, "Validation Failed", err.Error()
	case errors.Is(err, shared.ErrDuplicateAccount):
		return http.StatusConflict, "Duplicate", shared.ErrDuplicateAccount.Error()
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "Not Found", shared.ErrNotFound.Error()
	case errors.As(err, &se):
		return se.HTTPStatus(), se.Title(), se.Error()
	default:
		return http.StatusInternalServerError, "Internal Error", ""
	}
}
