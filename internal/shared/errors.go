package shared

import "errors"

var (
	// ErrWrongPassword indicates a login failure. Unknown email and bad
	// password both surface as this kind.
	ErrWrongPassword = errors.New("wrong e-mail/password combination")
	// ErrCannotDecryptToken indicates a bearer token failed parsing,
	// signature or time checks.
	ErrCannotDecryptToken = errors.New("cannot decrypt token")
	// ErrMissingParameters indicates a required query parameter is absent.
	ErrMissingParameters = errors.New("missing parameter")
	// ErrParse indicates a query parameter is not a valid integer.
	ErrParse = errors.New("cannot parse parameter")
	// ErrArgonLibrary indicates a stored hash is malformed or the hasher failed.
	ErrArgonLibrary = errors.New("cannot verify password")
	// ErrDatabaseQuery indicates a store operation failed.
	ErrDatabaseQuery = errors.New("cannot update, invalid data")
	// ErrDuplicateAccount indicates the email is already registered.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a request body failed validation.
	ErrValidation = errors.New("validation failed")
)
