package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrPaymentFailed = errors.New("payment failed")
)

// Error carries a kind and a message that is safe to show to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// notFound maps sql.ErrNoRows to ErrNotFound and passes other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errorf(ErrNotFound, "%s not found", what)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ListResult is the service-level DTO for paginated lists.
type ListResult[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
}

func normalizePage(limit, offset, max int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
