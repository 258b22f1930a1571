package store

import (
	"errors"
	"fmt"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
)

var (
	// ErrAcquireTimeout indicates no connection slot became free within the acquisition timeout.
	ErrAcquireTimeout = errors.New("connection acquire timeout")

	// ErrForeignKey indicates a row referenced a parent that does not exist.
	ErrForeignKey = errors.New("foreign key violation")

	// ErrDuplicate indicates a row with the same ID already exists.
	ErrDuplicate = errors.New("duplicate row")

	// ErrNoRows indicates a keyed write did not affect exactly one row.
	ErrNoRows = errors.New("no rows affected")

	// ErrEmptyQuery indicates a probe without any searchable token.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrUnknownStrategy indicates a strategy no schema exists for.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("store closed")
)

// Error is the store failure raised by adapters (and by callers checking row counts).
// It always wraps one underlying cause.
type Error struct {
	Op       string
	Strategy domain.Strategy
	Entity   domain.EntityKind
	ID       string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	target := string(e.Strategy)
	if e.Entity != "" {
		target += "." + string(e.Entity)
	}
	if e.ID != "" {
		return fmt.Sprintf("store %s %s[%s]: %v", e.Op, target, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsStoreError reports whether err carries a *Error anywhere in its chain.
func IsStoreError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
