package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/skilltree/internal/repository"
)

// Kind classifies a gateway failure.
type Kind string

const (
	KindNotFound Kind = "not_found"
	KindInvalid  Kind = "invalid"
	KindTimeout  Kind = "timeout"
	KindConflict Kind = "conflict"
	KindBackend  Kind = "backend"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid record")
	ErrTimeout  = errors.New("gateway call timed out")
	ErrConflict = errors.New("conflicting write")
)

// Error is the structured failure every gateway call returns.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalid:
		return e.Kind == KindInvalid
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrConflict:
		return e.Kind == KindConflict
	}
	return false
}

// KindOf returns the kind of a gateway error, or "" for other errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

func invalid(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInvalid, Err: err}
}

// classify wraps err as an *Error for op. ctx is the call's own context, so
// an expired deadline is reported as a timeout whatever the driver returned.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	kind := KindBackend
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, repository.ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, repository.ErrConflict):
		kind = KindConflict
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
