package ledger

import (
	"errors"
	"fmt"

	dErrors "landledger/pkg/domain-errors"
)

// ErrorKind normalizes chain call failures.
type ErrorKind string

const (
	KindUnavailable ErrorKind = "unavailable"
	KindTimeout     ErrorKind = "timeout"
	KindCircuitOpen ErrorKind = "circuit_open"
	KindBadResponse ErrorKind = "bad_response"
)

// ChainUnavailableError means the ledger could not answer. It is degraded and
// non-fatal: stats fall back, writes surface as 503.
type ChainUnavailableError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ChainUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger %s [%s]: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("ledger %s [%s]", e.Op, e.Kind)
}

func (e *ChainUnavailableError) Unwrap() error { return e.Err }

func (e *ChainUnavailableError) DomainCode() dErrors.Code {
	if e.Kind == KindTimeout {
		return dErrors.CodeTimeout
	}
	return dErrors.CodeUnavailable
}

// Retryable reports whether another attempt may succeed.
func (e *ChainUnavailableError) Retryable() bool {
	return e.Kind == KindUnavailable || e.Kind == KindTimeout
}

func NewUnavailable(kind ErrorKind, op string, err error) error {
	return &ChainUnavailableError{Kind: kind, Op: op, Err: err}
}

// ChainRejectedError means the ledger refused the request itself, e.g. an
// unknown land id. Retrying will not help.
type ChainRejectedError struct {
	Op      string
	Status  int
	Message string
}

func (e *ChainRejectedError) Error() string {
	return fmt.Sprintf("ledger %s rejected (%d): %s", e.Op, e.Status, e.Message)
}

func (e *ChainRejectedError) DomainCode() dErrors.Code {
	return dErrors.CodeBadRequest
}

// IsUnavailable reports whether err is a ChainUnavailableError.
func IsUnavailable(err error) bool {
	var ue *ChainUnavailableError
	return errors.As(err, &ue)
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var ue *ChainUnavailableError
	return errors.As(err, &ue) && ue.Retryable()
}
