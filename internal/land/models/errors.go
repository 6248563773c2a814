package models

import (
	"errors"
	"fmt"

	dErrors "landledger/pkg/domain-errors"
)

// ValidationReason names why a submission was refused.
type ValidationReason string

const (
	ReasonMissingDocument    ValidationReason = "missing_document"
	ReasonInvalidFileType    ValidationReason = "invalid_file_type"
	ReasonFileTooLarge       ValidationReason = "file_too_large"
	ReasonMissingField       ValidationReason = "missing_field"
	ReasonUnexpectedDocument ValidationReason = "unexpected_document"
	ReasonUnknownType        ValidationReason = "unknown_application_type"
)

// ValidationError is caller-fixable and is always raised before any side
// effect. Subject is the document kind or field name at fault.
type ValidationError struct {
	Reason  ValidationReason
	Subject string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissingDocument:
		return fmt.Sprintf("missing document: %s", e.Subject)
	case ReasonInvalidFileType:
		return fmt.Sprintf("invalid file type for %s: only PDF, JPEG and PNG are accepted", e.Subject)
	case ReasonFileTooLarge:
		return fmt.Sprintf("file too large for %s: maximum is 5 MB", e.Subject)
	case ReasonMissingField:
		return fmt.Sprintf("missing required field: %s", e.Subject)
	case ReasonUnexpectedDocument:
		return fmt.Sprintf("unexpected document: %s", e.Subject)
	case ReasonUnknownType:
		return fmt.Sprintf("unknown application type: %s", e.Subject)
	default:
		return fmt.Sprintf("validation failed: %s", e.Subject)
	}
}

func (e *ValidationError) DomainCode() dErrors.Code {
	return dErrors.CodeValidation
}

func MissingDocument(kind DocumentKind) error {
	return &ValidationError{Reason: ReasonMissingDocument, Subject: string(kind)}
}

func InvalidFileType(kind DocumentKind) error {
	return &ValidationError{Reason: ReasonInvalidFileType, Subject: string(kind)}
}

func FileTooLarge(kind DocumentKind) error {
	return &ValidationError{Reason: ReasonFileTooLarge, Subject: string(kind)}
}

func MissingField(name string) error {
	return &ValidationError{Reason: ReasonMissingField, Subject: name}
}

func UnexpectedDocument(kind DocumentKind) error {
	return &ValidationError{Reason: ReasonUnexpectedDocument, Subject: string(kind)}
}

func UnknownType(t string) error {
	return &ValidationError{Reason: ReasonUnknownType, Subject: t}
}

// TransitionReason names why a decision was refused.
type TransitionReason string

const (
	ReasonAlreadyResolved TransitionReason = "already_resolved"
	ReasonMissingReason   TransitionReason = "missing_reason"
	ReasonInvalidAction   TransitionReason = "invalid_action"
)

// TransitionError is returned when a decision cannot be applied. For
// AlreadyResolved, Status carries the application's actual terminal status.
type TransitionError struct {
	Reason TransitionReason
	Status Status
}

func (e *TransitionError) Error() string {
	switch e.Reason {
	case ReasonAlreadyResolved:
		return fmt.Sprintf("application already resolved as %s", e.Status)
	case ReasonMissingReason:
		return "rejection requires a non-empty reason"
	default:
		return "invalid decision action"
	}
}

func (e *TransitionError) DomainCode() dErrors.Code {
	if e.Reason == ReasonAlreadyResolved {
		return dErrors.CodeConflict
	}
	return dErrors.CodeValidation
}

func AlreadyResolved(status Status) error {
	return &TransitionError{Reason: ReasonAlreadyResolved, Status: status}
}

func MissingReason() error {
	return &TransitionError{Reason: ReasonMissingReason}
}

func InvalidAction() error {
	return &TransitionError{Reason: ReasonInvalidAction}
}

// IsAlreadyResolved reports whether err is an AlreadyResolved transition error
// and returns the status it carries.
func IsAlreadyResolved(err error) (Status, bool) {
	var te *TransitionError
	if errors.As(err, &te) && te.Reason == ReasonAlreadyResolved {
		return te.Status, true
	}
	return "", false
}

// IsMissingReason reports whether err is a MissingReason transition error.
func IsMissingReason(err error) bool {
	var te *TransitionError
	return errors.As(err, &te) && te.Reason == ReasonMissingReason
}

// PersistenceError means the administrative record could not be written. It
// is fatal for the request and never swallowed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) DomainCode() dErrors.Code {
	return dErrors.CodeInternal
}

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistenceError reports whether err wraps a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
