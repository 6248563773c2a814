package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record or blob does not exist
//   - ErrConflict: a conditional write lost (e.g. status was no longer pending)
//   - ErrInvalidState: entity in wrong state for requested operation
//   - ErrUnavailable: remote dependency temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
