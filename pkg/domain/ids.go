package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "landledger/pkg/domain-errors"
)

// Typed identifiers keep citizen ids and application ids from being swapped at
// call sites. Both are UUIDs on the wire.
type (
	UserID        uuid.UUID
	ApplicationID uuid.UUID
)

// maxIDLength bounds parser input; a canonical UUID is 36 characters.
const maxIDLength = 64

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ApplicationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewApplicationID allocates a fresh application id.
func NewApplicationID() ApplicationID {
	return ApplicationID(uuid.New())
}

// ParseUserID validates a user id at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParseApplicationID validates an application id at a trust boundary.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application_id")
	return ApplicationID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
