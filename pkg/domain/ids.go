package domain

import (
	"github.com/google/uuid"

	dErrors "bondbook/pkg/domain-errors"
)

// OwnerID identifies the authenticated caller that owns bond records.
// It is taken from the caller's access token, never from a request payload.
type OwnerID uuid.UUID

// ParseOwnerID parses a non-nil UUID into an OwnerID.
func ParseOwnerID(s string) (OwnerID, error) {
	if s == "" {
		return OwnerID{}, dErrors.New(dErrors.CodeInvalidInput, "owner id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return OwnerID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid owner id")
	}
	if parsed == uuid.Nil {
		return OwnerID{}, dErrors.New(dErrors.CodeInvalidInput, "owner id cannot be nil")
	}
	return OwnerID(parsed), nil
}

func (o OwnerID) String() string {
	return uuid.UUID(o).String()
}

func (o OwnerID) IsNil() bool {
	return uuid.UUID(o) == uuid.Nil
}
