// Package domain defines the typed identifiers shared across the service.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects
// cross-type assignment (an OrderID can never be passed where a UserID is
// expected). Raw strings are parsed at trust boundaries only.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/notorious-utopia/egrn/pkg/domain-errors"
)

// UserID identifies a registered user.
type UserID uuid.UUID

// OrderID identifies an extract order created locally.
type OrderID uuid.UUID

// NewUserID returns a fresh random user identifier.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// NewOrderID returns a fresh random order identifier.
func NewOrderID() OrderID {
	return OrderID(uuid.New())
}

func (id UserID) String() string  { return uuid.UUID(id).String() }
func (id OrderID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the identifier is the zero UUID.
func (id UserID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id OrderID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps ids as canonical UUID strings in JSON bodies
// and audit records.
func (id UserID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id OrderID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *OrderID) UnmarshalText(b []byte) error {
	parsed, err := ParseOrderID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseUserID parses a user ID from its string form.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseOrderID parses an order ID from its string form.
func ParseOrderID(s string) (OrderID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return OrderID{}, err
	}
	return OrderID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
