// Package models defines the persisted shapes of tourbook: the principal
// (User) with its credential fields, and the Tour, Review and Booking
// resources served through the generic CRUD layer.
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is the closed set of principal roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

var roleBits = map[Role]RoleSet{
	RoleUser:      1 << 0,
	RoleGuide:     1 << 1,
	RoleLeadGuide: 1 << 2,
	RoleAdmin:     1 << 3,
}

// AllRoles lists the roles in privilege order.
var AllRoles = []Role{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

func (r Role) Valid() bool {
	_, ok := roleBits[r]
	return ok
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Scan refuses values outside the enumeration: a stored role we do not
// know is a data-integrity violation, not something to pass along.
func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return fmt.Errorf("data integrity: %w", err)
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %q", string(r))
	}
	return string(r), nil
}

// RoleSet is an immutable set of roles.
type RoleSet uint8

// Roles builds a RoleSet. Invalid roles are ignored.
func Roles(rs ...Role) RoleSet {
	var s RoleSet
	for _, r := range rs {
		s |= roleBits[r]
	}
	return s
}

func (s RoleSet) Has(r Role) bool {
	bit, ok := roleBits[r]
	return ok && s&bit != 0
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(AllRoles))
	for _, r := range AllRoles {
		if s.Has(r) {
			names = append(names, string(r))
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}
