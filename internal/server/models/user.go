package models

import (
	"net/mail"
	"strings"
	"time"
)

// MinPasswordLength applies to signup, password change and reset.
const MinPasswordLength = 8

// User is the principal together with its credential record. Credential
// fields never leave the process: they carry json:"-".
type User struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Photo string `db:"photo" json:"photo"`
	Role  Role   `db:"role" json:"role"`

	PasswordHash         string     `db:"password" json:"-"`
	PasswordChangedAt    *time.Time `db:"password_changed_at" json:"-"`
	PasswordResetToken   *string    `db:"password_reset_token" json:"-"`
	PasswordResetExpires *time.Time `db:"password_reset_expires" json:"-"`
	Active               bool       `db:"active" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Version   int64     `db:"version" json:"version"`
}

// ChangedPasswordAfter reports whether the password changed after a
// token issued at iat. Comparison is in whole seconds, the precision of
// the token's iat claim.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return iat.Unix() < u.PasswordChangedAt.Unix()
}

func (u *User) Prepare() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Photo == "" {
		u.Photo = "default.jpg"
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

func (u *User) Validate() error {
	var f fieldErrors
	f.check(strings.TrimSpace(u.Name) != "", "Please tell us your name!")
	f.check(ValidEmail(u.Email), "Please provide a valid email")
	f.check(u.Role.Valid(), "Role is either: user, guide, lead-guide, admin")
	return f.err()
}

// ValidEmail accepts a bare address ("a@b.c"), not a display-name form.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, ".")
}

// ValidatePassword checks a new password and its confirmation.
func ValidatePassword(password, confirm string) error {
	var f fieldErrors
	f.check(len(password) >= MinPasswordLength, "Password must have at least %d characters", MinPasswordLength)
	f.check(password == confirm, "Passwords are not the same!")
	return f.err()
}
