package dbx

import (
	"errors"
	"regexp"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// "Key (email)=(a@b.c) already exists."
var keyDetailRe = regexp.MustCompile(`\)=\((.*)\) already exists`)

// DuplicateError returns a ValidationFailed for a Postgres unique
// violation and nil for any other error.
func DuplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	value := pgErr.ConstraintName
	if m := keyDetailRe.FindStringSubmatch(pgErr.Detail); m != nil {
		value = m[1]
	}
	return common.ValidationFailed("Duplicate field value: "+value+". Please use another value!", err)
}
