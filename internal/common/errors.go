package common

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("admin privileges required")
	ErrInvalidSecret   = errors.New("invalid password")
	ErrConflict        = errors.New("resource conflict")
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// ForeignKeyError reports whether err is a foreign key violation on the named constraint.
// An empty name matches any constraint.
func ForeignKeyError(err error, name string) bool {
	return pqError(err, pqForeignKeyViolation, name)
}

// UniqueViolation reports whether err is a unique violation on the named constraint or index.
// An empty name matches any constraint.
func UniqueViolation(err error, name string) bool {
	return pqError(err, pqUniqueViolation, name)
}

func pqError(err error, code pq.ErrorCode, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code && (name == "" || pqErr.Constraint == name)
	}

	return false
}
