package postgres

import (
	"strings"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
)

// PostgreSQL SQLSTATE codes the catalog reader cares about.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrUndefinedTable  = "42P01"
	pgErrUndefinedColumn = "42703"
	pgErrInvalidPassword = "28P01"
)

// classifySQLState maps a SQLSTATE code to an ErrKind by exact code first,
// then by class.
func classifySQLState(code string) errs.ErrKind {
	switch code {
	case pgErrUndefinedTable:
		return errs.ErrKindNotFound
	case pgErrUndefinedColumn:
		return errs.ErrKindInvalidInput
	case pgErrInvalidPassword:
		return errs.ErrKindPermissionDenied
	}

	switch {
	case strings.HasPrefix(code, "08"): // connection exception
		return errs.ErrKindConnectionFailed
	case strings.HasPrefix(code, "28"), strings.HasPrefix(code, "42501"): // auth / insufficient privilege
		return errs.ErrKindPermissionDenied
	case strings.HasPrefix(code, "57014"): // query_canceled
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
