package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no rows", pgx.ErrNoRows, errs.ErrKindNotFound},
		{"undefined table", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, errs.ErrKindNotFound},
		{"undefined column", &pgconn.PgError{Code: "42703"}, errs.ErrKindInvalidInput},
		{"bad password", &pgconn.PgError{Code: "28P01"}, errs.ErrKindPermissionDenied},
		{"insufficient privilege", &pgconn.PgError{Code: "42501"}, errs.ErrKindPermissionDenied},
		{"connection class", &pgconn.PgError{Code: "08006"}, errs.ErrKindConnectionFailed},
		{"cancelled by server", &pgconn.PgError{Code: "57014"}, errs.ErrKindTimeout},
		{"syntax", &pgconn.PgError{Code: "42601"}, errs.ErrKindQueryFailed},
		{"network", errors.New("dial tcp: refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "query failed")
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, mapError(nil, "noop"))
}

func TestMapError_IncludesServerMessage(t *testing.T) {
	got := mapError(&pgconn.PgError{Code: "42P01", Message: `relation "erd_catalog" does not exist`}, "query failed")
	assert.Contains(t, got.Message, `relation "erd_catalog" does not exist`)
}
