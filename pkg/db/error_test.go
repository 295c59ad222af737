package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres", &pgconn.PgError{Code: PGUniqueViolation}, true},
		{"postgres other", &pgconn.PgError{Code: PGSerializationFailure}, false},
		{"mysql", &mysql.MySQLError{Number: 1062}, true},
		{"sqlite", errors.New("UNIQUE constraint failed: company_billing_cycles.company_id"), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}

func TestPGCode(t *testing.T) {
	assert.Equal(t, PGLockNotAvailable, PGCode(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: PGLockNotAvailable})))
	assert.Empty(t, PGCode(errors.New("plain")))
}
