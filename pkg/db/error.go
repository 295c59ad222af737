package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the engine reacts to.
const (
	PGUniqueViolation      = "23505"
	PGSerializationFailure = "40001"
	PGLockNotAvailable     = "55P03"

	mysqlDuplicateEntry = 1062
)

// PGCode returns the SQLSTATE of a postgres error or "".
func PGCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateKeyErr reports unique-constraint violations across the supported dialects.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || PGCode(err) == PGUniqueViolation {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}

	// glebarez/sqlite surfaces constraint failures as plain text.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
