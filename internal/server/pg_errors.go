package server

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErrorMessage(err error) string {
	pgErr, ok := errors.AsType[*pgconn.PgError](err)
	if !ok || pgErr == nil {
		return "UNKNOWN"
	}
	if msg := strings.TrimSpace(pgErr.Message); msg != "" {
		return msg
	}
	return "UNKNOWN"
}

func pgErrorCode(err error) string {
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil {
		return strings.TrimSpace(pgErr.Code)
	}
	return ""
}

// isPgInvalidInput reports SQLSTATE class-22 codes the write path can hit
// when a payload value does not cast (bad uuid, out-of-range int, bad date).
func isPgInvalidInput(err error) bool {
	switch pgErrorCode(err) {
	case "22P02", "22003", "22007", "22008":
		return true
	}
	return false
}

func isPgUniqueViolation(err error) bool {
	return pgErrorCode(err) == "23505"
}

// stablePgMessage surfaces routine-raised codes (ORG_CODE_TAKEN and friends)
// verbatim and hides arbitrary database text behind err.Error().
func stablePgMessage(err error) string {
	if msg := pgErrorMessage(err); isStableDBCode(msg) {
		return msg
	}
	return err.Error()
}

// isStableDBCode matches the SCREAMING_SNAKE codes our SQL routines raise.
func isStableDBCode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" || code == "UNKNOWN" {
		return false
	}
	for _, ch := range code {
		switch {
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '_':
		default:
			return false
		}
	}
	return true
}
