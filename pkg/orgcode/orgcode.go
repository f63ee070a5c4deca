// Package orgcode normalizes and resolves the short alphanumeric codes that
// identify organizations in URLs, imports and remittance paperwork.
package orgcode

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

var (
	ErrCodeInvalid  = errors.New("org_code_invalid")
	ErrCodeNotFound = errors.New("org_code_not_found")
	ErrIDNotFound   = errors.New("org_id_not_found")
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{1,24}$`)

// Normalize upper-cases a code and validates it against the allowed
// alphabet. Leading/trailing whitespace is rejected rather than silently
// stripped; codes come from machine interfaces, not free-text forms.
func Normalize(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || trimmed != input {
		return "", ErrCodeInvalid
	}
	normalized := strings.ToUpper(trimmed)
	if !codePattern.MatchString(normalized) {
		return "", ErrCodeInvalid
	}
	return normalized, nil
}

// ResolveID maps a code to the organization uuid within one tenant.
func ResolveID(ctx context.Context, tx pgx.Tx, tenantID string, code string) (string, error) {
	normalized, err := Normalize(code)
	if err != nil {
		return "", err
	}
	var orgID string
	if err := tx.QueryRow(ctx, `
SELECT id::text
FROM org.organizations
WHERE tenant_id = $1::uuid AND code = $2::text
`, tenantID, normalized).Scan(&orgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCodeNotFound
		}
		return "", err
	}
	return orgID, nil
}

// ResolveCode maps an organization uuid back to its code within one tenant.
func ResolveCode(ctx context.Context, tx pgx.Tx, tenantID string, orgID string) (string, error) {
	var code string
	if err := tx.QueryRow(ctx, `
SELECT code
FROM org.organizations
WHERE tenant_id = $1::uuid AND id = $2::uuid
`, tenantID, orgID).Scan(&code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrIDNotFound
		}
		return "", err
	}
	return code, nil
}
