package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// IdentityLookup answers which sign-in providers are linked to an email.
type IdentityLookup interface {
	ProvidersByEmail(ctx context.Context, email string) ([]string, error)
}

// PostgresIdentityLookup reads auth.identities over a direct connection.
// The REST API does not expose the auth schema.
type PostgresIdentityLookup struct {
	db *sql.DB
}

// NewIdentityLookup connects to the database behind SUPABASE_DB_URL.
func NewIdentityLookup(ctx context.Context, dsn string) (*PostgresIdentityLookup, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("Missing SUPABASE_DB_URL")
	}
	db, err := openPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresIdentityLookup{db: db}, nil
}

const providersByEmailQuery = `
	SELECT provider
	FROM auth.identities
	WHERE identity_data->>'email' = $1
`

// ProvidersByEmail returns one provider name per linked identity.
func (l *PostgresIdentityLookup) ProvidersByEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, providersByEmailQuery, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query identities: %w", err)
	}
	defer rows.Close()

	providers := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// Close 关闭连接
func (l *PostgresIdentityLookup) Close() error {
	return l.db.Close()
}

// StaticIdentityLookup serves providers from a map keyed by email.
type StaticIdentityLookup map[string][]string

// ProvidersByEmail implements IdentityLookup.
func (s StaticIdentityLookup) ProvidersByEmail(ctx context.Context, email string) ([]string, error) {
	providers := s[email]
	if providers == nil {
		return []string{}, nil
	}
	return providers, nil
}
