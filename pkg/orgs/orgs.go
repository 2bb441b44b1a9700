// Package orgs resolves human-entered organization labels to organization records.
package orgs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/database"
	"puantajx-functions/pkg/models"
)

// Table holds one row per organization.
const Table = "organizations"

var upper = cases.Upper(language.Und)

// IsCanonicalID reports whether s is a hyphenated 36 character uuid, in any case.
func IsCanonicalID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// DeriveCode turns a label into the natural key dependent tables reference:
// uppercase, then keep only A-Z and 0-9.
func DeriveCode(label string) string {
	var b strings.Builder
	for _, r := range upper.String(label) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolver maps labels to canonical organization ids, creating the record on
// first reference.
type Resolver struct {
	records database.RecordStore
	now     func() time.Time
}

// NewResolver 创建解析器
func NewResolver(records database.RecordStore) *Resolver {
	return &Resolver{records: records, now: time.Now}
}

// ResolveOrCreate returns label unchanged when it already is a canonical id.
// Otherwise it looks the organization up by exact name and inserts one when
// none exists. Two concurrent calls for the same unseen label may both insert.
func (r *Resolver) ResolveOrCreate(ctx context.Context, label, fallbackEmail string) (string, error) {
	if IsCanonicalID(label) {
		return label, nil
	}

	logger := zerolog.Ctx(ctx)

	row, err := r.records.SelectOne(ctx, Table, database.Where("name", label), "id")
	switch {
	case err == nil:
		if id := row.String("id"); id != "" {
			return id, nil
		}
	case !errors.Is(err, database.ErrNotFound):
		return "", apperr.Wrap(apperr.KindUpstream, err, "Organizasyon sorgulanamadi")
	}

	logger.Info().Str("org_name", label).Msg("organization not found, creating")

	created, err := r.records.Insert(ctx, Table, database.Row{
		"name":          label,
		"code":          DeriveCode(label),
		"billing_email": fallbackEmail,
		"created_at":    r.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		logger.Error().Err(err).Str("org_name", label).Msg("organization auto-create failed")
		return "", apperr.Wrap(apperr.KindCreation, err, "Organizasyon olusturulamadi")
	}

	id := created.String("id")
	if id == "" {
		return "", apperr.New(apperr.KindCreation, "Organizasyon olusturulamadi: insert returned no id")
	}
	return id, nil
}

// FindByCode looks an organization up by its derived key. It never creates.
func (r *Resolver) FindByCode(ctx context.Context, code string) (database.Row, error) {
	if code == "" {
		return nil, database.ErrNotFound
	}
	return r.records.SelectOne(ctx, Table, database.Where("code", code), "id", "code")
}

// FromRow decodes an organizations row. Missing columns stay zero.
func FromRow(row database.Row) models.Organization {
	org := models.Organization{
		ID:                   row.String("id"),
		Name:                 row.String("name"),
		Code:                 row.String("code"),
		BillingEmail:         row.String("billing_email"),
		BillingEmailVerified: row.Bool("billing_email_verified"),
		NotifyMonthlySummary: row.Bool("notify_monthly_summary"),
	}
	switch v := row["created_at"].(type) {
	case time.Time:
		org.CreatedAt = v
	case string:
		org.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return org
}
