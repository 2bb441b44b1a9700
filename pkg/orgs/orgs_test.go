package orgs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/database"
)

func TestIsCanonicalID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b", true},
		{"3F2B8C1E-9A4D-4E6F-8B7A-1C2D3E4F5A6B", true},
		{"3f2b8c1e9a4d4e6f8b7a1c2d3e4f5a6b", false},
		{"{3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b}", false},
		{"urn:uuid:3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b", false},
		{"3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6z", false},
		{"Acme Co!", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, IsCanonicalID(tt.in))
		})
	}
}

func TestDeriveCode(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Acme Co!", "ACMECO"},
		{"kalpak talha", "KALPAKTALHA"},
		{"Yapı 2024 Ltd.", "YAPI2024LTD"},
		{"straße", "STRASSE"},
		{"!!!", ""},
		{"???", ""},
		{"- · -", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			code := DeriveCode(tt.label)
			require.Equal(t, tt.want, code)
			require.Equal(t, code, DeriveCode(code), "idempotent on its own output")
		})
	}
}

func TestResolver_ResolveOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("canonical id returned without store access", func(t *testing.T) {
		db := database.NewMemoryDatabase()
		id := "3F2B8C1E-9A4D-4E6F-8B7A-1C2D3E4F5A6B"

		got, err := NewResolver(db).ResolveOrCreate(ctx, id, "a@b.co")
		require.NoError(t, err)
		require.Equal(t, id, got)
		require.Empty(t, db.Calls())
	})

	t.Run("existing name resolves to its id", func(t *testing.T) {
		db := database.NewMemoryDatabase()
		db.Seed(Table, database.Row{"id": "org-1", "name": "Acme Co!", "code": "ACMECO"})

		got, err := NewResolver(db).ResolveOrCreate(ctx, "Acme Co!", "a@b.co")
		require.NoError(t, err)
		require.Equal(t, "org-1", got)
		require.Len(t, db.Rows(Table), 1)
	})

	t.Run("name match is case sensitive", func(t *testing.T) {
		db := database.NewMemoryDatabase()
		db.Seed(Table, database.Row{"id": "org-1", "name": "Acme Co!"})

		got, err := NewResolver(db).ResolveOrCreate(ctx, "acme co!", "a@b.co")
		require.NoError(t, err)
		require.NotEqual(t, "org-1", got)
		require.Len(t, db.Rows(Table), 2)
	})

	t.Run("unseen label is created once", func(t *testing.T) {
		db := database.NewMemoryDatabase()
		r := NewResolver(db)

		first, err := r.ResolveOrCreate(ctx, "Acme Co!", "billing@acme.co")
		require.NoError(t, err)
		second, err := r.ResolveOrCreate(ctx, "Acme Co!", "other@acme.co")
		require.NoError(t, err)

		require.Equal(t, first, second)
		rows := db.Rows(Table)
		require.Len(t, rows, 1)
		require.Equal(t, "Acme Co!", rows[0].String("name"))
		require.Equal(t, "ACMECO", rows[0].String("code"))
		require.Equal(t, "billing@acme.co", rows[0].String("billing_email"))
		require.NotEmpty(t, rows[0].String("created_at"))
	})

	t.Run("insert failure is a creation error", func(t *testing.T) {
		db := database.NewMemoryDatabase()
		db.FailOn(database.OpInsert, Table, errors.New("new row violates row-level security policy"))

		_, err := NewResolver(db).ResolveOrCreate(ctx, "Acme Co!", "a@b.co")
		require.True(t, apperr.IsKind(err, apperr.KindCreation))
		require.EqualError(t, err, "Organizasyon olusturulamadi: new row violates row-level security policy")
	})

	t.Run("lookup failure does not insert", func(t *testing.T) {
		db := database.NewMemoryDatabase()
		db.FailOn(database.OpSelect, Table, errors.New("connection reset"))

		_, err := NewResolver(db).ResolveOrCreate(ctx, "Acme Co!", "a@b.co")
		require.True(t, apperr.IsKind(err, apperr.KindUpstream))
		require.Empty(t, db.Rows(Table))
	})
}

func TestResolver_FindByCode(t *testing.T) {
	ctx := context.Background()
	db := database.NewMemoryDatabase()
	db.Seed(Table, database.Row{"id": "org-1", "name": "Acme Co!", "code": "ACMECO"})
	r := NewResolver(db)

	row, err := r.FindByCode(ctx, "ACMECO")
	require.NoError(t, err)
	require.Equal(t, "org-1", row.String("id"))

	_, err = r.FindByCode(ctx, "NOPE")
	require.ErrorIs(t, err, database.ErrNotFound)
	require.Len(t, db.Rows(Table), 1)
}

func TestResolver_FindByCodeEmpty(t *testing.T) {
	db := database.NewMemoryDatabase()
	db.Seed(Table, database.Row{"id": "org-other-user", "name": "???", "code": ""})

	_, err := NewResolver(db).FindByCode(context.Background(), DeriveCode("!!!"))
	require.ErrorIs(t, err, database.ErrNotFound)
	require.Empty(t, db.Calls())
}

func TestFromRow(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	org := FromRow(database.Row{
		"id":                     "3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b",
		"name":                   "Acme Co!",
		"code":                   "ACMECO",
		"billing_email":          "billing@acme.co",
		"billing_email_verified": true,
		"created_at":             created.Format(time.RFC3339Nano),
	})

	require.Equal(t, "ACMECO", org.Code)
	require.Equal(t, "billing@acme.co", org.BillingEmail)
	require.True(t, org.BillingEmailVerified)
	require.False(t, org.NotifyMonthlySummary)
	require.True(t, created.Equal(org.CreatedAt))
}
