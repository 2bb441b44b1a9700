package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/lib/pq"

	"puantajx-functions/pkg/accounts"
	"puantajx-functions/pkg/orgs"
)

// organizationColumns are read or written by the functions.
var organizationColumns = []string{"id", "name", "code", "billing_email", "billing_email_verified", "notify_monthly_summary", "created_at"}

type CheckSchemaCmd struct {
	DSN string `help:"PostgreSQL connection string, defaults to POSTGRES_DSN or SUPABASE_DB_URL"`
}

func (c *CheckSchemaCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, cfg, log, err := loadConfig(ctx, globals)
	if err != nil {
		return err
	}

	dsn := c.DSN
	if dsn == "" {
		dsn = cfg.PostgresDSN
	}
	if dsn == "" {
		dsn = cfg.SupabaseDBURL
	}
	if dsn == "" {
		return fmt.Errorf("no connection string: pass --dsn or set POSTGRES_DSN")
	}

	log.Info().Str("dsn", maskPassword(dsn)).Msg("connecting to database")

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	missing := 0
	for _, table := range append([]string{orgs.Table}, accounts.DependentTables...) {
		var count int
		query := "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(table)
		if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			log.Error().Err(err).Str("table", table).Msg("table check failed")
			missing++
			continue
		}
		log.Info().Str("table", table).Int("rows", count).Msg("table ok")
	}

	for _, column := range organizationColumns {
		query := fmt.Sprintf("SELECT %s FROM %s LIMIT 0", pq.QuoteIdentifier(column), pq.QuoteIdentifier(orgs.Table))
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			log.Error().Err(err).Str("column", column).Msg("column check failed")
			missing++
			continue
		}
		rows.Close()
	}

	if missing > 0 {
		return fmt.Errorf("schema check failed: %d problem(s)", missing)
	}
	log.Info().Msg("schema check passed")
	return nil
}

var passwordField = regexp.MustCompile(`password=\S+`)

// maskPassword 隐藏连接字符串中的密码
func maskPassword(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	return passwordField.ReplaceAllString(dsn, "password=xxxxx")
}
