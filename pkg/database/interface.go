package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned by SelectOne when no row matches the filter.
	ErrNotFound = errors.New("record not found")
	// ErrEmptyFilter guards Update and Delete against touching a whole table.
	ErrEmptyFilter = errors.New("refusing to modify rows without a filter")
	// ErrNotConfigured is returned when no record store settings are present.
	ErrNotConfigured = errors.New("no record store configured: set SUPABASE_URL+SUPABASE_SERVICE_ROLE_KEY or POSTGRES_DSN")
)

// Row is a single record as returned by the store.
type Row map[string]interface{}

// String returns the value of key rendered as a string, or "" when absent.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the value of key when it is a boolean.
func (r Row) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Condition is a single column equality.
type Condition struct {
	Column string
	Value  interface{}
}

// Filter is a conjunction of equality conditions, kept in the order they were added.
type Filter []Condition

// Where starts a filter with column = value.
func Where(column string, value interface{}) Filter {
	return Filter{{Column: column, Value: value}}
}

// And appends column = value to the filter.
func (f Filter) And(column string, value interface{}) Filter {
	out := make(Filter, len(f), len(f)+1)
	copy(out, f)
	return append(out, Condition{Column: column, Value: value})
}

// Matches reports whether row satisfies every condition.
func (f Filter) Matches(row Row) bool {
	for _, c := range f {
		v, ok := row[c.Column]
		if !ok || fmt.Sprint(v) != fmt.Sprint(c.Value) {
			return false
		}
	}
	return true
}

// RecordStore is the row-storage API. Every call is independent; there are no
// transactions across calls.
type RecordStore interface {
	// SelectOne returns the first row matching filter, or ErrNotFound.
	SelectOne(ctx context.Context, table string, filter Filter, columns ...string) (Row, error)
	Select(ctx context.Context, table string, filter Filter, columns ...string) ([]Row, error)
	// Insert stores row and returns it as persisted, including generated columns.
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, filter Filter, patch Row) ([]Row, error)
	// Delete removes every row matching filter and returns how many were removed.
	Delete(ctx context.Context, table string, filter Filter) (int, error)

	// 健康检查
	HealthCheck(ctx context.Context) error

	// 关闭连接
	Close() error
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	PostgresDSN string
	SupabaseURL string
	SupabaseKey string
}

// NewDatabase 根据环境与配置选择数据库实现
func NewDatabase(ctx context.Context, config DatabaseConfig) (RecordStore, error) {
	hasSupabase := config.SupabaseURL != "" && config.SupabaseKey != ""

	// Serverless runtimes prefer the REST API (no long-lived sockets, no IPv6 issues)
	if isServerlessEnvironment() {
		log.Debug().Msg("detected serverless environment")

		if hasSupabase {
			log.Info().Msg("using Supabase REST API")
			return NewSupabaseDatabase(config.SupabaseURL, config.SupabaseKey), nil
		}
		if config.PostgresDSN != "" {
			log.Warn().Msg("using PostgreSQL from a serverless environment")
			return NewPostgresDatabase(ctx, config.PostgresDSN)
		}
		return nil, ErrNotConfigured
	}

	// 非 Serverless 环境：PostgreSQL > Supabase
	if config.PostgresDSN != "" {
		log.Info().Msg("using PostgreSQL database")
		return NewPostgresDatabase(ctx, config.PostgresDSN)
	}
	if hasSupabase {
		log.Info().Msg("using Supabase REST API")
		return NewSupabaseDatabase(config.SupabaseURL, config.SupabaseKey), nil
	}

	return nil, ErrNotConfigured
}

func isServerlessEnvironment() bool {
	for _, key := range []string{"VERCEL_ENV", "VERCEL_URL", "AWS_LAMBDA_FUNCTION_NAME"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}
