package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// PostgresDatabase PostgreSQL数据库实现
type PostgresDatabase struct {
	db *sql.DB
}

// NewPostgresDatabase opens dsn, trying progressively more explicit
// connection parameters until one answers a ping.
func NewPostgresDatabase(ctx context.Context, dsn string) (*PostgresDatabase, error) {
	db, err := openPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresDatabase{db: db}, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	strategies := []string{
		dsn,
		addConnectionParams(dsn, "connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&connect_timeout=10"),
	}

	var lastErr error
	for i, strategy := range strategies {
		db, err := sql.Open("postgres", strategy)
		if err != nil {
			log.Warn().Err(err).Int("strategy", i+1).Msg("postgres open failed")
			lastErr = err
			continue
		}

		// 设置连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err = db.PingContext(ctx); err != nil {
			log.Warn().Err(err).Int("strategy", i+1).Msg("postgres ping failed")
			_ = db.Close()
			lastErr = err
			continue
		}

		log.Debug().Int("strategy", i+1).Msg("postgres connection established")
		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to PostgreSQL with all strategies: %w", lastErr)
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}

	// key=value DSNs take space separated parameters
	if !strings.Contains(dsn, "://") {
		return dsn + " " + strings.ReplaceAll(params, "&", " ")
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + params
}

// SelectOne returns the first row matching filter.
func (db *PostgresDatabase) SelectOne(ctx context.Context, table string, filter Filter, columns ...string) (Row, error) {
	query, args := buildSelect(table, filter, columns, 1)
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Select returns every row matching filter.
func (db *PostgresDatabase) Select(ctx context.Context, table string, filter Filter, columns ...string) ([]Row, error) {
	query, args := buildSelect(table, filter, columns, 0)
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	return rows, nil
}

// Insert 插入一行并返回持久化后的记录
func (db *PostgresDatabase) Insert(ctx context.Context, table string, row Row) (Row, error) {
	query, args := buildInsert(table, row)
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s returned no rows", table)
	}
	return rows[0], nil
}

// Update applies patch to every row matching filter.
func (db *PostgresDatabase) Update(ctx context.Context, table string, filter Filter, patch Row) ([]Row, error) {
	if len(filter) == 0 {
		return nil, ErrEmptyFilter
	}
	query, args := buildUpdate(table, filter, patch)
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", table, err)
	}
	return rows, nil
}

// Delete removes every row matching filter.
func (db *PostgresDatabase) Delete(ctx context.Context, table string, filter Filter) (int, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	query, args := buildDelete(table, filter)
	res, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// HealthCheck 健康检查
func (db *PostgresDatabase) HealthCheck(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Close 关闭连接
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}

func (db *PostgresDatabase) query(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			// lib/pq returns text, uuid and json columns as []byte
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func columnList(columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// whereClause renders filter starting at placeholder $offset+1.
func whereClause(filter Filter, offset int) (string, []interface{}) {
	if len(filter) == 0 {
		return "", nil
	}
	parts := make([]string, len(filter))
	args := make([]interface{}, len(filter))
	for i, c := range filter {
		parts[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c.Column), offset+i+1)
		args[i] = c.Value
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildSelect(table string, filter Filter, columns []string, limit int) (string, []interface{}) {
	where, args := whereClause(filter, 0)
	query := "SELECT " + columnList(columns) + " FROM " + pq.QuoteIdentifier(table) + where
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return query, args
}

func buildInsert(table string, row Row) (string, []interface{}) {
	keys := sortedKeys(row)
	cols := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		cols[i] = pq.QuoteIdentifier(k)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[k]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		pq.QuoteIdentifier(table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return query, args
}

func buildUpdate(table string, filter Filter, patch Row) (string, []interface{}) {
	keys := sortedKeys(patch)
	sets := make([]string, len(keys))
	args := make([]interface{}, 0, len(keys)+len(filter))
	for i, k := range keys {
		sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(k), i+1)
		args = append(args, patch[k])
	}
	where, whereArgs := whereClause(filter, len(keys))
	query := "UPDATE " + pq.QuoteIdentifier(table) + " SET " + strings.Join(sets, ", ") + where + " RETURNING *"
	return query, append(args, whereArgs...)
}

func buildDelete(table string, filter Filter) (string, []interface{}) {
	where, args := whereClause(filter, 0)
	return "DELETE FROM " + pq.QuoteIdentifier(table) + where, args
}
