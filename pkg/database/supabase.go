package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseDatabase talks to the PostgREST endpoint of a Supabase project.
type SupabaseDatabase struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIError is a PostgREST error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API request failed with status %d", e.Status)
}

// NewSupabaseDatabase 创建Supabase数据库实例
func NewSupabaseDatabase(baseURL, key string) *SupabaseDatabase {
	// 确保URL格式正确
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}

	return &SupabaseDatabase{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// makeRequest 发送HTTP请求到Supabase
func (db *SupabaseDatabase) makeRequest(ctx context.Context, method, endpoint string, query url.Values, body interface{}) ([]byte, error) {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	target := db.baseURL + "/rest/v1" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 设置请求头
	req.Header.Set("apikey", db.apiKey)
	req.Header.Set("Authorization", "Bearer "+db.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := db.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(respBody, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return nil, apiErr
	}

	return respBody, nil
}

// filterQuery renders filter as PostgREST column=eq.value parameters.
func filterQuery(filter Filter) url.Values {
	q := url.Values{}
	for _, c := range filter {
		q.Add(c.Column, "eq."+fmt.Sprint(c.Value))
	}
	return q
}

func decodeRows(body []byte) ([]Row, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var rows []Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rows: %w", err)
	}
	return rows, nil
}

func selectColumns(columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	return strings.Join(columns, ",")
}

// SelectOne returns the first row matching filter.
func (db *SupabaseDatabase) SelectOne(ctx context.Context, table string, filter Filter, columns ...string) (Row, error) {
	q := filterQuery(filter)
	q.Set("select", selectColumns(columns))
	q.Set("limit", "1")

	body, err := db.makeRequest(ctx, http.MethodGet, "/"+table, q, nil)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Select returns every row matching filter.
func (db *SupabaseDatabase) Select(ctx context.Context, table string, filter Filter, columns ...string) ([]Row, error) {
	q := filterQuery(filter)
	q.Set("select", selectColumns(columns))

	body, err := db.makeRequest(ctx, http.MethodGet, "/"+table, q, nil)
	if err != nil {
		return nil, err
	}
	return decodeRows(body)
}

// Insert 插入一行并返回持久化后的记录
func (db *SupabaseDatabase) Insert(ctx context.Context, table string, row Row) (Row, error) {
	body, err := db.makeRequest(ctx, http.MethodPost, "/"+table, nil, row)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s returned no rows", table)
	}
	return rows[0], nil
}

// Update applies patch to every row matching filter.
func (db *SupabaseDatabase) Update(ctx context.Context, table string, filter Filter, patch Row) ([]Row, error) {
	if len(filter) == 0 {
		return nil, ErrEmptyFilter
	}

	body, err := db.makeRequest(ctx, http.MethodPatch, "/"+table, filterQuery(filter), patch)
	if err != nil {
		return nil, err
	}
	return decodeRows(body)
}

// Delete removes every row matching filter.
func (db *SupabaseDatabase) Delete(ctx context.Context, table string, filter Filter) (int, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}

	body, err := db.makeRequest(ctx, http.MethodDelete, "/"+table, filterQuery(filter), nil)
	if err != nil {
		return 0, err
	}

	rows, err := decodeRows(body)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// HealthCheck 健康检查
func (db *SupabaseDatabase) HealthCheck(ctx context.Context) error {
	// 发送简单的查询来检查连接
	_, err := db.makeRequest(ctx, http.MethodGet, "/", nil, nil)
	return err
}

// Close 关闭连接
func (db *SupabaseDatabase) Close() error {
	// HTTP客户端无需显式关闭
	return nil
}
