package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"puantajx-functions/pkg/models"
	"puantajx-functions/pkg/utils"
)

// SupabaseClient calls the GoTrue endpoints of a Supabase project with the
// service role key.
type SupabaseClient struct {
	baseURL    string
	serviceKey string
	tokens     *utils.JWTService
	httpClient *http.Client
}

// NewSupabaseClient 创建 Supabase Auth 客户端
func NewSupabaseClient(baseURL, serviceKey string, tokens *utils.JWTService) *SupabaseClient {
	if tokens == nil {
		tokens = utils.NewJWTService("")
	}
	return &SupabaseClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		tokens:     tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// errorBody covers the error shapes GoTrue has used across versions.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b errorBody) text() string {
	for _, s := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// makeRequest 发送HTTP请求到 Supabase Auth
func (c *SupabaseClient) makeRequest(ctx context.Context, method, endpoint, bearer string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/auth/v1"+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(respBody, &eb)
		apiErr := &APIError{Status: resp.StatusCode, Code: eb.ErrorCode, Message: eb.text()}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// VerifyToken 验证用户令牌
func (c *SupabaseClient) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("missing access token")
	}

	// malformed or expired tokens never reach the API
	claimed, err := c.tokens.ExtractUserFromToken(token)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := c.makeRequest(ctx, http.MethodGet, "/user", token, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("auth API returned no user")
	}
	if user.ID != claimed.ID {
		return nil, fmt.Errorf("auth API returned a different user than the token subject")
	}
	return &user, nil
}

// CreateUser 创建用户
func (c *SupabaseClient) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	var user models.User
	if err := c.makeRequest(ctx, http.MethodPost, "/admin/users", c.serviceKey, params, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser 删除用户
func (c *SupabaseClient) DeleteUser(ctx context.Context, id string) error {
	return c.makeRequest(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), c.serviceKey, nil, nil)
}

// GetUserByID 通过ID获取用户
func (c *SupabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := c.makeRequest(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), c.serviceKey, nil, &user)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrUserNotFound
	}
	return &user, nil
}
