package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResendClient posts messages to the Resend /emails endpoint. Rate limiting
// and server errors are retried; other rejections are returned at once.
type ResendClient struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	maxTries      uint
	retryInterval time.Duration
}

// NewResendClient 创建 Resend 客户端
func NewResendClient(baseURL, apiKey string) *ResendClient {
	return &ResendClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		maxTries:      3,
		retryInterval: 500 * time.Millisecond,
	}
}

// Send implements Sender.
func (c *ResendClient) Send(ctx context.Context, msg Message) (Result, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	attempt := 0
	// 同一封邮件的重试共用一个幂等键，避免服务端已受理时重复投递
	idempotencyKey := uuid.NewString()

	operation := func() (Result, error) {
		attempt++
		result, err := c.post(ctx, body, idempotencyKey)
		if err == nil {
			return result, nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !retryable(apiErr.Status) {
			return nil, backoff.Permanent(err)
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("mail send failed, retrying")
		return nil, err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInterval

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("mail_id", result.ID()).Strs("to", msg.To).Msg("mail sent")
	return result, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *ResendClient) post(ctx context.Context, body []byte, idempotencyKey string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Body: string(respBody)}
		_ = json.Unmarshal(respBody, apiErr)
		apiErr.Status = resp.StatusCode
		return nil, apiErr
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result, nil
}
