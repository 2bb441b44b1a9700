package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *ResendClient {
	c := NewResendClient(url, "re_test")
	c.retryInterval = time.Millisecond
	return c
}

func TestResendClient_Send(t *testing.T) {
	ctx := context.Background()
	msg := Message{From: "PuantajX <onboarding@resend.dev>", To: []string{"a@b.co"}, Subject: "s", HTML: "<p>x</p>"}

	t.Run("posts the message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/emails", r.URL.Path)
			assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

			var got Message
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, msg, got)

			_, _ = w.Write([]byte(`{"id":"email-1"}`))
		}))
		defer srv.Close()

		res, err := testClient(srv.URL).Send(ctx, msg)
		require.NoError(t, err)
		require.Equal(t, "email-1", res.ID())
	})

	t.Run("validation error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid ` + "`to`" + ` field."}`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Send(ctx, msg)
		require.EqualError(t, err, "Invalid `to` field.")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("rate limit is retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"statusCode":429,"name":"rate_limit_exceeded","message":"Too many requests"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"email-2"}`))
		}))
		defer srv.Close()

		res, err := testClient(srv.URL).Send(ctx, msg)
		require.NoError(t, err)
		require.Equal(t, "email-2", res.ID())
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("retries reuse the idempotency key", func(t *testing.T) {
		var (
			mu   sync.Mutex
			keys []string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			keys = append(keys, r.Header.Get("Idempotency-Key"))
			n := len(keys)
			mu.Unlock()
			if n == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"id":"email-3"}`))
		}))
		defer srv.Close()

		client := testClient(srv.URL)
		_, err := client.Send(ctx, msg)
		require.NoError(t, err)
		_, err = client.Send(ctx, msg)
		require.NoError(t, err)

		require.Len(t, keys, 3)
		require.NotEmpty(t, keys[0])
		require.Equal(t, keys[0], keys[1])
		require.NotEqual(t, keys[1], keys[2])
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Send(ctx, msg)
		require.Error(t, err)
		require.Equal(t, int32(3), calls.Load())
	})
}

func TestRenderVerification(t *testing.T) {
	subject, html, err := RenderVerification(VerificationData{
		Email:     "billing@acme.co",
		VerifyURL: "https://x.supabase.co/functions/v1/send-verification?orgId=1&email=billing%40acme.co",
	})
	require.NoError(t, err)
	require.Equal(t, "Fatura E-postanızı Doğrulayın", subject)
	require.Contains(t, html, "billing@acme.co")
	require.Contains(t, html, "orgId=1&amp;email=billing%40acme.co")
}

func TestRenderLimitWarning(t *testing.T) {
	data := LimitWarningData{OrgName: "Acme", Resource: "Personel", Current: 9, Limit: 10, SettingsURL: "https://puantajx.app/settings"}

	subject, html, err := RenderLimitWarning(data)
	require.NoError(t, err)
	require.Equal(t, "⚠️ Limit Uyarısı: Personel Kotanız Doluyor (%90)", subject)
	require.Contains(t, html, "9 / 10 (90%)")
	require.Contains(t, html, "https://puantajx.app/settings")
}

func TestLimitWarningData_Percent(t *testing.T) {
	require.Equal(t, 67, LimitWarningData{Current: 2, Limit: 3}.Percent())
	require.Equal(t, 50, LimitWarningData{Current: 0.5, Limit: 1}.Percent())
	require.Equal(t, 0, LimitWarningData{Current: 5, Limit: 0}.Percent())
}

func TestRenderMonthlySummary(t *testing.T) {
	subject, html, err := RenderMonthlySummary(MonthlySummaryData{
		OrgName:      "Acme <Co>",
		BillingEmail: "billing@acme.co",
		Month:        "Ekim",
		DashboardURL: "https://puantajx.app/dashboard",
		SettingsURL:  "https://puantajx.app/settings",
	})
	require.NoError(t, err)
	require.Equal(t, "📅 Ekim Ayı Faaliyet Raporu", subject)
	require.Contains(t, html, "Acme &lt;Co&gt;")
	require.Contains(t, html, "billing@acme.co")
}

func TestRenderPages(t *testing.T) {
	page, err := RenderVerifiedPage("billing@acme.co")
	require.NoError(t, err)
	require.Contains(t, string(page), "Doğrulandı!")

	require.Contains(t, string(RenderErrorPage(InvalidLinkMessage)), "Hata: Gecersiz baglanti.")
}
