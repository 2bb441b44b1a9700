package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"puantajx-functions/pkg/config"
)

func ok(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer abc", "abc"},
		{"BEARER   abc", "abc"},
		{"Bearer\tabc", "abc"},
		{"abc", "abc"},
		{"Bearer", "Bearer"},
		{"Bearerabc", "Bearerabc"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			require.Equal(t, tt.want, BearerToken(tt.header))
		})
	}
}

func TestRequireBearer(t *testing.T) {
	var got string
	h := RequireBearer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = TokenFromContext(r.Context())
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"Missing Authorization Header"}`, rec.Body.String())
	})

	t.Run("token stored in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "bearer tok-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "tok-1", got)
	})
}

func TestCORS_preflightPassesThrough(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: []string{"*"}}

	r := chi.NewRouter()
	r.Use(CORS(cfg))
	r.Options("/*", ok)
	r.Post("/functions/v1/x", ok)

	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/x", nil)
	req.Header.Set("Origin", "https://puantajx.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	tests := []struct {
		env  string
		want string
	}{
		{"development", `{"error":"Internal server error: boom"}`},
		{"production", `{"error":"Internal server error occurred"}`},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Recovery(&config.Config{Environment: tt.env})(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestLogger_accessLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := chimw.RequestID(Logger(logger)(http.HandlerFunc(ok)))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/functions/v1/x", nil))

	line := buf.String()
	require.Contains(t, line, `"path":"/functions/v1/x"`)
	require.Contains(t, line, `"status":200`)
	require.Contains(t, line, `"request_id":`)
}

func TestRateLimitByIP(t *testing.T) {
	h := RateLimitByIP(2)(http.HandlerFunc(ok))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("10.0.0.1"))
	require.Equal(t, http.StatusOK, send("10.0.0.1"))
	require.Equal(t, http.StatusBadRequest, send("10.0.0.1"))
	require.Equal(t, http.StatusOK, send("10.0.0.2"), "limits are per IP")
}

func TestRateLimitByIP_disabled(t *testing.T) {
	h := RateLimitByIP(0)(http.HandlerFunc(ok))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestNormalize(t *testing.T) {
	var base string
	h := Normalize()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base = RequestBaseURL(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/functions/v1/send-verification", nil)
	req.Header.Set("X-Forwarded-Proto", "https, http")
	req.Header.Set("X-Forwarded-Host", "abc.supabase.co")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "https://abc.supabase.co", base)
}
