package utils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"puantajx-functions/pkg/models"
)

func signToken(t *testing.T, secret string, claims *models.TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func signES256(t *testing.T, claims *models.TokenClaims) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func claimsFor(sub string, exp time.Time) *models.TokenClaims {
	return &models.TokenClaims{
		Email:        "owner@acme.co",
		UserMetadata: map[string]interface{}{"org_name": "Acme Co!"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestJWTService_ParseAccessToken(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		secret  string
		token   func(t *testing.T) string
		wantSub string
		wantErr string
	}{
		{
			name:    "verified with secret",
			secret:  "jwt-secret",
			token:   func(t *testing.T) string { return signToken(t, "jwt-secret", claimsFor("user-1", future)) },
			wantSub: "user-1",
		},
		{
			name:    "wrong secret",
			secret:  "jwt-secret",
			token:   func(t *testing.T) string { return signToken(t, "other", claimsFor("user-1", future)) },
			wantErr: "failed to parse token",
		},
		{
			name:    "expired with secret",
			secret:  "jwt-secret",
			token:   func(t *testing.T) string { return signToken(t, "jwt-secret", claimsFor("user-1", past)) },
			wantErr: ErrTokenExpired.Error(),
		},
		{
			name:    "decoded without secret",
			token:   func(t *testing.T) string { return signToken(t, "anything", claimsFor("user-2", future)) },
			wantSub: "user-2",
		},
		{
			name:    "expired without secret",
			token:   func(t *testing.T) string { return signToken(t, "anything", claimsFor("user-2", past)) },
			wantErr: ErrTokenExpired.Error(),
		},
		{
			name:    "missing subject",
			token:   func(t *testing.T) string { return signToken(t, "anything", claimsFor("", future)) },
			wantErr: "invalid token claims",
		},
		{
			name:    "asymmetric token left to the identity store",
			secret:  "jwt-secret",
			token:   func(t *testing.T) string { return signES256(t, claimsFor("user-3", future)) },
			wantSub: "user-3",
		},
		{
			name:    "expired asymmetric token",
			secret:  "jwt-secret",
			token:   func(t *testing.T) string { return signES256(t, claimsFor("user-3", past)) },
			wantErr: ErrTokenExpired.Error(),
		},
		{
			name:    "malformed",
			token:   func(t *testing.T) string { return "not-a-jwt" },
			wantErr: "failed to parse token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := NewJWTService(tt.secret).ParseAccessToken(tt.token(t))
			if tt.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantSub, claims.UserID())
		})
	}
}

func TestJWTService_ExtractUserFromToken(t *testing.T) {
	token := signToken(t, "s", claimsFor("user-1", time.Now().Add(time.Hour)))

	user, err := NewJWTService("").ExtractUserFromToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, "owner@acme.co", user.Email)
	require.Equal(t, "Acme Co!", user.OrgName())
}

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, "Missing Authorization Header")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"Missing Authorization Header"}`, rec.Body.String())
}

func TestWriteSuccessResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessResponse(rec, map[string]string{"message": "Account deleted successfully"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Account deleted successfully"}`, rec.Body.String())
}

func TestParseJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"pw"}`))

	var inv models.MemberInvitation
	require.NoError(t, ParseJSONBody(req, &inv))
	require.Equal(t, "a@b.co", inv.Email)
	require.True(t, inv.Valid())
}

func TestGetQueryParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?orgId=abc", nil)
	require.Equal(t, "abc", GetQueryParam(req, "orgId", ""))
	require.Equal(t, "fallback", GetQueryParam(req, "email", "fallback"))
}
