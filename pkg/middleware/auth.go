package middleware

import (
	"context"
	"net/http"
	"strings"

	"puantajx-functions/pkg/utils"
)

// ContextKey 用于在context中存储请求信息的键
type ContextKey string

const (
	TokenContextKey ContextKey = "access_token"
)

// MissingAuthorizationMessage is the error for requests without an Authorization header.
const MissingAuthorizationMessage = "Missing Authorization Header"

// BearerToken strips a leading "Bearer" and the whitespace after it, in any
// letter case. A header without the prefix is returned as is.
func BearerToken(header string) string {
	const prefix = "bearer"
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return header
	}
	rest := header[len(prefix):]
	trimmed := strings.TrimLeft(rest, " \t")
	if trimmed == rest {
		// "Bearertoken" has no separator and is not a prefix match
		return header
	}
	return trimmed
}

// RequireBearer rejects requests without an Authorization header and stores
// the access token in the request context. The token itself is verified by
// the identity store, not here.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.WriteErrorResponse(w, MissingAuthorizationMessage)
			return
		}

		ctx := context.WithValue(r.Context(), TokenContextKey, BearerToken(authHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromContext 从context中获取访问令牌
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenContextKey).(string)
	return token, ok
}
