package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"puantajx-functions/pkg/models"
)

// ErrTokenExpired is returned for access tokens past their exp claim.
var ErrTokenExpired = errors.New("token expired")

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// JWTService JWT服务
//
// Access tokens are issued by Supabase Auth. With the project's JWT secret the
// signature is checked locally; without it the token is only decoded and the
// identity store stays the authority.
type JWTService struct {
	secretKey []byte
	now       func() time.Time
}

// NewJWTService 创建JWT服务
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}

// VerifiesSignature reports whether a signing secret is configured.
func (j *JWTService) VerifiesSignature() bool {
	return len(j.secretKey) > 0
}

// ParseAccessToken 验证令牌
//
// Only HMAC-signed tokens are checked against the secret. Tokens signed with
// asymmetric project keys (ES256, RS256) are decoded and left to the
// identity store.
func (j *JWTService) ParseAccessToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	_, hmac := unverified.Method.(*jwt.SigningMethodHMAC)

	if j.VerifiesSignature() && hmac {
		claims = &models.TokenClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return j.secretKey, nil
		}, jwt.WithValidMethods(hmacMethods), jwt.WithTimeFunc(j.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, ErrTokenExpired
			}
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
		if !token.Valid {
			return nil, fmt.Errorf("invalid token")
		}
	} else if claims.ExpiresAt != nil && j.now().After(claims.ExpiresAt.Time) {
		// 检查是否过期
		return nil, ErrTokenExpired
	}

	if claims.UserID() == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// ExtractUserFromToken 从令牌中提取用户信息
func (j *JWTService) ExtractUserFromToken(tokenString string) (*models.User, error) {
	claims, err := j.ParseAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:       claims.UserID(),
		Email:    claims.Email,
		Metadata: claims.UserMetadata,
	}, nil
}
