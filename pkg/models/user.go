package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MetadataOrgName is the user metadata key holding the organization label.
const MetadataOrgName = "org_name"

// User is an account held by the identity store.
type User struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	Metadata         map[string]interface{} `json:"user_metadata,omitempty"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// OrgName returns the organization label recorded in the user's metadata.
func (u *User) OrgName() string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	name, _ := u.Metadata[MetadataOrgName].(string)
	return strings.TrimSpace(name)
}

// TokenClaims are the claims of a Supabase access token.
type TokenClaims struct {
	Email        string                 `json:"email,omitempty"`
	Role         string                 `json:"role,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *TokenClaims) UserID() string {
	return c.Subject
}
