// Package identity wraps the user-account API of the backend (Supabase Auth).
package identity

import (
	"context"
	"errors"
	"fmt"

	"puantajx-functions/pkg/models"
)

// ErrUserNotFound is returned by GetUserByID when the account does not exist.
var ErrUserNotFound = errors.New("user not found")

// Store is the identity/admin API used by the functions.
type Store interface {
	// VerifyToken resolves a user access token to its account.
	VerifyToken(ctx context.Context, token string) (*models.User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// CreateUserParams 创建用户参数
type CreateUserParams struct {
	Email        string                 `json:"email"`
	Password     string                 `json:"password"`
	Metadata     map[string]interface{} `json:"user_metadata,omitempty"`
	EmailConfirm bool                   `json:"email_confirm"`
}

// APIError is an error response from the identity API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("auth request failed with status %d", e.Status)
}
