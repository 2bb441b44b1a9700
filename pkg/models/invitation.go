package models

import "strings"

// MemberInvitation is the payload for creating a pre-confirmed team member account.
type MemberInvitation struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Normalize trims the email. The password is kept verbatim.
func (m *MemberInvitation) Normalize() {
	m.Email = strings.TrimSpace(m.Email)
}

// Valid reports whether both credentials were supplied.
func (m *MemberInvitation) Valid() bool {
	return m.Email != "" && m.Password != ""
}
