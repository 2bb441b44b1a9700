// Package mail sends transactional email through the Resend API and renders
// the message bodies.
package mail

import (
	"context"
	"fmt"
)

// Message is a single email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Result is the mail API response body, passed through to callers unchanged.
type Result map[string]interface{}

// ID returns the id the mail API assigned to the message.
func (r Result) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Sender dispatches messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// APIError is a rejection from the mail API, as opposed to a transport failure.
type APIError struct {
	Status  int    `json:"statusCode"`
	Name    string `json:"name"`
	Message string `json:"message"`
	// Body is the raw response text.
	Body string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Resend API Failed (status %d)", e.Status)
}
