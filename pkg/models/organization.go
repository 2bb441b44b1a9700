package models

import "time"

// Organization is the tenant record. Dependent tables reference it by Code,
// not by ID.
type Organization struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Code                 string    `json:"code"`
	BillingEmail         string    `json:"billing_email,omitempty"`
	BillingEmailVerified bool      `json:"billing_email_verified"`
	NotifyMonthlySummary bool      `json:"notify_monthly_summary"`
	CreatedAt            time.Time `json:"created_at"`
}
