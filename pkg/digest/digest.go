// Package digest sends the monthly activity summary to every organization
// that opted in and verified its billing address.
package digest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/database"
	"puantajx-functions/pkg/mail"
	"puantajx-functions/pkg/orgs"
)

// Outcome statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
	StatusError  = "error"
)

var turkishMonths = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// MonthName returns the Turkish name of t's month.
func MonthName(t time.Time) string {
	return turkishMonths[t.Month()-1]
}

// Outcome is the per-organization result.
type Outcome struct {
	Org    string `json:"org"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Summary is the result of one run.
type Summary struct {
	Success   bool      `json:"success"`
	Processed int       `json:"processed"`
	Details   []Outcome `json:"details"`
}

// Sender runs the monthly digest.
type Sender struct {
	records    database.RecordStore
	mailer     mail.Sender
	from       string
	appBaseURL string
	now        func() time.Time
}

// NewSender 创建月报发送器
func NewSender(records database.RecordStore, mailer mail.Sender, from, appBaseURL string) *Sender {
	return &Sender{
		records:    records,
		mailer:     mailer,
		from:       from,
		appBaseURL: appBaseURL,
		now:        time.Now,
	}
}

// Run sends one digest per eligible organization, one after another. Only the
// initial query can fail the run; send failures are recorded per organization.
func (s *Sender) Run(ctx context.Context) (*Summary, error) {
	logger := zerolog.Ctx(ctx)

	filter := database.Where("notify_monthly_summary", true).And("billing_email_verified", true)
	rows, err := s.records.Select(ctx, orgs.Table, filter, "id", "name", "billing_email")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, err, "")
	}

	month := MonthName(s.now())
	summary := &Summary{Success: true, Details: []Outcome{}}

	for _, row := range rows {
		org := orgs.FromRow(row)
		if org.BillingEmail == "" {
			continue
		}

		outcome := s.sendOne(ctx, org.Name, org.BillingEmail, month)
		logger.Info().Str("org", org.Name).Str("status", outcome.Status).Msg("monthly summary processed")
		summary.Details = append(summary.Details, outcome)
	}

	summary.Processed = len(summary.Details)
	return summary, nil
}

func (s *Sender) sendOne(ctx context.Context, name, email, month string) Outcome {
	subject, html, err := mail.RenderMonthlySummary(mail.MonthlySummaryData{
		OrgName:      name,
		BillingEmail: email,
		Month:        month,
		DashboardURL: s.appBaseURL + "/dashboard",
		SettingsURL:  s.appBaseURL + "/settings",
	})
	if err != nil {
		return Outcome{Org: name, Status: StatusError, Error: err.Error()}
	}

	_, err = s.mailer.Send(ctx, mail.Message{From: s.from, To: []string{email}, Subject: subject, HTML: html})
	if err == nil {
		return Outcome{Org: name, Status: StatusSent}
	}

	var apiErr *mail.APIError
	if errors.As(err, &apiErr) {
		detail := apiErr.Body
		if detail == "" {
			detail = apiErr.Error()
		}
		return Outcome{Org: name, Status: StatusFailed, Error: detail}
	}
	return Outcome{Org: name, Status: StatusError, Error: err.Error()}
}
