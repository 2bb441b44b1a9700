package digest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/database"
	"puantajx-functions/pkg/mail"
	"puantajx-functions/pkg/orgs"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	errs map[string]error
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) (mail.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[msg.To[0]]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, msg)
	return mail.Result{"id": "email"}, nil
}

func TestMonthName(t *testing.T) {
	require.Equal(t, "Ocak", MonthName(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "Ağustos", MonthName(time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "Aralık", MonthName(time.Date(2026, time.December, 15, 0, 0, 0, 0, time.UTC)))
}

func TestSender_Run(t *testing.T) {
	db := database.NewMemoryDatabase()
	db.Seed(orgs.Table,
		database.Row{"id": "1", "name": "Acme", "billing_email": "acme@x.co", "notify_monthly_summary": true, "billing_email_verified": true},
		database.Row{"id": "2", "name": "NoMail", "billing_email": "", "notify_monthly_summary": true, "billing_email_verified": true},
		database.Row{"id": "3", "name": "Unverified", "billing_email": "u@x.co", "notify_monthly_summary": true, "billing_email_verified": false},
		database.Row{"id": "4", "name": "OptedOut", "billing_email": "o@x.co", "notify_monthly_summary": false, "billing_email_verified": true},
		database.Row{"id": "5", "name": "Rejected", "billing_email": "bad@x.co", "notify_monthly_summary": true, "billing_email_verified": true},
		database.Row{"id": "6", "name": "Offline", "billing_email": "down@x.co", "notify_monthly_summary": true, "billing_email_verified": true},
	)

	mailer := &fakeMailer{errs: map[string]error{
		"bad@x.co":  &mail.APIError{Status: 422, Message: "Invalid `to` field.", Body: `{"message":"Invalid`},
		"down@x.co": errors.New("failed to send request: connection refused"),
	}}

	s := NewSender(db, mailer, "PuantajX <onboarding@resend.dev>", "https://puantajx.app")
	s.now = func() time.Time { return time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC) }

	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	require.True(t, summary.Success)
	require.Equal(t, 3, summary.Processed)
	require.Equal(t, []Outcome{
		{Org: "Acme", Status: StatusSent},
		{Org: "Rejected", Status: StatusFailed, Error: `{"message":"Invalid`},
		{Org: "Offline", Status: StatusError, Error: "failed to send request: connection refused"},
	}, summary.Details)

	require.Len(t, mailer.sent, 1)
	require.Equal(t, []string{"acme@x.co"}, mailer.sent[0].To)
	require.Equal(t, "📅 Ekim Ayı Faaliyet Raporu", mailer.sent[0].Subject)
}

func TestSender_RunQueryFailure(t *testing.T) {
	db := database.NewMemoryDatabase()
	db.FailOn(database.OpSelect, orgs.Table, errors.New("relation \"organizations\" does not exist"))

	_, err := NewSender(db, &fakeMailer{}, "from", "https://puantajx.app").Run(context.Background())
	require.True(t, apperr.IsKind(err, apperr.KindUpstream))
	require.EqualError(t, err, `relation "organizations" does not exist`)
}

func TestSender_RunEmpty(t *testing.T) {
	summary, err := NewSender(database.NewMemoryDatabase(), &fakeMailer{}, "from", "https://puantajx.app").Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, summary.Processed)
	require.NotNil(t, summary.Details)
}
