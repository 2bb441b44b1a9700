package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"number": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}).ParseFS(templateFiles, "templates/*.html"))

// InvalidLinkMessage is shown when a verification link lacks its parameters.
const InvalidLinkMessage = "Gecersiz baglanti."

// VerificationData fills the billing email verification message.
type VerificationData struct {
	Email     string
	VerifyURL string
}

// LimitWarningData fills the usage limit warning.
type LimitWarningData struct {
	OrgName     string
	Resource    string
	Current     float64
	Limit       float64
	SettingsURL string
}

// Percent is the share of the limit in use, rounded to the nearest integer.
func (d LimitWarningData) Percent() int {
	if d.Limit <= 0 {
		return 0
	}
	return int(math.Round(d.Current / d.Limit * 100))
}

// MonthlySummaryData fills the monthly activity digest.
type MonthlySummaryData struct {
	OrgName      string
	BillingEmail string
	Month        string
	DashboardURL string
	SettingsURL  string
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderVerification returns the subject and body of the verification email.
func RenderVerification(data VerificationData) (string, string, error) {
	html, err := render("verification", data)
	return "Fatura E-postanızı Doğrulayın", html, err
}

// RenderLimitWarning returns the subject and body of the limit warning.
func RenderLimitWarning(data LimitWarningData) (string, string, error) {
	html, err := render("limit_warning", data)
	subject := fmt.Sprintf("⚠️ Limit Uyarısı: %s Kotanız Doluyor (%%%d)", data.Resource, data.Percent())
	return subject, html, err
}

// RenderMonthlySummary returns the subject and body of the monthly digest.
func RenderMonthlySummary(data MonthlySummaryData) (string, string, error) {
	html, err := render("monthly_summary", data)
	return fmt.Sprintf("📅 %s Ayı Faaliyet Raporu", data.Month), html, err
}

// RenderVerifiedPage is the page shown after a successful verification click.
func RenderVerifiedPage(email string) ([]byte, error) {
	html, err := render("verified_page", struct{ Email string }{email})
	return []byte(html), err
}

// RenderErrorPage is the page shown when a verification click fails.
func RenderErrorPage(message string) []byte {
	html, err := render("error_page", struct{ Message string }{message})
	if err != nil {
		return []byte("<h3>Hata</h3>")
	}
	return []byte(html)
}
