package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/hlog"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/database"
	"puantajx-functions/pkg/mail"
	"puantajx-functions/pkg/middleware"
	"puantajx-functions/pkg/orgs"
	"puantajx-functions/pkg/utils"
)

// VerificationHandler sends billing email verification links and confirms them.
type VerificationHandler struct {
	config   *config.Config
	records  database.RecordStore
	resolver *orgs.Resolver
	mailer   mail.Sender
}

// NewVerificationHandler 创建邮箱验证处理器
func NewVerificationHandler(cfg *config.Config, records database.RecordStore, mailer mail.Sender) *VerificationHandler {
	return &VerificationHandler{
		config:   cfg,
		records:  records,
		resolver: orgs.NewResolver(records),
		mailer:   mailer,
	}
}

type verificationRequest struct {
	Email string `json:"email"`
	OrgID string `json:"orgId"`
}

// SendVerification POST /functions/v1/send-verification
func (h *VerificationHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.OrgID = strings.TrimSpace(req.OrgID)
	if req.Email == "" || req.OrgID == "" {
		writeFailure(w, r, apperr.New(apperr.KindValidation, "Missing email or orgId"))
		return
	}

	orgID, err := h.resolver.ResolveOrCreate(r.Context(), req.OrgID, req.Email)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	subject, html, err := mail.RenderVerification(mail.VerificationData{
		Email:     req.Email,
		VerifyURL: h.verifyURL(r, orgID, req.Email),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	result, err := h.mailer.Send(r.Context(), mail.Message{
		From:    h.config.MailFrom,
		To:      []string{req.Email},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		writeFailure(w, r, apperr.Wrap(apperr.KindUpstream, err, ""))
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// ConfirmVerification GET /functions/v1/send-verification?orgId=&email=
//
// Opened from the email, so it answers with HTML pages instead of JSON.
func (h *VerificationHandler) ConfirmVerification(w http.ResponseWriter, r *http.Request) {
	orgInput := strings.TrimSpace(r.URL.Query().Get("orgId"))
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if orgInput == "" || email == "" {
		utils.WriteHTMLResponse(w, http.StatusBadRequest, mail.RenderErrorPage(mail.InvalidLinkMessage))
		return
	}

	logger := hlog.FromRequest(r)

	orgID, err := h.resolver.ResolveOrCreate(r.Context(), orgInput, email)
	if err != nil {
		logger.Warn().Err(err).Msg("verification click failed")
		utils.WriteHTMLResponse(w, http.StatusBadRequest, mail.RenderErrorPage(err.Error()))
		return
	}

	updated, err := h.records.Update(r.Context(), orgs.Table,
		database.Where("id", orgID).And("billing_email", email),
		database.Row{"billing_email_verified": true},
	)
	if err != nil {
		logger.Warn().Err(err).Str("org_id", orgID).Msg("verification update failed")
		utils.WriteHTMLResponse(w, http.StatusBadRequest, mail.RenderErrorPage(err.Error()))
		return
	}
	if len(updated) == 0 {
		logger.Warn().Str("org_id", orgID).Msg("verification matched no organization")
	}

	page, err := mail.RenderVerifiedPage(email)
	if err != nil {
		utils.WriteHTMLResponse(w, http.StatusBadRequest, mail.RenderErrorPage(err.Error()))
		return
	}
	utils.WriteHTMLResponse(w, http.StatusOK, page)
}

// verifyURL builds the confirmation link. Without FUNCTIONS_BASE_URL the
// link points back at the host that served this request.
func (h *VerificationHandler) verifyURL(r *http.Request, orgID, email string) string {
	base := h.config.FunctionsBaseURL
	if base == "" {
		base = middleware.RequestBaseURL(r) + "/functions/v1"
	}
	return base + "/send-verification?orgId=" + url.QueryEscape(orgID) + "&email=" + url.QueryEscape(email)
}
