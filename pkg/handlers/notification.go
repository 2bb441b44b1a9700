package handlers

import (
	"net/http"
	"strings"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/mail"
	"puantajx-functions/pkg/utils"
)

// NotificationTypeLimitWarning warns an organization that it is close to a usage limit.
const NotificationTypeLimitWarning = "limit_warning"

// NotificationHandler sends transactional notices.
type NotificationHandler struct {
	config *config.Config
	mailer mail.Sender
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(cfg *config.Config, mailer mail.Sender) *NotificationHandler {
	return &NotificationHandler{config: cfg, mailer: mailer}
}

type notificationRequest struct {
	Type    string `json:"type"`
	Email   string `json:"email"`
	OrgName string `json:"orgName"`
	Data    struct {
		Resource string  `json:"resource"`
		Current  float64 `json:"current"`
		Limit    float64 `json:"limit"`
	} `json:"data"`
}

// SendNotification POST /functions/v1/send-notification
func (h *NotificationHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeFailure(w, r, apperr.New(apperr.KindValidation, "Email is required"))
		return
	}

	var (
		subject, html string
		err           error
	)
	switch req.Type {
	case NotificationTypeLimitWarning:
		if req.Data.Limit <= 0 {
			writeFailure(w, r, apperr.New(apperr.KindValidation, "limit must be a positive number"))
			return
		}
		subject, html, err = mail.RenderLimitWarning(mail.LimitWarningData{
			OrgName:     req.OrgName,
			Resource:    req.Data.Resource,
			Current:     req.Data.Current,
			Limit:       req.Data.Limit,
			SettingsURL: h.config.AppBaseURL + "/settings",
		})
	default:
		err = apperr.New(apperr.KindValidation, "Unknown notification type")
	}
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

	utils.WriteSuccessResponse(w, result)
}
