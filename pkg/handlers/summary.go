package handlers

import (
	"net/http"

	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/digest"
	"puantajx-functions/pkg/utils"
)

// SummaryHandler triggers the monthly digest, usually from a scheduler.
type SummaryHandler struct {
	config *config.Config
	digest *digest.Sender
}

// NewSummaryHandler 创建月报处理器
func NewSummaryHandler(cfg *config.Config, sender *digest.Sender) *SummaryHandler {
	return &SummaryHandler{config: cfg, digest: sender}
}

// SendMonthlySummary GET|POST /functions/v1/send-monthly-summary
func (h *SummaryHandler) SendMonthlySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.digest.Run(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, summary)
}
