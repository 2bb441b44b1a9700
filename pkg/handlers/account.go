package handlers

import (
	"net/http"

	"puantajx-functions/pkg/accounts"
	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/middleware"
	"puantajx-functions/pkg/utils"
)

// AccountHandler 账号处理器
type AccountHandler struct {
	config  *config.Config
	deleter *accounts.Deleter
}

// NewAccountHandler 创建账号处理器
func NewAccountHandler(cfg *config.Config, deleter *accounts.Deleter) *AccountHandler {
	return &AccountHandler{config: cfg, deleter: deleter}
}

// DeleteAccount POST /functions/v1/delete-account
//
// Requires middleware.RequireBearer.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.TokenFromContext(r.Context())

	if _, err := h.deleter.DeleteAccount(r.Context(), token); err != nil {
		writeFailure(w, r, err)
		return
	}

	utils.WriteSuccessResponse(w, map[string]string{
		"message": "Account deleted successfully",
	})
}
