package handlers

import (
	"net/http"
	"strings"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/database"
	"puantajx-functions/pkg/utils"
)

// IdentityHandler answers which sign-in methods an email is registered with.
type IdentityHandler struct {
	config *config.Config
	lookup database.IdentityLookup
}

// NewIdentityHandler 创建身份查询处理器
// lookup 为 nil 表示未配置 SUPABASE_DB_URL
func NewIdentityHandler(cfg *config.Config, lookup database.IdentityLookup) *IdentityHandler {
	return &IdentityHandler{config: cfg, lookup: lookup}
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *IdentityHandler) providers(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req emailRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return nil, false
	}
	if strings.TrimSpace(req.Email) == "" {
		writeFailure(w, r, apperr.New(apperr.KindValidation, "Email is required"))
		return nil, false
	}
	if h.lookup == nil {
		writeFailure(w, r, apperr.New(apperr.KindUpstream, "Missing SUPABASE_DB_URL"))
		return nil, false
	}

	providers, err := h.lookup.ProvidersByEmail(r.Context(), req.Email)
	if err != nil {
		writeFailure(w, r, apperr.Wrap(apperr.KindUpstream, err, ""))
		return nil, false
	}
	return providers, true
}

// CheckGoogleUser POST /functions/v1/check-google-user
func (h *IdentityHandler) CheckGoogleUser(w http.ResponseWriter, r *http.Request) {
	providers, ok := h.providers(w, r)
	if !ok {
		return
	}

	hasGoogle := false
	for _, p := range providers {
		if p == "google" {
			hasGoogle = true
			break
		}
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"exists":    len(providers) > 0,
		"hasGoogle": hasGoogle,
		"providers": providers,
	})
}

// CheckUserExists POST /functions/v1/check-user-exists
func (h *IdentityHandler) CheckUserExists(w http.ResponseWriter, r *http.Request) {
	providers, ok := h.providers(w, r)
	if !ok {
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"exists":    len(providers) > 0,
		"providers": providers,
	})
}
