package handlers

import (
	"net/http"
	"strings"

	"puantajx-functions/pkg/apperr"
	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/identity"
	"puantajx-functions/pkg/models"
	"puantajx-functions/pkg/utils"
)

// AlreadyRegisteredMessage replaces the identity API's duplicate email error.
const AlreadyRegisteredMessage = "Bu e-posta adresi zaten kayıtlı."

// InviteHandler creates accounts for team members.
type InviteHandler struct {
	config *config.Config
	users  identity.Store
}

// NewInviteHandler 创建成员邀请处理器
func NewInviteHandler(cfg *config.Config, users identity.Store) *InviteHandler {
	return &InviteHandler{config: cfg, users: users}
}

// InviteMember POST /functions/v1/invite-member
//
// The account is created with its email already confirmed.
func (h *InviteHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	var req models.MemberInvitation
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	req.Normalize()
	if !req.Valid() {
		writeFailure(w, r, apperr.New(apperr.KindValidation, "Email and password are required"))
		return
	}

	user, err := h.users.CreateUser(r.Context(), identity.CreateUserParams{
		Email:        req.Email,
		Password:     req.Password,
		Metadata:     req.Data,
		EmailConfirm: true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "already registered") || strings.Contains(err.Error(), "already been registered") {
			writeFailure(w, r, apperr.New(apperr.KindCreation, AlreadyRegisteredMessage))
			return
		}
		writeFailure(w, r, apperr.Wrap(apperr.KindUpstream, err, ""))
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{"user": user})
}
