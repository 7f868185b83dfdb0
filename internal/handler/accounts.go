package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"aoe-companion-api/internal/model"
	"aoe-companion-api/internal/service"
	"aoe-companion-api/pkg/apierror"
	"aoe-companion-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// AccountHandler handles linked-account HTTP requests.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// addAccountRequest is the body for POST /api/v1/accounts
type addAccountRequest struct {
	Username       string `json:"username"`
	ExternalUserID string `json:"external_user_id"`
	AuthToken      string `json:"auth_token"`
}

// Add handles POST /api/v1/accounts
func (h *AccountHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}

	account, err := h.accounts.Add(r.Context(), req.Username, req.ExternalUserID, req.AuthToken)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, account)
}

// List handles GET /api/v1/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	infos := make([]model.AccountInfo, 0, len(accounts))
	for i := range accounts {
		infos = append(infos, accounts[i].Info())
	}
	response.OK(w, infos)
}

// Activate handles POST /api/v1/accounts/{id}/activate
func (h *AccountHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ok, err := h.accounts.SetActive(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	if !ok {
		response.Error(w, apierror.NotFound("account not found"))
		return
	}

	response.OK(w, map[string]any{"activated": id})
}

// Remove handles DELETE /api/v1/accounts/{id}
func (h *AccountHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ok, err := h.accounts.Remove(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	if !ok {
		response.Error(w, apierror.NotFound("account not found"))
		return
	}

	response.NoContent(w)
}

// Refresh handles POST /api/v1/accounts/{id}/refresh
func (h *AccountHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.accounts.Refresh(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	if account == nil {
		response.Error(w, apierror.NotFound("account not found or gateway unreachable"))
		return
	}

	response.OK(w, account.Info())
}

// ActiveInfo handles GET /api/v1/accounts/active/info
// Display-ready token metrics for the active account.
func (h *AccountHandler) ActiveInfo(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Active(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if account == nil {
		response.Error(w, apierror.NotFound("no active account"))
		return
	}

	response.OK(w, account.Info())
}

// updateTokensRequest is the body for PUT /api/v1/accounts/{id}/tokens
type updateTokensRequest struct {
	TokensUsed  int64 `json:"tokens_used"`
	TokensLimit int64 `json:"tokens_limit"`
}

// UpdateTokens handles PUT /api/v1/accounts/{id}/tokens
func (h *AccountHandler) UpdateTokens(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.TokensUsed < 0 || req.TokensLimit < 0 {
		response.Error(w, apierror.ValidationError("token counters must be non-negative"))
		return
	}

	ok, err := h.accounts.UpdateTokens(r.Context(), id, req.TokensUsed, req.TokensLimit)
	if err != nil {
		response.Error(w, err)
		return
	}
	if !ok {
		response.Error(w, apierror.NotFound("account not found"))
		return
	}

	response.OK(w, map[string]any{"updated": id})
}

// Export handles GET /api/v1/accounts/export
func (h *AccountHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.accounts.ExportJSON(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import handles POST /api/v1/accounts/import
func (h *AccountHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read request body"))
		return
	}
	defer r.Body.Close()

	if err := h.accounts.ImportJSON(r.Context(), body); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}

	response.OK(w, map[string]any{"imported": true})
}
