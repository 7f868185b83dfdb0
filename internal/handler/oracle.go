package handler

import (
	"encoding/json"
	"net/http"

	"aoe-companion-api/internal/model"
	"aoe-companion-api/internal/service"
	"aoe-companion-api/pkg/apierror"
	"aoe-companion-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// OracleHandler handles chat assistant HTTP requests.
type OracleHandler struct {
	oracle *service.OracleService
}

// NewOracleHandler creates a new oracle handler.
func NewOracleHandler(oracle *service.OracleService) *OracleHandler {
	return &OracleHandler{oracle: oracle}
}

// chatRequest is the body for POST /api/v1/oracle/chat
type chatRequest struct {
	Message     string `json:"message"`
	ImageBase64 string `json:"image"`
	Focus       string `json:"focus"`
	Model       string `json:"model"`
}

// Chat handles POST /api/v1/oracle/chat
func (h *OracleHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.Message == "" {
		response.Error(w, apierror.ValidationError("message is required",
			apierror.FieldError{Field: "message", Message: "must not be empty"}))
		return
	}

	msg, err := h.oracle.Chat(r.Context(), req.Message, req.ImageBase64, model.ParsePromptFocus(req.Focus), req.Model)
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable(err.Error()))
		return
	}

	response.OK(w, msg)
}

// HeroAdvice handles POST /api/v1/oracle/hero-advice/{id}
func (h *OracleHandler) HeroAdvice(w http.ResponseWriter, r *http.Request) {
	msg, err := h.oracle.HeroAdvice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierror.NotFound(err.Error()))
		return
	}
	response.OK(w, msg)
}

// teamRequest is the body for POST /api/v1/oracle/team-suggestion
type teamRequest struct {
	Mode string `json:"mode"` // pvp, siege, or harvest
}

// TeamSuggestion handles POST /api/v1/oracle/team-suggestion
func (h *OracleHandler) TeamSuggestion(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	switch req.Mode {
	case "pvp", "siege", "harvest":
	default:
		response.Error(w, apierror.ValidationError("invalid mode",
			apierror.FieldError{Field: "mode", Message: "must be pvp, siege, or harvest"}))
		return
	}

	msg, err := h.oracle.TeamSuggestion(r.Context(), req.Mode)
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable(err.Error()))
		return
	}
	response.OK(w, msg)
}

// Priorities handles POST /api/v1/oracle/priorities
func (h *OracleHandler) Priorities(w http.ResponseWriter, r *http.Request) {
	msg, err := h.oracle.UpgradePriorities(r.Context())
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable(err.Error()))
		return
	}
	response.OK(w, msg)
}

// History handles GET /api/v1/oracle/history
func (h *OracleHandler) History(w http.ResponseWriter, r *http.Request) {
	messages, err := h.oracle.History(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	response.OK(w, messages)
}

// ClearHistory handles DELETE /api/v1/oracle/history
func (h *OracleHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.oracle.ClearHistory(r.Context()); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
