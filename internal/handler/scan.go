package handler

import (
	"encoding/json"
	"net/http"

	"aoe-companion-api/internal/model"
	"aoe-companion-api/internal/service"
	"aoe-companion-api/pkg/apierror"
	"aoe-companion-api/pkg/response"
)

// ScanHandler handles screenshot analysis requests.
type ScanHandler struct {
	scanner *service.ScanService
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(scanner *service.ScanService) *ScanHandler {
	return &ScanHandler{scanner: scanner}
}

// scanRequest is the body for POST /api/v1/scan
type scanRequest struct {
	ImageBase64  string `json:"image"`
	ExpectedType string `json:"expected_type"`
	Model        string `json:"model"`
	Apply        bool   `json:"apply"`
}

// scanResponse wraps the extraction result with the stored entity id when
// the scan was applied to the collection.
type scanResponse struct {
	Result    model.ExtractionResult `json:"result"`
	AppliedID string                 `json:"applied_id,omitempty"`
}

// Scan handles POST /api/v1/scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.ImageBase64 == "" {
		response.Error(w, apierror.ValidationError("image is required",
			apierror.FieldError{Field: "image", Message: "must be a base64-encoded screenshot"}))
		return
	}

	expected := model.ParseEntityKind(req.ExpectedType)

	var resp scanResponse
	if req.Apply {
		resp.Result, resp.AppliedID = h.scanner.AnalyzeAndApply(r.Context(), req.ImageBase64, expected, req.Model)
	} else {
		resp.Result = h.scanner.AnalyzeScreenshot(r.Context(), req.ImageBase64, expected, req.Model)
	}

	response.OK(w, resp)
}
