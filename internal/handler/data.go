package handler

import (
	"io"
	"net/http"

	"aoe-companion-api/internal/service"
	"aoe-companion-api/pkg/apierror"
	"aoe-companion-api/pkg/response"
)

// DataHandler handles backup/restore of the scanned data set.
type DataHandler struct {
	collection *service.CollectionService
}

// NewDataHandler creates a new data handler.
func NewDataHandler(collection *service.CollectionService) *DataHandler {
	return &DataHandler{collection: collection}
}

// Export handles GET /api/v1/data/export
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	backup, err := h.collection.ExportAll(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, backup)
}

// Import handles POST /api/v1/data/import
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read request body"))
		return
	}
	defer r.Body.Close()

	if err := h.collection.ImportAll(r.Context(), body); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, map[string]any{"imported": true})
}

// Clear handles DELETE /api/v1/data
func (h *DataHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.collection.ClearAll(r.Context()); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
