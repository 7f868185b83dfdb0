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

// CollectionHandler handles scanned-entity HTTP requests.
type CollectionHandler struct {
	collection *service.CollectionService
}

// NewCollectionHandler creates a new collection handler.
func NewCollectionHandler(collection *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collection: collection}
}

// ListHeroes handles GET /api/v1/heroes
func (h *CollectionHandler) ListHeroes(w http.ResponseWriter, r *http.Request) {
	heroes, err := h.collection.Heroes(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if heroes == nil {
		heroes = []model.Hero{}
	}
	response.OK(w, heroes)
}

// UpsertHero handles POST /api/v1/heroes
func (h *CollectionHandler) UpsertHero(w http.ResponseWriter, r *http.Request) {
	var hero model.Hero
	if err := json.NewDecoder(r.Body).Decode(&hero); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if hero.Name == "" {
		response.Error(w, apierror.ValidationError("name is required",
			apierror.FieldError{Field: "name", Message: "must not be empty"}))
		return
	}

	stored, err := h.collection.UpsertHero(r.Context(), hero)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, stored)
}

// DeleteHero handles DELETE /api/v1/heroes/{id}
func (h *CollectionHandler) DeleteHero(w http.ResponseWriter, r *http.Request) {
	ok, err := h.collection.DeleteHero(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	if !ok {
		response.Error(w, apierror.NotFound("hero not found"))
		return
	}
	response.NoContent(w)
}

// ListEquipment handles GET /api/v1/equipment
func (h *CollectionHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := h.collection.Equipment(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if items == nil {
		items = []model.EquipmentItem{}
	}
	response.OK(w, items)
}

// UpsertEquipment handles POST /api/v1/equipment
func (h *CollectionHandler) UpsertEquipment(w http.ResponseWriter, r *http.Request) {
	var item model.EquipmentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if item.Name == "" {
		response.Error(w, apierror.ValidationError("name is required",
			apierror.FieldError{Field: "name", Message: "must not be empty"}))
		return
	}

	stored, err := h.collection.UpsertEquipment(r.Context(), item)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, stored)
}

// DeleteEquipment handles DELETE /api/v1/equipment/{id}
func (h *CollectionHandler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	ok, err := h.collection.DeleteEquipment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	if !ok {
		response.Error(w, apierror.NotFound("equipment not found"))
		return
	}
	response.NoContent(w)
}

// ListBuildings handles GET /api/v1/buildings
func (h *CollectionHandler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	buildings, err := h.collection.Buildings(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if buildings == nil {
		buildings = []model.Building{}
	}
	response.OK(w, buildings)
}

// UpsertBuilding handles POST /api/v1/buildings
func (h *CollectionHandler) UpsertBuilding(w http.ResponseWriter, r *http.Request) {
	var building model.Building
	if err := json.NewDecoder(r.Body).Decode(&building); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if building.Name == "" {
		response.Error(w, apierror.ValidationError("name is required",
			apierror.FieldError{Field: "name", Message: "must not be empty"}))
		return
	}

	stored, err := h.collection.UpsertBuilding(r.Context(), building)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, stored)
}

// DeleteBuilding handles DELETE /api/v1/buildings/{id}
func (h *CollectionHandler) DeleteBuilding(w http.ResponseWriter, r *http.Request) {
	ok, err := h.collection.DeleteBuilding(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	if !ok {
		response.Error(w, apierror.NotFound("building not found"))
		return
	}
	response.NoContent(w)
}

// GetProfile handles GET /api/v1/profile
func (h *CollectionHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.collection.Profile(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	if profile == nil {
		response.Error(w, apierror.NotFound("no player profile scanned yet"))
		return
	}
	response.OK(w, profile)
}

// SetProfile handles PUT /api/v1/profile
func (h *CollectionHandler) SetProfile(w http.ResponseWriter, r *http.Request) {
	var profile model.PlayerProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if profile.Name == "" {
		response.Error(w, apierror.ValidationError("name is required",
			apierror.FieldError{Field: "name", Message: "must not be empty"}))
		return
	}

	stored, err := h.collection.SetProfile(r.Context(), profile)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, stored)
}
