package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"aoe-companion-api/internal/model"
	"aoe-companion-api/internal/repository"

	"aoe-companion-api/pkg/uid"
)

// Document keys for the scanned game data.
const (
	heroesKey    = "aoe:heroes"
	equipmentKey = "aoe:equipment"
	buildingsKey = "aoe:buildings"
	profileKey   = "aoe:player_profile"
)

// CollectionService stores the player's scanned game entities: heroes,
// equipment, buildings and the player profile. Each collection lives as a
// single JSON list document; mutations are read-modify-write and therefore
// serialized like the account ledger's.
type CollectionService struct {
	store repository.Store
	mu    sync.Mutex
}

// NewCollectionService creates a collection service.
func NewCollectionService(store repository.Store) *CollectionService {
	if store == nil {
		return nil
	}
	return &CollectionService{store: store}
}

func loadList[T any](ctx context.Context, store repository.Store, key string) ([]T, error) {
	data, err := store.Get(ctx, key)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return items, nil
}

func saveList[T any](ctx context.Context, store repository.Store, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Heroes returns all stored heroes.
func (s *CollectionService) Heroes(ctx context.Context) ([]model.Hero, error) {
	return loadList[model.Hero](ctx, s.store, heroesKey)
}

// UpsertHero inserts the hero or replaces the record with the same id.
func (s *CollectionService) UpsertHero(ctx context.Context, hero model.Hero) (*model.Hero, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hero.ID == "" {
		hero.ID = uid.New()
	}
	hero.LastUpdated = time.Now().UTC()

	heroes, err := loadList[model.Hero](ctx, s.store, heroesKey)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range heroes {
		if heroes[i].ID == hero.ID {
			heroes[i] = hero
			replaced = true
			break
		}
	}
	if !replaced {
		heroes = append(heroes, hero)
	}

	if err := saveList(ctx, s.store, heroesKey, heroes); err != nil {
		return nil, err
	}
	return &hero, nil
}

// DeleteHero removes the hero. Returns false when the id is unknown.
func (s *CollectionService) DeleteHero(ctx context.Context, id string) (bool, error) {
	return deleteByID[model.Hero](ctx, s, heroesKey, func(h model.Hero) string { return h.ID }, id)
}

// Equipment returns all stored equipment.
func (s *CollectionService) Equipment(ctx context.Context) ([]model.EquipmentItem, error) {
	return loadList[model.EquipmentItem](ctx, s.store, equipmentKey)
}

// UpsertEquipment inserts the item or replaces the record with the same id.
func (s *CollectionService) UpsertEquipment(ctx context.Context, item model.EquipmentItem) (*model.EquipmentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uid.New()
	}
	item.LastUpdated = time.Now().UTC()

	items, err := loadList[model.EquipmentItem](ctx, s.store, equipmentKey)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}

	if err := saveList(ctx, s.store, equipmentKey, items); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteEquipment removes the item. Returns false when the id is unknown.
func (s *CollectionService) DeleteEquipment(ctx context.Context, id string) (bool, error) {
	return deleteByID[model.EquipmentItem](ctx, s, equipmentKey, func(e model.EquipmentItem) string { return e.ID }, id)
}

// Buildings returns all stored buildings.
func (s *CollectionService) Buildings(ctx context.Context) ([]model.Building, error) {
	return loadList[model.Building](ctx, s.store, buildingsKey)
}

// UpsertBuilding inserts the building or replaces the record with the same id.
func (s *CollectionService) UpsertBuilding(ctx context.Context, building model.Building) (*model.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if building.ID == "" {
		building.ID = uid.New()
	}
	building.LastUpdated = time.Now().UTC()

	buildings, err := loadList[model.Building](ctx, s.store, buildingsKey)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range buildings {
		if buildings[i].ID == building.ID {
			buildings[i] = building
			replaced = true
			break
		}
	}
	if !replaced {
		buildings = append(buildings, building)
	}

	if err := saveList(ctx, s.store, buildingsKey, buildings); err != nil {
		return nil, err
	}
	return &building, nil
}

// DeleteBuilding removes the building. Returns false when the id is unknown.
func (s *CollectionService) DeleteBuilding(ctx context.Context, id string) (bool, error) {
	return deleteByID[model.Building](ctx, s, buildingsKey, func(b model.Building) string { return b.ID }, id)
}

func deleteByID[T any](ctx context.Context, s *CollectionService, key string, idOf func(T) string, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := loadList[T](ctx, s.store, key)
	if err != nil {
		return false, err
	}

	kept := items[:0]
	removed := false
	for _, item := range items {
		if idOf(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return false, nil
	}

	if err := saveList(ctx, s.store, key, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Profile returns the stored player profile, or nil when none was scanned yet.
func (s *CollectionService) Profile(ctx context.Context) (*model.PlayerProfile, error) {
	data, err := s.store.Get(ctx, profileKey)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile model.PlayerProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// SetProfile replaces the stored player profile.
func (s *CollectionService) SetProfile(ctx context.Context, profile model.PlayerProfile) (*model.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.ID == "" {
		profile.ID = uid.New()
	}
	profile.LastUpdated = time.Now().UTC()

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize profile: %w", err)
	}
	if err := s.store.Set(ctx, profileKey, data); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return &profile, nil
}

// ApplyExtraction turns a successful extraction result into a stored
// entity. Returns the id of the stored record.
func (s *CollectionService) ApplyExtraction(ctx context.Context, result model.ExtractionResult) (string, error) {
	if !result.Succeeded {
		return "", fmt.Errorf("cannot apply a failed extraction")
	}

	payload, err := json.Marshal(result.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize extraction payload: %w", err)
	}

	switch result.Kind {
	case model.KindHero:
		var hero model.Hero
		if err := json.Unmarshal(payload, &hero); err != nil {
			return "", fmt.Errorf("extraction payload is not a hero: %w", err)
		}
		stored, err := s.UpsertHero(ctx, hero)
		if err != nil {
			return "", err
		}
		return stored.ID, nil

	case model.KindEquipment:
		var item model.EquipmentItem
		if err := json.Unmarshal(payload, &item); err != nil {
			return "", fmt.Errorf("extraction payload is not equipment: %w", err)
		}
		stored, err := s.UpsertEquipment(ctx, item)
		if err != nil {
			return "", err
		}
		return stored.ID, nil

	case model.KindBuilding:
		var building model.Building
		if err := json.Unmarshal(payload, &building); err != nil {
			return "", fmt.Errorf("extraction payload is not a building: %w", err)
		}
		stored, err := s.UpsertBuilding(ctx, building)
		if err != nil {
			return "", err
		}
		return stored.ID, nil

	case model.KindProfile:
		var profile model.PlayerProfile
		if err := json.Unmarshal(payload, &profile); err != nil {
			return "", fmt.Errorf("extraction payload is not a profile: %w", err)
		}
		stored, err := s.SetProfile(ctx, profile)
		if err != nil {
			return "", err
		}
		return stored.ID, nil

	default:
		return "", fmt.Errorf("cannot apply extraction of kind %q", result.Kind)
	}
}

// BuildContext renders the player-context block injected into Oracle
// prompts. French labels match the prompt language.
func (s *CollectionService) BuildContext(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("\n\n=== DONNÉES DU JOUEUR ===\n")

	if profile, err := s.Profile(ctx); err == nil && profile != nil {
		alliance := profile.Alliance
		if alliance == "" {
			alliance = "Aucune"
		}
		fmt.Fprintf(&b, "\nPROFIL:\n- Nom: %s\n- Niveau: %d\n- Puissance: %d\n- Civilisation: %s\n- Alliance: %s\n",
			profile.Name, profile.Level, profile.Power, profile.Civilization, alliance)
		fmt.Fprintf(&b, "\nRESSOURCES:\n- Bois: %d\n- Nourriture: %d\n- Pierre: %d\n- Or: %d\n",
			profile.Resources.Wood, profile.Resources.Food, profile.Resources.Stone, profile.Resources.Gold)
	}

	if heroes, err := s.Heroes(ctx); err == nil && len(heroes) > 0 {
		fmt.Fprintf(&b, "\nHÉROS (%d total):\n", len(heroes))
		for _, h := range heroes {
			fmt.Fprintf(&b, "- %s (Niv %d, %d★, %s, %s) Puissance: %d | Force: %d | Stratégie: %d",
				h.Name, h.Level, h.Stars, h.Role, h.Specialty, h.Power, h.Might, h.Strategy)
			if h.OptimizationStatus != "" {
				fmt.Fprintf(&b, " | Status: %s", h.OptimizationStatus)
			}
			if len(h.TalentIssues) > 0 {
				fmt.Fprintf(&b, " | Problèmes: %s", strings.Join(h.TalentIssues, ", "))
			}
			b.WriteString("\n")
		}
	}

	if equipment, err := s.Equipment(ctx); err == nil && len(equipment) > 0 {
		counts := map[string]int{}
		for _, e := range equipment {
			counts[e.Rarity]++
		}
		fmt.Fprintf(&b, "\nÉQUIPEMENT (%d total):\n", len(equipment))
		fmt.Fprintf(&b, "- Légendaire (Or): %d\n- Épique (Violet): %d\n- Rare (Bleu): %d\n- Commun (Vert): %d\n",
			counts["gold"], counts["purple"], counts["blue"], counts["green"])
	}

	if buildings, err := s.Buildings(ctx); err == nil && len(buildings) > 0 {
		fmt.Fprintf(&b, "\nBÂTIMENTS (%d total):\n", len(buildings))
		for _, building := range buildings {
			fmt.Fprintf(&b, "- %s: Niveau %d/%d", building.Name, building.Level, building.MaxLevel)
			if building.IsProduction && building.ProductionRate != nil {
				fmt.Fprintf(&b, " (Produit: %d/h %s)", building.ProductionRate.PerHour, building.ProductionRate.Resource)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Export bundles all scanned data into one backup document.
type Export struct {
	Profile    *model.PlayerProfile  `json:"player,omitempty"`
	Heroes     []model.Hero          `json:"heroes"`
	Equipment  []model.EquipmentItem `json:"equipment"`
	Buildings  []model.Building      `json:"buildings"`
	ExportDate time.Time             `json:"export_date"`
}

// ExportAll serializes all scanned data for backup.
func (s *CollectionService) ExportAll(ctx context.Context) (*Export, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	heroes, err := s.Heroes(ctx)
	if err != nil {
		return nil, err
	}
	equipment, err := s.Equipment(ctx)
	if err != nil {
		return nil, err
	}
	buildings, err := s.Buildings(ctx)
	if err != nil {
		return nil, err
	}

	if heroes == nil {
		heroes = []model.Hero{}
	}
	if equipment == nil {
		equipment = []model.EquipmentItem{}
	}
	if buildings == nil {
		buildings = []model.Building{}
	}

	return &Export{
		Profile:    profile,
		Heroes:     heroes,
		Equipment:  equipment,
		Buildings:  buildings,
		ExportDate: time.Now().UTC(),
	}, nil
}

// ImportAll restores a previously exported backup. Collections present in
// the backup replace the stored ones; absent collections are untouched.
func (s *CollectionService) ImportAll(ctx context.Context, data []byte) error {
	var backup Export
	if err := json.Unmarshal(data, &backup); err != nil {
		return fmt.Errorf("invalid backup: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if backup.Profile != nil {
		profileData, err := json.Marshal(backup.Profile)
		if err != nil {
			return err
		}
		if err := s.store.Set(ctx, profileKey, profileData); err != nil {
			return fmt.Errorf("failed to restore profile: %w", err)
		}
	}
	if backup.Heroes != nil {
		if err := saveList(ctx, s.store, heroesKey, backup.Heroes); err != nil {
			return err
		}
	}
	if backup.Equipment != nil {
		if err := saveList(ctx, s.store, equipmentKey, backup.Equipment); err != nil {
			return err
		}
	}
	if backup.Buildings != nil {
		if err := saveList(ctx, s.store, buildingsKey, backup.Buildings); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll removes every scanned entity.
func (s *CollectionService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{profileKey, heroesKey, equipmentKey, buildingsKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
