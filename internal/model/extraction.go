package model

// EntityKind is the category of game object an extraction targets.
type EntityKind string

const (
	KindHero      EntityKind = "hero"
	KindEquipment EntityKind = "equipment"
	KindBuilding  EntityKind = "building"
	KindProfile   EntityKind = "profile"
	KindInventory EntityKind = "inventory"
	KindUnknown   EntityKind = "unknown"

	// KindAuto asks the model to detect the entity kind itself.
	KindAuto EntityKind = "auto"
)

// ParseEntityKind maps a request string to a known entity kind.
// Unrecognized values fall back to auto-detection.
func ParseEntityKind(s string) EntityKind {
	switch EntityKind(s) {
	case KindHero, KindEquipment, KindBuilding, KindProfile, KindInventory, KindUnknown:
		return EntityKind(s)
	default:
		return KindAuto
	}
}

// ExtractionResult is the structured outcome of interpreting one AI
// response as game-entity data. It is consumed immediately by the caller
// and never persisted.
type ExtractionResult struct {
	Succeeded       bool           `json:"success"`
	Kind            EntityKind     `json:"type"`
	Payload         map[string]any `json:"data"`
	Confidence      float64        `json:"confidence"`
	RawResponse     string         `json:"raw_text,omitempty"`
	Incomplete      bool           `json:"needs_more_screenshots,omitempty"`
	MissingElements []string       `json:"missing_elements,omitempty"`
}
