package model

import "time"

// ChatMessage is one entry in the Oracle conversation history.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PromptFocus selects which system prompt the Oracle uses.
type PromptFocus string

const (
	FocusGeneral   PromptFocus = "general"
	FocusOCR       PromptFocus = "ocr"
	FocusHero      PromptFocus = "hero"
	FocusEquipment PromptFocus = "equipment"
	FocusBuilding  PromptFocus = "building"
	FocusTeam      PromptFocus = "team"
)

// ParsePromptFocus maps a request string to a known focus, defaulting to general.
func ParsePromptFocus(s string) PromptFocus {
	switch PromptFocus(s) {
	case FocusOCR, FocusHero, FocusEquipment, FocusBuilding, FocusTeam:
		return PromptFocus(s)
	default:
		return FocusGeneral
	}
}
