package ocr

import (
	"regexp"
	"strconv"
	"strings"

	"aoe-companion-api/internal/model"
)

// Labeled-value patterns for the keyword-scrape strategy. Screenshots are
// analyzed with French prompts, so both French and English labels appear
// in responses.
var (
	reName   = regexp.MustCompile(`(?i)(?:nom|name)\s*[:=]\s*([^\n,;]+)`)
	reLevel  = regexp.MustCompile(`(?i)(?:niveau|niv|level|lvl)\s*[:=]?\s*(\d+)`)
	rePower  = regexp.MustCompile(`(?i)(?:puissance|power)\s*[:=]\s*([\d\s.,]+)`)
	reStars  = regexp.MustCompile(`(?i)(?:étoiles|etoiles|stars?)\s*[:=]?\s*(\d+)`)
	reRarity = regexp.MustCompile(`(?i)(?:rareté|rarete|rarity)\s*[:=]\s*([^\n,;]+)`)
)

// Role keywords, French and English, mapped to canonical roles.
var roleKeywords = []struct {
	word string
	role model.HeroRole
}{
	{"marshal", model.RoleMarshal},
	{"maréchal", model.RoleMarshal},
	{"marechal", model.RoleMarshal},
	{"warrior", model.RoleWarrior},
	{"guerrier", model.RoleWarrior},
	{"tactician", model.RoleTactician},
	{"tacticien", model.RoleTactician},
}

// Kind keywords used to infer the entity kind when the caller asked for
// auto-detection.
var kindKeywords = []struct {
	word string
	kind model.EntityKind
}{
	{"héros", model.KindHero},
	{"hero", model.KindHero},
	{"équipement", model.KindEquipment},
	{"equipment", model.KindEquipment},
	{"bâtiment", model.KindBuilding},
	{"building", model.KindBuilding},
	{"profil", model.KindProfile},
	{"profile", model.KindProfile},
	{"inventaire", model.KindInventory},
	{"inventory", model.KindInventory},
}

// scrapeKeywords assembles a best-effort field mapping from labeled values
// in the raw text. It only applies when the expected kind is known or can
// be inferred from the text itself.
func scrapeKeywords(text string, expected model.EntityKind) (model.ExtractionResult, bool) {
	kind := expected
	if kind == model.KindAuto || kind == model.KindUnknown {
		kind = inferKind(text)
	}
	if kind == model.KindUnknown {
		return model.ExtractionResult{}, false
	}

	payload := make(map[string]any)

	if m := reName.FindStringSubmatch(text); m != nil {
		payload["name"] = strings.TrimSpace(m[1])
	}
	if m := reLevel.FindStringSubmatch(text); m != nil {
		if level, err := strconv.Atoi(m[1]); err == nil {
			payload["level"] = level
		}
	}
	if m := rePower.FindStringSubmatch(text); m != nil {
		if power, ok := parseNumber(m[1]); ok {
			payload["power"] = power
		}
	}
	if m := reStars.FindStringSubmatch(text); m != nil {
		if stars, err := strconv.Atoi(m[1]); err == nil {
			payload["stars"] = stars
		}
	}
	if m := reRarity.FindStringSubmatch(text); m != nil {
		payload["rarity"] = strings.ToLower(strings.TrimSpace(m[1]))
	}
	if role := findRole(text); role != "" {
		payload["role"] = string(role)
	}

	if len(payload) == 0 {
		return model.ExtractionResult{}, false
	}

	return model.ExtractionResult{
		Succeeded:  true,
		Kind:       kind,
		Payload:    payload,
		Confidence: confidenceKeywords,
	}, true
}

// inferKind guesses the entity kind from kind keywords in the text.
func inferKind(text string) model.EntityKind {
	lower := strings.ToLower(text)
	for _, kw := range kindKeywords {
		if strings.Contains(lower, kw.word) {
			return kw.kind
		}
	}
	return model.KindUnknown
}

// findRole returns the first hero role mentioned in the text.
func findRole(text string) model.HeroRole {
	lower := strings.ToLower(text)
	for _, kw := range roleKeywords {
		if strings.Contains(lower, kw.word) {
			return kw.role
		}
	}
	return ""
}

// parseNumber parses a number that may carry thousands separators
// ("1 234 567", "1,234,567", "1.234.567").
func parseNumber(s string) (int64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
