package ocr

import (
	"testing"

	"aoe-companion-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDirectJSON(t *testing.T) {
	text := `{"type":"hero","data":{"name":"Attila","level":30,"stars":4},"confidence":0.95}`

	result := Normalize(text, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindHero, result.Kind)
	assert.Equal(t, "Attila", result.Payload["name"])
	assert.Equal(t, float64(30), result.Payload["level"])
	assert.Equal(t, 0.95, result.Confidence, "model-declared confidence wins over the default")
	assert.Equal(t, text, result.RawResponse)
}

func TestNormalizeDirectJSONDefaultConfidence(t *testing.T) {
	result := Normalize(`{"type":"hero","data":{"name":"Attila"}}`, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, 0.85, result.Confidence)
}

func TestNormalizeDirectJSONIgnoresOutOfRangeConfidence(t *testing.T) {
	result := Normalize(`{"type":"hero","data":{"name":"Attila"},"confidence":1.5}`, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, 0.85, result.Confidence)
}

func TestNormalizeFencedBlock(t *testing.T) {
	text := "Voici le résultat de l'analyse:\n```json\n{\"type\":\"equipment\",\"data\":{\"name\":\"Épée de Guerre\",\"rarity\":\"gold\"}}\n```\nBonne journée!"

	result := Normalize(text, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindEquipment, result.Kind)
	assert.Equal(t, "Épée de Guerre", result.Payload["name"])
	assert.Equal(t, 0.8, result.Confidence)
}

func TestNormalizeLooseObject(t *testing.T) {
	text := `The screenshot shows {"type":"building","data":{"name":"Hôtel de Ville","level":18}} as requested.`

	result := Normalize(text, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindBuilding, result.Kind)
	assert.Equal(t, float64(18), result.Payload["level"])
	assert.Equal(t, 0.75, result.Confidence)
}

func TestNormalizeBareObjectSkipsDirectStrategy(t *testing.T) {
	// No type or data key, so the strict first pass rejects it and the
	// loose first-brace to last-brace pass picks it up instead.
	result := Normalize(`{"name":"Attila","level":30}`, model.KindHero)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindHero, result.Kind)
	assert.Equal(t, "Attila", result.Payload["name"])
	assert.Equal(t, 0.75, result.Confidence)
}

func TestNormalizeKeywordScrape(t *testing.T) {
	result := Normalize("Nom: Attila, Niveau: 30\nPuissance: 1 234 567\nC'est un guerrier redoutable.", model.KindHero)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindHero, result.Kind)
	assert.Equal(t, "Attila", result.Payload["name"])
	assert.Equal(t, 30, result.Payload["level"])
	assert.Equal(t, int64(1234567), result.Payload["power"])
	assert.Equal(t, "warrior", result.Payload["role"])
	assert.Equal(t, 0.6, result.Confidence)
}

func TestNormalizeKeywordScrapeInfersKind(t *testing.T) {
	result := Normalize("Ce héros s'appelle:\nNom: Jeanne d'Arc\nNiveau: 25", model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindHero, result.Kind)
	assert.Equal(t, "Jeanne d'Arc", result.Payload["name"])
}

func TestNormalizeKeywordScrapeSkippedWithoutKind(t *testing.T) {
	// Labeled values but no way to tell what entity they describe, so
	// the scrape is skipped and the raw-text fallback applies.
	result := Normalize("Nom: Quelque Chose", model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindUnknown, result.Kind)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestNormalizeRawTextFallback(t *testing.T) {
	text := "Je ne peux pas lire cette image, elle est trop floue."

	result := Normalize(text, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindUnknown, result.Kind)
	assert.Equal(t, text, result.Payload["rawResponse"])
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, text, result.RawResponse)
}

func TestNormalizeFallbackKeepsExpectedKind(t *testing.T) {
	result := Normalize("rien d'utilisable ici", model.KindEquipment)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindEquipment, result.Kind)
}

func TestNormalizeIncompleteMarker(t *testing.T) {
	text := `{"type":"hero","data":{"name":"Attila"},"complete":false,"missingElements":["stats détaillées","talents"]}`

	result := Normalize(text, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.True(t, result.Incomplete)
	assert.Equal(t, []string{"stats détaillées", "talents"}, result.MissingElements)
}

func TestNormalizeCompleteTrueIsNotIncomplete(t *testing.T) {
	result := Normalize(`{"type":"hero","data":{"name":"Attila"},"complete":true}`, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.False(t, result.Incomplete)
	assert.Empty(t, result.MissingElements)
}

func TestNormalizeEmptyObjectFallsThrough(t *testing.T) {
	result := Normalize(`{}`, model.KindAuto)

	require.True(t, result.Succeeded)
	assert.Equal(t, model.KindUnknown, result.Kind)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestFailed(t *testing.T) {
	result := Failed("gateway returned status 503")

	assert.False(t, result.Succeeded)
	assert.Equal(t, model.KindUnknown, result.Kind)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, "gateway returned status 503", result.RawResponse)
}

func TestExtractFencedBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json info string", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"no info string", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "avant\n```json\n{\"a\":1}\n```\naprès", `{"a":1}`},
		{"unclosed fence", "```json\n{\"a\":1}", ""},
		{"no fence", `{"a":1}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractFencedBlock(tt.in))
		})
	}
}

func TestExtractLooseObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractLooseObject(`x {"a":1} y`))
	assert.Equal(t, "", extractLooseObject("no braces here"))
	assert.Equal(t, "", extractLooseObject("} backwards {"))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1 234 567", 1234567, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"42", 42, true},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
