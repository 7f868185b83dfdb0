// Package ocr turns free-text AI responses into structured extraction
// results. Models answer with anything from clean JSON to JSON buried in
// prose, so extraction runs through increasingly lenient strategies until
// one produces structured data.
package ocr

import (
	"encoding/json"
	"strings"

	"aoe-companion-api/internal/model"
)

// Confidence defaults per strategy. A model-declared confidence inside the
// parsed JSON wins over these when present.
const (
	confidenceDirect   = 0.85
	confidenceFenced   = 0.8
	confidenceLoose    = 0.75
	confidenceKeywords = 0.6
	confidenceFallback = 0.5
)

// Normalize converts one AI response into an ExtractionResult. Strategies
// run in strict order; the first to produce a non-empty structured result
// wins. Malformed input never yields an error: parse failures fall through
// to the next strategy, and the final fallback always succeeds with the
// raw text as payload.
func Normalize(responseText string, expected model.EntityKind) model.ExtractionResult {
	trimmed := strings.TrimSpace(responseText)

	// Strategy 1: the whole response is JSON with a recognizable shape.
	if result, ok := parseJSON(trimmed, expected, confidenceDirect, true); ok {
		result.RawResponse = responseText
		return result
	}

	// Strategy 2: JSON inside a fenced code block.
	if block := extractFencedBlock(trimmed); block != "" {
		if result, ok := parseJSON(block, expected, confidenceFenced, false); ok {
			result.RawResponse = responseText
			return result
		}
	}

	// Strategy 3: first '{' through last '}' in the full text.
	if candidate := extractLooseObject(trimmed); candidate != "" {
		if result, ok := parseJSON(candidate, expected, confidenceLoose, false); ok {
			result.RawResponse = responseText
			return result
		}
	}

	// Strategy 4: labeled-value scrape against the raw text.
	if result, ok := scrapeKeywords(trimmed, expected); ok {
		result.RawResponse = responseText
		return result
	}

	// Fallback: keep the raw text so the caller always has something to show.
	kind := expected
	if kind == model.KindAuto {
		kind = model.KindUnknown
	}
	return model.ExtractionResult{
		Succeeded:   true,
		Kind:        kind,
		Payload:     map[string]any{"rawResponse": responseText},
		Confidence:  confidenceFallback,
		RawResponse: responseText,
	}
}

// Failed builds the result for a gateway transport failure. The normalizer
// itself never errors; this is for callers whose network call failed.
func Failed(errMsg string) model.ExtractionResult {
	return model.ExtractionResult{
		Succeeded:   false,
		Kind:        model.KindUnknown,
		Confidence:  0,
		RawResponse: errMsg,
	}
}

// parseJSON attempts to interpret candidate as the model's JSON answer.
// Returns false when the candidate is not JSON or parses to nothing usable.
// With requireShape set, the object must carry a type or data key.
func parseJSON(candidate string, expected model.EntityKind, defaultConfidence float64, requireShape bool) (model.ExtractionResult, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return model.ExtractionResult{}, false
	}
	if len(parsed) == 0 {
		return model.ExtractionResult{}, false
	}
	if requireShape {
		_, hasType := parsed["type"]
		_, hasData := parsed["data"]
		if !hasType && !hasData {
			return model.ExtractionResult{}, false
		}
	}

	kind := expected
	if declared, ok := parsed["type"].(string); ok && declared != "" {
		kind = model.ParseEntityKind(declared)
	}
	if kind == model.KindAuto {
		kind = model.KindUnknown
	}

	payload := parsed
	if data, ok := parsed["data"].(map[string]any); ok && len(data) > 0 {
		payload = data
	}

	confidence := defaultConfidence
	if declared, ok := parsed["confidence"].(float64); ok && declared > 0 && declared <= 1 {
		confidence = declared
	}

	result := model.ExtractionResult{
		Succeeded:  true,
		Kind:       kind,
		Payload:    payload,
		Confidence: confidence,
	}

	// The incomplete flag is only ever taken from an explicit marker, never inferred.
	if complete, ok := parsed["complete"].(bool); ok && !complete {
		result.Incomplete = true
		if missing, ok := parsed["missingElements"].([]any); ok {
			for _, m := range missing {
				if s, ok := m.(string); ok {
					result.MissingElements = append(result.MissingElements, s)
				}
			}
		}
	}

	return result, true
}

// extractFencedBlock returns the contents of the first fenced code block,
// or "" when the text contains no complete fence pair.
func extractFencedBlock(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return ""
	}

	// Skip the info string ("json", "JSON", ...) up to the first newline.
	rest := s[start+3:]
	newline := strings.Index(rest, "\n")
	if newline == -1 {
		return ""
	}
	rest = rest[newline+1:]

	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}

	return strings.TrimSpace(rest[:end])
}

// extractLooseObject returns the greedy first-'{' to last-'}' substring.
func extractLooseObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
