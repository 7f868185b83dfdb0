package service

import (
	"context"
	"fmt"
	"log"

	"aoe-companion-api/internal/gateway"
	"aoe-companion-api/internal/model"
	"aoe-companion-api/internal/ocr"
)

// ScanService analyzes in-game screenshots: one gateway call, then the
// extraction strategy chain over the response text. A gateway failure is
// reported inside the result, never as an error, so the caller always has
// something displayable.
type ScanService struct {
	gateway    gateway.Client
	accounts   *AccountService
	collection *CollectionService

	defaultModel string
}

// NewScanService creates a scan service.
func NewScanService(gatewayClient gateway.Client, accounts *AccountService, collection *CollectionService, defaultModel string) *ScanService {
	if gatewayClient == nil {
		return nil
	}
	return &ScanService{
		gateway:      gatewayClient,
		accounts:     accounts,
		collection:   collection,
		defaultModel: defaultModel,
	}
}

// ocrPrompt builds the analysis prompt. Auto-detection asks the model to
// classify the screenshot itself and declare its confidence.
func ocrPrompt(expected model.EntityKind) string {
	if expected == model.KindAuto {
		return `Analyse cette capture d'écran d'Age of Empires Mobile. Détermine le type de contenu (héros, équipement, bâtiment, profil, inventaire) et extrais TOUTES les informations visibles. Réponds en JSON avec la structure:
{
  "type": "hero|equipment|building|profile|inventory",
  "confidence": 0.0-1.0,
  "data": { },
  "complete": true|false,
  "missingElements": ["liste des éléments non visibles si incomplet"]
}`
	}
	return fmt.Sprintf("Analyse cette capture d'écran d'Age of Empires Mobile contenant un %s. Extrais TOUTES les informations visibles. Réponds en JSON structuré.", expected)
}

// AnalyzeScreenshot sends the screenshot through the gateway and
// normalizes whatever comes back.
func (s *ScanService) AnalyzeScreenshot(ctx context.Context, imageBase64 string, expected model.EntityKind, requestedModel string) model.ExtractionResult {
	selectedModel := requestedModel
	if selectedModel == "" {
		selectedModel = s.defaultModel
	}

	var authToken string
	if s.accounts != nil {
		if active, err := s.accounts.Active(ctx); err == nil && active != nil {
			authToken = active.AuthToken
		}
	}

	response, err := s.gateway.Chat(ctx, gateway.ChatRequest{
		Prompt:      ocrPrompt(expected),
		ImageBase64: imageBase64,
		Model:       selectedModel,
		AuthToken:   authToken,
	})
	if err != nil {
		log.Printf("[ScanService] Gateway call failed: %v", err)
		return ocr.Failed(err.Error())
	}

	return ocr.Normalize(response, expected)
}

// AnalyzeAndApply analyzes the screenshot and, when the extraction
// succeeded with an applicable kind, stores the entity in the collection.
// The returned id is empty when nothing was stored.
func (s *ScanService) AnalyzeAndApply(ctx context.Context, imageBase64 string, expected model.EntityKind, requestedModel string) (model.ExtractionResult, string) {
	result := s.AnalyzeScreenshot(ctx, imageBase64, expected, requestedModel)
	if !result.Succeeded || s.collection == nil {
		return result, ""
	}

	switch result.Kind {
	case model.KindHero, model.KindEquipment, model.KindBuilding, model.KindProfile:
		id, err := s.collection.ApplyExtraction(ctx, result)
		if err != nil {
			log.Printf("[ScanService] Warning: could not apply extraction: %v", err)
			return result, ""
		}
		return result, id
	default:
		return result, ""
	}
}
