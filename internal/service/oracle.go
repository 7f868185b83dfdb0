package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"aoe-companion-api/internal/gateway"
	"aoe-companion-api/internal/knowledge"
	"aoe-companion-api/internal/model"
	"aoe-companion-api/internal/repository"

	"aoe-companion-api/pkg/uid"
)

// historyKey is the document key holding the chat history.
const historyKey = "aoe:oracle_history"

// OracleService is the chat assistant. It grounds every answer on the
// bundled strategy document plus the player's scanned data, and keeps a
// bounded conversation history in the store.
type OracleService struct {
	gateway    gateway.Client
	accounts   *AccountService
	collection *CollectionService
	store      repository.Store

	defaultModel string
	historyLimit int
	mu           sync.Mutex
}

// NewOracleService creates the chat assistant service.
func NewOracleService(
	gatewayClient gateway.Client,
	accounts *AccountService,
	collection *CollectionService,
	store repository.Store,
	defaultModel string,
	historyLimit int,
) *OracleService {
	if gatewayClient == nil || store == nil {
		return nil
	}
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &OracleService{
		gateway:      gatewayClient,
		accounts:     accounts,
		collection:   collection,
		store:        store,
		defaultModel: defaultModel,
		historyLimit: historyLimit,
	}
}

// systemPrompt assembles the Oracle's system prompt for the given focus.
func (s *OracleService) systemPrompt(ctx context.Context, focus model.PromptFocus) string {
	base := fmt.Sprintf(`Tu es l'Oracle Stratégique, un Grand Stratège militaire vétéran d'Age of Empires Mobile.

RÈGLES STRICTES:
1. Tu dois UNIQUEMENT utiliser les informations du document stratégique fourni pour tes explications théoriques. N'invente rien.
2. Tu dois TOUJOURS croiser les informations du document avec la liste des héros/équipements que l'utilisateur possède.
3. Ton ton est direct, impératif et précis. Pas de blabla.
4. Tu proposes des ACTIONS CONCRÈTES basées sur ce que l'utilisateur possède réellement.

DOCUMENT STRATÉGIQUE:
%s%s`, knowledge.StrategyDocument(), s.userContext(ctx))

	switch focus {
	case model.FocusOCR:
		return base + `

TÂCHE SPÉCIALE - OCR/ANALYSE D'IMAGE:
Tu dois analyser la capture d'écran fournie et extraire TOUTES les informations visibles:
- Pour un héros: nom, niveau, étoiles, rôle, spécialité, stats, équipement visible, talents
- Pour l'équipement: nom, rareté (couleur), niveau, étoiles, stats, gemmes
- Pour un bâtiment: nom, niveau, coûts upgrade, temps, production si applicable
- Pour l'inventaire: liste COMPLÈTE de tous les items visibles

IMPORTANT: Si l'image ne montre pas TOUS les éléments (ex: inventaire tronqué), indique quels éléments manquent.

Réponds en JSON structuré avec le format approprié.`
	case model.FocusHero:
		return base + `

FOCUS HÉROS:
Analyse et conseille sur les héros. Vérifie:
- Configuration des talents (correct ou à réinitialiser?)
- Équipement optimal
- Synergies avec d'autres héros possédés
- Priorités d'investissement`
	case model.FocusEquipment:
		return base + `

FOCUS ÉQUIPEMENT:
Analyse l'équipement. Applique les règles:
- Épique 3★ > Légendaire 0★
- Vérifie les gemmes par rôle
- Propose des échanges optimaux entre héros`
	case model.FocusBuilding:
		return base + `

FOCUS BÂTIMENTS:
Analyse les bâtiments. Indique:
- Priorités d'upgrade
- Coûts et temps estimés
- Production actuelle vs potentielle`
	case model.FocusTeam:
		return base + `

FOCUS ÉQUIPES/SYNERGIES:
Crée des compositions optimales selon les règles:
- NE JAMAIS mélanger types d'unités
- 1 Maréchal + DPS/Tacticiens
- Vérifie les synergies documentées`
	default:
		return base
	}
}

func (s *OracleService) userContext(ctx context.Context) string {
	if s.collection == nil {
		return ""
	}
	return s.collection.BuildContext(ctx)
}

// resolveModel picks the model for a request: explicit choice wins,
// otherwise the configured default.
func (s *OracleService) resolveModel(requested string) string {
	if requested != "" {
		return requested
	}
	return s.defaultModel
}

// authToken returns the active account's gateway token, or "" when no
// account is linked. Gateway calls without a token are still attempted;
// the gateway decides whether to reject them.
func (s *OracleService) authToken(ctx context.Context) string {
	if s.accounts == nil {
		return ""
	}
	active, err := s.accounts.Active(ctx)
	if err != nil || active == nil {
		return ""
	}
	return active.AuthToken
}

// Chat sends one message to the Oracle and records both sides in history.
func (s *OracleService) Chat(ctx context.Context, message, imageBase64 string, focus model.PromptFocus, requestedModel string) (*model.ChatMessage, error) {
	selectedModel := s.resolveModel(requestedModel)

	prompt := fmt.Sprintf("%s\n\nUtilisateur: %s", s.systemPrompt(ctx, focus), message)

	response, err := s.gateway.Chat(ctx, gateway.ChatRequest{
		Prompt:      prompt,
		ImageBase64: imageBase64,
		Model:       selectedModel,
		AuthToken:   s.authToken(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("oracle chat failed: %w", err)
	}

	now := time.Now().UTC()
	userMsg := model.ChatMessage{
		ID:        uid.New(),
		Role:      "user",
		Content:   message,
		Timestamp: now,
	}
	assistantMsg := model.ChatMessage{
		ID:        uid.New(),
		Role:      "assistant",
		Content:   response,
		Model:     selectedModel,
		Timestamp: now,
	}

	if err := s.appendHistory(ctx, userMsg, assistantMsg); err != nil {
		// History is best-effort; the answer is still worth returning.
		log.Printf("[OracleService] Warning: failed to record history: %v", err)
	}

	return &assistantMsg, nil
}

// HeroAdvice asks for a full optimization review of one stored hero.
func (s *OracleService) HeroAdvice(ctx context.Context, heroID string) (*model.ChatMessage, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("no collection available")
	}
	heroes, err := s.collection.Heroes(ctx)
	if err != nil {
		return nil, err
	}

	var hero *model.Hero
	for i := range heroes {
		if heroes[i].ID == heroID {
			hero = &heroes[i]
			break
		}
	}
	if hero == nil {
		return nil, fmt.Errorf("hero %s not found", heroID)
	}

	message := fmt.Sprintf(`Analyse mon héros %s (Niveau %d, %d★).
Donne-moi:
1. Son état d'optimisation actuel
2. Les talents recommandés selon son rôle (%s)
3. L'équipement idéal pour lui
4. Les synergies avec mes autres héros
5. Actions prioritaires à faire MAINTENANT`, hero.Name, hero.Level, hero.Stars, hero.Role)

	return s.Chat(ctx, message, "", model.FocusHero, "")
}

// TeamSuggestion asks for the best possible team for the given mode
// (pvp, siege or harvest).
func (s *OracleService) TeamSuggestion(ctx context.Context, mode string) (*model.ChatMessage, error) {
	message := fmt.Sprintf(`Génère la MEILLEURE équipe %s possible avec mes héros actuels.
Inclus:
1. Le Commander (Chef)
2. Les 3 Lieutenants
3. L'explication de la synergie
4. Le pourcentage de victoire estimé
5. Les faiblesses de cette composition`, mode)

	return s.Chat(ctx, message, "", model.FocusTeam, "")
}

// UpgradePriorities asks for the five most urgent account-wide actions.
func (s *OracleService) UpgradePriorities(ctx context.Context) (*model.ChatMessage, error) {
	message := `Analyse mon compte complet et donne-moi mes 5 PRIORITÉS ABSOLUES maintenant:
1. Quel héros upgrader en premier?
2. Quel équipement améliorer?
3. Quel bâtiment construire?
4. Quelle ressource farmer?
5. Quelle erreur corriger immédiatement?`

	return s.Chat(ctx, message, "", model.FocusGeneral, "")
}

// History returns the stored conversation history, oldest first.
func (s *OracleService) History(ctx context.Context) ([]model.ChatMessage, error) {
	data, err := s.store.Get(ctx, historyKey)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var messages []model.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return messages, nil
}

// ClearHistory removes the stored conversation history.
func (s *OracleService) ClearHistory(ctx context.Context) error {
	return s.store.Delete(ctx, historyKey)
}

// appendHistory appends messages and trims the history to the limit.
func (s *OracleService) appendHistory(ctx context.Context, messages ...model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.History(ctx)
	if err != nil {
		return err
	}

	history = append(history, messages...)
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}
	return s.store.Set(ctx, historyKey, data)
}
