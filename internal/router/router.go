package router

import (
	"net/http"

	"aoe-companion-api/internal/handler"
	"aoe-companion-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler           *handler.Handler
	AccountHandler    *handler.AccountHandler
	ScanHandler       *handler.ScanHandler
	CollectionHandler *handler.CollectionHandler
	OracleHandler     *handler.OracleHandler
	DataHandler       *handler.DataHandler
	AuthMiddleware    func(http.Handler) http.Handler
	ReadyChecks       []handler.ReadyCheckFunc
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready(cfg.ReadyChecks...))
			}

			if cfg.AccountHandler != nil {
				r.Route("/accounts", func(r chi.Router) {
					r.Get("/", cfg.AccountHandler.List)
					r.Post("/", cfg.AccountHandler.Add)
					r.Get("/export", cfg.AccountHandler.Export)
					r.Post("/import", cfg.AccountHandler.Import)
					r.Get("/active/info", cfg.AccountHandler.ActiveInfo)
					r.Post("/{id}/activate", cfg.AccountHandler.Activate)
					r.Post("/{id}/refresh", cfg.AccountHandler.Refresh)
					r.Put("/{id}/tokens", cfg.AccountHandler.UpdateTokens)
					r.Delete("/{id}", cfg.AccountHandler.Remove)
				})
			}

			if cfg.ScanHandler != nil {
				r.Post("/scan", cfg.ScanHandler.Scan)
			}

			if cfg.CollectionHandler != nil {
				r.Route("/heroes", func(r chi.Router) {
					r.Get("/", cfg.CollectionHandler.ListHeroes)
					r.Post("/", cfg.CollectionHandler.UpsertHero)
					r.Delete("/{id}", cfg.CollectionHandler.DeleteHero)
				})
				r.Route("/equipment", func(r chi.Router) {
					r.Get("/", cfg.CollectionHandler.ListEquipment)
					r.Post("/", cfg.CollectionHandler.UpsertEquipment)
					r.Delete("/{id}", cfg.CollectionHandler.DeleteEquipment)
				})
				r.Route("/buildings", func(r chi.Router) {
					r.Get("/", cfg.CollectionHandler.ListBuildings)
					r.Post("/", cfg.CollectionHandler.UpsertBuilding)
					r.Delete("/{id}", cfg.CollectionHandler.DeleteBuilding)
				})
				r.Get("/profile", cfg.CollectionHandler.GetProfile)
				r.Put("/profile", cfg.CollectionHandler.SetProfile)
			}

			if cfg.OracleHandler != nil {
				r.Route("/oracle", func(r chi.Router) {
					r.Post("/chat", cfg.OracleHandler.Chat)
					r.Post("/hero-advice/{id}", cfg.OracleHandler.HeroAdvice)
					r.Post("/team-suggestion", cfg.OracleHandler.TeamSuggestion)
					r.Post("/priorities", cfg.OracleHandler.Priorities)
					r.Get("/history", cfg.OracleHandler.History)
					r.Delete("/history", cfg.OracleHandler.ClearHistory)
				})
			}

			if cfg.DataHandler != nil {
				r.Route("/data", func(r chi.Router) {
					r.Get("/export", cfg.DataHandler.Export)
					r.Post("/import", cfg.DataHandler.Import)
					r.Delete("/", cfg.DataHandler.Clear)
				})
			}
		})
	})

	return r
}
