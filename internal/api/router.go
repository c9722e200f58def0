package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/smitebuilds/backend/internal/api/handlers"
	"github.com/smitebuilds/backend/internal/api/middleware"
	"github.com/smitebuilds/backend/internal/config"
	"github.com/smitebuilds/backend/internal/repository"
	"github.com/smitebuilds/backend/internal/service"
)

func NewRouter(services *service.Services, repos *repository.Repositories, cfg *config.Config) (http.Handler, error) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	buildHandler := handlers.NewBuildHandler(services.Ingest, repos.Build, repos.Metadata)
	optionsHandler := handlers.NewOptionsHandler(repos.Build, repos.Item, repos.Metadata)

	verifyIntegrity, err := middleware.VerifyIntegrity(cfg.HMACKeyHex)
	if err != nil {
		return nil, err
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/builds", buildHandler.Get)
		r.Get("/options", optionsHandler.Get)
		r.Get("/last_check", optionsHandler.LastCheck)

		// Updater routes: body integrity is verified against the shared key.
		r.Group(func(r chi.Router) {
			r.Use(verifyIntegrity)
			r.Post("/builds", buildHandler.Post)
			r.Post("/phases", optionsHandler.Phases)
		})
	})

	return r, nil
}
