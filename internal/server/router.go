package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/api"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/api/handlers"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/api/middleware"
)

type RouterConfig struct {
	QueryHandler     *handlers.QueryHandler
	KnowledgeHandler *handlers.KnowledgeHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/ask", cfg.QueryHandler.Ask)
	r.Delete("/context/{userID}", cfg.QueryHandler.ClearContext)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", cfg.KnowledgeHandler.IngestDocument)
		r.Get("/", cfg.KnowledgeHandler.ListDocuments)
		r.Delete("/{source}", cfg.KnowledgeHandler.DeleteDocument)
	})

	r.Route("/faq", func(r chi.Router) {
		r.Post("/", cfg.KnowledgeHandler.AddFAQ)
		r.Delete("/{id}", cfg.KnowledgeHandler.DeleteFAQ)
	})

	r.Get("/related", cfg.KnowledgeHandler.RelatedQuestions)

	return r
}
