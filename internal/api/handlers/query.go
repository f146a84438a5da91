package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/api"
)

type QueryService interface {
	Answer(ctx context.Context, userID, question, language string) (string, float64)
	ClearContext(ctx context.Context, userID string) error
}

type QueryHandler struct {
	svc QueryService
}

func NewQueryHandler(svc QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type AskRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
	Language string `json:"language"`
}

type AskResponse struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		api.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, confidence := h.svc.Answer(r.Context(), req.UserID, req.Question, req.Language)

	api.Success(w, http.StatusOK, AskResponse{
		Answer:     answer,
		Confidence: confidence,
	})
}

func (h *QueryHandler) ClearContext(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.Error(w, http.StatusBadRequest, "user id is required")
		return
	}

	if err := h.svc.ClearContext(r.Context(), userID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
