package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/api"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

type KnowledgeService interface {
	IngestDocument(ctx context.Context, doc *domain.Document) (int, error)
	DeleteDocument(ctx context.Context, source string) error
	ListDocuments(ctx context.Context) ([]*domain.Document, error)
	AddFAQ(ctx context.Context, question string) (*domain.FAQEntry, error)
	DeleteFAQ(ctx context.Context, id string) error
	RelatedQuestions(ctx context.Context, query string, k int) []string
}

type KnowledgeHandler struct {
	svc KnowledgeService
}

func NewKnowledgeHandler(svc KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

type IngestDocumentRequest struct {
	Source     string `json:"source"`
	Content    string `json:"content"`
	Restricted bool   `json:"restricted"`
}

type IngestDocumentResponse struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

type DocumentResponse struct {
	Source     string `json:"source"`
	Restricted bool   `json:"restricted"`
	NeedsIndex bool   `json:"needs_index"`
	IndexedAt  string `json:"indexed_at,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	resp := &DocumentResponse{
		Source:     d.Source,
		Restricted: d.Restricted,
		NeedsIndex: d.NeedsIndex,
		UpdatedAt:  d.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if d.IndexedAt != nil {
		resp.IndexedAt = d.IndexedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

func (h *KnowledgeHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Source == "" {
		api.Error(w, http.StatusBadRequest, "source is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	doc := &domain.Document{
		Source:     req.Source,
		Content:    req.Content,
		Restricted: req.Restricted,
	}

	chunks, err := h.svc.IngestDocument(r.Context(), doc)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, IngestDocumentResponse{
		Source: doc.Source,
		Chunks: chunks,
	})
}

func (h *KnowledgeHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if source == "" {
		api.Error(w, http.StatusBadRequest, "source is required")
		return
	}

	if err := h.svc.DeleteDocument(r.Context(), source); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

type DocumentListResponse struct {
	Items []*DocumentResponse `json:"items"`
}

func (h *KnowledgeHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, documentToResponse(d))
	}

	api.Success(w, http.StatusOK, DocumentListResponse{Items: items})
}

type AddFAQRequest struct {
	Question string `json:"question"`
}

type FAQResponse struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

func (h *KnowledgeHandler) AddFAQ(w http.ResponseWriter, r *http.Request) {
	var req AddFAQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	entry, err := h.svc.AddFAQ(r.Context(), req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, FAQResponse{
		ID:       entry.ID,
		Question: entry.Question,
	})
}

func (h *KnowledgeHandler) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.DeleteFAQ(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

type RelatedQuestionsResponse struct {
	Questions []string `json:"questions"`
}

func (h *KnowledgeHandler) RelatedQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		api.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	k := 3
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		if parsed, err := strconv.Atoi(kStr); err == nil && parsed > 0 {
			k = parsed
		}
	}

	questions := h.svc.RelatedQuestions(r.Context(), query, k)
	if questions == nil {
		questions = []string{}
	}

	api.Success(w, http.StatusOK, RelatedQuestionsResponse{Questions: questions})
}
