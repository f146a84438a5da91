package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) IngestDocument(ctx context.Context, doc *domain.Document) (int, error) {
	args := m.Called(ctx, doc)
	return args.Int(0), args.Error(1)
}

func (m *MockKnowledgeService) DeleteDocument(ctx context.Context, source string) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *MockKnowledgeService) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

func (m *MockKnowledgeService) AddFAQ(ctx context.Context, question string) (*domain.FAQEntry, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FAQEntry), args.Error(1)
}

func (m *MockKnowledgeService) DeleteFAQ(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockKnowledgeService) RelatedQuestions(ctx context.Context, query string, k int) []string {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func TestKnowledgeHandler_IngestDocument_Success(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("IngestDocument", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.Source == "handbook.md" && doc.Restricted
	})).Return(4, nil)

	body := `{"source":"handbook.md","content":"Правила внутреннего распорядка","restricted":true}`
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.IngestDocument(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data IngestDocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "handbook.md", resp.Data.Source)
	assert.Equal(t, 4, resp.Data.Chunks)
	mockSvc.AssertExpectations(t)
}

func TestKnowledgeHandler_IngestDocument_MissingSource(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	body := `{"content":"text"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.IngestDocument(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "source is required")
}

func TestKnowledgeHandler_IngestDocument_MissingContent(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	body := `{"source":"handbook.md"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.IngestDocument(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content is required")
}

func TestKnowledgeHandler_IngestDocument_ServiceError(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("IngestDocument", mock.Anything, mock.Anything).
		Return(0, domain.ErrEmbeddingProvider)

	body := `{"source":"handbook.md","content":"text"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.IngestDocument(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestKnowledgeHandler_DeleteDocument_Success(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("DeleteDocument", mock.Anything, "handbook.md").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/documents/handbook.md", nil)
	req = requestWithURLParam(req, "source", "handbook.md")
	w := httptest.NewRecorder()

	handler.DeleteDocument(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestKnowledgeHandler_DeleteDocument_NotFound(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("DeleteDocument", mock.Anything, "missing.md").
		Return(domain.ErrDocumentNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/documents/missing.md", nil)
	req = requestWithURLParam(req, "source", "missing.md")
	w := httptest.NewRecorder()

	handler.DeleteDocument(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKnowledgeHandler_ListDocuments(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	indexed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	docs := []*domain.Document{
		{Source: "handbook.md", Restricted: false, IndexedAt: &indexed, UpdatedAt: indexed},
		{Source: "policies.md", Restricted: true, NeedsIndex: true, UpdatedAt: indexed},
	}
	mockSvc.On("ListDocuments", mock.Anything).Return(docs, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()

	handler.ListDocuments(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DocumentListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "handbook.md", resp.Data.Items[0].Source)
	assert.Equal(t, "2025-06-01T12:00:00Z", resp.Data.Items[0].IndexedAt)
	assert.True(t, resp.Data.Items[1].Restricted)
	assert.Empty(t, resp.Data.Items[1].IndexedAt)
}

func TestKnowledgeHandler_AddFAQ_Success(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	entry := &domain.FAQEntry{ID: "faq-1", Question: "Как получить справку 2-НДФЛ?"}
	mockSvc.On("AddFAQ", mock.Anything, "Как получить справку 2-НДФЛ?").Return(entry, nil)

	body := `{"question":"Как получить справку 2-НДФЛ?"}`
	req := httptest.NewRequest(http.MethodPost, "/faq", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.AddFAQ(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data FAQResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "faq-1", resp.Data.ID)
	mockSvc.AssertExpectations(t)
}

func TestKnowledgeHandler_AddFAQ_MissingQuestion(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/faq", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()

	handler.AddFAQ(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "question is required")
}

func TestKnowledgeHandler_DeleteFAQ_NotFound(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("DeleteFAQ", mock.Anything, "faq-404").Return(domain.ErrFAQEntryNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/faq/faq-404", nil)
	req = requestWithURLParam(req, "id", "faq-404")
	w := httptest.NewRecorder()

	handler.DeleteFAQ(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKnowledgeHandler_RelatedQuestions(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("RelatedQuestions", mock.Anything, "отпуск", 5).
		Return([]string{"Как оформить отпуск?", "Сколько дней отпуска положено?"})

	req := httptest.NewRequest(http.MethodGet, "/related?q=%D0%BE%D1%82%D0%BF%D1%83%D1%81%D0%BA&k=5", nil)
	w := httptest.NewRecorder()

	handler.RelatedQuestions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data RelatedQuestionsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Questions, 2)
	mockSvc.AssertExpectations(t)
}

func TestKnowledgeHandler_RelatedQuestions_EmptyResult(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	mockSvc.On("RelatedQuestions", mock.Anything, "anything", 3).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/related?q=anything", nil)
	w := httptest.NewRecorder()

	handler.RelatedQuestions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"questions":[]`)
}

func TestKnowledgeHandler_RelatedQuestions_MissingQuery(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/related", nil)
	w := httptest.NewRecorder()

	handler.RelatedQuestions(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "q is required")
}
