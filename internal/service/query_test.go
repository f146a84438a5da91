package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/openai"
)

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string) ([]*domain.ScoredPassage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScoredPassage), args.Error(1)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, system, user string) (*openai.Completion, error) {
	args := m.Called(ctx, system, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openai.Completion), args.Error(1)
}

// fakeMemory records saved turns and serves a preset history.
type fakeMemory struct {
	turns   []domain.ConversationTurn
	saved   []domain.ConversationTurn
	cleared []string
}

func (f *fakeMemory) Get(_ context.Context, _ string) []domain.ConversationTurn {
	return f.turns
}

func (f *fakeMemory) Save(_ context.Context, _ string, role domain.Role, content string) error {
	f.saved = append(f.saved, domain.ConversationTurn{Role: role, Content: content})
	return nil
}

func (f *fakeMemory) Clear(_ context.Context, userID string) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

func newQueryFixture(t *testing.T, mem *fakeMemory) (*QueryService, *MockRetriever, *MockCompleter) {
	t.Helper()
	retriever := new(MockRetriever)
	completer := new(MockCompleter)
	estimator, err := NewConfidenceEstimator(0.5)
	require.NoError(t, err)
	return NewQueryService(retriever, completer, estimator, mem), retriever, completer
}

func TestQueryService_Answer(t *testing.T) {
	mem := &fakeMemory{}
	svc, retriever, completer := newQueryFixture(t, mem)

	ctx := context.Background()
	passages := scoredPassages(5, 4)
	retriever.On("Retrieve", ctx, "Как оформить отпуск?").Return(passages, nil)
	completer.On("Complete", ctx, mock.AnythingOfType("string"), "Как оформить отпуск?").Return(&openai.Completion{
		Text:          "Отпуск оформляется через портал.",
		TokenLogProbs: []float64{-0.1, -0.2},
	}, nil)

	answer, confidence := svc.Answer(ctx, "42", "Как оформить отпуск?", "ru")

	assert.Equal(t, "Отпуск оформляется через портал.", answer)
	assert.Greater(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)

	// Both turns land in history, in order.
	require.Len(t, mem.saved, 2)
	assert.Equal(t, domain.RoleUser, mem.saved[0].Role)
	assert.Equal(t, "Как оформить отпуск?", mem.saved[0].Content)
	assert.Equal(t, domain.RoleAssistant, mem.saved[1].Role)
}

func TestQueryService_Answer_GroundingPromptCarriesPassages(t *testing.T) {
	mem := &fakeMemory{}
	svc, retriever, completer := newQueryFixture(t, mem)

	ctx := context.Background()
	passages := []*domain.ScoredPassage{{
		Passage: &domain.RetrievedPassage{
			Content:  "Отпуск согласует руководитель.",
			Metadata: domain.PassageMetadata{Source: "hr-policy.md"},
		},
		RelevanceScore: 5,
		Scored:         true,
	}}
	retriever.On("Retrieve", ctx, "вопрос").Return(passages, nil)
	completer.On("Complete", ctx, mock.MatchedBy(func(system string) bool {
		return strings.Contains(system, "hr-policy.md") &&
			strings.Contains(system, "Отпуск согласует руководитель.") &&
			strings.Contains(system, "Контекст")
	}), "вопрос").Return(&openai.Completion{Text: "Ответ."}, nil)

	answer, _ := svc.Answer(ctx, "42", "вопрос", "ru")

	assert.Equal(t, "Ответ.", answer)
	completer.AssertExpectations(t)
}

func TestQueryService_Answer_FollowupUsesReformulatedQuery(t *testing.T) {
	mem := &fakeMemory{turns: []domain.ConversationTurn{
		{Role: domain.RoleUser, Content: "Как оформить отпуск?"},
		{Role: domain.RoleAssistant, Content: "Через портал."},
	}}
	svc, retriever, completer := newQueryFixture(t, mem)

	ctx := context.Background()
	retriever.On("Retrieve", ctx, mock.MatchedBy(func(query string) bool {
		// Reformulation folds the prior exchange into the query.
		return strings.Contains(query, "Как оформить отпуск?") && strings.Contains(query, "А сколько дней?")
	})).Return(scoredPassages(5), nil)
	completer.On("Complete", ctx, mock.Anything, mock.Anything).
		Return(&openai.Completion{Text: "28 дней."}, nil)

	answer, _ := svc.Answer(ctx, "42", "А сколько дней?", "ru")

	assert.Equal(t, "28 дней.", answer)
	// History keeps the question as asked, not the reformulation.
	require.NotEmpty(t, mem.saved)
	assert.Equal(t, "А сколько дней?", mem.saved[0].Content)
	retriever.AssertExpectations(t)
}

func TestQueryService_Answer_EmptyQuestion(t *testing.T) {
	mem := &fakeMemory{}
	svc, _, _ := newQueryFixture(t, mem)

	answer, confidence := svc.Answer(context.Background(), "42", "   ", "ru")

	assert.Equal(t, apologyRU, answer)
	assert.Zero(t, confidence)
}

func TestQueryService_Answer_RetrievalFailureApologizes(t *testing.T) {
	mem := &fakeMemory{}
	svc, retriever, _ := newQueryFixture(t, mem)

	ctx := context.Background()
	retriever.On("Retrieve", ctx, mock.Anything).Return(nil, errors.New("db down"))

	answer, confidence := svc.Answer(ctx, "42", "вопрос", "ru")

	assert.Equal(t, apologyRU, answer)
	assert.Zero(t, confidence)
	assert.Empty(t, mem.saved)
}

func TestQueryService_Answer_CompletionFailureApologizesInEnglish(t *testing.T) {
	mem := &fakeMemory{}
	svc, retriever, completer := newQueryFixture(t, mem)

	ctx := context.Background()
	retriever.On("Retrieve", ctx, mock.Anything).Return(scoredPassages(5), nil)
	completer.On("Complete", ctx, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))

	answer, confidence := svc.Answer(ctx, "42", "question", "en")

	assert.Equal(t, apologyEN, answer)
	assert.Zero(t, confidence)
}

func TestQueryService_Answer_NoPassagesFallsBackToBaseline(t *testing.T) {
	mem := &fakeMemory{}
	svc, retriever, completer := newQueryFixture(t, mem)

	ctx := context.Background()
	retriever.On("Retrieve", ctx, mock.Anything).Return([]*domain.ScoredPassage{}, nil)
	completer.On("Complete", ctx, mock.MatchedBy(func(system string) bool {
		return strings.Contains(system, "Контекст отсутствует")
	}), mock.Anything).Return(&openai.Completion{Text: offTopicRU}, nil)

	answer, confidence := svc.Answer(ctx, "42", "Какой рецепт борща?", "ru")

	assert.Equal(t, offTopicRU, answer)
	// No logprobs and no scored passages: the baseline applies.
	assert.Equal(t, 0.5, confidence)
}

func TestQueryService_ClearContext(t *testing.T) {
	mem := &fakeMemory{}
	svc, _, _ := newQueryFixture(t, mem)

	require.NoError(t, svc.ClearContext(context.Background(), "42"))
	assert.Equal(t, []string{"42"}, mem.cleared)
}
