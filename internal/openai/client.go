package openai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultCompletionModel is the chat model used for answer generation
	DefaultCompletionModel = "gpt-4o-mini"

	relevanceDefault = 3.0
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions, expected 1536")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
	// ErrNoChoices is returned when a chat completion comes back empty
	ErrNoChoices = errors.New("no completion choices returned")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Completion holds the generated text together with per-token log
// probabilities, which feed the confidence estimate downstream.
type Completion struct {
	Text          string
	TokenLogProbs []float64
}

// Client wraps the OpenAI API client
type Client struct {
	api             EmbeddingAPI
	chat            ChatAPI
	dimensions      int
	completionModel string
	rerankModel     string
}

type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateChatCompletion proxies the chat call to the underlying client.
func (a *OpenAIAdapter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return a.client.CreateChatCompletion(ctx, req)
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	CompletionModel     string
	RerankModel         string
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	completionModel := cfg.CompletionModel
	if completionModel == "" {
		completionModel = DefaultCompletionModel
	}
	rerankModel := cfg.RerankModel
	if rerankModel == "" {
		rerankModel = completionModel
	}
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel)
	return &Client{
		api:             adapter,
		chat:            adapter,
		dimensions:      dimensions,
		completionModel: completionModel,
		rerankModel:     rerankModel,
	}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}
	if len(embedding) != expected {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// Complete generates an answer from a system and user prompt. Token log
// probabilities are requested so the caller can estimate confidence.
func (c *Client) Complete(ctx context.Context, system, user string) (*Completion, error) {
	if user == "" {
		return nil, ErrEmptyText
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.completionModel,
		Messages:    messages,
		Temperature: 0.7,
		LogProbs:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := resp.Choices[0]
	completion := &Completion{Text: choice.Message.Content}
	if choice.LogProbs != nil {
		for _, tok := range choice.LogProbs.Content {
			completion.TokenLogProbs = append(completion.TokenLogProbs, tok.LogProb)
		}
	}

	return completion, nil
}

// ScoreRelevance asks the model to rate how relevant a passage is to a
// query on a 1 to 5 scale. Transport errors are returned; an answer the
// model phrases in a way we cannot parse falls back to the neutral score.
func (c *Client) ScoreRelevance(ctx context.Context, query, passage string) (float64, error) {
	system := "Вы - система оценки релевантности текста. Ваша задача - оценить, " +
		"насколько фрагмент текста отвечает на заданный вопрос. Отвечайте только числом от 1 до 5."
	prompt := fmt.Sprintf(
		"Оцените релевантность следующего фрагмента текста для заданного вопроса по шкале от 1 до 5, "+
			"где 1 - совершенно не релевантен, 5 - полностью релевантен.\n\n"+
			"Вопрос: %s\n\nФрагмент текста:\n%s\n\nОценка (только число от 1 до 5):",
		query, passage,
	)

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.rerankModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   10,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to score relevance: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, ErrNoChoices
	}

	return parseRelevanceScore(resp.Choices[0].Message.Content), nil
}

// parseRelevanceScore extracts the numeric rating from the model reply.
// Unparseable replies score neutral rather than failing the query.
func parseRelevanceScore(reply string) float64 {
	fields := strings.Fields(strings.TrimSpace(reply))
	for _, field := range fields {
		field = strings.Trim(field, ".,!?:;")
		score, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		if score < 1 {
			return 1
		}
		if score > 5 {
			return 5
		}
		return score
	}

	log.Printf("rerank: could not parse relevance score from %q, using default", reply)
	return relevanceDefault
}
