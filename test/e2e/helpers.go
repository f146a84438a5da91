//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/api/handlers"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/cache"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/memory"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/openai"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/repository"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/server"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/service"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/storage"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/testutil"
)

const embeddingDims = 1536

// stubEmbedder produces deterministic bag-of-words embeddings so that
// cosine distance in the store reflects word overlap between texts.
type stubEmbedder struct{}

func (stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, embeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,!?:;")))
		vec[h.Sum32()%embeddingDims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// stubCompleter answers by echoing the question it was given, with fixed
// token logprobs.
type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, system, user string) (*openai.Completion, error) {
	return &openai.Completion{
		Text:          "Ответ на основе базы знаний: " + user,
		TokenLogProbs: []float64{-0.1, -0.2, -0.15},
	}, nil
}

// stubScorer rates a passage 5 when it shares a long word with the query
// and 1 otherwise.
type stubScorer struct{}

func (stubScorer) ScoreRelevance(ctx context.Context, query, passage string) (float64, error) {
	passageLower := strings.ToLower(passage)
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,!?")
		if len([]rune(word)) > 3 && strings.Contains(passageLower, word) {
			return 5, nil
		}
	}
	return 1, nil
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	S3Client   *storage.S3Client
	Redis      *miniredis.Miniredis
	Server     *httptest.Server
	HTTPClient *http.Client
}

// SetupE2EEnv starts the containers and an in-process server wired with
// deterministic stand-ins for the language-model backends.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-documents",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	mr := miniredis.RunT(t)
	contextClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	faqRepo := repository.NewFAQRepository(pool)

	embedder := stubEmbedder{}
	reranker := service.NewReranker(stubScorer{}, cache.NewLRUStore(100, time.Hour), service.RerankConfig{
		MinScore:  4.0,
		MaxChunks: 3,
	})
	retriever := service.NewRetriever(embedder, chunkRepo, reranker, service.RetrievalConfig{
		TopK:             3,
		InitialK:         10,
		RerankingEnabled: true,
	})

	mem := memory.New(contextClient, 10, 7*24*time.Hour)
	confidence, err := service.NewConfidenceEstimator(0.5)
	if err != nil {
		t.Fatalf("failed to create confidence estimator: %v", err)
	}

	querySvc := service.NewQueryService(retriever, stubCompleter{}, confidence, mem)
	knowledgeSvc := service.NewKnowledgeService(documentRepo, chunkRepo, faqRepo, embedder, s3Client, service.ChunkConfig{
		Size:    20,
		Overlap: 5,
	})

	router := server.NewRouter(server.RouterConfig{
		QueryHandler:     handlers.NewQueryHandler(querySvc),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledgeSvc),
	})

	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		S3Client:   s3Client,
		Redis:      mr,
		Server:     srv,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse is the decoded envelope returned by the server
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (e *E2ETestEnv) do(method, path string, body interface{}) (int, *APIResponse) {
	e.T.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reader)
	if err != nil {
		e.T.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response body: %v", err)
	}

	parsed := &APIResponse{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, parsed); err != nil {
			e.T.Fatalf("failed to decode response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, parsed
}

// Post sends a POST request and returns status and decoded envelope
func (e *E2ETestEnv) Post(path string, body interface{}) (int, *APIResponse) {
	return e.do(http.MethodPost, path, body)
}

// Get sends a GET request and returns status and decoded envelope
func (e *E2ETestEnv) Get(path string) (int, *APIResponse) {
	return e.do(http.MethodGet, path, nil)
}

// Delete sends a DELETE request and returns status and decoded envelope
func (e *E2ETestEnv) Delete(path string) (int, *APIResponse) {
	return e.do(http.MethodDelete, path, nil)
}

// MustUnmarshal decodes envelope data into out or fails the test
func (e *E2ETestEnv) MustUnmarshal(resp *APIResponse, out interface{}) {
	e.T.Helper()
	if err := json.Unmarshal(resp.Data, out); err != nil {
		e.T.Fatalf("failed to decode data %q: %v", resp.Data, err)
	}
}

// CountRows returns the row count of a table
func (e *E2ETestEnv) CountRows(table string) int {
	var count int
	if err := e.Pool.QueryRow(e.Ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		e.T.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return count
}
