package embedders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestNewOpenAIEmbedder(t *testing.T) {
	// Save original env vars
	originalAPIKey := os.Getenv("OPENAI_API_KEY")
	originalBaseURL := os.Getenv("OPENAI_BASE_URL")
	defer func() {
		os.Setenv("OPENAI_API_KEY", originalAPIKey)
		os.Setenv("OPENAI_BASE_URL", originalBaseURL)
	}()
	os.Unsetenv("OPENAI_BASE_URL")

	tests := []struct {
		name        string
		model       string
		apiKey      string
		expectError bool
		expectedDim int
		description string
	}{
		{
			name:        "valid text-embedding-3-small",
			model:       "text-embedding-3-small",
			apiKey:      "test-api-key",
			expectError: false,
			expectedDim: 1536,
			description: "should create embedder for text-embedding-3-small",
		},
		{
			name:        "valid text-embedding-3-large",
			model:       "text-embedding-3-large",
			apiKey:      "test-api-key",
			expectError: false,
			expectedDim: 3072,
			description: "should create embedder for text-embedding-3-large",
		},
		{
			name:        "valid text-embedding-ada-002",
			model:       "text-embedding-ada-002",
			apiKey:      "test-api-key",
			expectError: false,
			expectedDim: 1536,
			description: "should create embedder for text-embedding-ada-002",
		},
		{
			name:        "unsupported model",
			model:       "unsupported-model",
			apiKey:      "test-api-key",
			expectError: true,
			description: "should return error for unsupported model",
		},
		{
			name:        "missing api key",
			model:       "text-embedding-3-small",
			apiKey:      "",
			expectError: true,
			description: "should return error when API key is missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("OPENAI_API_KEY", tt.apiKey)

			embedder, err := NewOpenAIEmbedder(tt.model)

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none for test: %s", tt.description)
				return
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error for test %s: %v", tt.description, err)
				return
			}
			if tt.expectError {
				return
			}

			if embedder.ModelName() != tt.model {
				t.Errorf("Expected model %s, got %s for test: %s", tt.model, embedder.ModelName(), tt.description)
			}
			if embedder.Dimension() != tt.expectedDim {
				t.Errorf("Expected dimension %d, got %d for test: %s", tt.expectedDim, embedder.Dimension(), tt.description)
			}
			if embedder.MaxBatchSize() <= 0 {
				t.Errorf("Expected positive batch size for test: %s", tt.description)
			}
		})
	}
}

// newEmbeddingServer returns a test server that answers every request with a
// fixed-dimension embedding, after passing it through the given middleware.
func newEmbeddingServer(t *testing.T, dimension int, middleware func(w http.ResponseWriter, r *http.Request) bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware != nil && !middleware(w, r) {
			return
		}

		var req OpenAIEmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("server failed to decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := OpenAIEmbeddingResponse{Model: req.Model}
		resp.Data = append(resp.Data, struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
			Object    string    `json:"object"`
		}{
			Embedding: make([]float32, dimension),
			Object:    "embedding",
		})
		for i := range resp.Data[0].Embedding {
			resp.Data[0].Embedding[i] = float32(i%7) * 0.1
		}
		resp.Usage.TotalTokens = len(req.Input)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("server failed to encode response: %v", err)
		}
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	originalAPIKey := os.Getenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", originalAPIKey)
	os.Setenv("OPENAI_API_KEY", "test-api-key")

	server := newEmbeddingServer(t, 1536, func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer test-api-key" {
			t.Errorf("missing or wrong Authorization header: %q", r.Header.Get("Authorization"))
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		return true
	})
	defer server.Close()

	embedder, err := NewOpenAIEmbedderWithClient("text-embedding-3-small", server.Client(), server.URL)
	if err != nil {
		t.Fatalf("Failed to create embedder: %v", err)
	}

	tests := []struct {
		name        string
		content     string
		expectError bool
		description string
	}{
		{
			name:        "valid content",
			content:     "This is a test document for embedding generation.",
			expectError: false,
			description: "should generate embedding for valid content",
		},
		{
			name:        "empty content",
			content:     "",
			expectError: true,
			description: "should return error for empty content",
		},
		{
			name:        "unicode content",
			content:     "这是一个测试文档 🚀 with émojis and spéciál characters.",
			expectError: false,
			description: "should handle unicode content",
		},
		{
			name:        "multiline content",
			content:     "# Title\n\nBody paragraph one.\n\nBody paragraph two.",
			expectError: false,
			description: "should flatten newlines before sending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedding, err := embedder.Embed(context.Background(), tt.content)

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none for test: %s", tt.description)
				return
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error for test %s: %v", tt.description, err)
				return
			}
			if tt.expectError {
				return
			}

			if len(embedding) != embedder.Dimension() {
				t.Errorf("Expected embedding dimension %d, got %d for test: %s",
					embedder.Dimension(), len(embedding), tt.description)
			}
		})
	}
}

func TestOpenAIEmbedder_Embed_ServerErrors(t *testing.T) {
	originalAPIKey := os.Getenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", originalAPIKey)
	os.Setenv("OPENAI_API_KEY", "test-api-key")

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		expectedErr error
		description string
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			expectedErr: ErrAPIRequestFailed,
			description: "non-200 status should map to ErrAPIRequestFailed",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectedErr: ErrAPIRequestFailed,
			description: "500 status should map to ErrAPIRequestFailed",
		},
		{
			name: "empty data array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"data":[],"model":"text-embedding-3-small","object":"list"}`))
			},
			expectedErr: ErrNoEmbeddingData,
			description: "missing embedding data should map to ErrNoEmbeddingData",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			embedder, err := NewOpenAIEmbedderWithClient("text-embedding-3-small", server.Client(), server.URL)
			if err != nil {
				t.Fatalf("Failed to create embedder: %v", err)
			}

			_, err = embedder.Embed(context.Background(), "test content")
			if err != tt.expectedErr {
				t.Errorf("Expected %v, got %v for test: %s", tt.expectedErr, err, tt.description)
			}
		})
	}
}

func TestOpenAIEmbedder_ContextCancellation(t *testing.T) {
	originalAPIKey := os.Getenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", originalAPIKey)
	os.Setenv("OPENAI_API_KEY", "test-api-key")

	server := newEmbeddingServer(t, 1536, nil)
	defer server.Close()

	embedder, err := NewOpenAIEmbedderWithClient("text-embedding-3-small", server.Client(), server.URL)
	if err != nil {
		t.Fatalf("Failed to create embedder: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err = embedder.Embed(ctx, "test content")
	if err == nil {
		t.Error("Expected error due to cancelled context but got none")
	}
}
