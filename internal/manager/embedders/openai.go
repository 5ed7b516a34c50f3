package embedders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/docstone/ingest-go/pkg/util"

	"github.com/rs/zerolog"
)

var timeout = 30 * time.Second

// OpenAIEmbedder implements embedding against OpenAI's API or any
// OpenAI-compatible endpoint.
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	dimension  int
	batchSize  int
	httpClient *http.Client
	apiURL     string
	logger     zerolog.Logger
}

// OpenAIEmbeddingRequest represents the request structure for the OpenAI
// embeddings API.
type OpenAIEmbeddingRequest struct {
	Input          string `json:"input"`
	Model          string `json:"model"`
	EncodingFormat string `json:"encoding_format"`
}

// OpenAIEmbeddingResponse represents the response structure from the OpenAI
// embeddings API.
type OpenAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
		Object    string    `json:"object"`
	} `json:"data"`
	Model  string `json:"model"`
	Object string `json:"object"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(model string) (*OpenAIEmbedder, error) {
	return NewOpenAIEmbedderWithClient(model, nil, "")
}

// NewOpenAIEmbedderWithClient creates a new OpenAI embedder with a custom
// HTTP client and API URL.
func NewOpenAIEmbedderWithClient(model string, httpClient *http.Client, apiURL string) (*OpenAIEmbedder, error) {
	logger := util.NewLogger(zerolog.ErrorLevel)
	apiKey := os.Getenv("OPENAI_API_KEY")
	if strings.EqualFold(apiKey, "") {
		logger.Error().Msg("OPENAI_API_KEY env variable not set")
		return nil, ErrAPIKeyNotSet
	}

	// Dimension and batch bound depend on the model
	var dimension, batchSize int
	switch model {
	case "text-embedding-3-small":
		dimension = 1536
		batchSize = 32
	case "text-embedding-3-large":
		dimension = 3072
		batchSize = 16
	case "text-embedding-ada-002":
		dimension = 1536
		batchSize = 32
	default:
		logger.Error().Str("unsupported model", model).Err(ErrUnsupportedModel)
		return nil, ErrUnsupportedModel
	}

	// Use provided HTTP client or create default one
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	// Resolve the endpoint: explicit argument wins, then the env override
	// for OpenAI-compatible servers, then the official API.
	if apiURL == "" {
		apiURL = os.Getenv("OPENAI_BASE_URL")
	}
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/embeddings"
	}

	return &OpenAIEmbedder{
		apiKey:     apiKey,
		model:      model,
		dimension:  dimension,
		batchSize:  batchSize,
		httpClient: httpClient,
		apiURL:     apiURL,
		logger:     logger,
	}, nil
}

// Embed creates a vector embedding for the given content.
func (o *OpenAIEmbedder) Embed(ctx context.Context, content string) ([]float32, error) {
	if strings.EqualFold(content, "") {
		o.logger.Warn().Msg("content is empty")
		return nil, ErrContentEmpty
	}

	// Clean the content (remove newlines and extra spaces)
	cleanContent := strings.ReplaceAll(content, "\n", " ")
	cleanContent = strings.TrimSpace(cleanContent)

	request := OpenAIEmbeddingRequest{
		Input:          cleanContent,
		Model:          o.model,
		EncodingFormat: "float",
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		o.logger.Err(err).Msg("failed to marshal request")
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		o.apiURL,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		o.logger.Err(err).Msg("failed to create request")
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.apiKey))

	resp, err := o.httpClient.Do(req)
	if err != nil {
		o.logger.Err(err).Msg("failed to make request")
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			o.logger.Error().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		o.logger.Error().Int("status_code", resp.StatusCode).Msg("API request failed")
		return nil, ErrAPIRequestFailed
	}

	var response OpenAIEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		o.logger.Err(err).Msg("failed to decode response")
		return nil, err
	}

	if len(response.Data) == 0 {
		return nil, ErrNoEmbeddingData
	}

	o.logger.Debug().Str("model", o.model).Int("tokens_used", response.Usage.TotalTokens).Msg("Generated embedding")
	return response.Data[0].Embedding, nil
}

// ModelName returns the name of the embedding model.
func (o *OpenAIEmbedder) ModelName() string {
	return o.model
}

// Dimension returns the dimension of the embedding vectors.
func (o *OpenAIEmbedder) Dimension() int {
	return o.dimension
}

// MaxBatchSize returns how many chunks may be embedded concurrently against
// this provider.
func (o *OpenAIEmbedder) MaxBatchSize() int {
	return o.batchSize
}
