// Package ranker scores job text against the candidate's resume. The primary
// path embeds both texts through a hosted sentence-embedding model and takes
// cosine similarity; without embedding credentials it degrades to keyword
// overlap scoring.
package ranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anatolykoptev/go_jobbot/internal/httpx"
)

const (
	hfInferenceBase = "https://api-inference.huggingface.co"

	// DefaultModel is a fast sentence-transformer: 384-dim vectors, good
	// semantic similarity quality on CPU-bound inference.
	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"
)

// Embedder turns a text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HFEmbedder calls the HuggingFace Inference API feature-extraction pipeline.
type HFEmbedder struct {
	baseURL string
	model   string
	token   string
	http    *http.Client
}

// NewHFEmbedder creates an embedder for the given model. Token is required;
// the inference API rejects anonymous feature-extraction calls.
func NewHFEmbedder(model, token string) (*HFEmbedder, error) {
	if token == "" {
		return nil, fmt.Errorf("hf embedder: token is required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &HFEmbedder{
		baseURL: hfInferenceBase,
		model:   model,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// hfRequest is the feature-extraction request body.
type hfRequest struct {
	Inputs  []string  `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Embed returns the model's sentence vector for text. Cold models are waited
// for server-side; 429/5xx responses retry with backoff.
func (e *HFEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:  []string{text},
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("hf embed: marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/pipeline/feature-extraction/%s", e.baseURL, e.model)

	resp, err := httpx.RetryHTTP(ctx, httpx.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+e.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", httpx.UserAgentBot)
		return e.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("hf embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("hf embed: status %d: %s", resp.StatusCode, string(b))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("hf embed: decode: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("hf embed: empty vector for model %s", e.model)
	}
	return vectors[0], nil
}
