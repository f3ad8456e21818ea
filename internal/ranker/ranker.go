package ranker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/anatolykoptev/go_jobbot/internal/jobs"
)

// Ranker scores job text against a fixed resume. Construct once at startup;
// a broken embedding configuration is a startup failure, not something to
// retry at scoring time.
type Ranker struct {
	embedder Embedder
	cache    *embedCache
	model    string

	resume   string
	resumeKW map[string]bool // keyword fallback, always prepared
}

// Options configure New.
type Options struct {
	Resume   string // resume plain text, required
	Model    string // embedding model id, defaults to DefaultModel
	HFToken  string // empty → keyword fallback mode
	RedisURL string // empty → L1-only cache
	CacheTTL time.Duration
	CacheMax int
}

// New builds a Ranker. With an HF token the hosted embedding model is used;
// without one the ranker runs in keyword-overlap mode and logs it once.
func New(opts Options) (*Ranker, error) {
	if opts.Resume == "" {
		return nil, fmt.Errorf("ranker: resume text is empty")
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 7 * 24 * time.Hour
	}
	if opts.CacheMax <= 0 {
		opts.CacheMax = 1000
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	r := &Ranker{
		model:    model,
		resume:   opts.Resume,
		resumeKW: jobs.ExtractKeywords(opts.Resume),
	}

	if opts.HFToken == "" {
		slog.Warn("ranker: no HF token configured, using keyword overlap scoring")
		return r, nil
	}

	emb, err := NewHFEmbedder(model, opts.HFToken)
	if err != nil {
		return nil, err
	}
	r.embedder = emb
	r.cache = newEmbedCache(opts.RedisURL, opts.CacheTTL, opts.CacheMax)
	slog.Info("ranker: embedding model configured", slog.String("model", model))
	return r, nil
}

// newWithEmbedder wires a custom embedder; used by tests.
func newWithEmbedder(resume string, emb Embedder) *Ranker {
	return &Ranker{
		embedder: emb,
		cache:    newEmbedCache("", time.Hour, 100),
		model:    "test",
		resume:   resume,
		resumeKW: jobs.ExtractKeywords(resume),
	}
}

// Score returns a relevance score in [0,1] between the resume and jobText:
// cosine similarity of sentence embeddings, or keyword Jaccard overlap in
// fallback mode. Higher means more similar; there is no other invariant.
func (r *Ranker) Score(ctx context.Context, jobText string) (float64, error) {
	if r.embedder == nil {
		return jobs.KeywordScore(r.resumeKW, jobText), nil
	}

	resumeVec, err := r.embed(ctx, r.resume)
	if err != nil {
		return 0, fmt.Errorf("ranker: embed resume: %w", err)
	}
	jobVec, err := r.embed(ctx, jobText)
	if err != nil {
		return 0, fmt.Errorf("ranker: embed job: %w", err)
	}
	return Cosine(resumeVec, jobVec), nil
}

// CacheStats exposes embedding cache counters for /status reporting.
func (r *Ranker) CacheStats() (hits, misses int64) {
	if r.cache == nil {
		return 0, 0
	}
	return r.cache.stats()
}

// embed returns the cached vector for text, embedding on miss.
func (r *Ranker) embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(r.model, text)
	if vec, ok := r.cache.get(ctx, key); ok {
		return vec, nil
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	r.cache.set(ctx, key, vec)
	return vec, nil
}

// Cosine computes cosine similarity clamped to [0,1]. Embedding models can
// return slightly negative similarities for unrelated texts; the pipeline
// treats those as zero relevance.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
