package ranker

import (
	"context"
	"math"
	"testing"
)

// fakeEmbedder returns canned vectors and counts calls.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestCosine(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{0.3, 0.5, 0.8}
		if sim := Cosine(v, v); math.Abs(sim-1) > 1e-6 {
			t.Errorf("Cosine(v,v) = %v, want 1", sim)
		}
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		if sim := Cosine([]float32{1, 0}, []float32{0, 1}); sim != 0 {
			t.Errorf("orthogonal similarity = %v, want 0", sim)
		}
	})

	t.Run("opposite vectors clamp to zero", func(t *testing.T) {
		if sim := Cosine([]float32{1, 0}, []float32{-1, 0}); sim != 0 {
			t.Errorf("opposite similarity = %v, want 0", sim)
		}
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		if sim := Cosine([]float32{1, 0}, []float32{1}); sim != 0 {
			t.Errorf("mismatched lengths = %v, want 0", sim)
		}
	})
}

func TestScore_EmbedsResumeOnce(t *testing.T) {
	fake := &fakeEmbedder{vectors: map[string][]float32{
		"my resume": {1, 0, 0},
		"job one":   {1, 0, 0},
		"job two":   {0, 1, 0},
	}}
	r := newWithEmbedder("my resume", fake)
	ctx := context.Background()

	s1, err := r.Score(ctx, "job one")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if math.Abs(s1-1) > 1e-6 {
		t.Errorf("identical embedding scored %v, want 1", s1)
	}

	s2, err := r.Score(ctx, "job two")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if s2 != 0 {
		t.Errorf("orthogonal embedding scored %v, want 0", s2)
	}

	// resume + job one + job two: three embeds total, resume cached after
	// the first call.
	if fake.calls != 3 {
		t.Errorf("embedder called %d times, want 3", fake.calls)
	}

	hits, _ := r.CacheStats()
	if hits == 0 {
		t.Error("expected at least one cache hit for the resume vector")
	}
}

func TestScore_KeywordFallback(t *testing.T) {
	r, err := New(Options{Resume: "retail assistant customer service tills"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	score, err := r.Score(context.Background(), "retail assistant for customer service")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score <= 0 || score > 1 {
		t.Errorf("fallback score %v out of (0,1]", score)
	}
}

func TestNew_EmptyResume(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error for empty resume")
	}
}

func TestNewHFEmbedder_RequiresToken(t *testing.T) {
	if _, err := NewHFEmbedder(DefaultModel, ""); err == nil {
		t.Error("expected error for missing token")
	}
}
