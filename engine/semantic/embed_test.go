package semantic

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := HashEmbedder{Dims: 32}
	vecs, err := e.Embed(context.Background(), []string{"Hi there.", "hi THERE!", "Something else."})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 || len(vecs[0]) != 32 {
		t.Fatalf("unexpected shape %d x %d", len(vecs), len(vecs[0]))
	}
	for i := range vecs[0] {
		if vecs[0][i] != vecs[1][i] {
			t.Fatal("case and trailing punctuation should not change the vector")
		}
	}
}

func TestHashEmbedderNormalized(t *testing.T) {
	vecs, _ := HashEmbedder{}.Embed(context.Background(), []string{"one two three four."})
	if len(vecs[0]) != DefaultHashDims {
		t.Fatalf("dims = %d", len(vecs[0]))
	}
	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Fatalf("norm^2 = %f, want 1", sum)
	}
}

func TestHashEmbedderPunctuationOnly(t *testing.T) {
	vecs, _ := HashEmbedder{Dims: 8}.Embed(context.Background(), []string{"...!"})
	for _, x := range vecs[0] {
		if x != 0 {
			t.Fatal("expected zero vector")
		}
	}
}
