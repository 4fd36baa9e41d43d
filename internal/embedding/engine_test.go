package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{name: "identical", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "dimension mismatch", a: []float32{1}, b: []float32{1, 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestFindTopK(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},     // orthogonal
		{1, 0},     // identical
		{0.9, 0.1}, // close
		{-1, 0},    // opposite
	}

	results := FindTopK(query, corpus, 2)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Index != 1 {
		t.Errorf("best match should be index 1, got %d", results[0].Index)
	}
	if results[1].Index != 2 {
		t.Errorf("second match should be index 2, got %d", results[1].Index)
	}
}

func TestFindTopKSkipsMismatchedDims(t *testing.T) {
	results := FindTopK([]float32{1, 0}, [][]float32{{1}, {1, 0}}, 5)
	if len(results) != 1 {
		t.Fatalf("mismatched vector should be skipped, got %d results", len(results))
	}
}

func TestNewEngineUnsupportedProvider(t *testing.T) {
	if _, err := NewEngine(Config{Provider: "rocks"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestOpenAIEngineEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := openAIEmbedResponse{}
		// Return results in reverse order to exercise index reassembly.
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{float32(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	engine, err := NewOpenAIEngine("test-key", "")
	if err != nil {
		t.Fatalf("NewOpenAIEngine failed: %v", err)
	}
	engine.SetBaseURL(srv.URL)

	got, err := engine.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d embeddings, want 3", len(got))
	}
	for i, emb := range got {
		if emb[0] != float32(i) {
			t.Errorf("embedding %d out of order: %v", i, emb)
		}
	}
}

func TestOpenAIEngineRequiresKey(t *testing.T) {
	if _, err := NewOpenAIEngine("", ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
