package corpus

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"netquery/internal/embedding"
	"netquery/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// Store holds the ingested corpus and serves top-K retrieval by semantic
// similarity. ANN search runs on a sqlite-vec virtual table when the
// extension is available; otherwise a linear cosine scan over the in-memory
// vectors serves the same contract.
type Store struct {
	engine embedding.Engine

	mu       sync.RWMutex
	examples []Example
	vectors  [][]float32

	db     *sql.DB
	useVec bool
}

// NewStore creates a store bound to an embedding engine. The sqlite-vec
// index is optional; failure to set it up is logged and the store falls
// back to linear scan.
func NewStore(engine embedding.Engine) *Store {
	s := &Store{engine: engine}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		logging.Get(logging.CategoryStore).Warn("sqlite unavailable, using linear scan: %v", err)
		return s
	}
	createVec := fmt.Sprintf(`
		CREATE VIRTUAL TABLE vec_examples USING vec0(
			embedding float[%d]
		)`, engine.Dimensions())
	if _, err := db.Exec(createVec); err != nil {
		logging.Get(logging.CategoryStore).Warn("sqlite-vec unavailable, using linear scan: %v", err)
		db.Close()
		return s
	}

	s.db = db
	s.useVec = true
	logging.StoreDebug("sqlite-vec index created with %d dimensions", engine.Dimensions())
	return s
}

// Close releases the underlying index.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Len returns the number of ingested examples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.examples)
}

// Ingest embeds and indexes a batch of examples. Called once at startup;
// the corpus is immutable afterwards.
func (s *Store) Ingest(ctx context.Context, examples []Example) error {
	if len(examples) == 0 {
		logging.Store("Ingest called with empty corpus; retrieval will return no examples")
		return nil
	}

	questions := make([]string, len(examples))
	for i, ex := range examples {
		questions[i] = ex.Question
	}

	vectors, err := s.engine.EmbedBatch(ctx, questions)
	if err != nil {
		return fmt.Errorf("failed to embed corpus questions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.examples = append([]Example(nil), examples...)
	s.vectors = vectors

	if s.useVec {
		for i, vec := range vectors {
			blob := encodeFloat32Blob(vec)
			if _, err := s.db.Exec(
				"INSERT INTO vec_examples (rowid, embedding) VALUES (?, ?)", i+1, blob,
			); err != nil {
				logging.Get(logging.CategoryStore).Warn("vec insert failed, falling back to linear scan: %v", err)
				s.useVec = false
				break
			}
		}
	}

	logging.Store("Ingested %d examples (ann=%t)", len(examples), s.useVec)
	return nil
}

// Retrieve returns the up-to-K examples most similar to the question,
// ordered by descending similarity. An empty corpus yields an empty set.
// For an unchanged corpus and question the result order is stable.
func (s *Store) Retrieve(ctx context.Context, question string, k int) ([]Scored, error) {
	if k <= 0 {
		k = 3
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.examples) == 0 {
		return nil, nil
	}

	query, err := s.engine.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	if s.useVec {
		if scored, err := s.retrieveVec(query, k); err == nil {
			return scored, nil
		} else {
			logging.Get(logging.CategoryStore).Warn("ANN search failed, using linear scan: %v", err)
		}
	}
	return s.retrieveLinear(query, k), nil
}

// retrieveVec searches the sqlite-vec index.
func (s *Store) retrieveVec(query []float32, k int) ([]Scored, error) {
	rows, err := s.db.Query(`
		SELECT rowid, vec_distance_cosine(embedding, ?) AS distance
		FROM vec_examples
		ORDER BY distance ASC
		LIMIT ?`, encodeFloat32Blob(query), k)
	if err != nil {
		return nil, fmt.Errorf("vec search failed: %w", err)
	}
	defer rows.Close()

	var scored []Scored
	for rows.Next() {
		var rowid int
		var distance float64
		if err := rows.Scan(&rowid, &distance); err != nil {
			continue
		}
		idx := rowid - 1
		if idx < 0 || idx >= len(s.examples) {
			continue
		}
		scored = append(scored, Scored{
			Example: s.examples[idx],
			// Cosine distance is 1 - similarity.
			Score: 1.0 - distance,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vec result iteration failed: %w", err)
	}
	return scored, nil
}

// retrieveLinear scans all vectors with cosine similarity.
func (s *Store) retrieveLinear(query []float32, k int) []Scored {
	hits := embedding.FindTopK(query, s.vectors, k)
	scored := make([]Scored, 0, len(hits))
	for _, h := range hits {
		scored = append(scored, Scored{Example: s.examples[h.Index], Score: h.Similarity})
	}
	return scored
}

// encodeFloat32Blob encodes a float32 slice as the little-endian binary
// blob expected by sqlite-vec.
func encodeFloat32Blob(vec []float32) []byte {
	blob := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}
