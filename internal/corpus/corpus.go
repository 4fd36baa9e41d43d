// Package corpus implements the example store: a corpus of
// (question, invocation) pairs indexed by semantic similarity over the
// question text. Retrieval conditions both the sufficiency checker and the
// query synthesizer, so a missing or empty corpus must degrade, never crash.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"netquery/internal/logging"
)

// ErrCorpusUnavailable reports that the corpus file was missing or
// unreadable. Callers degrade to an empty corpus on this error.
var ErrCorpusUnavailable = errors.New("example corpus unavailable")

// Example pairs a natural-language question with the structured invocation
// that answers it. Immutable after ingestion.
type Example struct {
	Question   string `json:"question"`
	Invocation string `json:"invocation"`
}

// Scored is a retrieved example with its similarity score.
type Scored struct {
	Example
	Score float64
}

// LoadExamples reads the example corpus from a JSON file holding an ordered
// list of {question, invocation} records. A missing or unreadable file
// returns ErrCorpusUnavailable with an empty slice so startup can continue.
func LoadExamples(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Get(logging.CategoryStore).Warn("Example corpus not readable at %s: %v", path, err)
		return nil, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}

	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		logging.Get(logging.CategoryStore).Warn("Example corpus at %s is malformed: %v", path, err)
		return nil, fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}

	logging.Store("Loaded %d examples from %s", len(examples), path)
	return examples, nil
}
