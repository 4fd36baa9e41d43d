// Package analyzer is the client for the network-configuration analysis
// engine. The engine is a black box behind a small HTTP contract: create a
// network, initialize a snapshot into it, run named questions against the
// snapshot, and read answers back as tables. Nothing in netquery depends on
// what the engine does internally.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"netquery/internal/logging"
	"netquery/internal/table"
)

// Config holds connection parameters for an analyzer session.
type Config struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns sensible defaults for a local analyzer.
func DefaultConfig(host string) Config {
	return Config{
		Host:    host,
		Port:    9996,
		Timeout: 60 * time.Second,
	}
}

// Session is a live connection to the analyzer bound to one network and,
// after InitSnapshot, one snapshot. A Session belongs to exactly one chat
// session and must not be shared.
type Session struct {
	baseURL    string
	network    string
	snapshot   string
	timeout    time.Duration
	httpClient *http.Client
}

// SnapshotHandle identifies an initialized snapshot.
type SnapshotHandle struct {
	Network  string
	Snapshot string
}

// Connect opens a session against the analyzer at host and verifies it is
// reachable.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("analyzer host required")
	}
	if cfg.Port == 0 {
		cfg.Port = 9996
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	// The timeout is a per-request default, not a client-level cap: long
	// operations like snapshot parsing bound their own ctx, which must be
	// allowed to exceed it.
	s := &Session{
		baseURL:    fmt.Sprintf("http://%s:%d/v2", cfg.Host, cfg.Port),
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
	}

	ctx, cancel := s.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer unreachable at %s: %w", cfg.Host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer status check failed: HTTP %d", resp.StatusCode)
	}

	logging.Analyzer("Connected to analyzer at %s", s.baseURL)
	return s, nil
}

// SetNetwork selects (creating if needed) the named network for this session.
func (s *Session) SetNetwork(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("network name required")
	}
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return fmt.Errorf("failed to marshal network request: %w", err)
	}
	if err := s.post(ctx, "/networks", body, nil); err != nil {
		return fmt.Errorf("failed to set network %q: %w", name, err)
	}
	s.network = name
	logging.AnalyzerDebug("Network set: %s", name)
	return nil
}

// InitSnapshot uploads and parses a snapshot into the current network.
// The analyzer's parse diagnostics are available afterwards via the
// fileParseStatus and initIssues questions. Callers should bound ctx:
// snapshot parsing can take minutes on large networks.
func (s *Session) InitSnapshot(ctx context.Context, path, name string, overwrite bool) (*SnapshotHandle, error) {
	if s.network == "" {
		return nil, fmt.Errorf("no network set: call SetNetwork first")
	}
	body, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"path":      path,
		"overwrite": overwrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot request: %w", err)
	}

	endpoint := fmt.Sprintf("/networks/%s/snapshots", url.PathEscape(s.network))
	var result struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Detail string `json:"detail"`
	}
	if err := s.post(ctx, endpoint, body, &result); err != nil {
		return nil, fmt.Errorf("snapshot initialization failed: %w", err)
	}
	if result.Status != "" && result.Status != "SUCCESS" {
		// Surface whatever diagnostic the analyzer gave us.
		return nil, fmt.Errorf("snapshot initialization failed: %s: %s", result.Status, result.Detail)
	}

	s.snapshot = name
	logging.Analyzer("Snapshot initialized: network=%s snapshot=%s", s.network, name)
	return &SnapshotHandle{Network: s.network, Snapshot: name}, nil
}

// Network returns the currently selected network name.
func (s *Session) Network() string { return s.network }

// Snapshot returns the currently initialized snapshot name.
func (s *Session) Snapshot() string { return s.snapshot }

// Q prepares a named question with parameters against the bound snapshot.
func (s *Session) Q(name string, params map[string]interface{}) *Question {
	return &Question{session: s, name: name, params: params}
}

// requestContext bounds a request with the session default timeout unless
// the caller already set a deadline, which always wins.
func (s *Session) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// post sends a JSON body and optionally decodes the response into out.
func (s *Session) post(ctx context.Context, endpoint string, body []byte, out interface{}) error {
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Question is a prepared analyzer question.
type Question struct {
	session *Session
	name    string
	params  map[string]interface{}
}

// answerPayload is the analyzer's wire form of an answer.
type answerPayload struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
	Frame  *struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	} `json:"frame"`
}

// Answer executes the question and returns its answer.
func (q *Question) Answer(ctx context.Context) (*Answer, error) {
	s := q.session
	if s.snapshot == "" {
		return nil, fmt.Errorf("no snapshot initialized")
	}

	body, err := json.Marshal(map[string]interface{}{
		"name":       q.name,
		"parameters": q.params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question: %w", err)
	}

	endpoint := fmt.Sprintf("/networks/%s/snapshots/%s/questions",
		url.PathEscape(s.network), url.PathEscape(s.snapshot))

	started := time.Now()
	var payload answerPayload
	if err := s.post(ctx, endpoint, body, &payload); err != nil {
		return nil, fmt.Errorf("question %q failed: %w", q.name, err)
	}
	logging.AnalyzerDebug("Question %s answered in %v (status=%s)", q.name, time.Since(started), payload.Status)

	if payload.Status != "" && payload.Status != "SUCCESS" {
		return nil, fmt.Errorf("question %q failed: %s: %s", q.name, payload.Status, payload.Detail)
	}

	ans := &Answer{}
	if payload.Frame != nil {
		ans.hasFrame = true
		ans.frame = table.Table{Columns: payload.Frame.Columns}
		for _, row := range payload.Frame.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = stringifyCell(v)
			}
			ans.frame.Rows = append(ans.frame.Rows, cells)
		}
	}
	return ans, nil
}

// Answer is the result of an executed question.
type Answer struct {
	hasFrame bool
	frame    table.Table
}

// HasFrame reports whether the answer carries a tabular frame.
func (a *Answer) HasFrame() bool { return a.hasFrame }

// Frame returns the answer's table. An answer without a frame yields an
// empty table.
func (a *Answer) Frame() table.Table {
	if !a.hasFrame {
		return table.Empty()
	}
	return a.frame
}

// stringifyCell flattens an arbitrary JSON cell value into cell text.
// Structured values keep their JSON form so nothing is lost in the table.
func stringifyCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		// JSON numbers arrive as float64; render integers without a decimal.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
