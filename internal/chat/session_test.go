package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"netquery/internal/config"
	"netquery/internal/corpus"
	"netquery/internal/perception"
)

// fakeAnalyzer serves canned answers keyed by question name and counts
// the questions it receives.
type fakeAnalyzer struct {
	answers   map[string]interface{}
	questions int64
}

func (f *fakeAnalyzer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v2/networks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v2/networks/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/snapshots") {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESS"})
			return
		}
		if strings.HasSuffix(r.URL.Path, "/questions") {
			atomic.AddInt64(&f.questions, 1)
			var req struct {
				Name string `json:"name"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			resp := map[string]interface{}{"status": "SUCCESS"}
			if frame, ok := f.answers[req.Name]; ok {
				resp["frame"] = frame
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		http.NotFound(w, r)
	})
	return mux
}

func (f *fakeAnalyzer) questionCount() int64 {
	return atomic.LoadInt64(&f.questions)
}

func frameOf(columns []string, rows ...[]interface{}) map[string]interface{} {
	if rows == nil {
		rows = [][]interface{}{}
	}
	return map[string]interface{}{"columns": columns, "rows": rows}
}

// queuedLLM pops scripted responses in order. Startup runs two chains
// concurrently, so access is locked.
type queuedLLM struct {
	mu            sync.Mutex
	completions   []string
	toolResponses []*perception.ToolResponse
}

func (q *queuedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.completions) == 0 {
		return "", nil
	}
	out := q.completions[0]
	q.completions = q.completions[1:]
	return out, nil
}

func (q *queuedLLM) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	return q.Complete(ctx, user)
}

func (q *queuedLLM) ChatWithTools(ctx context.Context, systemPrompt string, messages []perception.Message, tools []perception.ToolDefinition) (*perception.ToolResponse, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.toolResponses) == 0 {
		return &perception.ToolResponse{Text: "done"}, nil
	}
	out := q.toolResponses[0]
	q.toolResponses = q.toolResponses[1:]
	return out, nil
}

func (q *queuedLLM) Model() string { return "queued" }

// stubEngine keeps corpus retrieval deterministic without any service.
type stubEngine struct{}

func (stubEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, 3)
	for i, c := range text {
		v[i%3] += float32(c)
	}
	return v, nil
}

func (s stubEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = s.Embed(ctx, t)
	}
	return out, nil
}

func (stubEngine) Dimensions() int { return 3 }
func (stubEngine) Name() string    { return "stub" }

func testConfig(t *testing.T, f *fakeAnalyzer) *config.Config {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())

	cfg := config.DefaultConfig()
	cfg.Analyzer.Host = u.Hostname()
	cfg.Analyzer.Port = port
	cfg.Analyzer.Timeout = "5s"
	cfg.Analyzer.SnapshotTimeout = "30s"
	return cfg
}

func emptyStore(t *testing.T) *corpus.Store {
	t.Helper()
	store := corpus.NewStore(stubEngine{})
	t.Cleanup(func() { store.Close() })
	return store
}

func startedSession(t *testing.T, f *fakeAnalyzer, llm *queuedLLM, profile Profile) *Session {
	t.Helper()
	cfg := testConfig(t, f)
	s := NewSession(cfg, emptyStore(t), Clients{Smart: llm, Fast: llm}, profile)
	if _, err := s.Start(context.Background(), "/tmp/snap.zip"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return s
}

func greetingAnswers() map[string]interface{} {
	return map[string]interface{}{
		"routes":              frameOf([]string{"Node"}, []interface{}{"as1border1"}),
		"fileParseStatus":     frameOf([]string{"File_Name", "Status"}, []interface{}{"configs/as1border1.cfg", "PASSED"}),
		"initIssues":          frameOf([]string{"Nodes", "Details"}),
		"nodeProperties":      frameOf([]string{"Node", "Interfaces", "Domain_Name"}, []interface{}{"as1border1", "GigabitEthernet0/0", "lab.local"}),
		"interfaceProperties": frameOf([]string{"Interface", "Primary_Address"}, []interface{}{"as1border1[GigabitEthernet0/0]", "1.0.1.1/24"}),
	}
}

const syntheticProgram = "```go\nfunc Run() nql.Table {\n" +
	"\tanswer, err := bf.Q(\"routes\", nil).Answer(ctx)\n" +
	"\tif err != nil {\n\t\treturn nql.EmptyTable()\n\t}\n" +
	"\tif !answer.HasFrame() {\n\t\treturn nql.EmptyTable()\n\t}\n" +
	"\treturn answer.Frame()\n}\n```"

func TestStartBuildsGreeting(t *testing.T) {
	f := &fakeAnalyzer{answers: greetingAnswers()}
	llm := &queuedLLM{completions: []string{
		"All 1 files parsed cleanly.",
		"1- Show the routing table of node as1border1.",
	}}

	cfg := testConfig(t, f)
	s := NewSession(cfg, emptyStore(t), Clients{Smart: llm, Fast: llm}, ProfileBasic)

	greeting, err := s.Start(context.Background(), "/tmp/snap.zip")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !strings.Contains(greeting, "Network loaded") {
		t.Error("greeting should announce the loaded network")
	}
	if !strings.Contains(greeting, "/ask") {
		t.Error("basic profile greeting should mention /ask")
	}
	// Warm-up plus four greeting questions.
	if got := f.questionCount(); got != 5 {
		t.Errorf("analyzer received %d questions, want 5", got)
	}
}

func TestStartSmartGreetingHasNoAskHint(t *testing.T) {
	f := &fakeAnalyzer{answers: greetingAnswers()}
	llm := &queuedLLM{completions: []string{"status", "tasks"}}

	s := startedSession(t, f, llm, ProfileSmart)
	if s.Profile() != ProfileSmart {
		t.Fatalf("profile = %v", s.Profile())
	}
}

func TestStartFailsWhenAnalyzerUnreachable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analyzer.Host = "127.0.0.1"
	cfg.Analyzer.Port = 1
	cfg.Analyzer.Timeout = "200ms"
	cfg.Analyzer.SnapshotTimeout = "1s"

	llm := &queuedLLM{}
	s := NewSession(cfg, emptyStore(t), Clients{Smart: llm, Fast: llm}, ProfileBasic)
	if _, err := s.Start(context.Background(), "/tmp/snap.zip"); err == nil {
		t.Fatal("unreachable analyzer must fail Start")
	}
}

func TestDirectModeAskRoutesToChecker(t *testing.T) {
	f := &fakeAnalyzer{answers: greetingAnswers()}
	llm := &queuedLLM{completions: []string{
		"status", "tasks",
		"OK", // sufficiency verdict
	}}

	s := startedSession(t, f, llm, ProfileBasic)
	before := f.questionCount()

	out, err := s.HandleMessage(context.Background(), "/ask show bgp routes")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if out != "OK" {
		t.Errorf("got %q", out)
	}
	if f.questionCount() != before {
		t.Error("sufficiency check must not touch the analyzer")
	}
}

func TestDirectModeAskInsufficient(t *testing.T) {
	f := &fakeAnalyzer{answers: greetingAnswers()}
	llm := &queuedLLM{completions: []string{
		"status", "tasks",
		"Missing information: the node name.",
	}}

	s := startedSession(t, f, llm, ProfileBasic)
	out, err := s.HandleMessage(context.Background(), "/ask show me the routes")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(out, "Missing information") {
		t.Errorf("got %q", out)
	}
}

func TestDirectModeExecutesQuery(t *testing.T) {
	f := &fakeAnalyzer{answers: greetingAnswers()}
	llm := &queuedLLM{completions: []string{
		"status", "tasks",
		syntheticProgram,
	}}

	s := startedSession(t, f, llm, ProfileBasic)
	out, err := s.HandleMessage(context.Background(), "show the routing table of node as1border1")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(out, "as1border1") {
		t.Errorf("expected rendered table, got %q", out)
	}
}

func TestSmartModeRunsAgentLoop(t *testing.T) {
	f := &fakeAnalyzer{answers: greetingAnswers()}
	llm := &queuedLLM{
		completions: []string{
			"status", "tasks",
			syntheticProgram, // synthesis inside the tool call
		},
		toolResponses: []*perception.ToolResponse{
			{ToolCalls: []perception.ToolCall{{
				ID:    "call_1",
				Name:  "process_query",
				Input: map[string]interface{}{"task": "show routes of as1border1"},
			}}},
			{Text: "The node as1border1 has one route."},
		},
	}

	s := startedSession(t, f, llm, ProfileSmart)
	out, err := s.HandleMessage(context.Background(), "what routes does as1border1 have?")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if out != "The node as1border1 has one route." {
		t.Errorf("got %q", out)
	}
}

func TestSessionIsolation(t *testing.T) {
	answersA := greetingAnswers()
	answersA["routes"] = frameOf([]string{"Node"}, []interface{}{"alpha-router"})
	answersB := greetingAnswers()
	answersB["routes"] = frameOf([]string{"Node"}, []interface{}{"beta-router"})

	llmA := &queuedLLM{completions: []string{"status", "tasks", syntheticProgram}}
	llmB := &queuedLLM{completions: []string{"status", "tasks", syntheticProgram}}

	sessA := startedSession(t, &fakeAnalyzer{answers: answersA}, llmA, ProfileBasic)
	sessB := startedSession(t, &fakeAnalyzer{answers: answersB}, llmB, ProfileBasic)

	if sessA.ID() == sessB.ID() {
		t.Fatal("sessions must have distinct identifiers")
	}

	outA, err := sessA.HandleMessage(context.Background(), "show routes")
	if err != nil {
		t.Fatal(err)
	}
	outB, err := sessB.HandleMessage(context.Background(), "show routes")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(outA, "alpha-router") || strings.Contains(outA, "beta-router") {
		t.Errorf("session A saw foreign state: %q", outA)
	}
	if !strings.Contains(outB, "beta-router") || strings.Contains(outB, "alpha-router") {
		t.Errorf("session B saw foreign state: %q", outB)
	}
}

func TestHandleMessageBeforeStart(t *testing.T) {
	llm := &queuedLLM{}
	s := NewSession(config.DefaultConfig(), emptyStore(t), Clients{Smart: llm, Fast: llm}, ProfileBasic)
	if _, err := s.HandleMessage(context.Background(), "anything"); err == nil {
		t.Fatal("message before Start must fail")
	}
}

func TestParseProfile(t *testing.T) {
	if _, err := ParseProfile("smart"); err != nil {
		t.Error(err)
	}
	if _, err := ParseProfile("turbo"); err == nil {
		t.Error("invalid profile must fail")
	}
}

func TestStartHonorsSnapshotTimeout(t *testing.T) {
	// A server that never answers the snapshot call.
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v2/networks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v2/networks/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())

	cfg := config.DefaultConfig()
	cfg.Analyzer.Host = u.Hostname()
	cfg.Analyzer.Port = port
	cfg.Analyzer.Timeout = "5s"
	cfg.Analyzer.SnapshotTimeout = "300ms"

	llm := &queuedLLM{}
	s := NewSession(cfg, emptyStore(t), Clients{Smart: llm, Fast: llm}, ProfileBasic)

	start := time.Now()
	_, err := s.Start(context.Background(), "/tmp/snap.zip")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 1500*time.Millisecond {
		t.Error("Start did not respect the snapshot timeout")
	}
}
