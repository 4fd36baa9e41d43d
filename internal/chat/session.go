package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"netquery/internal/agent"
	"netquery/internal/analyzer"
	"netquery/internal/chains"
	"netquery/internal/config"
	"netquery/internal/corpus"
	"netquery/internal/logging"
	"netquery/internal/perception"
	"netquery/internal/sandbox"
)

// Clients holds the two model tiers a session draws from.
type Clients struct {
	Smart perception.LLMClient
	Fast  perception.LLMClient
}

// primary returns the tier matching the profile.
func (c Clients) primary(profile Profile) perception.LLMClient {
	if profile == ProfileBasic {
		return c.Fast
	}
	return c.Smart
}

// Session owns everything one chat session touches: the analyzer
// connection, the chains, the executor, and (in the smart profile) the
// agent loop with its memory. Sessions share nothing mutable with each
// other; the corpus store is read-only after ingestion.
type Session struct {
	id      string
	profile Profile
	cfg     *config.Config

	analyzer *analyzer.Session
	executor *sandbox.Executor

	checker     *chains.SufficiencyChecker
	synthesizer *chains.Synthesizer
	explainer   *chains.Explainer
	tableAnlz   *chains.TableAnalyzer
	suggester   *chains.TaskSuggester
	summarizer  *chains.ParseStatusSummarizer

	orchestrator *agent.Orchestrator
}

// NewSession wires a session for the given profile. The analyzer is not
// connected yet; call Start with a snapshot path.
func NewSession(cfg *config.Config, store *corpus.Store, clients Clients, profile Profile) *Session {
	primary := clients.primary(profile)

	s := &Session{
		id:          uuid.NewString(),
		profile:     profile,
		cfg:         cfg,
		executor:    sandbox.NewExecutor(),
		checker:     chains.NewSufficiencyChecker(store, clients.Fast),
		synthesizer: chains.NewSynthesizer(store, primary),
		explainer:   chains.NewExplainer(primary),
		tableAnlz:   chains.NewTableAnalyzer(primary),
		suggester:   chains.NewTaskSuggester(clients.Smart),
		summarizer:  chains.NewParseStatusSummarizer(clients.Smart),
	}

	s.checker.SetTopK(cfg.Corpus.TopK)
	s.synthesizer.SetTopK(cfg.Corpus.TopK)
	s.suggester.SetTaskCount(cfg.Chat.TaskCount)

	if profile != ProfileBasic {
		s.orchestrator = agent.NewOrchestrator(primary, s.buildRegistry(), cfg.Chat.MaxToolIterations)
	}

	logging.Session("Session %s created (profile=%s)", s.id, profile)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Profile returns the session's profile.
func (s *Session) Profile() Profile { return s.profile }

// Analyzer exposes the bound analyzer session, nil before Start.
func (s *Session) Analyzer() *analyzer.Session { return s.analyzer }

const basicUsageHint = `### You are using the 'Basic' profile 🤖

You can now ask questions.

To help you create a query, you can use ` + "`/ask`" + ` before your query to check if it has enough information to run.`

const agentUsageHint = `### You are using the '%s' profile 🤖

You can now ask questions.`

// Start connects the analyzer, loads the snapshot, and builds the
// greeting: a parse-status summary, suggested tasks, and the profile
// usage hint. Analyzer failures abort the session; the model-backed
// extras degrade to a plain greeting with a logged warning.
func (s *Session) Start(ctx context.Context, snapshotPath string) (string, error) {
	initCtx, cancel := context.WithTimeout(ctx, s.cfg.GetSnapshotTimeout())
	defer cancel()

	session, err := analyzer.Connect(initCtx, analyzer.Config{
		Host:    s.cfg.Analyzer.Host,
		Port:    s.cfg.Analyzer.Port,
		Timeout: s.cfg.GetAnalyzerTimeout(),
	})
	if err != nil {
		return "", fmt.Errorf("analyzer connection failed: %w", err)
	}
	if err := session.SetNetwork(initCtx, s.cfg.Analyzer.Network); err != nil {
		return "", fmt.Errorf("analyzer network setup failed: %w", err)
	}
	if _, err := session.InitSnapshot(initCtx, snapshotPath, s.cfg.Analyzer.SnapshotName, true); err != nil {
		return "", fmt.Errorf("snapshot initialization failed: %w", err)
	}
	s.analyzer = session

	// Warm-up query so the first user question is not the one paying
	// for dataplane computation.
	if _, err := session.Q("routes", nil).Answer(initCtx); err != nil {
		logging.Session("Session %s: warm-up query failed: %v", s.id, err)
	}

	var status, tasks string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		status, err = s.parsingStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.suggestedTasks(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logging.Session("Session %s: greeting extras degraded: %v", s.id, err)
	}

	var b strings.Builder
	b.WriteString("## Network loaded 🚀\n")
	if status != "" {
		b.WriteString("\n")
		b.WriteString(status)
		b.WriteString("\n")
	}
	if tasks != "" {
		b.WriteString("\nHere are some tasks you could try:\n\n")
		b.WriteString(tasks)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if s.profile == ProfileBasic {
		b.WriteString(basicUsageHint)
	} else {
		fmt.Fprintf(&b, agentUsageHint, titleCase(string(s.profile)))
	}
	return b.String(), nil
}

// parsingStatus summarizes the analyzer's ingestion diagnostics.
func (s *Session) parsingStatus(ctx context.Context) (string, error) {
	parseAns, err := s.analyzer.Q("fileParseStatus", nil).Answer(ctx)
	if err != nil {
		return "", err
	}
	issuesAns, err := s.analyzer.Q("initIssues", nil).Answer(ctx)
	if err != nil {
		return "", err
	}
	return s.summarizer.Summarize(ctx, parseAns.Frame(), issuesAns.Frame())
}

// suggestedTasks samples the topology and asks for concrete tasks.
func (s *Session) suggestedTasks(ctx context.Context) (string, error) {
	nodesAns, err := s.analyzer.Q("nodeProperties", nil).Answer(ctx)
	if err != nil {
		return "", err
	}
	ifacesAns, err := s.analyzer.Q("interfaceProperties", nil).Answer(ctx)
	if err != nil {
		return "", err
	}

	devices := nodesAns.Frame().Head(5).Select("Node", "Interfaces")
	interfaces := ifacesAns.Frame().Head(5).Select("Interface", "Primary_Address")
	return s.suggester.Suggest(ctx, devices, interfaces)
}

// HandleMessage processes one user message according to the profile.
func (s *Session) HandleMessage(ctx context.Context, message string) (string, error) {
	if s.analyzer == nil {
		return "", fmt.Errorf("session %s has no analyzer bound", s.id)
	}
	if s.profile == ProfileBasic {
		return s.handleDirect(ctx, message)
	}
	return s.orchestrator.HandleTurn(ctx, message)
}

// ProcessQuery runs the synthesize-execute pipeline for one task and
// returns the rendered table or a sentinel. Execution faults never
// escape; only synthesis (model) failures surface as errors.
func (s *Session) ProcessQuery(ctx context.Context, task string) (string, error) {
	program, err := s.synthesizer.Synthesize(ctx, task)
	if err != nil {
		return "", err
	}
	result := s.executor.Execute(ctx, program, s.analyzer)
	return result.Render(), nil
}
