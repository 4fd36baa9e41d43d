// Package sandbox executes synthesized query programs in a restricted
// yaegi interpreter. The program text originates from a language model, so
// this is the primary trust boundary of the system: the interpreter
// namespace is seeded only with the bound analyzer session and the
// datamodel vocabulary, imports are validated against a whitelist before
// evaluation, and every fault — parse error, eval error, panic, timeout —
// is mapped to a failed result instead of propagating.
package sandbox

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"netquery/internal/analyzer"
	"netquery/internal/logging"
	"netquery/internal/table"
)

// Status classifies an execution outcome.
type Status int

const (
	// StatusOK means the program returned a non-empty table.
	StatusOK Status = iota
	// StatusEmpty means the program returned a structurally empty table.
	StatusEmpty
	// StatusFailed means compilation or execution faulted.
	StatusFailed
)

// Result is the outcome of executing one synthesized program.
type Result struct {
	Status Status
	Table  table.Table
	Err    error // Diagnostic only; never shown verbatim to the user
}

// Render returns the user-facing form of the result: a Markdown table for
// data, fixed sentinels otherwise.
func (r Result) Render() string {
	switch r.Status {
	case StatusOK:
		return r.Table.RenderMarkdown()
	case StatusEmpty:
		return table.EmptySentinel
	default:
		return table.FailedSentinel
	}
}

// Executor runs synthesized programs against one analyzer session.
type Executor struct {
	allowedImports map[string]bool
	timeout        time.Duration
}

// NewExecutor creates an executor with the default import whitelist.
func NewExecutor() *Executor {
	return &Executor{
		timeout: 90 * time.Second,
		allowedImports: map[string]bool{
			// The sandbox surface: session handle and datamodel symbols.
			"netquery/nql": true,

			// Safe stdlib for string/number shaping inside programs.
			"fmt":     true,
			"strings": true,
			"strconv": true,
			"sort":    true,

			// EXPLICITLY BLOCKED (never whitelisted):
			// "os", "os/exec" - process and filesystem access
			// "net", "net/http" - network access beyond the bound session
			// "syscall", "unsafe", "reflect" - escape hatches
		},
	}
}

// SetTimeout overrides the per-execution timeout.
func (e *Executor) SetTimeout(d time.Duration) {
	e.timeout = d
}

// Execute runs a synthesized program against the session. The program must
// define `func Run() nql.Table`; Run is invoked with no arguments. All
// faults are contained and classified, never raised.
func (e *Executor) Execute(ctx context.Context, program string, session *analyzer.Session) Result {
	if strings.TrimSpace(program) == "" {
		return Result{Status: StatusFailed, Err: fmt.Errorf("empty program")}
	}

	full := wrapProgram(program)
	if err := e.validateImports(full); err != nil {
		logging.Get(logging.CategoryExecutor).Warn("Program rejected: %v", err)
		return Result{Status: StatusFailed, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	i := interp.New(interp.Options{})
	if err := i.Use(sandboxStdlib); err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("failed to load stdlib: %w", err)}
	}
	if err := i.Use(exports(ctx, session)); err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("failed to load sandbox symbols: %w", err)}
	}

	logging.ExecutorDebug("Evaluating program (%d bytes)", len(full))

	if _, err := i.Eval(full); err != nil {
		logging.Get(logging.CategoryExecutor).Warn("Program evaluation failed: %v", err)
		return Result{Status: StatusFailed, Err: fmt.Errorf("program evaluation failed: %w", err)}
	}

	runVal, err := i.Eval("main.Run")
	if err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("Run function not found: %w", err)}
	}
	runFn, ok := runVal.Interface().(func() table.Table)
	if !ok {
		return Result{Status: StatusFailed, Err: fmt.Errorf("Run has wrong signature (want func() nql.Table)")}
	}

	resultCh := make(chan table.Table, 1)
	faultCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				faultCh <- fmt.Errorf("program panicked: %v", r)
			}
		}()
		resultCh <- runFn()
	}()

	select {
	case t := <-resultCh:
		if t.IsEmpty() {
			return Result{Status: StatusEmpty, Table: t}
		}
		return Result{Status: StatusOK, Table: t}
	case err := <-faultCh:
		logging.Get(logging.CategoryExecutor).Warn("Program fault: %v", err)
		return Result{Status: StatusFailed, Err: err}
	case <-ctx.Done():
		logging.Get(logging.CategoryExecutor).Warn("Program timed out: %v", ctx.Err())
		return Result{Status: StatusFailed, Err: fmt.Errorf("program execution timed out: %w", ctx.Err())}
	}
}

// validateImports parses the full program source and checks every import
// path against the whitelist. Parsing the real AST means alias forms,
// grouped blocks, and whitespace variations all resolve to the same paths
// the interpreter will see; source that does not parse is rejected outright.
func (e *Executor) validateImports(code string) error {
	f, err := parser.ParseFile(token.NewFileSet(), "program.go", code, 0)
	if err != nil {
		return fmt.Errorf("program does not parse: %w", err)
	}

	var forbidden []string
	for _, spec := range f.Imports {
		pkg, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return fmt.Errorf("malformed import path %s", spec.Path.Value)
		}
		if !e.allowedImports[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %v", forbidden)
	}
	return nil
}

// wrapProgram wraps the synthesized function in a main package with the
// session prelude, unless the model already emitted a full file.
func wrapProgram(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return fmt.Sprintf(`package main

import "netquery/nql"

var (
	bf  = nql.Session()
	ctx = nql.Context()
)

%s
`, code)
}

// sandboxStdlib is the subset of yaegi's stdlib symbols programs may
// touch. Loading only the whitelisted packages means even an import that
// slips past validation resolves to nothing inside the interpreter.
var sandboxStdlib = func() interp.Exports {
	kept := interp.Exports{}
	for _, path := range []string{"fmt/fmt", "strings/strings", "strconv/strconv", "sort/sort"} {
		if syms, ok := stdlib.Symbols[path]; ok {
			kept[path] = syms
		}
	}
	return kept
}()

// exports builds the sandbox symbol surface for one execution: the bound
// session, the execution context, and the analyzer datamodel vocabulary.
// Nothing else from the host process is reachable.
func exports(ctx context.Context, session *analyzer.Session) interp.Exports {
	return interp.Exports{
		"netquery/nql/nql": {
			"Session":    reflect.ValueOf(func() *analyzer.Session { return session }),
			"Context":    reflect.ValueOf(func() context.Context { return ctx }),
			"EmptyTable": reflect.ValueOf(table.Empty),

			"Table":             reflect.ValueOf((*table.Table)(nil)),
			"HeaderConstraints": reflect.ValueOf((*analyzer.HeaderConstraints)(nil)),
			"PathConstraints":   reflect.ValueOf((*analyzer.PathConstraints)(nil)),
			"Interface":         reflect.ValueOf((*analyzer.Interface)(nil)),
			"Edge":              reflect.ValueOf((*analyzer.Edge)(nil)),
			"BgpRoute":          reflect.ValueOf((*analyzer.BgpRoute)(nil)),
		},
	}
}
