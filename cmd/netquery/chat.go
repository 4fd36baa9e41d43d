package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"netquery/internal/chat"
	"netquery/internal/corpus"
	"netquery/internal/embedding"
	"netquery/internal/logging"
	"netquery/internal/perception"
)

// runChat wires one interactive session and drives the REPL.
func runChat(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if snapshotPath == "" {
		return fmt.Errorf("a network snapshot is required (--snapshot)")
	}
	profile, err := chat.ParseProfile(cfg.Chat.Profile)
	if err != nil {
		return err
	}

	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("embedding engine setup failed: %w", err)
	}

	store := corpus.NewStore(engine)
	defer store.Close()

	examples, err := corpus.LoadExamples(cfg.Corpus.Path)
	if err != nil {
		if !errors.Is(err, corpus.ErrCorpusUnavailable) {
			return err
		}
		// Degrade to an empty corpus; retrieval returns nothing but
		// the session still works.
		logging.Boot("Continuing without an example corpus: %v", err)
	}
	if len(examples) > 0 {
		if err := store.Ingest(ctx, examples); err != nil {
			return fmt.Errorf("corpus ingestion failed: %w", err)
		}
		logging.Boot("Ingested %d corpus examples", len(examples))
	}

	smart, err := perception.NewClient(cfg.LLMClientConfig(cfg.LLM.SmartModel))
	if err != nil {
		return err
	}
	fast, err := perception.NewClient(cfg.LLMClientConfig(cfg.LLM.FastModel))
	if err != nil {
		return err
	}

	session := chat.NewSession(cfg, store, chat.Clients{Smart: smart, Fast: fast}, profile)

	fmt.Println("Processing network snapshot...")
	greeting, err := session.Start(ctx, snapshotPath)
	if err != nil {
		return err
	}
	fmt.Println(greeting)

	return repl(ctx, session)
}

// repl reads user messages until EOF, interrupt, or an exit command.
func repl(ctx context.Context, session *chat.Session) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reply, err := session.HandleMessage(ctx, line)
		if err != nil {
			// Turn-level failures are shown, not fatal.
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
}
