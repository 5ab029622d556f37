package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/cuba6112/lesson-builder/internal/app"
	"github.com/cuba6112/lesson-builder/internal/client"
	"github.com/cuba6112/lesson-builder/internal/config"
	"github.com/cuba6112/lesson-builder/internal/document"
	"github.com/cuba6112/lesson-builder/internal/logging"
	"github.com/cuba6112/lesson-builder/internal/session"
	"github.com/cuba6112/lesson-builder/internal/ui"
)

func main() {
	var (
		modelFlag  = flag.String("model", "", "model to use (overrides config)")
		docFlag    = flag.String("doc", "", "document id to open (default: most recent, or a new one)")
		listModels = flag.Bool("list-models", false, "list available models and exit")
	)
	flag.Parse()

	if err := run(*modelFlag, *docFlag, *listModels); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelOverride, docID string, listModels bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if modelOverride != "" {
		cfg.Model.Name = modelOverride
	}

	if err := logging.Init(cfg.Storage.DataDir, cfg.Logging.Level); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logging.Close()

	// First run: materialize the defaults so users have a file to edit.
	if path := config.GetConfigPath(); path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := cfg.Save(); err != nil {
				logging.Warn("writing default config failed", "path", path, "error", err)
			} else {
				logging.Info("wrote default config", "path", path)
			}
		}
	}

	cl, err := client.NewOllamaClient(client.OllamaConfig{
		BaseURL:           cfg.API.OllamaBaseURL,
		Model:             cfg.Model.Name,
		Temperature:       cfg.Model.Temperature,
		MaxTokens:         cfg.Model.MaxTokens,
		HTTPTimeout:       cfg.API.HTTPTimeout,
		StreamIdleTimeout: cfg.API.StreamIdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	if listModels {
		models, err := cl.ListModels(context.Background())
		if err != nil {
			return fmt.Errorf("listing models: %w", err)
		}
		for _, m := range models {
			fmt.Println(m)
		}
		return nil
	}

	store, err := openDocument(cfg.Storage.DataDir, docID)
	if err != nil {
		return err
	}

	sessions, err := session.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening conversation store: %w", err)
	}
	sess := session.New(store.ID(), cfg.Model.Name)
	if turns, err := sessions.Load(store.ID()); err != nil {
		logging.Warn("conversation restore failed", "error", err)
	} else if len(turns) > 0 {
		sess.SetTurns(turns)
	}

	a := app.New(cfg, cl, store, sess, sessions)
	defer a.Close()

	model := ui.NewModel(
		ui.ThemeType(cfg.UI.Theme),
		cfg.Model.Name,
		sess.Turns(),
		store.Snapshot(),
		ui.Callbacks{
			OnSubmit:      a.Submit,
			OnCancel:      a.Cancel,
			OnQuit:        a.Cancel,
			OnUndo:        a.Undo,
			OnRedo:        a.Redo,
			OnListModels:  func() { a.ListModels(context.Background()) },
			OnSelectModel: a.SetModel,
		},
	)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	a.SetProgram(program)

	logging.Info("starting",
		"document", store.ID(), "model", cfg.Model.Name, "backend", cfg.API.OllamaBaseURL)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// openDocument restores the requested document, falls back to the most
// recently persisted one, and otherwise starts a fresh lesson.
func openDocument(dataDir, docID string) (*document.Store, error) {
	if docID != "" {
		snap, found, err := document.LoadSnapshot(dataDir, docID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("document %s not found", docID)
		}
		return document.Restore(snap), nil
	}

	ids, err := document.ListSnapshots(dataDir)
	if err != nil {
		logging.Warn("document listing failed", "error", err)
	}
	if len(ids) > 0 {
		if snap, found, err := document.LoadSnapshot(dataDir, ids[len(ids)-1]); err == nil && found {
			return document.Restore(snap), nil
		}
	}

	return document.NewStore(uuid.NewString(), ""), nil
}
