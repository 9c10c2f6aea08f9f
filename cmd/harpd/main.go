package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"harp/internal/archive"
	"harp/internal/attachment"
	"harp/internal/core"
	"harp/internal/llm"
	"harp/internal/project"
	"harp/internal/server"
	"harp/pkg/schema"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harpd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := core.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := core.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wisdom, err := archive.New(cfg.WisdomDir)
	if err != nil {
		return fmt.Errorf("open wisdom archive: %w", err)
	}
	projects, err := project.NewStore(cfg.ProjectsDir)
	if err != nil {
		return fmt.Errorf("open project store: %w", err)
	}
	uploads, err := attachment.NewStore(cfg.UploadsDir)
	if err != nil {
		return fmt.Errorf("open upload store: %w", err)
	}

	initial, err := projects.List()
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	// Without an API key the generation path degrades to an in-band error
	// message while the archive and project surfaces keep working.
	var (
		classifier core.Classifier      = unavailableClassifier{}
		selector   core.BackendSelector = unavailableSelector{}
		registry   llm.Registry         = unavailableRegistry{}
		health     server.HealthProber
	)
	if cfg.GoogleAPIKey == "" {
		log.Warn("GOOGLE_API_KEY not set, generation disabled")
	} else {
		client, err := llm.NewClient(ctx, &llm.Config{
			APIKey:          cfg.GoogleAPIKey,
			PrimaryModel:    cfg.PrimaryModel,
			FallbackModel:   cfg.FallbackModel,
			ClassifierModel: cfg.ClassifierModel,
			ImageModel:      cfg.ImageModel,
		})
		if err != nil {
			return fmt.Errorf("create llm client: %w", err)
		}
		sel := llm.NewSelector(client, cfg.PrimaryModel, cfg.FallbackModel)
		classifier = llm.NewClassifier(client.Backend(cfg.ClassifierModel))
		selector = sel
		registry = client
		health = sel
	}

	state := core.NewStateStore(initial)
	runner := core.NewRunner(cfg.MaxUnitsPerSession, log)
	hub := server.NewHub(log)
	orch := core.NewOrchestrator(classifier, selector, registry, uploads, state, hub, runner, log)
	srv := server.New(cfg, log, hub, orch, state, wisdom, projects, health)

	log.Info("harpd starting",
		"addr", cfg.Addr,
		"primary_model", cfg.PrimaryModel,
		"fallback_model", cfg.FallbackModel,
	)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	// Let in-flight orchestration units reach their terminal state before
	// the process exits.
	runner.Wait()
	log.Info("harpd stopped")
	return nil
}

var errNoAPIKey = errors.New("GOOGLE_API_KEY not set")

type unavailableClassifier struct{}

func (unavailableClassifier) Classify(context.Context, string) (schema.Mode, error) {
	return schema.ModeWisdom, errNoAPIKey
}

type unavailableSelector struct{}

func (unavailableSelector) Select(context.Context) (llm.Backend, llm.Tier) {
	return unavailableBackend{}, llm.TierPrimary
}

type unavailableBackend struct{}

func (unavailableBackend) Name() string { return "unavailable" }

func (unavailableBackend) Generate(context.Context, llm.Prompt) (string, error) {
	return "", errNoAPIKey
}

type unavailableRegistry struct{}

func (unavailableRegistry) Register(context.Context, string) (llm.FileRef, error) {
	return llm.FileRef{}, errNoAPIKey
}

func (unavailableRegistry) Release(context.Context, llm.FileRef) error { return nil }
