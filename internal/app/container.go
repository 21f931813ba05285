// Package app assembles the dependency graph.
package app

import (
	"context"

	"github.com/Bardin08/docify/internal/application/generate"
	"github.com/Bardin08/docify/internal/infrastructure/ai"
	"github.com/Bardin08/docify/internal/infrastructure/cache"
	"github.com/Bardin08/docify/internal/infrastructure/config"
	"github.com/Bardin08/docify/internal/infrastructure/history"
	"github.com/Bardin08/docify/internal/infrastructure/prompt"
	"github.com/Bardin08/docify/internal/infrastructure/secrets"
	"github.com/Bardin08/docify/internal/infrastructure/validate"
	"github.com/Bardin08/docify/internal/pkg/logger"
	"github.com/Bardin08/docify/internal/ports"
)

// Container wires application services with infrastructure adapters.
// The analyzer adapter is opened per command (its index path is a flag),
// so the generate service is assembled via NewGenerateService.
type Container struct {
	ConfigLoader *config.FileLoader
	Logger       ports.Logger
	Credentials  ports.CredentialStore
	Factory      *ai.Factory
	Cache        *cache.DryRunStore
	History      *history.SQLiteStore
	Prompter     ports.PromptBuilder
	Validator    ports.OutputValidator

	// Confirmer is injected by the CLI before any generation runs.
	Confirmer ports.Confirmer
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	if _, err := cfgLoader.Load(ctx); err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)
	creds := secrets.NewEnvStore()

	c := &Container{
		ConfigLoader: cfgLoader,
		Logger:       log,
		Credentials:  creds,
		Cache:        cache.NewDryRunStore(log),
		History:      history.NewSQLiteStore(),
		Prompter:     prompt.New(),
		Validator:    validate.New(),
	}
	return c, nil
}

// InitFactory builds the provider factory once the confirmer is known.
func (c *Container) InitFactory(confirm ports.Confirmer) {
	c.Confirmer = confirm
	c.Factory = ai.NewFactory(c.Credentials, confirm, c.Logger)
}

// NewGenerateService assembles the orchestrator around an analyzer adapter.
func (c *Container) NewGenerateService(collector ports.ContextCollector, progress func(done, total int)) *generate.Service {
	return &generate.Service{
		ConfigProvider: c.ConfigLoader,
		Collector:      collector,
		Prompter:       c.Prompter,
		Validator:      c.Validator,
		Factory:        c.Factory,
		Cache:          c.Cache,
		History:        c.History,
		Logger:         c.Logger,
		Progress:       progress,
	}
}
