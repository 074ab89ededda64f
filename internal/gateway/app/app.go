// Package app wires the gateway together: config, logger, stores, the
// two oracles and the wizard manager, then the HTTP surface on top.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hrflow/internal/agreement"
	"hrflow/internal/feature"
	"hrflow/internal/gateway/config"
	"hrflow/internal/gateway/handler"
	"hrflow/internal/gateway/server"
	"hrflow/internal/oracle/extract"
	"hrflow/internal/oracle/registrydiff"
	"hrflow/internal/registry"
	"hrflow/internal/store/documents"
	"hrflow/internal/wizard"
)

type App struct {
	server *server.Server
	logger *zap.Logger
	stores *gatewayStores
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	stores, err := initStores(cfg, logger)
	if err != nil {
		return nil, err
	}

	// The import oracle needs a model; without one the sync wizard still
	// works and import sessions fail at analyze time with a clear error.
	var extractor *extract.Extractor
	if llm, llmErr := extract.NewGeminiLLM(context.Background(), cfg.GeminiModel); llmErr != nil {
		logger.Warn("document extraction disabled", zap.Error(llmErr))
	} else {
		extractor, err = extract.New(llm, logger)
		if err != nil {
			return nil, fmt.Errorf("init extractor: %w", err)
		}
	}

	differ := registrydiff.New(func() (*registry.Registry, error) {
		return registry.Load(cfg.RegistryPath)
	}, stores.features, logger)

	manager := wizard.NewManager(wizard.ManagerDeps{
		Logger:  logger,
		Propose: proposeFunc(extractor, differ, stores.documents),
		Writers: writerFactory(stores),
		OnCommitted: func(variant wizard.Variant) {
			if variant == wizard.VariantSync {
				stores.features.InvalidateCache()
			}
		},
	})

	wizardHandler := handler.NewWizardHandler(manager, stores.documents, logger)
	catalogHandler := handler.NewCatalogHandler(stores.features)
	eventsHandler := handler.NewEventsHandler(manager, logger)

	mux := server.NewMux(wizardHandler, catalogHandler, eventsHandler)
	srv := server.New(cfg.Port, mux, logger)

	return &App{
		server: srv,
		logger: logger,
		stores: stores,
	}, nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProductionConfig().Build()
}

func proposeFunc(extractor *extract.Extractor, differ *registrydiff.Differ, docs documents.Store) wizard.ProposeFunc {
	return func(ctx context.Context, variant wizard.Variant, input wizard.Input) (*wizard.Proposal, error) {
		switch variant {
		case wizard.VariantImport:
			if extractor == nil {
				return nil, fmt.Errorf("document extraction is not configured")
			}
			content, err := docs.Get(ctx, input.DocumentKey)
			if err != nil {
				return nil, fmt.Errorf("load document %s: %w", input.DocumentKey, err)
			}
			return extractor.Propose(ctx, string(content))
		case wizard.VariantSync:
			return differ.Propose(ctx, input.Scope)
		default:
			return nil, fmt.Errorf("unknown wizard variant %q", variant)
		}
	}
}

func writerFactory(stores *gatewayStores) wizard.WriterFactory {
	return func(variant wizard.Variant, releaseID string) (wizard.Writer, error) {
		switch variant {
		case wizard.VariantImport:
			return &agreement.ImportWriter{
				Store:     stores.agreements,
				Agreement: agreement.Agreement{ID: uuid.NewString()},
			}, nil
		case wizard.VariantSync:
			return &feature.SyncWriter{
				Store:     stores.features,
				ReleaseID: releaseID,
			}, nil
		default:
			return nil, fmt.Errorf("unknown wizard variant %q", variant)
		}
	}
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	_ = a.stores.features.Close()
	_ = a.stores.agreements.Close()
	a.logger.Info("server exiting")
	_ = a.logger.Sync()
	return err
}
