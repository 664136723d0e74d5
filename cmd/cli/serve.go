package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/elas-hq/elas-gateway/internal/config"
	"github.com/elas-hq/elas-gateway/internal/controllers"
	"github.com/elas-hq/elas-gateway/internal/credentials"
	"github.com/elas-hq/elas-gateway/internal/engine"
	"github.com/elas-hq/elas-gateway/internal/server"
	"github.com/elas-hq/elas-gateway/internal/syncer"
	"github.com/elas-hq/elas-gateway/pkg/clients/makecom"
	"github.com/elas-hq/elas-gateway/pkg/clients/n8n"
	"github.com/elas-hq/elas-gateway/pkg/clients/quickbooks"
	"github.com/elas-hq/elas-gateway/pkg/clients/syncbackend"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server",
		Long:  `Start the gateway HTTP server that fronts the sync backend, Make.com and the local n8n engine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	return cmd
}

func runServe() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("address", cfg.HTTPAddress).
		Str("backend", cfg.BackendAPIBaseURL).
		Msg("Starting gateway")

	deps := buildServerDependencies(cfg)

	app := server.NewHTTPServer(ctx, deps)

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	log.Info().Msg("Gateway stopped")
	return nil
}

// buildServerDependencies wires the controllers and their collaborators from
// the loaded configuration.
func buildServerDependencies(cfg *config.Config) server.HTTPServerDependencies {
	credStore := credentials.NewMemoryStore()

	makeClient := makecom.NewClient(credStore,
		makecom.WithBaseURL(cfg.MakeAPIBaseURL),
	)

	backendClient := syncbackend.NewClient(
		syncbackend.WithBaseURL(cfg.BackendAPIBaseURL),
	)

	qbClient := quickbooks.NewClient(quickbooks.Config{
		AccessToken: cfg.QBAccessToken,
		CompanyID:   cfg.QBCompanyID,
		Production:  cfg.QBProduction,
	})

	n8nClient := n8n.NewClient(
		n8n.WithBaseURL(cfg.N8NBaseURL()),
		n8n.WithAPIToken(cfg.EngineToken()),
	)

	supervisor := newSupervisor(cfg)

	dataDir := cfg.N8NDataDir
	if dataDir == "" {
		dataDir = engine.DefaultConfig().DataDir
	}

	orchestrator := syncer.NewOrchestrator(syncer.OrchestratorDependencies{
		Backend: backendClient,
	})

	return server.HTTPServerDependencies{
		MakeController: controllers.NewMakeController(controllers.MakeControllerDependencies{
			Credentials: credStore,
			Client:      makeClient,
		}),
		QuickBooksController: controllers.NewQuickBooksController(controllers.QuickBooksControllerDependencies{
			Backend:        backendClient,
			Query:          qbClient,
			RedirectOrigin: cfg.OAuthRedirectOrigin,
		}),
		EngineController: controllers.NewEngineController(controllers.EngineControllerDependencies{
			Supervisor: supervisor,
		}),
		N8NController: controllers.NewN8NController(controllers.N8NControllerDependencies{
			Client:    n8nClient,
			Workflows: engine.NewWorkflowReader(dataDir),
			Token:     cfg.EngineToken(),
		}),
		SyncController: controllers.NewSyncController(controllers.SyncControllerDependencies{
			Orchestrator: orchestrator,
			Backend:      backendClient,
		}),
	}
}

// newSupervisor builds an engine supervisor from gateway configuration,
// keeping the probe and readiness defaults.
func newSupervisor(cfg *config.Config) *engine.Supervisor {
	engineConfig := engine.DefaultConfig()
	engineConfig.BaseURL = cfg.N8NBaseURL()
	if cfg.N8NDataDir != "" {
		engineConfig.DataDir = cfg.N8NDataDir
	}

	return engine.NewSupervisor(engine.SupervisorDependencies{
		Config: engineConfig,
	})
}
