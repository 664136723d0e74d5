package cli

import (
	"context"
	"fmt"

	"github.com/elas-hq/elas-gateway/internal/config"
	"github.com/elas-hq/elas-gateway/pkg/clients/syncbackend"

	"github.com/spf13/cobra"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show gateway configuration and engine liveness",
		Long:  `Display the resolved gateway configuration and whether the local n8n engine is currently running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	supervisor := newSupervisor(cfg)
	running := supervisor.IsRunning(context.Background())

	fmt.Println("Gateway configuration")
	fmt.Printf("   HTTP address: %s\n", cfg.HTTPAddress)
	fmt.Printf("   Backend API: %s\n", cfg.BackendAPIBaseURL)
	fmt.Printf("   Make.com API: %s\n", cfg.MakeAPIBaseURL)
	fmt.Printf("   QuickBooks environment: %s\n", qbEnvironment(cfg))
	fmt.Printf("   Engine URL: %s\n", cfg.N8NBaseURL())
	fmt.Printf("   Engine token configured: %v (length %d)\n", cfg.EngineToken() != "", len(cfg.EngineToken()))

	if running {
		fmt.Println("✅ Engine is running")
	} else {
		fmt.Println("❌ Engine is not running")
		fmt.Printf("Run '%s engine start' to launch it\n", "elas-gateway")
	}

	backend := syncbackend.NewClient(syncbackend.WithBaseURL(cfg.BackendAPIBaseURL))
	if health, err := backend.Health(context.Background()); err == nil {
		fmt.Printf("✅ Sync backend is %s\n", health.Status)
	} else {
		fmt.Println("❌ Sync backend is unreachable")
	}

	return nil
}

func qbEnvironment(cfg *config.Config) string {
	if cfg.QBProduction {
		return "production"
	}
	return "sandbox"
}
