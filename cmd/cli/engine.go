package cli

import (
	"context"
	"fmt"

	"github.com/elas-hq/elas-gateway/internal/config"
	"github.com/elas-hq/elas-gateway/internal/engine"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewEngineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Manage the local n8n engine process",
	}

	cmd.AddCommand(newEngineStartCommand())
	cmd.AddCommand(newEngineStopCommand())
	cmd.AddCommand(newEngineResetCommand())

	return cmd
}

func newEngineStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the engine and wait for it to become ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSupervisor(func(ctx context.Context, s *engine.Supervisor) error {
				result, err := s.Start(ctx)
				if err != nil {
					return err
				}

				if result.AlreadyRunning {
					fmt.Println("✅ Engine is already running")
					return nil
				}

				log.Info().Int("pid", result.PID).Msg("Engine launched, waiting for readiness")

				if err := s.PollUntilReady(ctx); err != nil {
					return fmt.Errorf("engine did not become ready: %w", err)
				}

				fmt.Println("✅ Engine started")
				return nil
			})
		},
	}
}

func newEngineStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the engine process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSupervisor(func(ctx context.Context, s *engine.Supervisor) error {
				if err := s.Stop(ctx); err != nil {
					return err
				}
				fmt.Println("✅ Engine stopped")
				return nil
			})
		},
	}
}

func newEngineResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Stop the engine and delete its data directory",
		Long:  `Stop the engine, wait for file handles to be released, then delete its persisted data directory. This removes all workflows and credentials stored by the engine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSupervisor(func(ctx context.Context, s *engine.Supervisor) error {
				result, err := s.Reset(ctx)
				if err != nil {
					return err
				}

				if result.DataDirRemoved {
					fmt.Println("✅ Engine state reset, data directory removed")
				} else {
					fmt.Println("✅ Engine stopped, no data directory to remove")
				}
				return nil
			})
		},
	}
}

func withSupervisor(fn func(context.Context, *engine.Supervisor) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	return fn(context.Background(), newSupervisor(cfg))
}
