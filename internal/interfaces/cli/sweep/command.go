package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/tenantbilling/internal/infrastructure/config"
	"github.com/orris-inc/tenantbilling/internal/infrastructure/database"
	httpRouter "github.com/orris-inc/tenantbilling/internal/interfaces/http"
	"github.com/orris-inc/tenantbilling/internal/shared/biztime"
	"github.com/orris-inc/tenantbilling/internal/shared/logger"
)

var (
	env        string
	configPath string
)

// NewCommand runs one sweep pass and exits, for hosts that schedule the
// sweep with system cron instead of calling the internal endpoint.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Apply expired trials and due downgrades once",
		Long:  `Run a single sweep over subscriptions whose trial has ended or whose scheduled downgrade is due, print the result as JSON and exit.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	// The one-shot run never starts the in-process scheduler.
	cfg.Sweeper.InProcess = false

	log := logger.NewLogger()
	container, err := httpRouter.NewContainer(cfg, database.Get(), nil, log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Sweeper.Timeout)
	defer cancel()

	result, err := container.SweepUseCase().Execute(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	log.Infow("sweep finished",
		"processed", result.Processed,
		"failed", result.Failed,
		"skipped", result.Skipped)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d subscriptions failed to sweep", result.Failed)
	}
	return nil
}
