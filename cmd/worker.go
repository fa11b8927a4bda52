package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fylein/fyle-integrations-imports/internal/scheduler"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the import scheduler worker",
	Long:  `Run the recurring import chains for every configured workspace`,
	Run: func(cmd *cobra.Command, args []string) {
		startImportWorker()
	},
}

var scheduleInterval time.Duration

func startImportWorker() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	interval := deps.Config.Import.ScheduleInterval
	if scheduleInterval > 0 {
		interval = scheduleInterval
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	sched := scheduler.New(deps.chainBuilder(), deps.Logger)
	for _, wc := range deps.Config.Import.Workspaces {
		sched.ScheduleImports(wc.WorkspaceID, interval)
	}

	sched.Start()
	deps.Logger.Info("import worker is running. Press Ctrl+C to stop.",
		"workspaces", len(deps.Config.Import.Workspaces),
		"interval", interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	deps.Logger.Info("received signal, shutting down import worker", "signal", sig)

	sched.Stop()
	deps.Logger.Info("import worker shutdown complete")
}

func init() {
	workerCmd.Flags().DurationVar(&scheduleInterval, "interval", 0, "Import interval per workspace (overrides config)")
}
