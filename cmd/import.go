package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fylein/fyle-integrations-imports/internal/importer"
	"github.com/fylein/fyle-integrations-imports/internal/scheduler"
)

var (
	importWorkspaceID  int64
	importSourceField  string
	importDestField    string
	importSyncMethods  []string
	importIsCustom     bool
	importAutoSync     bool
	importPrependCode  bool
	importForceRestart bool
)

// importCmd runs one import directly. Unlike scheduled runs, errors propagate
// so a misbehaving import can be debugged from the command line.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run one import immediately",
	Long:  `Run a single typed import for a workspace, outside the scheduler`,
	RunE:  runAdHocImport,
}

func runAdHocImport(_ *cobra.Command, _ []string) error {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	cfg := importer.Config{
		WorkspaceID:             importWorkspaceID,
		SourceField:             strings.ToUpper(importSourceField),
		DestinationField:        strings.ToUpper(importDestField),
		DestinationSyncMethods:  importSyncMethods,
		IsCustom:                importIsCustom,
		AutoSyncEnabled:         importAutoSync,
		PrependCodeToName:       importPrependCode,
		AllowInProgressOverride: importForceRestart,
		PropagateErrors:         true,
	}

	return scheduler.TriggerImport(context.Background(), cfg, deps.importerDeps(importWorkspaceID))
}

func init() {
	importCmd.Flags().Int64Var(&importWorkspaceID, "workspace", 0, "Workspace id")
	importCmd.Flags().StringVar(&importSourceField, "source-field", "", "Attribute type to import, e.g. PROJECT")
	importCmd.Flags().StringVar(&importDestField, "destination-field", "", "Destination attribute type, e.g. ACCOUNT")
	importCmd.Flags().StringSliceVar(&importSyncMethods, "sync-methods", nil, "Connector sync methods to refresh first")
	importCmd.Flags().BoolVar(&importIsCustom, "custom", false, "Treat the source field as a custom expense field")
	importCmd.Flags().BoolVar(&importAutoSync, "auto-sync", false, "Disable platform values the destination deactivated")
	importCmd.Flags().BoolVar(&importPrependCode, "prepend-code", false, "Render values as '{code}: {value}'")
	importCmd.Flags().BoolVar(&importForceRestart, "force", false, "Start even if a run still reads IN_PROGRESS")

	_ = importCmd.MarkFlagRequired("workspace")
	_ = importCmd.MarkFlagRequired("source-field")
	_ = importCmd.MarkFlagRequired("destination-field")
	_ = importCmd.MarkFlagRequired("sync-methods")
}
