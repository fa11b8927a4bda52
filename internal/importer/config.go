package importer

import (
	"fmt"

	"github.com/fylein/fyle-integrations-imports/internal"
)

// Config carries every per-module toggle as a named, typed field. It is built
// once per import kind at wiring time and validated before any side effects.
type Config struct {
	WorkspaceID int64

	// SourceField is the platform-side attribute type being imported into,
	// e.g. PROJECT or a custom field type like TEAM_NAME.
	SourceField string

	// DestinationField is the accounting-side attribute type the values come
	// from. One destination type can back several logical kinds, e.g. ACCOUNT
	// feeding CATEGORY.
	DestinationField string

	// DestinationSyncMethods are the connector sync methods refreshed before
	// each run, validated against the connector registry at construction.
	DestinationSyncMethods []string

	// AutoSyncEnabled turns destination-side deactivations into platform-side
	// disable updates during the run.
	AutoSyncEnabled bool

	// Is3DMapping enables the corporate-card category mapping pass after
	// category mappings are created.
	Is3DMapping bool

	// ChartsOfAccounts restricts account-backed category imports to an
	// allow-list of account subtypes. Empty means no restriction.
	ChartsOfAccounts []string

	// UseMappingTable routes category links through the generic mapping table
	// instead of CategoryMapping rows.
	UseMappingTable bool

	// PrependCodeToName renders values as "{code}: {value}" everywhere a name
	// is compared or posted.
	PrependCodeToName bool

	// ImportWithoutDestinationID drops the code field from posted payloads.
	ImportWithoutDestinationID bool

	// BillableDetailKey, when set, names the destination detail key whose
	// boolean value becomes the project's billable flag.
	BillableDetailKey string

	// SourcePlaceholder overrides the stored and generated placeholder for
	// custom-field imports.
	SourcePlaceholder string

	// IsCustom marks a free-form custom field import rather than a well-known
	// attribute type.
	IsCustom bool

	// AllowInProgressOverride lets a caller start a run even when the import
	// log still reads IN_PROGRESS. The freshness window is always respected.
	AllowInProgressOverride bool

	// PropagateErrors makes Run return the underlying error instead of only
	// recording it on the import log. Used by ad hoc invocations; scheduled
	// runs leave it off.
	PropagateErrors bool
}

func (c Config) Validate() error {
	if c.WorkspaceID <= 0 {
		return internal.NewConfigurationError("import config requires a workspace id", internal.ErrCodeInvalidConfig)
	}
	if c.SourceField == "" {
		return internal.NewConfigurationError("import config requires a source field", internal.ErrCodeInvalidConfig)
	}
	if c.DestinationField == "" {
		return internal.NewConfigurationError(
			fmt.Sprintf("import config for %s requires a destination field", c.SourceField),
			internal.ErrCodeInvalidConfig,
		)
	}
	if len(c.DestinationSyncMethods) == 0 {
		return internal.NewConfigurationError(
			fmt.Sprintf("import config for %s requires at least one sync method", c.SourceField),
			internal.ErrCodeInvalidConfig,
		)
	}
	return nil
}
