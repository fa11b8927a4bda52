package importlog

import (
	importlogDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/importlog"
)

type RepositoryAPI interface {
	// GetOrCreateInProgress fetches the log for (workspace, attribute type),
	// creating it with status IN_PROGRESS when absent. The created flag lets
	// the caller tell a fresh row from a pre-existing in-flight run.
	GetOrCreateInProgress(workspaceID int64, attributeType string) (*importlogDatamodel.ImportLog, bool, error)
	Get(workspaceID int64, attributeType string) (*importlogDatamodel.ImportLog, error)
	Save(log *importlogDatamodel.ImportLog) error
	IsInProgress(workspaceID int64, attributeType string) (bool, error)
}
