package scheduler

import (
	"context"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/importer"
)

// TriggerImport runs one typed import immediately. Ad hoc callers set
// PropagateErrors on the config to get fail-fast behavior; the scheduler
// leaves it off.
func TriggerImport(ctx context.Context, cfg importer.Config, deps importer.Deps) error {
	imp, err := importer.New(cfg, deps)
	if err != nil {
		return err
	}
	return imp.Run(ctx)
}

// DisableCategoryForItemsMapping retires item-sourced platform categories for
// workspaces that stopped mapping items. Active item-backed category mappings
// mean items are still in use and nothing is touched.
func DisableCategoryForItemsMapping(ctx context.Context, workspaceID int64, deps importer.Deps) error {
	inUse, err := deps.Mappings.HasActiveItemCategoryMappings(workspaceID)
	if err != nil {
		return err
	}
	if inUse {
		return nil
	}

	items, err := deps.Attributes.ListDestination(attribute.Filter{
		WorkspaceID:    workspaceID,
		AttributeTypes: []string{attribute.TypeAccount},
		SubFilters:     []attribute.SubFilter{{DisplayName: attribute.DisplayNameItem}},
	})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	changes := make(map[string]importer.AttributeChange, len(items))
	for _, item := range items {
		changes[item.DestinationID] = importer.AttributeChange{
			OldValue: item.Value,
			NewValue: item.Value,
			OldCode:  item.DestinationID,
			NewCode:  item.DestinationID,
			Retired:  true,
		}
	}

	cfg := importer.Config{
		WorkspaceID:      workspaceID,
		SourceField:      attribute.TypeCategory,
		DestinationField: attribute.TypeAccount,
	}
	disabled, err := importer.DisableCategories(ctx, deps, cfg, changes)
	if err != nil {
		return err
	}
	if disabled > 0 {
		deps.Logger.Info("disabled item-backed categories",
			"workspace_id", workspaceID,
			"count", disabled)
	}
	return nil
}
