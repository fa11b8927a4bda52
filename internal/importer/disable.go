package importer

import (
	"context"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/core/events"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

// AttributeChange describes one destination-side rename or retirement, keyed
// by destination id in the maps handed to the Disable functions. Renames with
// an unchanged rendered name are no-ops; retirements always disable.
type AttributeChange struct {
	OldValue string
	NewValue string
	OldCode  string
	NewCode  string
	Retired  bool
}

// DisableCategories marks platform categories inactive in response to
// destination-side renames or retirements.
func DisableCategories(ctx context.Context, deps Deps, cfg Config, changes map[string]AttributeChange) (int, error) {
	return disableAttributes(ctx, deps, cfg, changes, func(found attribute.ExistingAttribute) any {
		return platform.CategoryPayload{ID: found.SourceID, Name: found.Value, IsEnabled: false}
	})
}

// DisableProjects is the project variant of the rename/retire callback.
func DisableProjects(ctx context.Context, deps Deps, cfg Config, changes map[string]AttributeChange) (int, error) {
	return disableAttributes(ctx, deps, cfg, changes, func(found attribute.ExistingAttribute) any {
		return platform.ProjectPayload{ID: found.SourceID, Name: found.Value, IsEnabled: false}
	})
}

// DisableCostCenters is the cost-center variant of the rename/retire callback.
func DisableCostCenters(ctx context.Context, deps Deps, cfg Config, changes map[string]AttributeChange) (int, error) {
	return disableAttributes(ctx, deps, cfg, changes, func(found attribute.ExistingAttribute) any {
		return platform.CostCenterPayload{ID: found.SourceID, Name: found.Value, IsEnabled: false}
	})
}

// DisableMerchants only deactivates the local mirror; the platform merchant
// list is replaced wholesale on the next import run.
func DisableMerchants(ctx context.Context, deps Deps, cfg Config, changes map[string]AttributeChange) (int, error) {
	return disableAttributes(ctx, deps, cfg, changes, nil)
}

// disableAttributes looks up the still-active platform values rendered from
// the old names and marks them inactive, optionally posting disable updates.
// Entries whose rendered name did not change are skipped, as are names now
// ambiguous because another destination record renders to the same string.
func disableAttributes(
	ctx context.Context,
	deps Deps,
	cfg Config,
	changes map[string]AttributeChange,
	buildPayload func(found attribute.ExistingAttribute) any,
) (int, error) {
	oldNames := make([]string, 0, len(changes))
	for destinationID, change := range changes {
		oldName := renderName(cfg.PrependCodeToName, change.OldValue, change.OldCode)
		newName := renderName(cfg.PrependCodeToName, change.NewValue, change.NewCode)
		if oldName == newName && !change.Retired {
			continue
		}
		ambiguous, err := hasOtherDestinationWithValue(deps, cfg, change.OldValue, destinationID)
		if err != nil {
			return 0, err
		}
		if ambiguous {
			deps.Logger.Warn("skipping disable, value still held by another record",
				"workspace_id", cfg.WorkspaceID,
				"attribute_type", cfg.SourceField,
				"value", change.OldValue)
			continue
		}
		oldNames = append(oldNames, oldName)
	}
	if len(oldNames) == 0 {
		return 0, nil
	}

	existing, err := deps.Attributes.ExistingExpenseAttributes(attribute.Filter{
		WorkspaceID:    cfg.WorkspaceID,
		AttributeTypes: []string{cfg.SourceField},
		ActiveOnly:     true,
		Values:         oldNames,
	})
	if err != nil {
		return 0, err
	}
	if len(existing) == 0 {
		return 0, nil
	}

	if buildPayload != nil {
		resource, err := deps.Platform.Resource(platformResourceForSourceField(cfg.SourceField))
		if err != nil {
			return 0, err
		}
		payload := make([]any, 0, len(existing))
		for _, name := range oldNames {
			if found, ok := existing[lowerKey(name)]; ok {
				payload = append(payload, buildPayload(found))
			}
		}
		if len(payload) > 0 {
			if err := resource.PostBulk(ctx, payload); err != nil {
				return 0, err
			}
		}
	}

	disabled := make([]string, 0, len(existing))
	for _, name := range oldNames {
		if found, ok := existing[lowerKey(name)]; ok {
			disabled = append(disabled, found.Value)
		}
	}
	if err := deps.Attributes.DisableExpenseAttributesByValues(cfg.WorkspaceID, cfg.SourceField, disabled); err != nil {
		return 0, err
	}
	if deps.Events != nil && len(disabled) > 0 {
		event := events.NewAttributesDisabled(cfg.WorkspaceID, cfg.SourceField, disabled)
		if err := deps.Events.Publish(ctx, event); err != nil {
			deps.Logger.Warn("failed to publish disable event", "error", err)
		}
	}
	return len(disabled), nil
}

// hasOtherDestinationWithValue reports whether a different destination record
// still carries the raw value, which would make disabling by name ambiguous.
func hasOtherDestinationWithValue(deps Deps, cfg Config, value, destinationID string) (bool, error) {
	attrs, err := deps.Attributes.ListDestination(attribute.Filter{
		WorkspaceID:    cfg.WorkspaceID,
		AttributeTypes: []string{cfg.DestinationField},
		Values:         []string{value},
	})
	if err != nil {
		return false, err
	}
	for _, attr := range attrs {
		if attr.DestinationID != destinationID {
			return true, nil
		}
	}
	return false, nil
}

func platformResourceForSourceField(sourceField string) string {
	switch sourceField {
	case attribute.TypeProject:
		return platform.ResourceProjects
	case attribute.TypeCostCenter:
		return platform.ResourceCostCenters
	default:
		return platform.ResourceCategories
	}
}
