package importer

import (
	"fmt"
	"time"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

type costCenterModule struct {
	cfg Config
}

func (m costCenterModule) PlatformResource() string { return platform.ResourceCostCenters }
func (m costCenterModule) CreatesMappings() bool    { return true }

func (m costCenterModule) DestinationFilter(watermark *time.Time) attribute.Filter {
	return attribute.Filter{
		WorkspaceID:    m.cfg.WorkspaceID,
		AttributeTypes: []string{m.cfg.DestinationField},
		ActiveOnly:     watermark == nil,
		UpdatedAfter:   watermark,
	}
}

// ConstructPayload matches destination values against platform values
// case-insensitively, so a destination "Sales" never creates a near-duplicate
// of an existing platform "sales". The update path reuses the platform's own
// id and casing.
func (m costCenterModule) ConstructPayload(page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) ([]any, error) {
	payload := make([]any, 0, len(page))
	for _, attr := range page {
		found, ok := existing[lowerKey(attr.Value)]

		if !ok {
			payload = append(payload, platform.CostCenterPayload{
				Name:        attr.Value,
				Code:        m.code(attr),
				Description: fmt.Sprintf("Cost Center - %s, Id - %s", attr.Value, attr.DestinationID),
				IsEnabled:   attr.IsActive(),
			})
			continue
		}
		if m.cfg.AutoSyncEnabled && !attr.IsActive() {
			payload = append(payload, platform.CostCenterPayload{
				ID:          found.SourceID,
				Name:        found.Value,
				Code:        m.code(attr),
				Description: fmt.Sprintf("Cost Center - %s, Id - %s", found.Value, attr.DestinationID),
				IsEnabled:   false,
			})
		}
	}
	return payload, nil
}

func (m costCenterModule) code(attr *attributeDatamodel.DestinationAttribute) *string {
	if m.cfg.ImportWithoutDestinationID {
		return nil
	}
	code := attr.DestinationID
	return &code
}
