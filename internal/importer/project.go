package importer

import (
	"fmt"
	"time"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

type projectModule struct {
	cfg Config
}

func (m projectModule) PlatformResource() string { return platform.ResourceProjects }
func (m projectModule) CreatesMappings() bool    { return true }

func (m projectModule) DestinationFilter(watermark *time.Time) attribute.Filter {
	return attribute.Filter{
		WorkspaceID:    m.cfg.WorkspaceID,
		AttributeTypes: []string{m.cfg.DestinationField},
		ActiveOnly:     watermark == nil,
		UpdatedAfter:   watermark,
	}
}

// ConstructPayload creates projects only for destination records that are
// both absent on the platform and still active; auto-sync turns deactivations
// into disable updates carrying the platform id.
func (m projectModule) ConstructPayload(page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) ([]any, error) {
	payload := make([]any, 0, len(page))
	for _, attr := range page {
		found, ok := existing[lowerKey(attr.Value)]

		if !ok {
			if !attr.IsActive() {
				continue
			}
			item := platform.ProjectPayload{
				Name:        attr.Value,
				Code:        m.code(attr),
				Description: projectDescription(attr),
				IsEnabled:   true,
			}
			if billable, ok := detailBool(attr.Detail, m.cfg.BillableDetailKey); ok {
				item.IsBillable = &billable
			}
			payload = append(payload, item)
			continue
		}
		if m.cfg.AutoSyncEnabled && !attr.IsActive() {
			payload = append(payload, platform.ProjectPayload{
				ID:          found.SourceID,
				Name:        found.Value,
				Code:        m.code(attr),
				Description: projectDescription(attr),
				IsEnabled:   false,
			})
		}
	}
	return payload, nil
}

func (m projectModule) code(attr *attributeDatamodel.DestinationAttribute) *string {
	if m.cfg.ImportWithoutDestinationID {
		return nil
	}
	code := attr.DestinationID
	return &code
}

func projectDescription(attr *attributeDatamodel.DestinationAttribute) string {
	return fmt.Sprintf("Project - %s, Id - %s", attr.Value, attr.DestinationID)
}
