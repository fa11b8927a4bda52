package importer

import (
	"time"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/connector"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

// unspecifiedCategory is the platform's fallback category. It must never be
// disabled, whatever the destination side says about it.
const unspecifiedCategory = "Unspecified"

// categoryModule imports ledger accounts, items or expense categories into
// platform categories.
type categoryModule struct {
	cfg Config
}

func (m categoryModule) PlatformResource() string { return platform.ResourceCategories }
func (m categoryModule) CreatesMappings() bool    { return true }

// DestinationFilter splits a shared ACCOUNT destination type by display name
// when several sync methods feed the same logical category space, applying
// the chart-of-accounts allow-list to the account side only.
func (m categoryModule) DestinationFilter(watermark *time.Time) attribute.Filter {
	f := attribute.Filter{
		WorkspaceID:    m.cfg.WorkspaceID,
		AttributeTypes: []string{m.cfg.DestinationField},
		ActiveOnly:     watermark == nil,
		UpdatedAfter:   watermark,
	}
	if m.cfg.DestinationField != attribute.TypeAccount {
		return f
	}
	for _, method := range m.cfg.DestinationSyncMethods {
		switch method {
		case connector.SyncAccounts:
			f.SubFilters = append(f.SubFilters, attribute.SubFilter{
				DisplayName:  attribute.DisplayNameAccount,
				AccountTypes: m.cfg.ChartsOfAccounts,
			})
		case connector.SyncItems:
			f.SubFilters = append(f.SubFilters, attribute.SubFilter{DisplayName: attribute.DisplayNameItem})
		case connector.SyncExpenseCategories:
			f.SubFilters = append(f.SubFilters, attribute.SubFilter{DisplayName: attribute.DisplayNameExpenseCategory})
		}
	}
	return f
}

func (m categoryModule) ConstructPayload(page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) ([]any, error) {
	payload := make([]any, 0, len(page))
	for _, attr := range page {
		found, ok := existing[lowerKey(attr.Value)]
		enabled := attr.IsActive() || attr.Value == unspecifiedCategory

		if !ok {
			payload = append(payload, platform.CategoryPayload{
				Name:      attr.Value,
				Code:      m.code(attr),
				IsEnabled: enabled,
			})
			continue
		}
		if m.cfg.AutoSyncEnabled && !attr.IsActive() && attr.Value != unspecifiedCategory {
			payload = append(payload, platform.CategoryPayload{
				ID:        found.SourceID,
				Name:      found.Value,
				Code:      m.code(attr),
				IsEnabled: false,
			})
		}
	}
	return payload, nil
}

func (m categoryModule) code(attr *attributeDatamodel.DestinationAttribute) *string {
	if m.cfg.ImportWithoutDestinationID {
		return nil
	}
	code := attr.DestinationID
	return &code
}
