package importer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

// taxGroupModule is create-only: tax groups are never disabled from the
// import side.
type taxGroupModule struct {
	cfg Config
}

func (m taxGroupModule) PlatformResource() string { return platform.ResourceTaxGroups }
func (m taxGroupModule) CreatesMappings() bool    { return true }

func (m taxGroupModule) DestinationFilter(watermark *time.Time) attribute.Filter {
	return attribute.Filter{
		WorkspaceID:    m.cfg.WorkspaceID,
		AttributeTypes: []string{m.cfg.DestinationField},
		ActiveOnly:     watermark == nil,
		UpdatedAfter:   watermark,
	}
}

func (m taxGroupModule) ConstructPayload(page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) ([]any, error) {
	payload := make([]any, 0, len(page))
	for _, attr := range page {
		if _, ok := existing[lowerKey(attr.Value)]; ok {
			continue
		}
		rate, ok := taxRate(attr.Detail)
		if !ok {
			continue
		}
		payload = append(payload, platform.TaxGroupPayload{
			Name:       attr.Value,
			IsEnabled:  true,
			Percentage: taxPercentage(rate),
		})
	}
	return payload, nil
}

func taxRate(detail attributeDatamodel.JSONMap) (float64, bool) {
	if detail == nil {
		return 0, false
	}
	rate, ok := detail["tax_rate"].(float64)
	return rate, ok
}

// taxPercentage converts a destination tax rate to the platform's fractional
// form, rounded half up to two decimals: 8.5 becomes 0.09, not 0.08.
func taxPercentage(rate float64) float64 {
	percentage, _ := decimal.NewFromFloat(rate).
		Div(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return percentage
}
