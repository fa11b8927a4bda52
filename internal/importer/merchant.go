package importer

import (
	"context"
	"sort"
	"time"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

// merchantModule posts the full merchant list in one call. The list is the
// union of both sides minus anything flagged inactive on either side.
type merchantModule struct {
	cfg Config
}

func (m merchantModule) PlatformResource() string { return platform.ResourceMerchants }
func (m merchantModule) CreatesMappings() bool    { return false }

// DestinationFilter ignores the watermark: the merchant list is reposted
// wholesale each run, so every run reads the full active set.
func (m merchantModule) DestinationFilter(_ *time.Time) attribute.Filter {
	return attribute.Filter{
		WorkspaceID:    m.cfg.WorkspaceID,
		AttributeTypes: []string{m.cfg.DestinationField},
		ActiveOnly:     true,
	}
}

// ConstructPayload exists to satisfy the module contract; merchants always
// post through the single-call path.
func (m merchantModule) ConstructPayload(page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) ([]any, error) {
	return nil, nil
}

func (m merchantModule) ConstructSinglePayload(_ context.Context, page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) (any, error) {
	options := unionMinusInactive(page, existing)
	if len(options) == 0 {
		return nil, nil
	}
	return platform.MerchantPayload{Options: options}, nil
}

// unionMinusInactive merges destination values with existing platform values,
// case-insensitively, dropping any value that either side marks inactive.
// First-seen casing wins; destination values are visited in page order,
// platform values in sorted key order for determinism.
func unionMinusInactive(page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) []string {
	inactive := make(map[string]bool)
	casing := make(map[string]string)
	var order []string

	for _, attr := range page {
		key := lowerKey(attr.Value)
		if !attr.IsActive() {
			inactive[key] = true
		}
		if _, seen := casing[key]; !seen {
			casing[key] = attr.Value
			order = append(order, key)
		}
	}

	existingKeys := make([]string, 0, len(existing))
	for key := range existing {
		existingKeys = append(existingKeys, key)
	}
	sort.Strings(existingKeys)
	for _, key := range existingKeys {
		found := existing[key]
		if !found.Active {
			inactive[key] = true
		}
		if _, seen := casing[key]; !seen {
			casing[key] = found.Value
			order = append(order, key)
		}
	}

	values := make([]string, 0, len(order))
	for _, key := range order {
		if inactive[key] {
			continue
		}
		values = append(values, casing[key])
	}
	return values
}
