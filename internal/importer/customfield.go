package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

// customFieldModule imports a free-form destination dimension as one SELECT
// expense field. The whole field, options included, goes out as a single
// object rather than paged batches.
type customFieldModule struct {
	cfg  Config
	deps Deps
}

func (m customFieldModule) PlatformResource() string { return platform.ResourceExpenseCustomFields }
func (m customFieldModule) CreatesMappings() bool    { return true }

// DestinationFilter ignores the watermark: the posted field replaces its
// option list wholesale, so every run reads the full active set.
func (m customFieldModule) DestinationFilter(_ *time.Time) attribute.Filter {
	return attribute.Filter{
		WorkspaceID:    m.cfg.WorkspaceID,
		AttributeTypes: []string{m.cfg.DestinationField},
		ActiveOnly:     true,
	}
}

func (m customFieldModule) ConstructPayload(page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) ([]any, error) {
	return nil, nil
}

func (m customFieldModule) ConstructSinglePayload(ctx context.Context, page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) (any, error) {
	options := unionMinusInactive(page, existing)
	if len(options) == 0 {
		return nil, nil
	}

	fieldName := fieldDisplayName(m.cfg.SourceField)
	payload := platform.ExpenseFieldPayload{
		FieldName: fieldName,
		Type:      "SELECT",
		IsEnabled: true,
		Options:   options,
		Code:      nil,
	}

	stored, err := m.deps.Attributes.GetExpenseAttribute(m.cfg.WorkspaceID, m.cfg.SourceField)
	if err != nil {
		return nil, err
	}

	payload.Placeholder = m.placeholder(stored, fieldName)

	if stored != nil {
		if fieldID := customFieldID(stored.Detail); fieldID != "" {
			payload.ID = fieldID
			payload.IsMandatory, err = m.isMandatory(ctx, fieldID)
			if err != nil {
				return nil, err
			}
		}
	}
	return payload, nil
}

// placeholder resolves in priority order: caller-supplied, previously stored,
// generated default.
func (m customFieldModule) placeholder(stored *attributeDatamodel.ExpenseAttribute, fieldName string) string {
	if m.cfg.SourcePlaceholder != "" {
		return m.cfg.SourcePlaceholder
	}
	if stored != nil && stored.Detail != nil {
		if p, ok := stored.Detail["placeholder"].(string); ok && p != "" {
			return p
		}
	}
	return fmt.Sprintf("Select %s", fieldName)
}

// isMandatory fetches the live mandatory flag so a re-post never flips a
// field an admin made required back to optional.
func (m customFieldModule) isMandatory(ctx context.Context, fieldID string) (bool, error) {
	resource, err := m.deps.Platform.Resource(platform.ResourceExpenseCustomFields)
	if err != nil {
		return false, err
	}
	field, err := resource.GetByID(ctx, fieldID)
	if err != nil {
		return false, err
	}
	mandatory, _ := field["is_mandatory"].(bool)
	return mandatory, nil
}

func customFieldID(detail attributeDatamodel.JSONMap) string {
	if detail == nil {
		return ""
	}
	switch id := detail["custom_field_id"].(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	}
	return ""
}

// fieldDisplayName turns an attribute type like TEAM_NAME into "Team Name".
func fieldDisplayName(sourceField string) string {
	words := strings.Split(strings.ToLower(sourceField), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
