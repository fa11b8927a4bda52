package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fylein/fyle-integrations-imports/internal"
	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/cache"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
)

const (
	ActionCreated = "CREATED"
	ActionUpdated = "UPDATED"
	ActionDeleted = "DELETED"
)

// Event is the inbound webhook body.
type Event struct {
	Action   string         `json:"action"`
	Resource string         `json:"resource"`
	Data     map[string]any `json:"data"`
}

// extractor maps one webhook resource type onto the expense attribute shape.
type extractor struct {
	attributeType string
	displayName   string
	value         func(data map[string]any) string
	detail        func(data map[string]any) attributeDatamodel.JSONMap
	// skip drops the event before any mutation when it returns true.
	skip func(data map[string]any) bool
}

var extractors = map[string]extractor{
	"CATEGORY": {
		attributeType: attribute.TypeCategory,
		displayName:   "Category",
		value: func(data map[string]any) string {
			return joinDistinct(stringAt(data, "name"), stringAt(data, "sub_category"), " / ")
		},
	},
	"PROJECT": {
		attributeType: attribute.TypeProject,
		displayName:   "Project",
		value: func(data map[string]any) string {
			return joinDistinct(stringAt(data, "name"), stringAt(data, "sub_project"), " / ")
		},
	},
	"COST_CENTER": {
		attributeType: attribute.TypeCostCenter,
		displayName:   "Cost Center",
		value:         func(data map[string]any) string { return stringAt(data, "name") },
	},
	"MERCHANT": {
		attributeType: attribute.TypeMerchant,
		displayName:   "Merchant",
		value:         func(data map[string]any) string { return stringAt(data, "name") },
	},
	"TAX_GROUP": {
		attributeType: attribute.TypeTaxGroup,
		displayName:   "Tax Group",
		value:         func(data map[string]any) string { return stringAt(data, "name") },
		detail: func(data map[string]any) attributeDatamodel.JSONMap {
			if percentage, ok := data["percentage"]; ok {
				return attributeDatamodel.JSONMap{"tax_rate": percentage}
			}
			return nil
		},
	},
	"EMPLOYEE": {
		attributeType: attribute.TypeEmployee,
		displayName:   "Employee",
		// Employees only become attributes once they accept their invite.
		skip: func(data map[string]any) bool {
			accepted, ok := data["has_accepted_invite"].(bool)
			return ok && !accepted
		},
		value: func(data map[string]any) string { return stringAt(data, "user.email") },
		detail: func(data map[string]any) attributeDatamodel.JSONMap {
			return attributeDatamodel.JSONMap{
				"full_name":   stringAt(data, "user.full_name"),
				"location":    stringAt(data, "location"),
				"department":  stringAt(data, "department.name"),
				"employee_id": stringAt(data, "employee_id"),
			}
		},
	},
	"CORPORATE_CARD": {
		attributeType: attribute.TypeCorporateCard,
		displayName:   "Corporate Card",
		value: func(data map[string]any) string {
			number := stringAt(data, "card_number")
			if len(number) > 6 {
				number = number[len(number)-6:]
			}
			number = strings.ReplaceAll(number, "-", "")
			return fmt.Sprintf("%s - %s", stringAt(data, "bank_name"), number)
		},
	},
}

const (
	resourceExpenseField = "EXPENSE_FIELD"
	// Dependent fields arrive with the same shape as expense fields; their
	// option rows just carry a dependency marker.
	resourceDependentField = "DEPENDENT_FIELD"
)

// Processor applies webhook attribute changes incrementally. It never blocks
// a running import; its only synchronization is a best-effort read of the
// in-progress cache.
type Processor struct {
	attrs  attribute.RepositoryAPI
	cache  cache.Cache
	logger *slog.Logger
}

func NewProcessor(attrs attribute.RepositoryAPI, cacheStore cache.Cache, logger *slog.Logger) *Processor {
	return &Processor{attrs: attrs, cache: cacheStore, logger: logger}
}

// Process validates the event, consults the in-progress cache and routes to
// the matching mutation. Deletes always apply immediately: disabling is safe
// mid-import and must not be delayed.
func (p *Processor) Process(ctx context.Context, workspaceID int64, event Event) error {
	if event.Action != ActionCreated && event.Action != ActionUpdated && event.Action != ActionDeleted {
		return internal.NewValidationError(
			fmt.Sprintf("unknown webhook action %q", event.Action),
			internal.ErrCodeUnknownResource,
		)
	}

	if event.Resource == resourceExpenseField || event.Resource == resourceDependentField {
		return p.processExpenseField(ctx, workspaceID, event)
	}

	ext, ok := extractors[event.Resource]
	if !ok {
		p.logger.Warn("ignoring webhook for unknown resource",
			"workspace_id", workspaceID,
			"resource", event.Resource)
		return internal.NewValidationError(
			fmt.Sprintf("unknown webhook resource %q", event.Resource),
			internal.ErrCodeUnknownResource,
		)
	}

	sourceID := stringAt(event.Data, "id")
	if sourceID == "" {
		return internal.NewDataError("webhook payload has no id", internal.ErrCodeMalformedBatch)
	}

	if ext.skip != nil && ext.skip(event.Data) {
		p.logger.Info("skipping webhook",
			"workspace_id", workspaceID,
			"attribute_type", ext.attributeType,
			"source_id", sourceID)
		return nil
	}

	if event.Action == ActionDeleted {
		return p.attrs.DisableExpenseAttributeBySourceID(workspaceID, ext.attributeType, sourceID)
	}

	if p.importInProgress(ctx, workspaceID, ext.attributeType) {
		p.logger.Info("skipping webhook, import in progress",
			"workspace_id", workspaceID,
			"attribute_type", ext.attributeType,
			"action", event.Action)
		return nil
	}

	value := ext.value(event.Data)
	if value == "" {
		return internal.NewDataError("webhook payload has no value", internal.ErrCodeMalformedBatch)
	}
	attr := &attributeDatamodel.ExpenseAttribute{
		WorkspaceID:   workspaceID,
		AttributeType: ext.attributeType,
		DisplayName:   ext.displayName,
		Value:         value,
		SourceID:      sourceID,
		Active:        true,
	}
	if ext.detail != nil {
		attr.Detail = ext.detail(event.Data)
	}
	return p.attrs.UpsertExpenseAttribute(attr)
}

// processExpenseField diffs the event's full option list against the stored
// option rows for that field: new values get created, values no longer
// present get deactivated.
func (p *Processor) processExpenseField(ctx context.Context, workspaceID int64, event Event) error {
	fieldName := stringAt(event.Data, "field_name")
	if fieldName == "" {
		return internal.NewDataError("expense field webhook has no field name", internal.ErrCodeMalformedBatch)
	}
	attributeType := strings.ToUpper(strings.ReplaceAll(fieldName, " ", "_"))

	if event.Action != ActionDeleted && p.importInProgress(ctx, workspaceID, attributeType) {
		p.logger.Info("skipping expense field webhook, import in progress",
			"workspace_id", workspaceID,
			"attribute_type", attributeType)
		return nil
	}

	fieldID := stringAt(event.Data, "id")
	options := stringSlice(event.Data["options"])
	if event.Action == ActionDeleted {
		options = nil
	}

	stored, err := p.attrs.ListExpenseAttributes(attribute.Filter{
		WorkspaceID:    workspaceID,
		AttributeTypes: []string{attributeType},
		ActiveOnly:     true,
	})
	if err != nil {
		return err
	}

	storedByValue := make(map[string]*attributeDatamodel.ExpenseAttribute, len(stored))
	for _, attr := range stored {
		storedByValue[strings.ToLower(attr.Value)] = attr
	}

	incoming := make(map[string]struct{}, len(options))
	var created []*attributeDatamodel.ExpenseAttribute
	for _, option := range options {
		key := strings.ToLower(option)
		incoming[key] = struct{}{}
		if _, ok := storedByValue[key]; ok {
			continue
		}
		detail := attributeDatamodel.JSONMap{
			"custom_field_id": event.Data["id"],
			"placeholder":     event.Data["placeholder"],
			"is_mandatory":    event.Data["is_mandatory"],
		}
		if event.Resource == resourceDependentField {
			detail["is_dependent"] = true
		}
		created = append(created, &attributeDatamodel.ExpenseAttribute{
			WorkspaceID:   workspaceID,
			AttributeType: attributeType,
			DisplayName:   fieldName,
			Value:         option,
			SourceID:      fmt.Sprintf("%s:%s", fieldID, option),
			Active:        true,
			Detail:        detail,
		})
	}
	if len(created) > 0 {
		if err := p.attrs.BulkCreateExpenseAttributes(created); err != nil {
			return err
		}
	}

	var removed []string
	for _, attr := range stored {
		if _, ok := incoming[strings.ToLower(attr.Value)]; !ok {
			removed = append(removed, attr.Value)
		}
	}
	if len(removed) > 0 {
		if err := p.attrs.DisableExpenseAttributesByValues(workspaceID, attributeType, removed); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) importInProgress(ctx context.Context, workspaceID int64, attributeType string) bool {
	_, found, err := p.cache.Get(ctx, cache.ProgressKey(workspaceID, attributeType))
	if err != nil {
		p.logger.Warn("progress cache lookup failed", "error", err)
		return false
	}
	return found
}

// stringAt reads a dotted path like "user.email" out of a nested map.
func stringAt(data map[string]any, path string) string {
	parts := strings.Split(path, ".")
	current := any(data)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = m[part]
	}
	switch v := current.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// joinDistinct composes "a sep b" unless b is empty or equal to a.
func joinDistinct(a, b, sep string) string {
	if b == "" || strings.EqualFold(a, b) {
		return a
	}
	return a + sep + b
}

func stringSlice(value any) []string {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
