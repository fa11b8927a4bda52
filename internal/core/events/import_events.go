package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeImportLogStatusChanged = "import_log.status_changed"
	EventTypeAttributesDisabled     = "attributes.disabled"
)

// ImportLogStatusChangedEvent fires on every import log transition. The
// webhook progress cache and operator tooling subscribe to it.
type ImportLogStatusChangedEvent struct {
	BaseEvent
	WorkspaceID   int64  `json:"workspace_id"`
	AttributeType string `json:"attribute_type"`
	Status        string `json:"status"`
}

func NewImportLogStatusChanged(workspaceID int64, attributeType, status string) *ImportLogStatusChangedEvent {
	return &ImportLogStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeImportLogStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"workspace_id":   workspaceID,
				"attribute_type": attributeType,
				"status":         status,
			},
		},
		WorkspaceID:   workspaceID,
		AttributeType: attributeType,
		Status:        status,
	}
}

// AttributesDisabledEvent fires after a rename/retire callback deactivates
// platform values.
type AttributesDisabledEvent struct {
	BaseEvent
	WorkspaceID   int64    `json:"workspace_id"`
	AttributeType string   `json:"attribute_type"`
	Values        []string `json:"values"`
}

func NewAttributesDisabled(workspaceID int64, attributeType string, values []string) *AttributesDisabledEvent {
	return &AttributesDisabledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAttributesDisabled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"workspace_id":   workspaceID,
				"attribute_type": attributeType,
				"values":         values,
			},
		},
		WorkspaceID:   workspaceID,
		AttributeType: attributeType,
		Values:        values,
	}
}
