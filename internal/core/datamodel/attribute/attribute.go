package attribute

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap stores type-specific attribute metadata (tax rate, account subtype,
// billable flag, placeholder) as a JSON column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("jsonmap: unsupported column type")
	}
	return json.Unmarshal(raw, m)
}

// DestinationAttribute is a reference-data value as known by the accounting
// backend. Rows are owned by the connector sync; the import pipeline only
// reads them and links mappings back.
type DestinationAttribute struct {
	ID            int64     `gorm:"primaryKey"`
	WorkspaceID   int64     `gorm:"column:workspace_id;not null;uniqueIndex:idx_destination_attributes_unique"`
	AttributeType string    `gorm:"column:attribute_type;not null;uniqueIndex:idx_destination_attributes_unique"`
	DisplayName   string    `gorm:"column:display_name"`
	Value         string    `gorm:"column:value;not null"`
	DestinationID string    `gorm:"column:destination_id;not null;uniqueIndex:idx_destination_attributes_unique"`
	Active        *bool     `gorm:"column:active"`
	Detail        JSONMap   `gorm:"column:detail;type:jsonb"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DestinationAttribute) TableName() string {
	return "destination_attributes"
}

// IsActive treats an unknown active flag as active.
func (d *DestinationAttribute) IsActive() bool {
	return d.Active == nil || *d.Active
}

// ExpenseAttribute mirrors a destination attribute on the platform side.
type ExpenseAttribute struct {
	ID            int64     `gorm:"primaryKey"`
	WorkspaceID   int64     `gorm:"column:workspace_id;not null;uniqueIndex:idx_expense_attributes_unique"`
	AttributeType string    `gorm:"column:attribute_type;not null;uniqueIndex:idx_expense_attributes_unique"`
	DisplayName   string    `gorm:"column:display_name"`
	Value         string    `gorm:"column:value;not null"`
	SourceID      string    `gorm:"column:source_id;not null;uniqueIndex:idx_expense_attributes_unique"`
	Active        bool      `gorm:"column:active;default:true"`
	Detail        JSONMap   `gorm:"column:detail;type:jsonb"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ExpenseAttribute) TableName() string {
	return "expense_attributes"
}
