package mapping

import "time"

// Mapping links a platform-side attribute value to a destination-side value.
type Mapping struct {
	ID                     int64     `gorm:"primaryKey"`
	WorkspaceID            int64     `gorm:"column:workspace_id;not null;uniqueIndex:idx_mappings_unique"`
	SourceType             string    `gorm:"column:source_type;not null;uniqueIndex:idx_mappings_unique"`
	DestinationType        string    `gorm:"column:destination_type;not null;uniqueIndex:idx_mappings_unique"`
	SourceAttributeID      int64     `gorm:"column:source_attribute_id;not null;uniqueIndex:idx_mappings_unique"`
	DestinationAttributeID int64     `gorm:"column:destination_attribute_id;not null"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Mapping) TableName() string {
	return "mappings"
}

// CategoryMapping is the specialized category variant: a category can map
// through a ledger account or an expense head instead of a 1:1 value link,
// with an optional corporate-card account on the side.
type CategoryMapping struct {
	ID                       int64     `gorm:"primaryKey"`
	WorkspaceID              int64     `gorm:"column:workspace_id;not null"`
	SourceCategoryID         int64     `gorm:"column:source_category_id;not null;uniqueIndex:idx_category_mappings_source"`
	DestinationAccountID     *int64    `gorm:"column:destination_account_id"`
	DestinationExpenseHeadID *int64    `gorm:"column:destination_expense_head_id"`
	DestinationCCCAccountID  *int64    `gorm:"column:destination_ccc_account_id"`
	CreatedAt                time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CategoryMapping) TableName() string {
	return "category_mappings"
}

// MappingError is a recorded validation error for an attribute that could not
// be mapped; resolved once a later import produces a satisfying mapping.
type MappingError struct {
	ID                 int64     `gorm:"primaryKey"`
	WorkspaceID        int64     `gorm:"column:workspace_id;not null"`
	Type               string    `gorm:"column:type;not null"`
	ExpenseAttributeID int64     `gorm:"column:expense_attribute_id;not null"`
	IsResolved         bool      `gorm:"column:is_resolved;default:false"`
	Message            string    `gorm:"column:message"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (MappingError) TableName() string {
	return "mapping_errors"
}
