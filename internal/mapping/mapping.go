package mapping

import (
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
)

// Error types recorded against attributes that failed mapping validation.
const (
	ErrorTypeCategoryMapping = "CATEGORY_MAPPING"
)

// Destination fields whose category mappings go through an expense head
// rather than a ledger account.
func IsExpenseHeadField(destinationType string) bool {
	return destinationType == "EXPENSE_CATEGORY" || destinationType == "EXPENSE_TYPE"
}

type RepositoryAPI interface {
	// BulkCreateMappings links posted destination attributes to the platform
	// attributes sharing their value, skipping pairs already linked.
	BulkCreateMappings(attrs []*attributeDatamodel.DestinationAttribute, sourceType, destinationType string, workspaceID int64) error
	// BulkCreateCategoryMappings is the category variant that fills the
	// account or expense-head side of a CategoryMapping row.
	BulkCreateCategoryMappings(attrs []*attributeDatamodel.DestinationAttribute, destinationType string, workspaceID int64) error
	// BulkCreateCCCCategoryMappings copies the account link onto the
	// corporate-card side for rows that do not have one yet.
	BulkCreateCCCCategoryMappings(workspaceID int64) error
	UnmappedCategoryDestinations(workspaceID int64, destinationType string) ([]*attributeDatamodel.DestinationAttribute, error)

	UnresolvedErrorAttributeIDs(workspaceID int64, errorType string) ([]int64, error)
	MappedSourceIDs(sourceAttributeIDs []int64) ([]int64, error)
	MappedCategoryAttributeIDs(sourceAttributeIDs []int64, destinationType string) ([]int64, error)
	ResolveErrors(expenseAttributeIDs []int64) error

	HasActiveItemCategoryMappings(workspaceID int64) (bool, error)
}
