package attribute

import (
	"time"

	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
)

// Well-known attribute types. Custom expense fields use free-form types
// derived from the field name (e.g. "TEAM_NAME").
const (
	TypeProject       = "PROJECT"
	TypeCategory      = "CATEGORY"
	TypeCostCenter    = "COST_CENTER"
	TypeTaxGroup      = "TAX_GROUP"
	TypeMerchant      = "MERCHANT"
	TypeEmployee      = "EMPLOYEE"
	TypeCorporateCard = "CORPORATE_CARD"
	TypeExpenseField  = "EXPENSE_FIELD"
	TypeAccount       = "ACCOUNT"
	TypeVendor        = "VENDOR"
	TypeItem          = "ITEM"
)

// Display-name discriminators used where one destination attribute type
// covers several logical kinds.
const (
	DisplayNameAccount         = "Account"
	DisplayNameItem            = "Item"
	DisplayNameExpenseCategory = "Expense Category"
)

// SubFilter is a display-name refinement; multiple sub-filters are combined
// with OR on top of the base filter.
type SubFilter struct {
	DisplayName  string
	AccountTypes []string
}

// Filter is the typed query predicate for both sides of the attribute store.
type Filter struct {
	WorkspaceID    int64
	AttributeTypes []string
	ActiveOnly     bool
	UpdatedAfter   *time.Time
	// Values restricts to a page of values, matched case-insensitively.
	Values []string
	// SubFilters split a shared destination type by display name, e.g.
	// "Account" vs "Item" both stored under ACCOUNT.
	SubFilters []SubFilter
}

// ExistingAttribute is the platform-side lookup result keyed by case-folded
// value: id and original casing for the update path, active flag and detail
// for the union-minus-inactive reconcilers.
type ExistingAttribute struct {
	SourceID string
	Value    string
	Active   bool
	Detail   attributeDatamodel.JSONMap
}

type RepositoryAPI interface {
	CountDestination(f Filter) (int64, error)
	ListDestination(f Filter) ([]*attributeDatamodel.DestinationAttribute, error)
	// ListDestinationPage returns one page ordered by (value, id) so repeated
	// runs over an unchanged set visit records in the same order.
	ListDestinationPage(f Filter, offset, limit int) ([]*attributeDatamodel.DestinationAttribute, error)
	ExistingExpenseAttributes(f Filter) (map[string]ExistingAttribute, error)
	ListExpenseAttributes(f Filter) ([]*attributeDatamodel.ExpenseAttribute, error)
	GetExpenseAttribute(workspaceID int64, attributeType string) (*attributeDatamodel.ExpenseAttribute, error)
	UpsertExpenseAttribute(attr *attributeDatamodel.ExpenseAttribute) error
	BulkCreateExpenseAttributes(attrs []*attributeDatamodel.ExpenseAttribute) error
	DisableExpenseAttributeBySourceID(workspaceID int64, attributeType, sourceID string) error
	DisableExpenseAttributesByValues(workspaceID int64, attributeType string, values []string) error
}
