package platform

// Resource names mirror the platform API paths. Merchant and expense custom
// field resources post as a single call; the rest post in per-page batches.
const (
	ResourceProjects            = "projects"
	ResourceCategories          = "categories"
	ResourceCostCenters         = "cost_centers"
	ResourceTaxGroups           = "tax_groups"
	ResourceMerchants           = "merchants"
	ResourceExpenseCustomFields = "expense_custom_fields"
)

// PostsAsSingleCall reports whether a resource takes its whole payload in one
// request instead of per-page bulk batches.
func PostsAsSingleCall(resource string) bool {
	return resource == ResourceMerchants || resource == ResourceExpenseCustomFields
}

// UsesWatermark reports whether a resource's platform-side sync accepts an
// incremental sync_after timestamp.
func UsesWatermark(resource string) bool {
	return !PostsAsSingleCall(resource)
}

type CategoryPayload struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Code      *string `json:"code"`
	IsEnabled bool    `json:"is_enabled"`
}

type ProjectPayload struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Code        *string `json:"code"`
	Description string  `json:"description"`
	IsEnabled   bool    `json:"is_enabled"`
	IsBillable  *bool   `json:"is_billable,omitempty"`
}

type CostCenterPayload struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Code        *string `json:"code"`
	Description string  `json:"description"`
	IsEnabled   bool    `json:"is_enabled"`
}

type TaxGroupPayload struct {
	Name       string  `json:"name"`
	IsEnabled  bool    `json:"is_enabled"`
	Percentage float64 `json:"percentage"`
}

// MerchantPayload is the full replacement list of merchant names.
type MerchantPayload struct {
	Options []string `json:"options"`
}

type ExpenseFieldPayload struct {
	ID          string   `json:"id,omitempty"`
	FieldName   string   `json:"field_name"`
	Type        string   `json:"type"`
	IsEnabled   bool     `json:"is_enabled"`
	IsMandatory bool     `json:"is_mandatory"`
	Placeholder string   `json:"placeholder"`
	Options     []string `json:"options"`
	Code        *string  `json:"code"`
}
