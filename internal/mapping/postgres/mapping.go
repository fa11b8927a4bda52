package postgres

import (
	"strings"

	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	mappingDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/mapping"
	"github.com/fylein/fyle-integrations-imports/internal/mapping"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MappingRepository struct {
	db *gorm.DB
}

func NewMappingRepository(db *gorm.DB) mapping.RepositoryAPI {
	return &MappingRepository{db: db}
}

// expenseAttributesByValue loads platform attributes of the given type whose
// case-folded value matches one of the destination attributes.
func (r *MappingRepository) expenseAttributesByValue(workspaceID int64, attributeType string, attrs []*attributeDatamodel.DestinationAttribute) (map[string]*attributeDatamodel.ExpenseAttribute, error) {
	values := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		values = append(values, strings.ToLower(attr.Value))
	}

	var expenseAttrs []*attributeDatamodel.ExpenseAttribute
	err := r.db.Where("workspace_id = ? AND attribute_type = ? AND LOWER(value) IN ?", workspaceID, attributeType, values).
		Find(&expenseAttrs).Error
	if err != nil {
		return nil, err
	}

	byValue := make(map[string]*attributeDatamodel.ExpenseAttribute, len(expenseAttrs))
	for _, attr := range expenseAttrs {
		byValue[strings.ToLower(attr.Value)] = attr
	}
	return byValue, nil
}

func (r *MappingRepository) BulkCreateMappings(attrs []*attributeDatamodel.DestinationAttribute, sourceType, destinationType string, workspaceID int64) error {
	if len(attrs) == 0 {
		return nil
	}

	byValue, err := r.expenseAttributesByValue(workspaceID, sourceType, attrs)
	if err != nil {
		return err
	}

	var mappings []mappingDatamodel.Mapping
	for _, attr := range attrs {
		expenseAttr, ok := byValue[strings.ToLower(attr.Value)]
		if !ok {
			continue
		}
		mappings = append(mappings, mappingDatamodel.Mapping{
			WorkspaceID:            workspaceID,
			SourceType:             sourceType,
			DestinationType:        destinationType,
			SourceAttributeID:      expenseAttr.ID,
			DestinationAttributeID: attr.ID,
		})
	}
	if len(mappings) == 0 {
		return nil
	}

	return r.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(mappings, 50).Error
}

func (r *MappingRepository) BulkCreateCategoryMappings(attrs []*attributeDatamodel.DestinationAttribute, destinationType string, workspaceID int64) error {
	if len(attrs) == 0 {
		return nil
	}

	byValue, err := r.expenseAttributesByValue(workspaceID, "CATEGORY", attrs)
	if err != nil {
		return err
	}

	var mappings []mappingDatamodel.CategoryMapping
	for _, attr := range attrs {
		expenseAttr, ok := byValue[strings.ToLower(attr.Value)]
		if !ok {
			continue
		}
		row := mappingDatamodel.CategoryMapping{
			WorkspaceID:      workspaceID,
			SourceCategoryID: expenseAttr.ID,
		}
		destinationID := attr.ID
		if mapping.IsExpenseHeadField(destinationType) {
			row.DestinationExpenseHeadID = &destinationID
		} else {
			row.DestinationAccountID = &destinationID
		}
		mappings = append(mappings, row)
	}
	if len(mappings) == 0 {
		return nil
	}

	return r.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(mappings, 50).Error
}

func (r *MappingRepository) BulkCreateCCCCategoryMappings(workspaceID int64) error {
	return r.db.Model(&mappingDatamodel.CategoryMapping{}).
		Where("workspace_id = ? AND destination_account_id IS NOT NULL AND destination_ccc_account_id IS NULL", workspaceID).
		Update("destination_ccc_account_id", gorm.Expr("destination_account_id")).Error
}

func (r *MappingRepository) UnmappedCategoryDestinations(workspaceID int64, destinationType string) ([]*attributeDatamodel.DestinationAttribute, error) {
	mappedColumn := "destination_account_id"
	if mapping.IsExpenseHeadField(destinationType) {
		mappedColumn = "destination_expense_head_id"
	}

	var attrs []*attributeDatamodel.DestinationAttribute
	err := r.db.Model(&attributeDatamodel.DestinationAttribute{}).
		Where("workspace_id = ? AND attribute_type = ?", workspaceID, destinationType).
		Where("NOT EXISTS (SELECT 1 FROM category_mappings cm WHERE cm.workspace_id = destination_attributes.workspace_id AND cm."+mappedColumn+" = destination_attributes.id)").
		Order("value ASC, id ASC").
		Find(&attrs).Error
	return attrs, err
}

func (r *MappingRepository) UnresolvedErrorAttributeIDs(workspaceID int64, errorType string) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&mappingDatamodel.MappingError{}).
		Where("workspace_id = ? AND type = ? AND is_resolved = ?", workspaceID, errorType, false).
		Pluck("expense_attribute_id", &ids).Error
	return ids, err
}

func (r *MappingRepository) MappedSourceIDs(sourceAttributeIDs []int64) ([]int64, error) {
	if len(sourceAttributeIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := r.db.Model(&mappingDatamodel.Mapping{}).
		Where("source_attribute_id IN ?", sourceAttributeIDs).
		Pluck("source_attribute_id", &ids).Error
	return ids, err
}

func (r *MappingRepository) MappedCategoryAttributeIDs(sourceAttributeIDs []int64, destinationType string) ([]int64, error) {
	if len(sourceAttributeIDs) == 0 {
		return nil, nil
	}
	mappedColumn := "destination_account_id"
	if mapping.IsExpenseHeadField(destinationType) {
		mappedColumn = "destination_expense_head_id"
	}

	var ids []int64
	err := r.db.Model(&mappingDatamodel.CategoryMapping{}).
		Where("source_category_id IN ? AND "+mappedColumn+" IS NOT NULL", sourceAttributeIDs).
		Pluck("source_category_id", &ids).Error
	return ids, err
}

func (r *MappingRepository) ResolveErrors(expenseAttributeIDs []int64) error {
	if len(expenseAttributeIDs) == 0 {
		return nil
	}
	return r.db.Model(&mappingDatamodel.MappingError{}).
		Where("expense_attribute_id IN ?", expenseAttributeIDs).
		Update("is_resolved", true).Error
}

func (r *MappingRepository) HasActiveItemCategoryMappings(workspaceID int64) (bool, error) {
	var count int64
	err := r.db.Model(&mappingDatamodel.Mapping{}).
		Joins("JOIN destination_attributes da ON da.id = mappings.destination_attribute_id").
		Where("mappings.workspace_id = ? AND mappings.source_type = ? AND da.display_name = ? AND (da.active IS NULL OR da.active = ?)",
			workspaceID, "CATEGORY", "Item", true).
		Count(&count).Error
	return count > 0, err
}
