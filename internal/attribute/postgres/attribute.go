package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttributeRepository struct {
	db *gorm.DB
}

func NewAttributeRepository(db *gorm.DB) attribute.RepositoryAPI {
	return &AttributeRepository{db: db}
}

func (r *AttributeRepository) detailField(key string) string {
	if r.db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("detail ->> '%s'", key)
	}
	return fmt.Sprintf("json_extract(detail, '$.%s')", key)
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func (r *AttributeRepository) applyFilter(tx *gorm.DB, f attribute.Filter, treatNullActiveAsActive bool) *gorm.DB {
	tx = tx.Where("workspace_id = ?", f.WorkspaceID)

	if len(f.AttributeTypes) == 1 {
		tx = tx.Where("attribute_type = ?", f.AttributeTypes[0])
	} else if len(f.AttributeTypes) > 1 {
		tx = tx.Where("attribute_type IN ?", f.AttributeTypes)
	}

	if f.ActiveOnly {
		if treatNullActiveAsActive {
			tx = tx.Where("active IS NULL OR active = ?", true)
		} else {
			tx = tx.Where("active = ?", true)
		}
	}

	if f.UpdatedAfter != nil {
		tx = tx.Where("updated_at >= ?", *f.UpdatedAfter)
	}

	if len(f.Values) > 0 {
		tx = tx.Where("LOWER(value) IN ?", lowered(f.Values))
	}

	if len(f.SubFilters) > 0 {
		sub := r.db.Session(&gorm.Session{NewDB: true})
		var combined *gorm.DB
		for _, sf := range f.SubFilters {
			cond := sub.Where("display_name = ?", sf.DisplayName)
			if len(sf.AccountTypes) > 0 {
				cond = cond.Where(fmt.Sprintf("%s IN ?", r.detailField("account_type")), sf.AccountTypes)
			}
			if combined == nil {
				combined = cond
			} else {
				combined = combined.Or(cond)
			}
		}
		tx = tx.Where(combined)
	}

	return tx
}

func (r *AttributeRepository) CountDestination(f attribute.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.Model(&attributeDatamodel.DestinationAttribute{}), f, true).Count(&count).Error
	return count, err
}

func (r *AttributeRepository) ListDestination(f attribute.Filter) ([]*attributeDatamodel.DestinationAttribute, error) {
	var attrs []*attributeDatamodel.DestinationAttribute
	err := r.applyFilter(r.db.Model(&attributeDatamodel.DestinationAttribute{}), f, true).
		Order("value ASC, id ASC").
		Find(&attrs).Error
	return attrs, err
}

func (r *AttributeRepository) ListDestinationPage(f attribute.Filter, offset, limit int) ([]*attributeDatamodel.DestinationAttribute, error) {
	var attrs []*attributeDatamodel.DestinationAttribute
	err := r.applyFilter(r.db.Model(&attributeDatamodel.DestinationAttribute{}), f, true).
		Order("value ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&attrs).Error
	return attrs, err
}

func (r *AttributeRepository) ExistingExpenseAttributes(f attribute.Filter) (map[string]attribute.ExistingAttribute, error) {
	attrs, err := r.ListExpenseAttributes(f)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]attribute.ExistingAttribute, len(attrs))
	for _, attr := range attrs {
		existing[strings.ToLower(attr.Value)] = attribute.ExistingAttribute{
			SourceID: attr.SourceID,
			Value:    attr.Value,
			Active:   attr.Active,
			Detail:   attr.Detail,
		}
	}
	return existing, nil
}

func (r *AttributeRepository) ListExpenseAttributes(f attribute.Filter) ([]*attributeDatamodel.ExpenseAttribute, error) {
	var attrs []*attributeDatamodel.ExpenseAttribute
	err := r.applyFilter(r.db.Model(&attributeDatamodel.ExpenseAttribute{}), f, false).
		Order("value ASC, id ASC").
		Find(&attrs).Error
	return attrs, err
}

func (r *AttributeRepository) GetExpenseAttribute(workspaceID int64, attributeType string) (*attributeDatamodel.ExpenseAttribute, error) {
	var attr attributeDatamodel.ExpenseAttribute
	err := r.db.Where("workspace_id = ? AND attribute_type = ?", workspaceID, attributeType).
		Order("id ASC").
		First(&attr).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &attr, nil
}

func (r *AttributeRepository) UpsertExpenseAttribute(attr *attributeDatamodel.ExpenseAttribute) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}, {Name: "attribute_type"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "display_name", "active", "detail", "updated_at",
		}),
	}).Create(attr).Error
}

func (r *AttributeRepository) BulkCreateExpenseAttributes(attrs []*attributeDatamodel.ExpenseAttribute) error {
	if len(attrs) == 0 {
		return nil
	}
	return r.db.CreateInBatches(attrs, 50).Error
}

func (r *AttributeRepository) DisableExpenseAttributeBySourceID(workspaceID int64, attributeType, sourceID string) error {
	return r.db.Model(&attributeDatamodel.ExpenseAttribute{}).
		Where("workspace_id = ? AND attribute_type = ? AND source_id = ? AND active = ?", workspaceID, attributeType, sourceID, true).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()}).Error
}

func (r *AttributeRepository) DisableExpenseAttributesByValues(workspaceID int64, attributeType string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	return r.db.Model(&attributeDatamodel.ExpenseAttribute{}).
		Where("workspace_id = ? AND attribute_type = ? AND active = ? AND value IN ?", workspaceID, attributeType, true, values).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()}).Error
}
