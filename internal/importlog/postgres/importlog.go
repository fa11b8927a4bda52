package postgres

import (
	"github.com/fylein/fyle-integrations-imports/internal/importlog"
	importlogDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/importlog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImportLogRepository struct {
	db *gorm.DB
}

func NewImportLogRepository(db *gorm.DB) importlog.RepositoryAPI {
	return &ImportLogRepository{db: db}
}

func (r *ImportLogRepository) GetOrCreateInProgress(workspaceID int64, attributeType string) (*importlogDatamodel.ImportLog, bool, error) {
	var log importlogDatamodel.ImportLog
	err := r.db.Where("workspace_id = ? AND attribute_type = ?", workspaceID, attributeType).First(&log).Error
	if err == nil {
		return &log, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	log = importlogDatamodel.ImportLog{
		WorkspaceID:   workspaceID,
		AttributeType: attributeType,
		Status:        importlogDatamodel.StatusInProgress,
	}
	// The unique (workspace_id, attribute_type) index makes concurrent
	// creates converge on a single row.
	createErr := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "attribute_type"}},
		DoNothing: true,
	}).Create(&log).Error
	if createErr != nil {
		return nil, false, createErr
	}
	if log.ID == 0 {
		// Lost the race; fetch the winner's row.
		if err := r.db.Where("workspace_id = ? AND attribute_type = ?", workspaceID, attributeType).First(&log).Error; err != nil {
			return nil, false, err
		}
		return &log, false, nil
	}
	return &log, true, nil
}

func (r *ImportLogRepository) Get(workspaceID int64, attributeType string) (*importlogDatamodel.ImportLog, error) {
	var log importlogDatamodel.ImportLog
	err := r.db.Where("workspace_id = ? AND attribute_type = ?", workspaceID, attributeType).First(&log).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

func (r *ImportLogRepository) Save(log *importlogDatamodel.ImportLog) error {
	return r.db.Save(log).Error
}

func (r *ImportLogRepository) IsInProgress(workspaceID int64, attributeType string) (bool, error) {
	var count int64
	err := r.db.Model(&importlogDatamodel.ImportLog{}).
		Where("workspace_id = ? AND attribute_type = ? AND status = ?", workspaceID, attributeType, importlogDatamodel.StatusInProgress).
		Count(&count).Error
	return count > 0, err
}
