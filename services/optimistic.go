package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dineboard/table-order-app/utils"
)

// SaveVersioned persists an aggregate row guarded by its lock_version
// column. The caller bumps the in-memory version first and passes the
// previous one; a zero-row update means another writer committed in between
// and the caller must surface a retryable conflict.
func SaveVersioned(tx *gorm.DB, model interface{}, id, prevVersion uint) error {
	res := tx.Model(model).
		Where("id = ? AND lock_version = ?", id, prevVersion).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.Conflictf("the record was changed by another request, please retry")
	}
	return nil
}
