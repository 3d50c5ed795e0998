package utils

import (
	"context"
	"errors"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"gorm.io/gorm"
)

// fetch model from db
// (business_id is used in WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, businessId string, id int, associations ...string) (*T, error) {
	db := config.GetDB()
	if db == nil {
		return nil, ErrServiceNotReady
	}
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	if err := dbCtx.First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
