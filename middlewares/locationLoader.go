package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"gorm.io/gorm"
)

type locationReader struct {
	db *gorm.DB
}

func (r *locationReader) getLocations(ctx context.Context, ids []int) []*dataloader.Result[*models.Location] {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return handleError[*models.Location](len(ids), err)
	}
	var results []*models.Location
	if err := r.db.WithContext(ctx).Where("business_id = ? AND id IN ?", businessId, ids).Find(&results).Error; err != nil {
		return handleError[*models.Location](len(ids), err)
	}
	resultMap := make(map[int]*models.Location, len(results))
	for _, l := range results {
		resultMap[l.ID] = l
	}
	return generateLoaderResults(resultMap, ids)
}

func GetLocations(ctx context.Context, ids []int) ([]*models.Location, []error) {
	loaders := For(ctx)
	return loaders.LocationLoader.LoadMany(ctx, ids)()
}
