package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"gorm.io/gorm"
)

type employeeReader struct {
	db *gorm.DB
}

func (r *employeeReader) getEmployees(ctx context.Context, ids []int) []*dataloader.Result[*models.Employee] {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return handleError[*models.Employee](len(ids), err)
	}
	var results []*models.Employee
	if err := r.db.WithContext(ctx).Where("business_id = ? AND id IN ?", businessId, ids).Find(&results).Error; err != nil {
		return handleError[*models.Employee](len(ids), err)
	}
	resultMap := make(map[int]*models.Employee, len(results))
	for _, e := range results {
		resultMap[e.ID] = e
	}
	return generateLoaderResults(resultMap, ids)
}

func GetEmployees(ctx context.Context, ids []int) ([]*models.Employee, []error) {
	loaders := For(ctx)
	return loaders.EmployeeLoader.LoadMany(ctx, ids)()
}
