package models

import (
	"context"
	"errors"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/utils"
)

// Batch saves validate every item before writing anything, then upsert item by
// item. A failing item stops the batch; earlier items stay saved.

func SaveEmployeesBatch(ctx context.Context, inputs []*NewEmployee) (utils.BatchResult, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return utils.BatchResult{}, err
	}
	seen := make(map[string]int, len(inputs))
	for i, input := range inputs {
		if input == nil {
			return utils.BatchResult{}, utils.NewValidationError("row %d: employee is required", i+1)
		}
		if err := input.validate(); err != nil {
			return utils.BatchResult{}, utils.NewValidationError("row %d: %v", i+1, err)
		}
		if prev, ok := seen[input.EmployeeCode]; ok {
			return utils.BatchResult{}, utils.NewValidationError("row %d: employee_code %s repeats row %d", i+1, input.EmployeeCode, prev)
		}
		seen[input.EmployeeCode] = i + 1
	}

	db := config.GetDB()
	if db == nil {
		return utils.BatchResult{}, utils.ErrServiceNotReady
	}
	result := utils.RunBatch(ctx, inputs, func(ctx context.Context, input *NewEmployee) error {
		return saveEmployee(ctx, db, businessId, input)
	})
	if !result.Success {
		config.LogError(config.GetLogger(), "referenceBatch.go", "SaveEmployeesBatch", "batch stopped", result, errors.New(result.Message))
	}
	return result, nil
}

func SaveLocationsBatch(ctx context.Context, inputs []*NewLocation) (utils.BatchResult, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return utils.BatchResult{}, err
	}
	seen := make(map[string]int, len(inputs))
	for i, input := range inputs {
		if input == nil {
			return utils.BatchResult{}, utils.NewValidationError("row %d: location is required", i+1)
		}
		if err := input.validate(); err != nil {
			return utils.BatchResult{}, utils.NewValidationError("row %d: %v", i+1, err)
		}
		if prev, ok := seen[input.Name]; ok {
			return utils.BatchResult{}, utils.NewValidationError("row %d: location %s repeats row %d", i+1, input.Name, prev)
		}
		seen[input.Name] = i + 1
	}

	db := config.GetDB()
	if db == nil {
		return utils.BatchResult{}, utils.ErrServiceNotReady
	}
	result := utils.RunBatch(ctx, inputs, func(ctx context.Context, input *NewLocation) error {
		return saveLocation(ctx, db, businessId, input)
	})
	if !result.Success {
		config.LogError(config.GetLogger(), "referenceBatch.go", "SaveLocationsBatch", "batch stopped", result, errors.New(result.Message))
	}
	return result, nil
}

func SaveAssetsBatch(ctx context.Context, inputs []*NewAsset) (utils.BatchResult, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return utils.BatchResult{}, err
	}
	seen := make(map[string]int, len(inputs))
	for i, input := range inputs {
		if input == nil {
			return utils.BatchResult{}, utils.NewValidationError("row %d: asset is required", i+1)
		}
		if err := input.validate(); err != nil {
			return utils.BatchResult{}, utils.NewValidationError("row %d: %v", i+1, err)
		}
		if prev, ok := seen[input.AssetCode]; ok {
			return utils.BatchResult{}, utils.NewValidationError("row %d: asset_code %s repeats row %d", i+1, input.AssetCode, prev)
		}
		seen[input.AssetCode] = i + 1
	}

	db := config.GetDB()
	if db == nil {
		return utils.BatchResult{}, utils.ErrServiceNotReady
	}
	refs, err := loadAssetRefs(ctx, db, businessId, inputs)
	if err != nil {
		return utils.BatchResult{}, err
	}
	for i, input := range inputs {
		if _, _, err := refs.resolve(input); err != nil {
			return utils.BatchResult{}, utils.NewValidationError("row %d: %v", i+1, err)
		}
	}
	result := utils.RunBatch(ctx, inputs, func(ctx context.Context, input *NewAsset) error {
		return saveAsset(ctx, db, businessId, refs, input)
	})
	if !result.Success {
		config.LogError(config.GetLogger(), "referenceBatch.go", "SaveAssetsBatch", "batch stopped", result, errors.New(result.Message))
	}
	return result, nil
}
