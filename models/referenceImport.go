package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/xuri/excelize/v2"
)

const importSheet = "Sheet1"

// Column layouts of the import templates (header row first).
//   employees: code, name, email, phone, department, active
//   locations: name, address, active
//   assets:    code, model, category, location, employee code, status, purchase cost, active

func readImportRows(file graphql.Upload) ([][]string, error) {
	if file.File == nil {
		return nil, errors.New("nil file provided")
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".xlsx") {
		return nil, utils.NewValidationError("invalid file type: only .xlsx files are allowed")
	}
	f, err := excelize.OpenReader(file.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(importSheet)
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		data = append(data, row)
	}
	return data, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseActiveCell(v string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return nil, nil
	case "1", "true", "yes", "y", "active", "有効":
		return utils.NewTrue(), nil
	case "0", "false", "no", "n", "inactive", "無効":
		return utils.NewFalse(), nil
	}
	return nil, fmt.Errorf("invalid active value %q", v)
}

// importLocked runs fn while holding the business import lock.
func importLocked(ctx context.Context, funcName string, fn func() (utils.BatchResult, error)) (utils.BatchResult, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return utils.BatchResult{}, err
	}
	release, err := utils.BusinessLock(ctx, businessId, "ImportLock", "referenceImport.go", funcName)
	if err != nil {
		return utils.BatchResult{}, err
	}
	defer release()
	return fn()
}

func ImportEmployeesFromXlsx(ctx context.Context, file graphql.Upload) (utils.BatchResult, error) {
	rows, err := readImportRows(file)
	if err != nil {
		return utils.BatchResult{}, err
	}
	inputs, err := employeeRows(rows)
	if err != nil {
		return utils.BatchResult{}, err
	}
	return importLocked(ctx, "ImportEmployeesFromXlsx", func() (utils.BatchResult, error) {
		return SaveEmployeesBatch(ctx, inputs)
	})
}

func ImportLocationsFromXlsx(ctx context.Context, file graphql.Upload) (utils.BatchResult, error) {
	rows, err := readImportRows(file)
	if err != nil {
		return utils.BatchResult{}, err
	}
	inputs, err := locationRows(rows)
	if err != nil {
		return utils.BatchResult{}, err
	}
	return importLocked(ctx, "ImportLocationsFromXlsx", func() (utils.BatchResult, error) {
		return SaveLocationsBatch(ctx, inputs)
	})
}

func ImportAssetsFromXlsx(ctx context.Context, file graphql.Upload) (utils.BatchResult, error) {
	rows, err := readImportRows(file)
	if err != nil {
		return utils.BatchResult{}, err
	}
	inputs, err := assetRows(rows)
	if err != nil {
		return utils.BatchResult{}, err
	}
	return importLocked(ctx, "ImportAssetsFromXlsx", func() (utils.BatchResult, error) {
		return SaveAssetsBatch(ctx, inputs)
	})
}

func employeeRows(rows [][]string) ([]*NewEmployee, error) {
	inputs := make([]*NewEmployee, 0, len(rows))
	for idx, row := range rows {
		active, err := parseActiveCell(cell(row, 5))
		if err != nil {
			return nil, utils.NewValidationError("row %d: %v", idx+2, err)
		}
		inputs = append(inputs, &NewEmployee{
			EmployeeCode: cell(row, 0),
			Name:         cell(row, 1),
			Email:        cell(row, 2),
			Phone:        cell(row, 3),
			Department:   cell(row, 4),
			IsActive:     active,
		})
	}
	return inputs, nil
}

func locationRows(rows [][]string) ([]*NewLocation, error) {
	inputs := make([]*NewLocation, 0, len(rows))
	for idx, row := range rows {
		active, err := parseActiveCell(cell(row, 2))
		if err != nil {
			return nil, utils.NewValidationError("row %d: %v", idx+2, err)
		}
		inputs = append(inputs, &NewLocation{
			Name:     cell(row, 0),
			Address:  cell(row, 1),
			IsActive: active,
		})
	}
	return inputs, nil
}

func assetRows(rows [][]string) ([]*NewAsset, error) {
	inputs := make([]*NewAsset, 0, len(rows))
	for idx, row := range rows {
		cost, err := utils.ParseDecimal(cell(row, 6))
		if err != nil {
			return nil, utils.NewValidationError("row %d: could not parse purchase cost: %v", idx+2, err)
		}
		active, err := parseActiveCell(cell(row, 7))
		if err != nil {
			return nil, utils.NewValidationError("row %d: %v", idx+2, err)
		}
		employeeCode := cell(row, 4)
		inputs = append(inputs, &NewAsset{
			AssetCode:    cell(row, 0),
			Model:        cell(row, 1),
			Category:     cell(row, 2),
			LocationName: cell(row, 3),
			EmployeeCode: utils.NilIfBlank(&employeeCode),
			Status:       CanonicalStatus(cell(row, 5)),
			PurchaseCost: cost,
			IsActive:     active,
		})
	}
	return inputs, nil
}
