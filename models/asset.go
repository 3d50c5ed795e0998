package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Asset struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null;uniqueIndex:uniq_asset_code,priority:1" json:"business_id"`
	AssetCode    string          `gorm:"size:50;not null;uniqueIndex:uniq_asset_code,priority:2" json:"asset_code"`
	Model        string          `gorm:"size:255;not null" json:"model"`
	Category     string          `gorm:"size:100" json:"category"`
	LocationId   int             `gorm:"index;not null" json:"location_id"`
	EmployeeId   *int            `gorm:"index" json:"employee_id"`
	Status       AssetStatus     `gorm:"size:40;not null;default:'InUse'" json:"status"`
	PurchaseCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_cost"`
	IsActive     *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewAsset references its location by name and its user by employee code,
// the way asset lists are maintained in spreadsheets.
type NewAsset struct {
	AssetCode    string          `json:"asset_code" validate:"required,max=50"`
	Model        string          `json:"model" validate:"required,max=255"`
	Category     string          `json:"category" validate:"omitempty,max=100"`
	LocationName string          `json:"location_name" validate:"required"`
	EmployeeCode *string         `json:"employee_code"`
	Status       AssetStatus     `json:"status"`
	PurchaseCost decimal.Decimal `json:"purchase_cost"`
	IsActive     *bool           `json:"is_active"`
}

func (a Asset) GetBusinessId() string {
	return a.BusinessId
}

func (input *NewAsset) validate() error {
	input.AssetCode = strings.TrimSpace(input.AssetCode)
	input.Model = strings.TrimSpace(input.Model)
	input.Category = strings.TrimSpace(input.Category)
	input.LocationName = strings.TrimSpace(input.LocationName)
	input.EmployeeCode = utils.NilIfBlank(input.EmployeeCode)
	if err := utils.ValidateStruct(input); err != nil {
		return utils.NewValidationError("%s", utils.ValidationMessage(err))
	}
	if input.Status == "" {
		input.Status = AssetStatusInUse
	}
	if !input.Status.IsKnown() {
		return utils.NewValidationError("invalid status %q for asset %s", string(input.Status), input.AssetCode)
	}
	if input.PurchaseCost.IsNegative() {
		return utils.NewValidationError("purchase cost of asset %s cannot be negative", input.AssetCode)
	}
	return nil
}

// assetRefs resolves location names and employee codes once per batch.
type assetRefs struct {
	locations map[string]int
	employees map[string]int
}

func loadAssetRefs(ctx context.Context, db *gorm.DB, businessId string, inputs []*NewAsset) (*assetRefs, error) {
	refs := &assetRefs{locations: map[string]int{}, employees: map[string]int{}}
	var names, codes []string
	for _, in := range inputs {
		names = append(names, in.LocationName)
		if in.EmployeeCode != nil {
			codes = append(codes, *in.EmployeeCode)
		}
	}
	if len(names) > 0 {
		var locations []Location
		if err := db.WithContext(ctx).Where("business_id = ? AND name IN ?", businessId, utils.UniqueSlice(names)).
			Find(&locations).Error; err != nil {
			return nil, err
		}
		for _, l := range locations {
			refs.locations[l.Name] = l.ID
		}
	}
	if len(codes) > 0 {
		var employees []Employee
		if err := db.WithContext(ctx).Where("business_id = ? AND employee_code IN ?", businessId, utils.UniqueSlice(codes)).
			Find(&employees).Error; err != nil {
			return nil, err
		}
		for _, e := range employees {
			refs.employees[e.EmployeeCode] = e.ID
		}
	}
	return refs, nil
}

func (r *assetRefs) resolve(input *NewAsset) (locationId int, employeeId *int, err error) {
	locationId, ok := r.locations[input.LocationName]
	if !ok {
		return 0, nil, utils.NewValidationError("location not found: %s", input.LocationName)
	}
	if input.EmployeeCode != nil {
		id, ok := r.employees[*input.EmployeeCode]
		if !ok {
			return 0, nil, utils.NewValidationError("employee not found: %s", *input.EmployeeCode)
		}
		employeeId = &id
	}
	return locationId, employeeId, nil
}

func CreateAsset(ctx context.Context, input *NewAsset) (*Asset, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Asset](ctx, businessId, "asset_code", input.AssetCode, 0); err != nil {
		return nil, err
	}
	db := config.GetDB()
	refs, err := loadAssetRefs(ctx, db, businessId, []*NewAsset{input})
	if err != nil {
		return nil, err
	}
	locationId, employeeId, err := refs.resolve(input)
	if err != nil {
		return nil, err
	}

	asset := Asset{
		BusinessId:   businessId,
		AssetCode:    input.AssetCode,
		Model:        input.Model,
		Category:     input.Category,
		LocationId:   locationId,
		EmployeeId:   employeeId,
		Status:       input.Status,
		PurchaseCost: input.PurchaseCost,
		IsActive:     activeOrDefault(input.IsActive),
	}
	if err := db.WithContext(ctx).Create(&asset).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("duplicate asset_code")
		}
		return nil, err
	}
	return &asset, nil
}

// upsert by asset code
func saveAsset(ctx context.Context, tx *gorm.DB, businessId string, refs *assetRefs, input *NewAsset) error {
	locationId, employeeId, err := refs.resolve(input)
	if err != nil {
		return err
	}
	var existing Asset
	err = tx.WithContext(ctx).Where("business_id = ? AND asset_code = ?", businessId, input.AssetCode).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		asset := Asset{
			BusinessId:   businessId,
			AssetCode:    input.AssetCode,
			Model:        input.Model,
			Category:     input.Category,
			LocationId:   locationId,
			EmployeeId:   employeeId,
			Status:       input.Status,
			PurchaseCost: input.PurchaseCost,
			IsActive:     activeOrDefault(input.IsActive),
		}
		if err := tx.WithContext(ctx).Create(&asset).Error; err != nil {
			if utils.IsDuplicateKeyErr(err) {
				return fmt.Errorf("duplicate asset_code %s", input.AssetCode)
			}
			return err
		}
		return nil
	} else if err != nil {
		return err
	}

	if err := tx.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"Model":        input.Model,
		"Category":     input.Category,
		"LocationId":   locationId,
		"EmployeeId":   employeeId,
		"Status":       input.Status,
		"PurchaseCost": input.PurchaseCost,
		"IsActive":     activeOrDefault(input.IsActive),
	}).Error; err != nil {
		return err
	}
	return utils.RemoveRedisItem[Asset](existing.ID)
}

func GetAsset(ctx context.Context, id int) (*Asset, error) {
	return GetResource[Asset](ctx, id)
}

func ListAssets(ctx context.Context, locationId *int) ([]*Asset, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*Asset
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if locationId != nil && *locationId > 0 {
		dbCtx = dbCtx.Where("location_id = ?", *locationId)
	}
	if err := dbCtx.Order("asset_code").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
