package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"gorm.io/gorm"
)

type Location struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null;uniqueIndex:uniq_location_name,priority:1" json:"business_id"`
	Name       string    `gorm:"size:100;not null;uniqueIndex:uniq_location_name,priority:2" json:"name"`
	Address    string    `gorm:"type:text" json:"address"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLocation struct {
	Name     string `json:"name" validate:"required,max=100"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}

func (l Location) GetBusinessId() string {
	return l.BusinessId
}

func (input *NewLocation) validate() error {
	input.Name = strings.TrimSpace(input.Name)
	input.Address = strings.TrimSpace(input.Address)
	if err := utils.ValidateStruct(input); err != nil {
		return utils.NewValidationError("%s", utils.ValidationMessage(err))
	}
	return nil
}

func CreateLocation(ctx context.Context, input *NewLocation) (*Location, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Location](ctx, businessId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	location := Location{
		BusinessId: businessId,
		Name:       input.Name,
		Address:    input.Address,
		IsActive:   activeOrDefault(input.IsActive),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&location).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("duplicate name")
		}
		return nil, err
	}
	return &location, nil
}

// upsert by name
func saveLocation(ctx context.Context, tx *gorm.DB, businessId string, input *NewLocation) error {
	var existing Location
	err := tx.WithContext(ctx).Where("business_id = ? AND name = ?", businessId, input.Name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		location := Location{
			BusinessId: businessId,
			Name:       input.Name,
			Address:    input.Address,
			IsActive:   activeOrDefault(input.IsActive),
		}
		if err := tx.WithContext(ctx).Create(&location).Error; err != nil {
			if utils.IsDuplicateKeyErr(err) {
				return fmt.Errorf("duplicate location %s", input.Name)
			}
			return err
		}
		return nil
	} else if err != nil {
		return err
	}

	if err := tx.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"Address":  input.Address,
		"IsActive": activeOrDefault(input.IsActive),
	}).Error; err != nil {
		return err
	}
	return utils.RemoveRedisItem[Location](existing.ID)
}

func GetLocation(ctx context.Context, id int) (*Location, error) {
	return GetResource[Location](ctx, id)
}

func ListLocations(ctx context.Context, activeOnly bool) ([]*Location, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*Location
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetLocationsByIds(ctx context.Context, businessId string, ids []int) (map[int]*Location, error) {
	result := make(map[int]*Location)
	ids = utils.UniqueSlice(ids)
	if len(ids) == 0 {
		return result, nil
	}
	var locations []*Location
	if err := config.GetDB().WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessId, ids).
		Find(&locations).Error; err != nil {
		return nil, err
	}
	for _, l := range locations {
		result[l.ID] = l
	}
	return result, nil
}
