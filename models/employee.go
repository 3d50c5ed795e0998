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

type Employee struct {
	ID           int       `gorm:"primary_key" json:"id"`
	BusinessId   string    `gorm:"index;not null;uniqueIndex:uniq_employee_code,priority:1" json:"business_id"`
	EmployeeCode string    `gorm:"size:50;not null;uniqueIndex:uniq_employee_code,priority:2" json:"employee_code"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100" json:"email"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Department   string    `gorm:"size:100" json:"department"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	EmployeeCode string `json:"employee_code" validate:"required,max=50"`
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"omitempty,max=100"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
	Department   string `json:"department" validate:"omitempty,max=100"`
	IsActive     *bool  `json:"is_active"`
}

func (e Employee) GetBusinessId() string {
	return e.BusinessId
}

func (input *NewEmployee) normalize() {
	input.EmployeeCode = strings.TrimSpace(input.EmployeeCode)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Department = strings.TrimSpace(input.Department)
}

// checks that need no database
func (input *NewEmployee) validate() error {
	input.normalize()
	if err := utils.ValidateStruct(input); err != nil {
		return utils.NewValidationError("%s", utils.ValidationMessage(err))
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email: %s", input.Email)
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone: %s", input.Phone)
		}
	}
	return nil
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Employee](ctx, businessId, "employee_code", input.EmployeeCode, 0); err != nil {
		return nil, err
	}

	employee := Employee{
		BusinessId:   businessId,
		EmployeeCode: input.EmployeeCode,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Department:   input.Department,
		IsActive:     activeOrDefault(input.IsActive),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewValidationError("duplicate employee_code")
		}
		return nil, err
	}
	return &employee, nil
}

// upsert by employee code
func saveEmployee(ctx context.Context, tx *gorm.DB, businessId string, input *NewEmployee) error {
	var existing Employee
	err := tx.WithContext(ctx).Where("business_id = ? AND employee_code = ?", businessId, input.EmployeeCode).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		employee := Employee{
			BusinessId:   businessId,
			EmployeeCode: input.EmployeeCode,
			Name:         input.Name,
			Email:        input.Email,
			Phone:        input.Phone,
			Department:   input.Department,
			IsActive:     activeOrDefault(input.IsActive),
		}
		if err := tx.WithContext(ctx).Create(&employee).Error; err != nil {
			if utils.IsDuplicateKeyErr(err) {
				return fmt.Errorf("duplicate employee_code %s", input.EmployeeCode)
			}
			return err
		}
		return nil
	} else if err != nil {
		return err
	}

	if err := tx.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"Name":       input.Name,
		"Email":      input.Email,
		"Phone":      input.Phone,
		"Department": input.Department,
		"IsActive":   activeOrDefault(input.IsActive),
	}).Error; err != nil {
		return err
	}
	return utils.RemoveRedisItem[Employee](existing.ID)
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {
	return GetResource[Employee](ctx, id)
}

func ListEmployees(ctx context.Context, activeOnly bool) ([]*Employee, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*Employee
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	if err := dbCtx.Order("employee_code").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// employees by id for the business; unknown ids are skipped
func GetEmployeesByIds(ctx context.Context, businessId string, ids []int) (map[int]*Employee, error) {
	result := make(map[int]*Employee)
	ids = utils.UniqueSlice(ids)
	if len(ids) == 0 {
		return result, nil
	}
	var employees []*Employee
	if err := config.GetDB().WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessId, ids).
		Find(&employees).Error; err != nil {
		return nil, err
	}
	for _, e := range employees {
		result[e.ID] = e
	}
	return result, nil
}

func activeOrDefault(isActive *bool) *bool {
	if isActive == nil {
		return utils.NewTrue()
	}
	v := *isActive
	return &v
}
