package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var nowFunc = time.Now

// AuditRecordInput changes an audit record. Nil fields are left as they are;
// an empty or blank string clears the field. CurrentEmployeeId relinks the
// record to an employee, 0 unlinks it.
type AuditRecordInput struct {
	CurrentStatus     AssetStatus `json:"current_status"`
	AuditorNotes      *string     `json:"auditor_notes"`
	Resolved          *bool       `json:"resolved"`
	CurrentLocation   *string     `json:"current_location"`
	CurrentUser       *string     `json:"current_user"`
	CurrentEmployeeId *int        `json:"current_employee_id"`
}

type UnlistedAssetInput struct {
	AssetCode       string      `json:"asset_code" validate:"required,max=50"`
	Model           string      `json:"model" validate:"required,max=255"`
	CurrentLocation string      `json:"current_location" validate:"required,max=100"`
	CurrentUser     *string     `json:"current_user"`
	CurrentStatus   AssetStatus `json:"current_status"`
	Notes           *string     `json:"notes"`
}

type recordChange struct {
	statusRequired bool
	markAudited    bool
	markResolved   bool
}

func (input *AuditRecordInput) validate(statusRequired bool) error {
	if input == nil {
		return utils.NewValidationError("input is required")
	}
	if input.CurrentStatus == "" {
		if statusRequired {
			return utils.NewValidationError("current_status: required")
		}
		return nil
	}
	input.CurrentStatus = CanonicalStatus(string(input.CurrentStatus))
	if !input.CurrentStatus.IsKnown() {
		return utils.NewValidationError("invalid current status %q", string(input.CurrentStatus))
	}
	return nil
}

func (input *AuditRecordInput) updates(ctx context.Context, tx *gorm.DB, businessId string) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if input.CurrentStatus != "" {
		updates["CurrentStatus"] = input.CurrentStatus
	}
	if input.AuditorNotes != nil {
		updates["AuditorNotes"] = utils.NilIfBlank(input.AuditorNotes)
	}
	if input.CurrentLocation != nil {
		updates["CurrentLocation"] = utils.NilIfBlank(input.CurrentLocation)
	}
	if input.CurrentUser != nil {
		updates["CurrentUser"] = utils.NilIfBlank(input.CurrentUser)
	}
	if input.Resolved != nil {
		updates["Resolved"] = *input.Resolved
	}
	if input.CurrentEmployeeId != nil {
		if *input.CurrentEmployeeId == 0 {
			updates["EmployeeId"] = (*int)(nil)
			updates["EmployeeName"] = (*string)(nil)
		} else {
			var employee Employee
			err := tx.WithContext(ctx).Where("business_id = ?", businessId).First(&employee, *input.CurrentEmployeeId).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NewValidationError("employee not found")
			} else if err != nil {
				return nil, err
			}
			id, name := employee.ID, employee.Name
			updates["EmployeeId"] = &id
			updates["EmployeeName"] = &name
			if input.CurrentUser == nil {
				user := employee.Name
				updates["CurrentUser"] = &user
			}
		}
	}
	return updates, nil
}

func applyRecordChange(ctx context.Context, id int, input *AuditRecordInput, change recordChange) (*AuditAssetRecord, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(change.statusRequired); err != nil {
		return nil, err
	}

	var record AuditAssetRecord
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("business_id = ?", businessId).First(&record, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		} else if err != nil {
			return err
		}

		updates, err := input.updates(ctx, tx, businessId)
		if err != nil {
			return err
		}
		if change.markAudited {
			now := nowFunc()
			updates["AuditedAt"] = &now
		}
		if change.markResolved {
			updates["Resolved"] = true
		}
		if len(updates) > 0 {
			if err := tx.Model(&record).Updates(updates).Error; err != nil {
				return err
			}
		}
		if _, err := refreshPlanProgress(ctx, tx, businessId, record.AuditPlanId); err != nil {
			return err
		}
		return tx.First(&record, record.ID).Error
	})
	if err != nil {
		return nil, err
	}
	InvalidateAuditReportCache(businessId, record.AuditPlanId)
	return &record, nil
}

// UpdateAuditAssetRecord is the generic record mutation.
func UpdateAuditAssetRecord(ctx context.Context, id int, input *AuditRecordInput) (*AuditAssetRecord, error) {
	return applyRecordChange(ctx, id, input, recordChange{statusRequired: true})
}

// SubmitAuditFinding records what the auditor observed and stamps auditedAt.
func SubmitAuditFinding(ctx context.Context, id int, input *AuditRecordInput) (*AuditAssetRecord, error) {
	return applyRecordChange(ctx, id, input, recordChange{statusRequired: true, markAudited: true})
}

// ResolveAuditDiscrepancy marks the record resolved, optionally correcting its current values.
func ResolveAuditDiscrepancy(ctx context.Context, id int, input *AuditRecordInput) (*AuditAssetRecord, error) {
	if input == nil {
		input = &AuditRecordInput{}
	}
	return applyRecordChange(ctx, id, input, recordChange{markResolved: true})
}

// AddUnlistedAsset appends an asset found during the audit that was not in the plan.
func AddUnlistedAsset(ctx context.Context, planId int, input *UnlistedAssetInput) (*AuditAssetRecord, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	input.AssetCode = strings.TrimSpace(input.AssetCode)
	input.Model = strings.TrimSpace(input.Model)
	input.CurrentLocation = strings.TrimSpace(input.CurrentLocation)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("%s", utils.ValidationMessage(err))
	}
	if input.CurrentStatus == "" {
		input.CurrentStatus = AssetStatusFound
	}
	input.CurrentStatus = CanonicalStatus(string(input.CurrentStatus))
	if !input.CurrentStatus.IsKnown() {
		return nil, utils.NewValidationError("invalid current status %q", string(input.CurrentStatus))
	}
	if err := utils.ValidateResourceId[AuditPlan](ctx, businessId, planId); err != nil {
		return nil, err
	}

	now := nowFunc()
	location := input.CurrentLocation
	record := AuditAssetRecord{
		BusinessId:       businessId,
		AuditPlanId:      planId,
		AssetCode:        input.AssetCode,
		Model:            input.Model,
		Location:         location,
		OriginalLocation: "N/A",
		CurrentLocation:  &location,
		CurrentUser:      utils.NilIfBlank(input.CurrentUser),
		CurrentStatus:    input.CurrentStatus,
		AuditorNotes:     utils.NilIfBlank(input.Notes),
		AuditedAt:        &now,
		IsNew:            true,
		AssetCost:        decimal.Zero,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		_, err := refreshPlanProgress(ctx, tx, businessId, planId)
		return err
	})
	if err != nil {
		return nil, err
	}
	InvalidateAuditReportCache(businessId, planId)
	return &record, nil
}

// SetAuditRecordPhoto stores the evidence photo URL of a record.
func SetAuditRecordPhoto(ctx context.Context, id int, photoUrl string) (*AuditAssetRecord, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	record, err := utils.FetchModel[AuditAssetRecord](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"PhotoUrl": &photoUrl,
	}).Error; err != nil {
		return nil, err
	}
	record.PhotoUrl = &photoUrl
	return record, nil
}

func GetAuditAssetRecord(ctx context.Context, id int) (*AuditAssetRecord, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[AuditAssetRecord](ctx, businessId, id)
}
