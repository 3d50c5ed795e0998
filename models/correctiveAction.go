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

type CorrectiveAction struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	AuditPlanId     int             `gorm:"index;not null" json:"audit_plan_id"`
	AuditAssetId    int             `gorm:"index;not null" json:"audit_asset_id"`
	DiscrepancyType DiscrepancyType `gorm:"size:20" json:"discrepancy_type"`
	Issue           string          `gorm:"type:text;not null" json:"issue"`
	Action          string          `gorm:"type:text;not null" json:"action"`
	AssignedTo      *int            `gorm:"index" json:"assigned_to"`
	Priority        ActionPriority  `gorm:"size:10;not null" json:"priority"`
	Status          ActionStatus    `gorm:"size:20;not null;default:'open'" json:"status"`
	DueDate         time.Time       `gorm:"type:date;not null" json:"due_date"`
	Notes           *string         `gorm:"type:text" json:"notes"`
	CompletedAt     *time.Time      `json:"completed_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCorrectiveAction struct {
	AuditAssetId    int             `json:"audit_asset_id" validate:"required,gt=0"`
	DiscrepancyType DiscrepancyType `json:"discrepancy_type"`
	Issue           string          `json:"issue" validate:"required"`
	Action          string          `json:"action" validate:"required"`
	AssignedTo      *int            `json:"assigned_to"`
	Priority        ActionPriority  `json:"priority" validate:"required,oneof=high medium low"`
	DueDate         time.Time       `json:"due_date"`
	Notes           *string         `json:"notes"`
}

func (a CorrectiveAction) GetBusinessId() string {
	return a.BusinessId
}

func (input *NewCorrectiveAction) validate() error {
	input.Issue = strings.TrimSpace(input.Issue)
	input.Action = strings.TrimSpace(input.Action)
	if err := utils.ValidateStruct(input); err != nil {
		return utils.NewValidationError("%s", utils.ValidationMessage(err))
	}
	if input.DueDate.IsZero() {
		return utils.NewValidationError("due_date: required")
	}
	if input.DiscrepancyType != "" && !input.DiscrepancyType.IsValid() {
		return utils.NewValidationError("invalid discrepancy type %q", string(input.DiscrepancyType))
	}
	if input.AssignedTo != nil && *input.AssignedTo <= 0 {
		input.AssignedTo = nil
	}
	return nil
}

// ListAuditDiscrepancies classifies the plan's current records.
func ListAuditDiscrepancies(ctx context.Context, planId int) ([]Discrepancy, error) {
	plan, err := GetAuditPlan(ctx, planId)
	if err != nil {
		return nil, err
	}
	return ClassifyDiscrepancies(*plan), nil
}

// DraftCorrectiveAction proposes an action for one discrepancy of a record.
// Nothing is written.
func DraftCorrectiveAction(ctx context.Context, recordId int, discrepancyType DiscrepancyType) (*CorrectiveActionDraft, error) {
	if !discrepancyType.IsValid() {
		return nil, utils.NewValidationError("invalid discrepancy type %q", string(discrepancyType))
	}
	record, err := GetAuditAssetRecord(ctx, recordId)
	if err != nil {
		return nil, err
	}
	plan, err := GetAuditPlan(ctx, record.AuditPlanId)
	if err != nil {
		return nil, err
	}
	for _, d := range classifyRecord(plan.ID, record) {
		if d.Type == discrepancyType {
			draft := PlanCorrectiveAction(d, *plan, nowFunc())
			return &draft, nil
		}
	}
	return nil, utils.NewValidationError("record %d has no %s discrepancy", recordId, discrepancyType)
}

func CreateCorrectiveAction(ctx context.Context, input *NewCorrectiveAction) (*CorrectiveAction, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	record, err := utils.FetchModel[AuditAssetRecord](ctx, businessId, input.AuditAssetId)
	if err != nil {
		return nil, fmt.Errorf("audit asset record %d: %w", input.AuditAssetId, err)
	}
	if input.AssignedTo != nil {
		if err := utils.ValidateResourceId[Employee](ctx, businessId, *input.AssignedTo); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, utils.NewValidationError("assignee %d not found", *input.AssignedTo)
			}
			return nil, fmt.Errorf("assignee %d: %w", *input.AssignedTo, err)
		}
	}

	action := CorrectiveAction{
		BusinessId:      businessId,
		AuditPlanId:     record.AuditPlanId,
		AuditAssetId:    record.ID,
		DiscrepancyType: input.DiscrepancyType,
		Issue:           input.Issue,
		Action:          input.Action,
		AssignedTo:      input.AssignedTo,
		Priority:        input.Priority,
		Status:          ActionStatusOpen,
		DueDate:         utils.DateOnly(input.DueDate),
		Notes:           utils.NilIfBlank(input.Notes),
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&action).Error; err != nil {
			return err
		}
		if action.AssignedTo == nil {
			return nil
		}
		return writeOutbox(ctx, tx, businessId, EventCorrectiveActionAssigned, "CorrectiveAction", action.ID, map[string]interface{}{
			"id":           action.ID,
			"auditPlanId":  action.AuditPlanId,
			"auditAssetId": action.AuditAssetId,
			"assetCode":    record.AssetCode,
			"assignedTo":   *action.AssignedTo,
			"priority":     action.Priority,
			"dueDate":      action.DueDate.Format(time.DateOnly),
			"issue":        action.Issue,
			"assignedBy":   actorName(ctx),
		})
	})
	if err != nil {
		config.LogError(config.GetLogger(), "correctiveAction.go", "CreateCorrectiveAction", "creating corrective action", input, err)
		return nil, err
	}
	return &action, nil
}

// checkActionTransition allows any move except leaving completed.
func checkActionTransition(from, to ActionStatus) error {
	switch to {
	case ActionStatusOpen, ActionStatusInProgress, ActionStatusCompleted:
	default:
		return utils.NewValidationError("invalid action status %q", string(to))
	}
	if from == ActionStatusCompleted && to != ActionStatusCompleted {
		return utils.NewValidationError("completed corrective action cannot be reopened")
	}
	return nil
}

func UpdateCorrectiveActionStatus(ctx context.Context, id int, status ActionStatus) (*CorrectiveAction, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	action, err := utils.FetchModel[CorrectiveAction](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if err := checkActionTransition(action.Status, status); err != nil {
		return nil, err
	}
	if action.Status == status {
		return action, nil
	}

	updates := map[string]interface{}{"Status": status}
	var completedAt *time.Time
	if status == ActionStatusCompleted {
		now := nowFunc()
		completedAt = &now
		updates["CompletedAt"] = completedAt
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(action).Updates(updates).Error; err != nil {
			return err
		}
		if status != ActionStatusCompleted {
			return nil
		}
		return writeOutbox(ctx, tx, businessId, EventCorrectiveActionCompleted, "CorrectiveAction", action.ID, map[string]interface{}{
			"id":           action.ID,
			"auditPlanId":  action.AuditPlanId,
			"auditAssetId": action.AuditAssetId,
			"completedAt":  completedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	action.Status = status
	action.CompletedAt = completedAt
	return action, nil
}

func ListCorrectiveActions(ctx context.Context, planId int) ([]*CorrectiveAction, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*CorrectiveAction
	if err := db.WithContext(ctx).
		Where("business_id = ? AND audit_plan_id = ?", businessId, planId).
		Order("due_date, id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
