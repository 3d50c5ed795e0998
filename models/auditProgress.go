package models

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"
)

// CountAudited counts records whose status has moved past Pending.
// A blank status (NULL column) is still Pending.
func CountAudited(records []AuditAssetRecord) int {
	audited := 0
	for _, r := range records {
		raw := strings.TrimSpace(string(r.CurrentStatus))
		if raw != "" && CanonicalStatus(raw) != AssetStatusPending {
			audited++
		}
	}
	return audited
}

// RecomputeAuditPlan returns plan with records, progress and status derived
// from the records. Status only moves forward: Planning -> InProgress on the
// first audited record, anything -> Completed at 100%. A plan without records
// keeps its status.
func RecomputeAuditPlan(plan AuditPlan, records []AuditAssetRecord) AuditPlan {
	plan.Records = records
	total := len(records)
	audited := CountAudited(records)

	plan.Progress = 0
	if audited > 0 && total > 0 {
		plan.Progress = int(math.Round(float64(audited) / float64(total) * 100))
	}

	switch {
	case total > 0 && audited == total:
		plan.Status = AuditPlanStatusCompleted
	case audited > 0 && plan.Status == AuditPlanStatusPlanning:
		plan.Status = AuditPlanStatusInProgress
	}
	return plan
}

// refreshPlanProgress reloads the plan's records inside tx and stores the
// recomputed progress and status.
func refreshPlanProgress(ctx context.Context, tx *gorm.DB, businessId string, planId int) (*AuditPlan, error) {
	var plan AuditPlan
	if err := tx.Where("business_id = ?", businessId).First(&plan, planId).Error; err != nil {
		return nil, err
	}
	var records []AuditAssetRecord
	if err := tx.Where("business_id = ? AND audit_plan_id = ?", businessId, planId).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}

	updated := RecomputeAuditPlan(plan, records)
	if updated.Progress == plan.Progress && updated.Status == plan.Status {
		return &updated, nil
	}
	if err := tx.Model(&AuditPlan{}).Where("id = ?", plan.ID).Updates(map[string]interface{}{
		"Progress": updated.Progress,
		"Status":   updated.Status,
	}).Error; err != nil {
		return nil, err
	}
	if updated.Status == AuditPlanStatusCompleted && plan.Status != AuditPlanStatusCompleted {
		if err := writeOutbox(ctx, tx, businessId, EventAuditPlanCompleted, "AuditPlan", plan.ID, map[string]interface{}{
			"id":       plan.ID,
			"name":     plan.Name,
			"progress": updated.Progress,
			"records":  len(records),
		}); err != nil {
			return nil, err
		}
	}
	return &updated, nil
}
