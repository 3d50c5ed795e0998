package models

import (
	"strings"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/utils"
)

// Discrepancy is a record flagged by one classification rule. It is derived
// on demand and never stored.
type Discrepancy struct {
	Type             DiscrepancyType `json:"type"`
	AuditPlanId      int             `json:"audit_plan_id"`
	AuditAssetId     int             `json:"audit_asset_id"`
	AssetId          *int            `json:"asset_id"`
	AssetCode        string          `json:"asset_code"`
	Model            string          `json:"model"`
	Location         string          `json:"location"`
	EmployeeId       *int            `json:"employee_id"`
	EmployeeName     *string         `json:"employee_name"`
	OriginalLocation string          `json:"original_location"`
	OriginalUser     *string         `json:"original_user"`
	CurrentLocation  *string         `json:"current_location"`
	CurrentUser      *string         `json:"current_user"`
	CurrentStatus    AssetStatus     `json:"current_status"`
	AuditorNotes     *string         `json:"auditor_notes"`
	AuditedAt        *time.Time      `json:"audited_at"`
	Resolved         bool            `json:"resolved"`
	IsNew            bool            `json:"is_new"`
}

func newDiscrepancy(planId int, r *AuditAssetRecord, t DiscrepancyType) Discrepancy {
	return Discrepancy{
		Type:             t,
		AuditPlanId:      planId,
		AuditAssetId:     r.ID,
		AssetId:          r.AssetId,
		AssetCode:        r.AssetCode,
		Model:            r.Model,
		Location:         r.Location,
		EmployeeId:       r.EmployeeId,
		EmployeeName:     r.EmployeeName,
		OriginalLocation: r.OriginalLocation,
		OriginalUser:     r.OriginalUser,
		CurrentLocation:  r.CurrentLocation,
		CurrentUser:      r.CurrentUser,
		CurrentStatus:    r.CurrentStatus,
		AuditorNotes:     r.AuditorNotes,
		AuditedAt:        r.AuditedAt,
		Resolved:         r.Resolved,
		IsNew:            r.IsNew,
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// observedUser is the user the auditor recorded, falling back to the employee
// the record is linked to. Blank means nobody.
func observedUser(currentUser, employeeName *string) string {
	if !utils.IsBlank(currentUser) {
		return trimmed(currentUser)
	}
	return trimmed(employeeName)
}

// ClassifyDiscrepancies lists one entry per matched rule for every unresolved
// record, in record order. A record can match several rules.
func ClassifyDiscrepancies(plan AuditPlan) []Discrepancy {
	result := []Discrepancy{}
	for i := range plan.Records {
		result = append(result, classifyRecord(plan.ID, &plan.Records[i])...)
	}
	return result
}

func classifyRecord(planId int, r *AuditAssetRecord) []Discrepancy {
	if r.Resolved {
		return nil
	}
	var result []Discrepancy

	switch CanonicalStatus(string(r.CurrentStatus)) {
	case AssetStatusMissing:
		result = append(result, newDiscrepancy(planId, r, DiscrepancyTypeMissing))
	case AssetStatusBroken:
		result = append(result, newDiscrepancy(planId, r, DiscrepancyTypeBroken))
	}

	if !utils.IsBlank(r.CurrentLocation) && trimmed(r.CurrentLocation) != strings.TrimSpace(r.OriginalLocation) {
		result = append(result, newDiscrepancy(planId, r, DiscrepancyTypeLocationChange))
	}

	// newly assigned and reassigned are exclusive branches; at most one entry
	user := observedUser(r.CurrentUser, r.EmployeeName)
	if utils.IsBlank(r.OriginalUser) {
		if user != "" {
			result = append(result, newDiscrepancy(planId, r, DiscrepancyTypeUserChange))
		}
	} else if trimmed(r.OriginalUser) != user {
		result = append(result, newDiscrepancy(planId, r, DiscrepancyTypeUserChange))
	}
	return result
}
