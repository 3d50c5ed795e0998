package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/utils"
)

const correctiveActionLeadDays = 7

// CorrectiveActionDraft is a proposed action; nothing is stored until the
// caller creates it.
type CorrectiveActionDraft struct {
	AuditAssetId    int             `json:"audit_asset_id"`
	DiscrepancyType DiscrepancyType `json:"discrepancy_type"`
	Issue           string          `json:"issue"`
	Action          string          `json:"action"`
	AssignedTo      *int            `json:"assigned_to"`
	Priority        ActionPriority  `json:"priority"`
	DueDate         time.Time       `json:"due_date"`
	Notes           *string         `json:"notes"`
}

func orNone(s *string) string {
	if utils.IsBlank(s) {
		return "(none)"
	}
	return strings.TrimSpace(*s)
}

func assetLabel(d Discrepancy) string {
	if d.Model == "" {
		return d.AssetCode
	}
	return fmt.Sprintf("%s (%s)", d.AssetCode, d.Model)
}

func draftText(d Discrepancy) (issue, action string) {
	switch d.Type {
	case DiscrepancyTypeMissing:
		issue = fmt.Sprintf("Asset %s was not found at its registered location %s.", assetLabel(d), d.OriginalLocation)
		action = "Locate the asset, confirm its whereabouts with the user and update the asset register. Report it as lost if it cannot be found."
	case DiscrepancyTypeBroken:
		issue = fmt.Sprintf("Asset %s was found broken at %s.", assetLabel(d), d.OriginalLocation)
		action = "Arrange repair or replacement of the asset and update its status in the asset register."
	case DiscrepancyTypeLocationChange:
		issue = fmt.Sprintf("Asset %s was found at %s but is registered at %s.", assetLabel(d), orNone(d.CurrentLocation), d.OriginalLocation)
		action = "Verify the actual location of the asset and update the location in the asset register."
	case DiscrepancyTypeUserChange:
		issue = fmt.Sprintf("Asset %s is used by %s but was registered to %s.", assetLabel(d), orNone(utils.NewString(observedUser(d.CurrentUser, d.EmployeeName))), orNone(d.OriginalUser))
		action = "Verify who is using the asset and update the user assignment in the asset register."
	default:
		issue = fmt.Sprintf("Asset %s needs review.", assetLabel(d))
		action = "Review the audit finding and update the asset register."
	}
	return issue, action
}

func draftPriority(t DiscrepancyType) ActionPriority {
	switch t {
	case DiscrepancyTypeMissing, DiscrepancyTypeBroken:
		return ActionPriorityHigh
	case DiscrepancyTypeLocationChange, DiscrepancyTypeUserChange:
		return ActionPriorityMedium
	}
	return ActionPriorityLow
}

// resolveAssignee picks the asset's linked employee, then the auditor of the
// assignment whose location name matches the asset's location, then nobody.
func resolveAssignee(d Discrepancy, plan AuditPlan) *int {
	if d.EmployeeId != nil {
		id := *d.EmployeeId
		return &id
	}
	for _, a := range plan.Assignments {
		if a.LocationName != d.Location {
			continue
		}
		if a.AuditorId == nil {
			return nil
		}
		id := *a.AuditorId
		return &id
	}
	return nil
}

// PlanCorrectiveAction drafts the action for d. The due date is the calendar
// date seven days after now, in now's location.
func PlanCorrectiveAction(d Discrepancy, plan AuditPlan, now time.Time) CorrectiveActionDraft {
	issue, action := draftText(d)
	return CorrectiveActionDraft{
		AuditAssetId:    d.AuditAssetId,
		DiscrepancyType: d.Type,
		Issue:           issue,
		Action:          action,
		AssignedTo:      resolveAssignee(d, plan),
		Priority:        draftPriority(d.Type),
		DueDate:         utils.DateOnly(now.AddDate(0, 0, correctiveActionLeadDays)),
		Notes:           utils.NilIfBlank(d.AuditorNotes),
	}
}
