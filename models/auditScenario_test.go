package models

import (
	"reflect"
	"testing"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/utils"
)

func TestAuditScenarioFourRecords(t *testing.T) {
	records := []AuditAssetRecord{
		{ID: 1, AssetCode: "PC-001", Location: "Tokyo", OriginalLocation: "Tokyo", EmployeeId: intPtr(3), EmployeeName: utils.NewString("Bob"), OriginalUser: utils.NewString("Bob"), CurrentStatus: AssetStatusMissing},
		{ID: 2, AssetCode: "PC-002", Location: "Tokyo", OriginalLocation: "Tokyo", CurrentLocation: utils.NewString("Osaka"), CurrentStatus: AssetStatusBroken},
		{ID: 3, AssetCode: "PC-003", Location: "Tokyo", OriginalLocation: "Tokyo", CurrentUser: utils.NewString("Alice"), CurrentStatus: AssetStatusFound},
		{ID: 4, AssetCode: "PC-004", Location: "Tokyo", OriginalLocation: "Tokyo", CurrentStatus: AssetStatusPending},
	}
	plan := RecomputeAuditPlan(AuditPlan{ID: 1, Status: AuditPlanStatusPlanning}, records)
	if plan.Progress != 75 {
		t.Fatalf("progress = %d, want 75", plan.Progress)
	}
	if plan.Status != AuditPlanStatusInProgress {
		t.Fatalf("status = %s, want InProgress", plan.Status)
	}

	discrepancies := ClassifyDiscrepancies(plan)
	type entry struct {
		t  DiscrepancyType
		id int
	}
	var got []entry
	for _, d := range discrepancies {
		got = append(got, entry{d.Type, d.AuditAssetId})
	}
	want := []entry{
		{DiscrepancyTypeMissing, 1},
		{DiscrepancyTypeBroken, 2},
		{DiscrepancyTypeLocationChange, 2},
		{DiscrepancyTypeUserChange, 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("discrepancies = %v, want %v", got, want)
	}

	now := time.Now()
	draft := PlanCorrectiveAction(discrepancies[0], plan, now)
	if draft.Priority != ActionPriorityHigh {
		t.Fatalf("priority = %s, want high", draft.Priority)
	}
	if want := utils.DateOnly(now).AddDate(0, 0, 7); !draft.DueDate.Equal(want) {
		t.Fatalf("due = %v, want %v", draft.DueDate, want)
	}
	if draft.AssignedTo == nil || *draft.AssignedTo != 3 {
		t.Fatalf("assignee = %v, want linked employee 3", draft.AssignedTo)
	}
}
