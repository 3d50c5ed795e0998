package models

import "testing"

func recordsWithStatuses(statuses ...AssetStatus) []AuditAssetRecord {
	records := make([]AuditAssetRecord, 0, len(statuses))
	for i, s := range statuses {
		records = append(records, AuditAssetRecord{ID: i + 1, AssetCode: "A" + string(rune('0'+i)), CurrentStatus: s})
	}
	return records
}

func TestRecomputeAuditPlan(t *testing.T) {
	cases := []struct {
		name         string
		status       AuditPlanStatus
		records      []AuditAssetRecord
		wantProgress int
		wantStatus   AuditPlanStatus
	}{
		{"no records", AuditPlanStatusPlanning, nil, 0, AuditPlanStatusPlanning},
		{"no records overdue", AuditPlanStatusOverdue, nil, 0, AuditPlanStatusOverdue},
		{"nothing audited", AuditPlanStatusPlanning, recordsWithStatuses(AssetStatusPending, AssetStatusPending), 0, AuditPlanStatusPlanning},
		{"first audited", AuditPlanStatusPlanning, recordsWithStatuses(AssetStatusFound, AssetStatusPending, AssetStatusPending), 33, AuditPlanStatusInProgress},
		{"two of three", AuditPlanStatusInProgress, recordsWithStatuses(AssetStatusFound, AssetStatusMissing, AssetStatusPending), 67, AuditPlanStatusInProgress},
		{"overdue keeps status", AuditPlanStatusOverdue, recordsWithStatuses(AssetStatusFound, AssetStatusPending), 50, AuditPlanStatusOverdue},
		{"all audited", AuditPlanStatusInProgress, recordsWithStatuses(AssetStatusFound, AssetStatusBroken), 100, AuditPlanStatusCompleted},
		{"all audited from planning", AuditPlanStatusPlanning, recordsWithStatuses(AssetStatusInUse), 100, AuditPlanStatusCompleted},
		{"overdue completes", AuditPlanStatusOverdue, recordsWithStatuses(AssetStatusReturned), 100, AuditPlanStatusCompleted},
		{"japanese pending", AuditPlanStatusPlanning, recordsWithStatuses(AssetStatus("未確認"), AssetStatusFound), 50, AuditPlanStatusInProgress},
		{"blank status is pending", AuditPlanStatusInProgress, recordsWithStatuses(AssetStatus(""), AssetStatusFound), 50, AuditPlanStatusInProgress},
		{"whitespace status is pending", AuditPlanStatusPlanning, recordsWithStatuses(AssetStatus("  "), AssetStatus("")), 0, AuditPlanStatusPlanning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecomputeAuditPlan(AuditPlan{ID: 1, Status: tc.status, Progress: 12}, tc.records)
			if got.Progress != tc.wantProgress {
				t.Fatalf("progress = %d, want %d", got.Progress, tc.wantProgress)
			}
			if got.Status != tc.wantStatus {
				t.Fatalf("status = %s, want %s", got.Status, tc.wantStatus)
			}
			if len(got.Records) != len(tc.records) {
				t.Fatalf("records = %d, want %d", len(got.Records), len(tc.records))
			}
		})
	}
}

func TestRecomputeAuditPlanProgressBounds(t *testing.T) {
	statuses := []AssetStatus{AssetStatusPending}
	for i := 0; i < 40; i++ {
		if i%3 == 0 {
			statuses = append(statuses, AssetStatusFound)
		} else {
			statuses = append(statuses, AssetStatusPending)
		}
		got := RecomputeAuditPlan(AuditPlan{Status: AuditPlanStatusPlanning}, recordsWithStatuses(statuses...))
		if got.Progress < 0 || got.Progress > 100 {
			t.Fatalf("progress out of range: %d", got.Progress)
		}
		if got.Progress == 100 {
			t.Fatalf("progress is 100 with a pending record")
		}
	}
}

func TestCountAudited(t *testing.T) {
	records := recordsWithStatuses(AssetStatusPending, AssetStatusFound, AssetStatusMissing, AssetStatusPending)
	if got := CountAudited(records); got != 2 {
		t.Fatalf("CountAudited = %d, want 2", got)
	}
	if got := CountAudited(recordsWithStatuses(AssetStatus(""), AssetStatus(" "), AssetStatusBroken)); got != 1 {
		t.Fatalf("CountAudited with blank statuses = %d, want 1", got)
	}
}
