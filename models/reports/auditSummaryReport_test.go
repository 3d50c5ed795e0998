package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func samplePlan() models.AuditPlan {
	return models.AuditPlan{
		ID:     5,
		Name:   "FY2026 Q1",
		Status: models.AuditPlanStatusInProgress,
		Records: []models.AuditAssetRecord{
			{ID: 1, AssetCode: "PC-001", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatusMissing, AssetCost: decimal.NewFromInt(1200)},
			{ID: 2, AssetCode: "PC-002", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatus("故障中"), CurrentLocation: utils.NewString("Osaka"), AssetCost: decimal.NewFromInt(800)},
			{ID: 3, AssetCode: "PC-003", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatusInUse, Resolved: true, OriginalUser: utils.NewString("Sato"), CurrentUser: utils.NewString("Ito")},
			{ID: 4, AssetCode: "PC-004", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatusPending},
			{ID: 5, AssetCode: "PC-005", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatusFound, CurrentLocation: utils.NewString(" Tokyo ")},
			{ID: 6, AssetCode: "PC-006", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatus("Lost In Space"), CurrentUser: utils.NewString("  ")},
			{ID: 7, AssetCode: "PR-001", OriginalLocation: "Osaka", CurrentStatus: models.AssetStatus("保管中"), Resolved: true},
			{ID: 8, AssetCode: "PR-002", OriginalLocation: "Osaka", CurrentStatus: models.AssetStatusOnLoan},
		},
	}
}

func TestAggregateAuditPlan(t *testing.T) {
	summary := AggregateAuditPlan(samplePlan())

	if summary.Total != 8 {
		t.Fatalf("total = %d, want 8", summary.Total)
	}
	checks := []struct {
		name string
		got  []AuditRecord
		want int
	}{
		{"missing", summary.Missing, 1},
		{"broken", summary.Broken, 1},
		{"returned", summary.Returned, 0},
		{"abolished", summary.Abolished, 0},
		{"inUse", summary.InUse, 1},
		{"inStorage", summary.InStorage, 1},
		{"onLoan", summary.OnLoan, 1},
		{"reservedForUse", summary.ReservedForUse, 0},
		{"locationUserChanges", summary.LocationUserChanges, 2},
	}
	for _, c := range checks {
		if len(c.got) != c.want {
			t.Fatalf("%s = %d, want %d", c.name, len(c.got), c.want)
		}
		if c.got == nil {
			t.Fatalf("%s is nil", c.name)
		}
	}

	bucketed := 0
	for _, b := range summaryBuckets {
		bucketed += len(*b.rows(&summary))
	}
	if bucketed > summary.Total {
		t.Fatalf("bucketed %d > total %d", bucketed, summary.Total)
	}
	if summary.LocationUserChanges[0].ID != 2 || summary.LocationUserChanges[1].ID != 3 {
		t.Fatalf("unexpected change records: %d, %d", summary.LocationUserChanges[0].ID, summary.LocationUserChanges[1].ID)
	}
}

func TestAggregateAuditPlanEmpty(t *testing.T) {
	summary := AggregateAuditPlan(models.AuditPlan{})
	if summary.Total != 0 || len(summary.Missing) != 0 || len(summary.LocationUserChanges) != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestUserChangesAgreeWithDiscrepancies(t *testing.T) {
	plan := models.AuditPlan{ID: 9, Records: []models.AuditAssetRecord{
		{ID: 1, AssetCode: "PC-001", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatusFound, CurrentUser: utils.NewString("Alice")},
		{ID: 2, AssetCode: "PC-002", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatusInUse, OriginalUser: utils.NewString("Bob"), EmployeeName: utils.NewString("Bob"), CurrentUser: utils.NewString("Carol")},
		{ID: 3, AssetCode: "PC-003", OriginalLocation: "Tokyo", CurrentStatus: models.AssetStatusInUse, OriginalUser: utils.NewString("Bob"), EmployeeName: utils.NewString("Bob"), CurrentUser: utils.NewString("Bob")},
	}}

	changed := map[int]bool{}
	for _, r := range AggregateAuditPlan(plan).LocationUserChanges {
		changed[r.ID] = true
	}
	classified := map[int]bool{}
	for _, d := range models.ClassifyDiscrepancies(plan) {
		if d.Type == models.DiscrepancyTypeUserChange {
			classified[d.AuditAssetId] = true
		}
	}
	for _, id := range []int{1, 2, 3} {
		if changed[id] != classified[id] {
			t.Fatalf("record %d: summary change=%v, user_change=%v", id, changed[id], classified[id])
		}
	}
	if !classified[1] || !classified[2] || classified[3] {
		t.Fatalf("user_change records = %v, want 1 and 2", classified)
	}
}

func TestBuildAuditSummaryReport(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	report := BuildAuditSummaryReport(samplePlan(), now)

	if !report.MissingValue.Equal(decimal.NewFromInt(1200)) || !report.BrokenValue.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("values missing=%s broken=%s", report.MissingValue, report.BrokenValue)
	}
	if report.Counts["Missing"] != 1 || report.Counts["Total"] != 8 || report.Counts["LocationUserChanges"] != 2 {
		t.Fatalf("counts = %v", report.Counts)
	}
	if report.AuditedCount != 7 {
		t.Fatalf("audited = %d, want 7", report.AuditedCount)
	}
	// missing(1), broken(2), location_change(2); resolved records are skipped
	if report.OpenDiscrepancies != 3 {
		t.Fatalf("open discrepancies = %d, want 3", report.OpenDiscrepancies)
	}
}

func TestBuildAuditReportWorkbook(t *testing.T) {
	report := BuildAuditSummaryReport(samplePlan(), time.Now())
	f, err := BuildAuditReportWorkbook(report)
	if err != nil {
		t.Fatalf("BuildAuditReportWorkbook: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) != len(summaryBuckets)+2 || sheets[0] != summarySheetName {
		t.Fatalf("sheets = %v", sheets)
	}
	name, err := book.GetCellValue(summarySheetName, "B1")
	if err != nil || name != "FY2026 Q1" {
		t.Fatalf("plan name cell = %q err=%v", name, err)
	}

	rows, err := book.GetRows("Missing")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "PC-001" {
		t.Fatalf("missing sheet rows = %v", rows)
	}
	rows, err = book.GetRows("In Storage")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 || rows[1][8] != "保管中" {
		t.Fatalf("in storage sheet rows = %v", rows)
	}
}
