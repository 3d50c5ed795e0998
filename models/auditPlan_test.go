package models

import (
	"testing"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/shopspring/decimal"
)

func TestAuditorIdFor(t *testing.T) {
	cases := []struct {
		name     string
		auditors []int
		k        int
		want     int
		wantOk   bool
	}{
		{"none", nil, 0, 0, false},
		{"single covers all", []int{9}, 3, 9, true},
		{"aligned", []int{4, 5, 6}, 1, 5, true},
		{"past the end", []int{4, 5}, 2, 0, false},
	}
	for _, tc := range cases {
		got, ok := auditorIdFor(tc.auditors, tc.k)
		if got != tc.want || ok != tc.wantOk {
			t.Fatalf("%s: got (%d, %v), want (%d, %v)", tc.name, got, ok, tc.want, tc.wantOk)
		}
	}
}

func TestBuildAssignments(t *testing.T) {
	locations := map[int]*Location{
		1: {ID: 1, Name: "Tokyo HQ", IsActive: utils.NewTrue()},
		2: {ID: 2, Name: "Osaka Branch", IsActive: utils.NewTrue()},
		3: {ID: 3, Name: "Old Warehouse", IsActive: utils.NewFalse()},
	}
	auditors := map[int]*Employee{
		10: {ID: 10, Name: "Tanaka"},
		11: {ID: 11, Name: "Ito"},
	}

	got := buildAssignments("biz", []int{2, 3, 99, 1, 2}, locations, []int{10, 11, 10, 11}, auditors)
	if len(got) != 2 {
		t.Fatalf("assignments = %d, want 2", len(got))
	}
	if got[0].LocationName != "Osaka Branch" || got[1].LocationName != "Tokyo HQ" {
		t.Fatalf("order = %s, %s", got[0].LocationName, got[1].LocationName)
	}
	if got[0].AuditorId == nil || *got[0].AuditorId != 10 {
		t.Fatalf("first auditor = %v", got[0].AuditorId)
	}
	// Tokyo HQ is the 4th selection, aligned with auditor 11
	if got[1].AuditorId == nil || *got[1].AuditorId != 11 || *got[1].AuditorName != "Ito" {
		t.Fatalf("second auditor = %v", got[1].AuditorId)
	}
	if got[0].SortOrder != 0 || got[1].SortOrder != 1 {
		t.Fatalf("sort order = %d, %d", got[0].SortOrder, got[1].SortOrder)
	}

	single := buildAssignments("biz", []int{1, 2}, locations, []int{11}, auditors)
	for _, a := range single {
		if a.AuditorId == nil || *a.AuditorId != 11 {
			t.Fatalf("single auditor not applied to %s", a.LocationName)
		}
	}

	unknown := buildAssignments("biz", []int{1}, locations, []int{77}, auditors)
	if unknown[0].AuditorId != nil {
		t.Fatalf("unknown auditor should leave assignment unassigned")
	}
}

func TestBuildRecords(t *testing.T) {
	assignments := []AuditAssignment{
		{LocationId: 2, LocationName: "Osaka Branch"},
		{LocationId: 1, LocationName: "Tokyo HQ"},
	}
	assets := []*Asset{
		{ID: 100, AssetCode: "PC-100", Model: "ThinkPad", LocationId: 1, EmployeeId: intPtr(7), PurchaseCost: decimal.NewFromInt(1200)},
		{ID: 101, AssetCode: "PC-101", Model: "MacBook", LocationId: 2},
		{ID: 102, AssetCode: "PC-102", Model: "Monitor", LocationId: 5},
	}
	employees := map[int]*Employee{7: {ID: 7, Name: "Sato"}}

	records := buildRecords("biz", assignments, assets, employees)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].AssetCode != "PC-101" || records[1].AssetCode != "PC-100" {
		t.Fatalf("records out of assignment order: %s, %s", records[0].AssetCode, records[1].AssetCode)
	}
	for _, r := range records {
		if r.CurrentStatus != AssetStatusPending || r.AuditedAt != nil || r.Resolved || r.IsNew {
			t.Fatalf("record %s not fresh: %+v", r.AssetCode, r)
		}
		if r.OriginalLocation != r.Location {
			t.Fatalf("original location %q != %q", r.OriginalLocation, r.Location)
		}
	}
	tokyo := records[1]
	if tokyo.OriginalUser == nil || *tokyo.OriginalUser != "Sato" || tokyo.EmployeeName == nil || *tokyo.EmployeeName != "Sato" {
		t.Fatalf("user snapshot missing: %+v", tokyo)
	}
	if !tokyo.AssetCost.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("asset cost = %s", tokyo.AssetCost)
	}
	if records[0].OriginalUser != nil {
		t.Fatalf("unassigned asset has original user %q", *records[0].OriginalUser)
	}
}

func TestNewAuditPlanValidate(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	valid := func() *NewAuditPlan {
		return &NewAuditPlan{Name: " FY2026 Q1 ", StartDate: start, DueDate: start.AddDate(0, 0, 14), LocationIds: []int{1}}
	}

	input := valid()
	if err := input.validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if input.Name != "FY2026 Q1" {
		t.Fatalf("name not trimmed: %q", input.Name)
	}

	input = valid()
	input.DueDate = start.AddDate(0, 0, -1)
	if err := input.validate(); !utils.IsValidationError(err) {
		t.Fatalf("due before start: got %v", err)
	}

	input = valid()
	input.DueDate = start
	if err := input.validate(); err != nil {
		t.Fatalf("same-day plan rejected: %v", err)
	}

	input = valid()
	input.LocationIds = nil
	if err := input.validate(); !utils.IsValidationError(err) {
		t.Fatalf("missing locations: got %v", err)
	}

	input = valid()
	input.Name = "   "
	if err := input.validate(); !utils.IsValidationError(err) {
		t.Fatalf("blank name: got %v", err)
	}
}
