package models_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/shopspring/decimal"
)

func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "asset_audit_test")
	t.Setenv("AUDIT_OUTBOX_ENABLED", "true")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetBusinessIdInContext(ctx, "biz-integration")
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUsernameInContext(ctx, "auditor@local")
	return ctx
}

func TestAuditPlanLifecycle(t *testing.T) {
	ctx := setupIntegration(t)

	tokyo, err := models.CreateLocation(ctx, &models.NewLocation{Name: "Tokyo HQ"})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	osaka, err := models.CreateLocation(ctx, &models.NewLocation{Name: "Osaka Branch"})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	auditor, err := models.CreateEmployee(ctx, &models.NewEmployee{EmployeeCode: "E001", Name: "Tanaka"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	user, err := models.CreateEmployee(ctx, &models.NewEmployee{EmployeeCode: "E002", Name: "Sato"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}

	result, err := models.SaveAssetsBatch(ctx, []*models.NewAsset{
		{AssetCode: "PC-001", Model: "ThinkPad", LocationName: "Tokyo HQ", EmployeeCode: utils.NewString("E002"), PurchaseCost: decimal.NewFromInt(1500)},
		{AssetCode: "PC-002", Model: "MacBook", LocationName: "Tokyo HQ", PurchaseCost: decimal.NewFromInt(2000)},
		{AssetCode: "PR-001", Model: "Printer", LocationName: "Osaka Branch", Status: models.AssetStatus("保管中")},
	})
	if err != nil || !result.Success {
		t.Fatalf("SaveAssetsBatch: %v %+v", err, result)
	}

	start := time.Now()
	plan, err := models.CreateAuditPlan(ctx, &models.NewAuditPlan{
		Name:        "FY2026 Q1",
		StartDate:   start,
		DueDate:     start.AddDate(0, 0, 14),
		LocationIds: []int{tokyo.ID, osaka.ID},
		AuditorIds:  []int{auditor.ID},
	})
	if err != nil {
		t.Fatalf("CreateAuditPlan: %v", err)
	}
	if len(plan.Records) != 3 || len(plan.Assignments) != 2 {
		t.Fatalf("plan has %d records, %d assignments", len(plan.Records), len(plan.Assignments))
	}

	plan, err = models.GetAuditPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetAuditPlan: %v", err)
	}
	recordByCode := map[string]models.AuditAssetRecord{}
	for _, r := range plan.Records {
		recordByCode[r.AssetCode] = r
	}

	if _, err := models.SubmitAuditFinding(ctx, recordByCode["PC-001"].ID, &models.AuditRecordInput{CurrentStatus: models.AssetStatusMissing}); err != nil {
		t.Fatalf("SubmitAuditFinding missing: %v", err)
	}
	if _, err := models.SubmitAuditFinding(ctx, recordByCode["PC-002"].ID, &models.AuditRecordInput{
		CurrentStatus:   models.AssetStatusFound,
		CurrentLocation: utils.NewString("Osaka Branch"),
	}); err != nil {
		t.Fatalf("SubmitAuditFinding moved: %v", err)
	}
	if _, err := models.SubmitAuditFinding(ctx, recordByCode["PC-001"].ID, &models.AuditRecordInput{CurrentStatus: models.AssetStatus("Gone")}); !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	plan, err = models.GetAuditPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetAuditPlan: %v", err)
	}
	if plan.Progress != 67 || plan.Status != models.AuditPlanStatusInProgress {
		t.Fatalf("plan progress %d status %s", plan.Progress, plan.Status)
	}

	discrepancies, err := models.ListAuditDiscrepancies(ctx, plan.ID)
	if err != nil {
		t.Fatalf("ListAuditDiscrepancies: %v", err)
	}
	if len(discrepancies) != 2 {
		t.Fatalf("discrepancies = %+v", discrepancies)
	}

	draft, err := models.DraftCorrectiveAction(ctx, recordByCode["PC-001"].ID, models.DiscrepancyTypeMissing)
	if err != nil {
		t.Fatalf("DraftCorrectiveAction: %v", err)
	}
	if draft.AssignedTo == nil || *draft.AssignedTo != user.ID {
		t.Fatalf("draft assignee = %v, want %d", draft.AssignedTo, user.ID)
	}
	action, err := models.CreateCorrectiveAction(ctx, &models.NewCorrectiveAction{
		AuditAssetId:    draft.AuditAssetId,
		DiscrepancyType: draft.DiscrepancyType,
		Issue:           draft.Issue,
		Action:          draft.Action,
		AssignedTo:      draft.AssignedTo,
		Priority:        draft.Priority,
		DueDate:         draft.DueDate,
	})
	if err != nil {
		t.Fatalf("CreateCorrectiveAction: %v", err)
	}
	if _, err := models.UpdateCorrectiveActionStatus(ctx, action.ID, models.ActionStatusCompleted); err != nil {
		t.Fatalf("UpdateCorrectiveActionStatus: %v", err)
	}
	if _, err := models.UpdateCorrectiveActionStatus(ctx, action.ID, models.ActionStatusOpen); !utils.IsValidationError(err) {
		t.Fatalf("expected completed action to stay completed, got %v", err)
	}

	if _, err := models.ResolveAuditDiscrepancy(ctx, recordByCode["PC-001"].ID, nil); err != nil {
		t.Fatalf("ResolveAuditDiscrepancy: %v", err)
	}
	if _, err := models.SubmitAuditFinding(ctx, recordByCode["PR-001"].ID, &models.AuditRecordInput{CurrentStatus: models.AssetStatusInStorage}); err != nil {
		t.Fatalf("SubmitAuditFinding storage: %v", err)
	}

	plan, err = models.GetAuditPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetAuditPlan: %v", err)
	}
	if plan.Progress != 100 || plan.Status != models.AuditPlanStatusCompleted {
		t.Fatalf("plan progress %d status %s", plan.Progress, plan.Status)
	}

	var events []string
	if err := config.GetDB().WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("business_id = ?", "biz-integration").Order("id").Pluck("event_type", &events).Error; err != nil {
		t.Fatalf("read outbox: %v", err)
	}
	want := []string{
		models.EventAuditPlanCreated,
		models.EventCorrectiveActionAssigned,
		models.EventCorrectiveActionCompleted,
		models.EventAuditPlanCompleted,
	}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("outbox events = %v, want %v", events, want)
	}
}

func TestAddUnlistedAssetCountsTowardProgress(t *testing.T) {
	ctx := setupIntegration(t)

	location, err := models.CreateLocation(ctx, &models.NewLocation{Name: "Nagoya"})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	auditor, err := models.CreateEmployee(ctx, &models.NewEmployee{EmployeeCode: "E010", Name: "Ito"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	if _, err := models.CreateAsset(ctx, &models.NewAsset{AssetCode: "NG-001", Model: "Desk PC", LocationName: "Nagoya"}); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	plan, err := models.CreateAuditPlan(ctx, &models.NewAuditPlan{
		Name:        "Nagoya spot check",
		StartDate:   time.Now(),
		DueDate:     time.Now(),
		LocationIds: []int{location.ID},
		AuditorIds:  []int{auditor.ID},
	})
	if err != nil {
		t.Fatalf("CreateAuditPlan: %v", err)
	}

	record, err := models.AddUnlistedAsset(ctx, plan.ID, &models.UnlistedAssetInput{
		AssetCode:       "NG-999",
		Model:           "Unknown laptop",
		CurrentLocation: "Nagoya",
	})
	if err != nil {
		t.Fatalf("AddUnlistedAsset: %v", err)
	}
	if !record.IsNew || record.OriginalLocation != "N/A" || record.CurrentStatus != models.AssetStatusFound {
		t.Fatalf("unlisted record = %+v", record)
	}

	plan, err = models.GetAuditPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetAuditPlan: %v", err)
	}
	if plan.Progress != 50 || plan.Status != models.AuditPlanStatusInProgress {
		t.Fatalf("plan progress %d status %s", plan.Progress, plan.Status)
	}
}
