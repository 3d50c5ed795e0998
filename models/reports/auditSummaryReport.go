package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/shopspring/decimal"
)

type AuditRecord = models.AuditAssetRecord

// AuditSummary groups every record of a plan, resolved ones included.
// The status buckets are disjoint; LocationUserChanges may overlap them.
type AuditSummary struct {
	Missing             []AuditRecord `json:"missing"`
	Broken              []AuditRecord `json:"broken"`
	Returned            []AuditRecord `json:"returned"`
	Abolished           []AuditRecord `json:"abolished"`
	InUse               []AuditRecord `json:"inUse"`
	InStorage           []AuditRecord `json:"inStorage"`
	OnLoan              []AuditRecord `json:"onLoan"`
	ReservedForUse      []AuditRecord `json:"reservedForUse"`
	LocationUserChanges []AuditRecord `json:"locationUserChanges"`
	Total               int           `json:"total"`
}

type summaryBucket struct {
	Name   string
	Status models.AssetStatus
	rows   func(s *AuditSummary) *[]AuditRecord
}

var summaryBuckets = []summaryBucket{
	{"Missing", models.AssetStatusMissing, func(s *AuditSummary) *[]AuditRecord { return &s.Missing }},
	{"Broken", models.AssetStatusBroken, func(s *AuditSummary) *[]AuditRecord { return &s.Broken }},
	{"Returned", models.AssetStatusReturned, func(s *AuditSummary) *[]AuditRecord { return &s.Returned }},
	{"Abolished", models.AssetStatusAbolished, func(s *AuditSummary) *[]AuditRecord { return &s.Abolished }},
	{"In Use", models.AssetStatusInUse, func(s *AuditSummary) *[]AuditRecord { return &s.InUse }},
	{"In Storage", models.AssetStatusInStorage, func(s *AuditSummary) *[]AuditRecord { return &s.InStorage }},
	{"On Loan", models.AssetStatusOnLoan, func(s *AuditSummary) *[]AuditRecord { return &s.OnLoan }},
	{"Reserved for Use", models.AssetStatusReservedForUse, func(s *AuditSummary) *[]AuditRecord { return &s.ReservedForUse }},
}

func changedFrom(current *string, original string) bool {
	if utils.IsBlank(current) {
		return false
	}
	return utils.DereferencePtr(utils.NilIfBlank(current)) != utils.DereferencePtr(utils.NilIfBlank(&original))
}

// AggregateAuditPlan buckets the plan's records by canonical status.
// Statuses without a bucket (Pending, Found, ScheduledForDisposal, unknown)
// only count toward Total.
func AggregateAuditPlan(plan models.AuditPlan) AuditSummary {
	summary := AuditSummary{Total: len(plan.Records)}
	for _, b := range summaryBuckets {
		*b.rows(&summary) = []AuditRecord{}
	}
	summary.LocationUserChanges = []AuditRecord{}

	for _, r := range plan.Records {
		status := models.CanonicalStatus(string(r.CurrentStatus))
		for _, b := range summaryBuckets {
			if b.Status == status {
				rows := b.rows(&summary)
				*rows = append(*rows, r)
				break
			}
		}
		if changedFrom(r.CurrentLocation, r.OriginalLocation) || changedFrom(r.CurrentUser, utils.DereferencePtr(r.OriginalUser)) {
			summary.LocationUserChanges = append(summary.LocationUserChanges, r)
		}
	}
	return summary
}

type AuditSummaryReport struct {
	PlanId            int                    `json:"plan_id"`
	PlanName          string                 `json:"plan_name"`
	Status            models.AuditPlanStatus `json:"status"`
	Progress          int                    `json:"progress"`
	Summary           AuditSummary           `json:"summary"`
	Counts            map[string]int         `json:"counts"`
	AuditedCount      int                    `json:"audited_count"`
	OpenDiscrepancies int                    `json:"open_discrepancies"`
	MissingValue      decimal.Decimal        `json:"missing_value"`
	BrokenValue       decimal.Decimal        `json:"broken_value"`
	GeneratedAt       time.Time              `json:"generated_at"`
}

func recordsValue(records []AuditRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.AssetCost)
	}
	return total
}

func BuildAuditSummaryReport(plan models.AuditPlan, now time.Time) *AuditSummaryReport {
	summary := AggregateAuditPlan(plan)
	counts := make(map[string]int, len(summaryBuckets)+2)
	for _, b := range summaryBuckets {
		counts[string(b.Status)] = len(*b.rows(&summary))
	}
	counts["LocationUserChanges"] = len(summary.LocationUserChanges)
	counts["Total"] = summary.Total

	return &AuditSummaryReport{
		PlanId:            plan.ID,
		PlanName:          plan.Name,
		Status:            plan.Status,
		Progress:          plan.Progress,
		Summary:           summary,
		Counts:            counts,
		AuditedCount:      models.CountAudited(plan.Records),
		OpenDiscrepancies: len(models.ClassifyDiscrepancies(plan)),
		MissingValue:      recordsValue(summary.Missing),
		BrokenValue:       recordsValue(summary.Broken),
		GeneratedAt:       now,
	}
}

func GetAuditSummaryReport(ctx context.Context, planId int) (*AuditSummaryReport, error) {
	start := time.Now()
	defer logSlowReport(ctx, "audit_summary_report", start, map[string]any{"plan_id": planId})

	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	key := models.AuditReportCacheKey(businessId, planId)
	if config.ReportCacheEnabled() {
		var cached AuditSummaryReport
		if ok, err := cacheGet(key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	plan, err := models.GetAuditPlan(ctx, planId)
	if err != nil {
		return nil, err
	}
	report := BuildAuditSummaryReport(*plan, time.Now())
	if config.ReportCacheEnabled() {
		_ = cacheSet(key, report, config.ReportCacheTTL())
	}
	return report, nil
}
