package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	summarySheetName = "Summary"
)

var recordHeadings = []interface{}{
	"Asset Code", "Model", "Location", "Original Location", "Current Location",
	"Original User", "Current User", "Status", "Status (JA)", "Audited At",
	"Resolved", "New", "Asset Cost", "Notes",
}

type AuditReportExport struct {
	ObjectKey string    `json:"object_key"`
	Url       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func recordRow(r AuditRecord) []interface{} {
	status := models.CanonicalStatus(string(r.CurrentStatus))
	auditedAt := ""
	if r.AuditedAt != nil {
		auditedAt = r.AuditedAt.Format("2006-01-02 15:04")
	}
	return []interface{}{
		r.AssetCode,
		r.Model,
		r.Location,
		r.OriginalLocation,
		utils.DereferencePtr(r.CurrentLocation),
		utils.DereferencePtr(r.OriginalUser),
		utils.DereferencePtr(r.CurrentUser),
		status.EnglishLabel(),
		status.JapaneseLabel(),
		auditedAt,
		r.Resolved,
		r.IsNew,
		r.AssetCost.InexactFloat64(),
		utils.DereferencePtr(r.AuditorNotes),
	}
}

func setRow(f *excelize.File, sheet string, rowNo int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeRecordSheet(f *excelize.File, sheet string, records []AuditRecord) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, recordHeadings); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, sheet, i+2, recordRow(r)); err != nil {
			return err
		}
	}
	return nil
}

// BuildAuditReportWorkbook renders the report: a Summary sheet with the bucket
// counts, then one sheet per bucket listing its records.
func BuildAuditReportWorkbook(report *AuditSummaryReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheetName); err != nil {
		f.Close()
		return nil, err
	}

	summaryRows := [][]interface{}{
		{"Audit Plan", report.PlanName},
		{"Status", string(report.Status)},
		{"Progress (%)", report.Progress},
		{"Generated At", report.GeneratedAt.Format("2006-01-02 15:04")},
		{},
		{"Bucket", "Count"},
	}
	for _, b := range summaryBuckets {
		summaryRows = append(summaryRows, []interface{}{b.Name, len(*b.rows(&report.Summary))})
	}
	summaryRows = append(summaryRows,
		[]interface{}{"Location / User Changes", len(report.Summary.LocationUserChanges)},
		[]interface{}{"Total", report.Summary.Total},
		[]interface{}{},
		[]interface{}{"Missing Value", report.MissingValue.InexactFloat64()},
		[]interface{}{"Broken Value", report.BrokenValue.InexactFloat64()},
	)
	for i, row := range summaryRows {
		if len(row) == 0 {
			continue
		}
		if err := setRow(f, summarySheetName, i+1, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	for _, b := range summaryBuckets {
		if err := writeRecordSheet(f, b.Name, *b.rows(&report.Summary)); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := writeRecordSheet(f, "Location User Changes", report.Summary.LocationUserChanges); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// ExportAuditReport uploads the plan's workbook and returns a signed download URL.
func ExportAuditReport(ctx context.Context, planId int) (*AuditReportExport, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	report, err := GetAuditSummaryReport(ctx, planId)
	if err != nil {
		return nil, err
	}
	f, err := BuildAuditReportWorkbook(report)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	objectKey := fmt.Sprintf("reports/%s/audit-plan-%d-%s.xlsx", businessId, planId, utils.GenerateUniqueFilename())
	if err := utils.UploadBytesToGCS(ctx, objectKey, buf.Bytes(), xlsxContentType); err != nil {
		config.LogError(config.GetLogger(), "exportExcel.go", "ExportAuditReport", "uploading report", planId, err)
		return nil, err
	}
	url, expiresAt, err := utils.SignDownloadURL(ctx, objectKey, config.ExportURLTTL())
	if err != nil {
		return nil, err
	}
	return &AuditReportExport{ObjectKey: objectKey, Url: url, ExpiresAt: expiresAt}, nil
}
