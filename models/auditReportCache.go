package models

import (
	"fmt"

	"github.com/mmdatafocus/asset_audit_backend/config"
)

func AuditReportCacheKey(businessId string, planId int) string {
	return fmt.Sprintf("AuditSummaryReport:%s:%d", businessId, planId)
}

// InvalidateAuditReportCache drops the cached summary of a plan. Failures are
// logged; the cache entry expires on its own.
func InvalidateAuditReportCache(businessId string, planId int) {
	if err := config.RemoveRedisKey(AuditReportCacheKey(businessId, planId)); err != nil {
		config.LogError(config.GetLogger(), "auditReportCache.go", "InvalidateAuditReportCache", "removing report cache", planId, err)
	}
}
