package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/middlewares"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/models/reports"
	"github.com/mmdatafocus/asset_audit_backend/utils"
)

// respondError maps domain errors to HTTP status codes.
func respondError(c *gin.Context, funcName string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, utils.ErrBusinessIdRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, utils.ErrorRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, utils.ErrServiceNotReady):
		status = http.StatusServiceUnavailable
	case utils.IsValidationError(err):
		status = http.StatusBadRequest
	case utils.IsDuplicateKeyErr(err):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		config.LogError(config.GetLogger(), "handlers.go", funcName, c.Request.URL.Path, nil, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return false
	}
	return true
}

type auditPlanView struct {
	*models.AuditPlan
	Discrepancies int `json:"discrepancies"`
}

// hydrateAssignments replaces the auditor and location names snapshotted on
// each assignment with the current employee and location rows. Rows that no
// longer exist keep their snapshot.
func hydrateAssignments(ctx context.Context, plans ...*models.AuditPlan) {
	var auditorIds, locationIds []int
	for _, p := range plans {
		for _, a := range p.Assignments {
			if a.AuditorId != nil {
				auditorIds = append(auditorIds, *a.AuditorId)
			}
			locationIds = append(locationIds, a.LocationId)
		}
	}
	auditorIds = utils.UniqueSlice(auditorIds)
	locationIds = utils.UniqueSlice(locationIds)

	employees := make(map[int]string, len(auditorIds))
	if len(auditorIds) > 0 {
		found, errs := middlewares.GetEmployees(ctx, auditorIds)
		for i, e := range found {
			if e != nil && (len(errs) <= i || errs[i] == nil) {
				employees[auditorIds[i]] = e.Name
			}
		}
	}
	locations := make(map[int]string, len(locationIds))
	if len(locationIds) > 0 {
		found, errs := middlewares.GetLocations(ctx, locationIds)
		for i, l := range found {
			if l != nil && (len(errs) <= i || errs[i] == nil) {
				locations[locationIds[i]] = l.Name
			}
		}
	}

	for _, p := range plans {
		for i := range p.Assignments {
			a := &p.Assignments[i]
			if a.AuditorId != nil {
				if name, ok := employees[*a.AuditorId]; ok {
					a.AuditorName = &name
				}
			}
			if name, ok := locations[a.LocationId]; ok {
				a.LocationName = name
			}
		}
	}
}

func listAuditPlansHandler(c *gin.Context) {
	includeHidden, _ := strconv.ParseBool(c.Query("includeHidden"))
	plans, err := models.ListAuditPlans(c.Request.Context(), includeHidden)
	if err != nil {
		respondError(c, "listAuditPlansHandler", err)
		return
	}
	hydrateAssignments(c.Request.Context(), plans...)
	views := make([]auditPlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, auditPlanView{AuditPlan: p, Discrepancies: len(models.ClassifyDiscrepancies(*p))})
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

type createAuditPlanRequest struct {
	Name        string  `json:"name"`
	StartDate   string  `json:"start_date"`
	DueDate     string  `json:"due_date"`
	Description *string `json:"description"`
	LocationIds []int   `json:"location_ids"`
	AuditorIds  []int   `json:"auditor_ids"`
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, utils.NewValidationError("%s: expected YYYY-MM-DD", field)
	}
	return t, nil
}

func createAuditPlanHandler(c *gin.Context) {
	var req createAuditPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		respondError(c, "createAuditPlanHandler", err)
		return
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		respondError(c, "createAuditPlanHandler", err)
		return
	}
	plan, err := models.CreateAuditPlan(c.Request.Context(), &models.NewAuditPlan{
		Name:        req.Name,
		StartDate:   start,
		DueDate:     due,
		Description: req.Description,
		LocationIds: req.LocationIds,
		AuditorIds:  req.AuditorIds,
	})
	if err != nil {
		respondError(c, "createAuditPlanHandler", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": plan})
}

func getAuditPlanHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	plan, err := models.GetAuditPlan(c.Request.Context(), id)
	if err != nil {
		respondError(c, "getAuditPlanHandler", err)
		return
	}
	hydrateAssignments(c.Request.Context(), plan)
	c.JSON(http.StatusOK, gin.H{"data": plan})
}

func listDiscrepanciesHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, err := models.ListAuditDiscrepancies(c.Request.Context(), id)
	if err != nil {
		respondError(c, "listDiscrepanciesHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func listCorrectiveActionsHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, err := models.ListCorrectiveActions(c.Request.Context(), id)
	if err != nil {
		respondError(c, "listCorrectiveActionsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func auditReportHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	report, err := reports.GetAuditSummaryReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, "auditReportHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func exportAuditReportHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	export, err := reports.ExportAuditReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, "exportAuditReportHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": export})
}

func addUnlistedAssetHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.UnlistedAssetInput
	if !bindJSON(c, &req) {
		return
	}
	record, err := models.AddUnlistedAsset(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "addUnlistedAssetHandler", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": record})
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

func stagePlanVisibilityHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req visibilityRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Visible == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visible is required"})
		return
	}
	staged, err := models.StagePlanVisibility(c.Request.Context(), id, *req.Visible)
	if err != nil {
		respondError(c, "stagePlanVisibilityHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": staged})
}

func listPendingVisibilityHandler(c *gin.Context) {
	staged, err := models.ListPendingPlanVisibility(c.Request.Context())
	if err != nil {
		respondError(c, "listPendingVisibilityHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": staged})
}

func savePendingVisibilityHandler(c *gin.Context) {
	result, err := models.SavePendingPlanVisibility(c.Request.Context())
	if err != nil {
		respondError(c, "savePendingVisibilityHandler", err)
		return
	}
	c.JSON(batchStatus(result), result)
}

func discardPendingVisibilityHandler(c *gin.Context) {
	if err := models.DiscardPendingPlanVisibility(c.Request.Context()); err != nil {
		respondError(c, "discardPendingVisibilityHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type recordMutation func(c *gin.Context, id int, input *models.AuditRecordInput) (*models.AuditAssetRecord, error)

func auditRecordHandler(funcName string, mutate recordMutation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var input models.AuditRecordInput
		if c.Request.ContentLength != 0 && !bindJSON(c, &input) {
			return
		}
		record, err := mutate(c, id, &input)
		if err != nil {
			respondError(c, funcName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

type draftRequest struct {
	Type models.DiscrepancyType `json:"type"`
}

func draftCorrectiveActionHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req draftRequest
	if !bindJSON(c, &req) {
		return
	}
	draft, err := models.DraftCorrectiveAction(c.Request.Context(), id, req.Type)
	if err != nil {
		respondError(c, "draftCorrectiveActionHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": draft})
}

type createCorrectiveActionRequest struct {
	AuditAssetId    int                    `json:"audit_asset_id"`
	DiscrepancyType models.DiscrepancyType `json:"discrepancy_type"`
	Issue           string                 `json:"issue"`
	Action          string                 `json:"action"`
	AssignedTo      *int                   `json:"assigned_to"`
	Priority        models.ActionPriority  `json:"priority"`
	DueDate         string                 `json:"due_date"`
	Notes           *string                `json:"notes"`
}

func createCorrectiveActionHandler(c *gin.Context) {
	var req createCorrectiveActionRequest
	if !bindJSON(c, &req) {
		return
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		respondError(c, "createCorrectiveActionHandler", err)
		return
	}
	action, err := models.CreateCorrectiveAction(c.Request.Context(), &models.NewCorrectiveAction{
		AuditAssetId:    req.AuditAssetId,
		DiscrepancyType: req.DiscrepancyType,
		Issue:           req.Issue,
		Action:          req.Action,
		AssignedTo:      req.AssignedTo,
		Priority:        req.Priority,
		DueDate:         due,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, "createCorrectiveActionHandler", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": action})
}

type actionStatusRequest struct {
	Status models.ActionStatus `json:"status"`
}

func updateCorrectiveActionStatusHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req actionStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	action, err := models.UpdateCorrectiveActionStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, "updateCorrectiveActionStatusHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": action})
}

// batchStatus is 200 for a completed batch and 422 when it stopped part way.
func batchStatus(result utils.BatchResult) int {
	if result.Success {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

func batchHandler[T any](funcName string, save func(c *gin.Context, inputs []*T) (utils.BatchResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var inputs []*T
		if !bindJSON(c, &inputs) {
			return
		}
		result, err := save(c, inputs)
		if err != nil {
			respondError(c, funcName, err)
			return
		}
		c.JSON(batchStatus(result), result)
	}
}
