package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AuditPlan struct {
	ID          int                `gorm:"primary_key" json:"id"`
	BusinessId  string             `gorm:"index;not null" json:"business_id"`
	Name        string             `gorm:"size:255;not null" json:"name"`
	StartDate   time.Time          `gorm:"type:date;not null" json:"start_date"`
	DueDate     time.Time          `gorm:"type:date;not null" json:"due_date"`
	Status      AuditPlanStatus    `gorm:"size:20;not null;default:'Planning'" json:"status"`
	Description string             `gorm:"type:text" json:"description"`
	Progress    int                `gorm:"not null;default:0" json:"progress"`
	IsVisible   *bool              `gorm:"not null;default:true" json:"is_visible"`
	Assignments []AuditAssignment  `gorm:"foreignKey:AuditPlanId" json:"assignments"`
	Records     []AuditAssetRecord `gorm:"foreignKey:AuditPlanId" json:"records"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// AuditAssignment is one selected location of a plan and who audits it.
type AuditAssignment struct {
	ID           int     `gorm:"primary_key" json:"id"`
	BusinessId   string  `gorm:"index;not null" json:"business_id"`
	AuditPlanId  int     `gorm:"index;not null" json:"audit_plan_id"`
	LocationId   int     `gorm:"index;not null" json:"location_id"`
	LocationName string  `gorm:"size:100;not null" json:"location_name"`
	AuditorId    *int    `gorm:"index" json:"auditor_id"`
	AuditorName  *string `gorm:"size:100" json:"auditor_name"`
	SortOrder    int     `gorm:"not null;default:0" json:"sort_order"`
}

// AuditAssetRecord is the audit state of one asset within a plan.
// Location, EmployeeId and EmployeeName describe the asset as currently linked;
// Original* are the values captured when the plan was built.
type AuditAssetRecord struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"index;not null" json:"business_id"`
	AuditPlanId      int             `gorm:"index;not null" json:"audit_plan_id"`
	AssetId          *int            `gorm:"index" json:"asset_id"`
	AssetCode        string          `gorm:"size:50;not null" json:"asset_code"`
	Model            string          `gorm:"size:255" json:"model"`
	Location         string          `gorm:"size:100" json:"location"`
	EmployeeId       *int            `gorm:"index" json:"employee_id"`
	EmployeeName     *string         `gorm:"size:100" json:"employee_name"`
	OriginalLocation string          `gorm:"size:100;not null" json:"original_location"`
	OriginalUser     *string         `gorm:"size:100" json:"original_user"`
	CurrentLocation  *string         `gorm:"size:100" json:"current_location"`
	CurrentUser      *string         `gorm:"size:100" json:"current_user"`
	CurrentStatus    AssetStatus     `gorm:"size:40;not null;default:'Pending'" json:"current_status"`
	AuditorNotes     *string         `gorm:"type:text" json:"auditor_notes"`
	AuditedAt        *time.Time      `json:"audited_at"`
	Resolved         bool            `gorm:"not null;default:false" json:"resolved"`
	IsNew            bool            `gorm:"not null;default:false" json:"is_new"`
	AssetCost        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"asset_cost"`
	PhotoUrl         *string         `gorm:"size:512" json:"photo_url"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAuditPlan struct {
	Name        string    `json:"name" validate:"required,max=255"`
	StartDate   time.Time `json:"start_date"`
	DueDate     time.Time `json:"due_date"`
	Description *string   `json:"description"`
	LocationIds []int     `json:"location_ids" validate:"required,min=1"`
	AuditorIds  []int     `json:"auditor_ids"`
}

func (p AuditPlan) GetBusinessId() string {
	return p.BusinessId
}

func (input *NewAuditPlan) validate() error {
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return utils.NewValidationError("%s", utils.ValidationMessage(err))
	}
	if input.StartDate.IsZero() {
		return utils.NewValidationError("start_date: required")
	}
	if input.DueDate.IsZero() {
		return utils.NewValidationError("due_date: required")
	}
	if utils.DateOnly(input.DueDate).Before(utils.DateOnly(input.StartDate)) {
		return utils.NewValidationError("due date must not be before start date")
	}
	return nil
}

// auditorIdFor pairs the k-th selected location with auditorIds[k]; a single
// auditor covers every location.
func auditorIdFor(auditorIds []int, k int) (int, bool) {
	if len(auditorIds) == 1 {
		return auditorIds[0], true
	}
	if k < len(auditorIds) {
		return auditorIds[k], true
	}
	return 0, false
}

// buildAssignments keeps the input order of locationIds. Unknown, inactive or
// repeated locations are dropped.
func buildAssignments(businessId string, locationIds []int, locations map[int]*Location, auditorIds []int, auditors map[int]*Employee) []AuditAssignment {
	assignments := make([]AuditAssignment, 0, len(locationIds))
	seen := make(map[int]bool, len(locationIds))
	for k, locationId := range locationIds {
		location, ok := locations[locationId]
		if !ok || seen[locationId] || (location.IsActive != nil && !*location.IsActive) {
			continue
		}
		seen[locationId] = true
		assignment := AuditAssignment{
			BusinessId:   businessId,
			LocationId:   location.ID,
			LocationName: location.Name,
			SortOrder:    len(assignments),
		}
		if auditorId, ok := auditorIdFor(auditorIds, k); ok {
			if auditor, ok := auditors[auditorId]; ok {
				id, name := auditor.ID, auditor.Name
				assignment.AuditorId = &id
				assignment.AuditorName = &name
			}
		}
		assignments = append(assignments, assignment)
	}
	return assignments
}

// buildRecords snapshots assets in assignment order, one Pending record each.
func buildRecords(businessId string, assignments []AuditAssignment, assets []*Asset, employees map[int]*Employee) []AuditAssetRecord {
	byLocation := make(map[int][]*Asset)
	for _, a := range assets {
		byLocation[a.LocationId] = append(byLocation[a.LocationId], a)
	}
	var records []AuditAssetRecord
	for _, assignment := range assignments {
		for _, a := range byLocation[assignment.LocationId] {
			assetId := a.ID
			record := AuditAssetRecord{
				BusinessId:       businessId,
				AssetId:          &assetId,
				AssetCode:        a.AssetCode,
				Model:            a.Model,
				Location:         assignment.LocationName,
				OriginalLocation: assignment.LocationName,
				CurrentStatus:    AssetStatusPending,
				AssetCost:        a.PurchaseCost,
			}
			if a.EmployeeId != nil {
				employeeId := *a.EmployeeId
				record.EmployeeId = &employeeId
				if e, ok := employees[employeeId]; ok {
					name := e.Name
					user := e.Name
					record.EmployeeName = &name
					record.OriginalUser = &user
				}
			}
			records = append(records, record)
		}
	}
	return records
}

func CreateAuditPlan(ctx context.Context, input *NewAuditPlan) (*AuditPlan, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	locations, err := GetLocationsByIds(ctx, businessId, input.LocationIds)
	if err != nil {
		return nil, err
	}
	auditors, err := GetEmployeesByIds(ctx, businessId, input.AuditorIds)
	if err != nil {
		return nil, err
	}
	for id, e := range auditors {
		if e.IsActive != nil && !*e.IsActive {
			delete(auditors, id)
		}
	}

	assignments := buildAssignments(businessId, input.LocationIds, locations, input.AuditorIds, auditors)
	if len(assignments) == 0 {
		return nil, utils.NewValidationError("no valid locations selected")
	}
	if len(auditors) == 0 {
		return nil, utils.NewValidationError("no valid auditors selected")
	}

	locationIds := make([]int, 0, len(assignments))
	for _, a := range assignments {
		locationIds = append(locationIds, a.LocationId)
	}

	plan := AuditPlan{
		BusinessId:  businessId,
		Name:        input.Name,
		StartDate:   utils.DateOnly(input.StartDate),
		DueDate:     utils.DateOnly(input.DueDate),
		Status:      AuditPlanStatusPlanning,
		Description: strings.TrimSpace(utils.DereferencePtr(input.Description)),
		Progress:    0,
		IsVisible:   utils.NewTrue(),
		Assignments: assignments,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assets []*Asset
		if err := tx.Where("business_id = ? AND location_id IN ? AND is_active = ?", businessId, locationIds, true).
			Order("asset_code").Find(&assets).Error; err != nil {
			return err
		}
		var employeeIds []int
		for _, a := range assets {
			if a.EmployeeId != nil {
				employeeIds = append(employeeIds, *a.EmployeeId)
			}
		}
		employees, err := GetEmployeesByIds(ctx, businessId, employeeIds)
		if err != nil {
			return err
		}
		plan.Records = buildRecords(businessId, assignments, assets, employees)

		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
		return writeOutbox(ctx, tx, businessId, EventAuditPlanCreated, "AuditPlan", plan.ID, map[string]interface{}{
			"id":          plan.ID,
			"name":        plan.Name,
			"dueDate":     plan.DueDate.Format(time.DateOnly),
			"locations":   len(plan.Assignments),
			"assetCount":  len(plan.Records),
			"assignments": plan.Assignments,
		})
	})
	if err != nil {
		config.LogError(config.GetLogger(), "auditPlan.go", "CreateAuditPlan", "creating audit plan", input, err)
		return nil, err
	}
	return &plan, nil
}

func preloadPlanChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// ListAuditPlans is the fetchAuditPlans contract: plans with assignments and records.
func ListAuditPlans(ctx context.Context, includeHidden bool) ([]*AuditPlan, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*AuditPlan
	dbCtx := preloadPlanChildren(db.WithContext(ctx)).Where("business_id = ?", businessId)
	if !includeHidden {
		dbCtx = dbCtx.Where("is_visible = ?", true)
	}
	if err := dbCtx.Order("start_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetAuditPlan(ctx context.Context, id int) (*AuditPlan, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var plan AuditPlan
	err = preloadPlanChildren(db.WithContext(ctx)).
		Where("business_id = ?", businessId).
		First(&plan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func SetAuditPlanVisibility(ctx context.Context, id int, visible bool) (*AuditPlan, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := utils.FetchModel[AuditPlan](ctx, businessId, id)
	if err != nil {
		return nil, fmt.Errorf("audit plan %d: %w", id, err)
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(plan).Updates(map[string]interface{}{
		"IsVisible": visible,
	}).Error; err != nil {
		return nil, err
	}
	plan.IsVisible = &visible
	return plan, nil
}
