package models

type AuditPlanStatus string

const (
	AuditPlanStatusPlanning   AuditPlanStatus = "Planning"
	AuditPlanStatusInProgress AuditPlanStatus = "InProgress"
	AuditPlanStatusCompleted  AuditPlanStatus = "Completed"
	AuditPlanStatusOverdue    AuditPlanStatus = "Overdue"
)

type DiscrepancyType string

const (
	DiscrepancyTypeMissing        DiscrepancyType = "missing"
	DiscrepancyTypeBroken         DiscrepancyType = "broken"
	DiscrepancyTypeLocationChange DiscrepancyType = "location_change"
	DiscrepancyTypeUserChange     DiscrepancyType = "user_change"
)

func (t DiscrepancyType) IsValid() bool {
	switch t {
	case DiscrepancyTypeMissing, DiscrepancyTypeBroken, DiscrepancyTypeLocationChange, DiscrepancyTypeUserChange:
		return true
	}
	return false
}

type ActionPriority string

const (
	ActionPriorityHigh   ActionPriority = "high"
	ActionPriorityMedium ActionPriority = "medium"
	ActionPriorityLow    ActionPriority = "low"
)

type ActionStatus string

const (
	ActionStatusOpen       ActionStatus = "open"
	ActionStatusInProgress ActionStatus = "in_progress"
	ActionStatusCompleted  ActionStatus = "completed"
)
