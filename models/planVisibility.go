package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/utils"
)

const pendingVisibilityTTL = 24 * time.Hour

var pendingStore = utils.RedisStore()

// UsePendingStore swaps the staging store (commands and tests run without redis).
func UsePendingStore(store utils.KeyValueStore) {
	pendingStore = store
}

// visibility toggles are staged per user until saved or discarded
func pendingPlanVisibility(ctx context.Context) (*utils.PendingChanges[bool], error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	owner := ""
	if userId, ok := utils.GetUserIdFromContext(ctx); ok && userId > 0 {
		owner = fmt.Sprint(userId)
	} else if username, ok := utils.GetUsernameFromContext(ctx); ok {
		owner = username
	}
	key := fmt.Sprintf("PendingPlanVisibility:%s:%s", businessId, owner)
	return utils.NewPendingChanges[bool](pendingStore, key, pendingVisibilityTTL), nil
}

func StagePlanVisibility(ctx context.Context, planId int, visible bool) ([]utils.PendingChange[bool], error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[AuditPlan](ctx, businessId, planId); err != nil {
		return nil, err
	}
	pending, err := pendingPlanVisibility(ctx)
	if err != nil {
		return nil, err
	}
	return pending.Stage(ctx, planId, visible)
}

func ListPendingPlanVisibility(ctx context.Context) ([]utils.PendingChange[bool], error) {
	pending, err := pendingPlanVisibility(ctx)
	if err != nil {
		return nil, err
	}
	return pending.List(ctx)
}

// SavePendingPlanVisibility applies staged toggles one by one. On failure the
// applied toggles stay saved and the rest stay staged.
func SavePendingPlanVisibility(ctx context.Context) (utils.BatchResult, error) {
	pending, err := pendingPlanVisibility(ctx)
	if err != nil {
		return utils.BatchResult{}, err
	}
	return pending.Save(ctx, func(ctx context.Context, planId int, visible bool) error {
		_, err := SetAuditPlanVisibility(ctx, planId, visible)
		return err
	})
}

func DiscardPendingPlanVisibility(ctx context.Context) error {
	pending, err := pendingPlanVisibility(ctx)
	if err != nil {
		return err
	}
	return pending.Discard(ctx)
}
