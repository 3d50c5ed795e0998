package models

import (
	"context"
	"testing"

	"github.com/mmdatafocus/asset_audit_backend/utils"
)

func TestPendingPlanVisibilityIsPerUser(t *testing.T) {
	store := utils.NewMemoryStore()
	UsePendingStore(store)
	t.Cleanup(func() { UsePendingStore(utils.RedisStore()) })

	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-1")
	alice := utils.SetUserIdInContext(ctx, 1)
	bob := utils.SetUserIdInContext(ctx, 2)

	pending, err := pendingPlanVisibility(alice)
	if err != nil {
		t.Fatalf("pendingPlanVisibility: %v", err)
	}
	if _, err := pending.Stage(alice, 7, false); err != nil {
		t.Fatalf("stage: %v", err)
	}

	staged, err := ListPendingPlanVisibility(alice)
	if err != nil {
		t.Fatalf("list alice: %v", err)
	}
	if len(staged) != 1 || staged[0].Id != 7 || staged[0].Value {
		t.Fatalf("alice staged = %+v", staged)
	}
	other, err := ListPendingPlanVisibility(bob)
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("bob sees alice's changes: %+v", other)
	}

	if err := DiscardPendingPlanVisibility(alice); err != nil {
		t.Fatalf("discard: %v", err)
	}
	staged, err = ListPendingPlanVisibility(alice)
	if err != nil {
		t.Fatalf("list after discard: %v", err)
	}
	if len(staged) != 0 {
		t.Fatalf("discard left %d changes", len(staged))
	}
}

func TestPendingPlanVisibilityRequiresBusiness(t *testing.T) {
	if _, err := ListPendingPlanVisibility(context.Background()); err != utils.ErrBusinessIdRequired {
		t.Fatalf("expected business id error, got %v", err)
	}
}
