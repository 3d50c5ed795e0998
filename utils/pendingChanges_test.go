package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPendingChangesStageReplacesSameId(t *testing.T) {
	ctx := context.Background()
	p := NewPendingChanges[bool](NewMemoryStore(), "Pending:test", time.Hour)

	if _, err := p.Stage(ctx, 1, false); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if _, err := p.Stage(ctx, 2, false); err != nil {
		t.Fatalf("stage: %v", err)
	}
	changes, err := p.Stage(ctx, 1, true)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 staged changes, got %d", len(changes))
	}
	if changes[0].Id != 1 || !changes[0].Value {
		t.Fatalf("first change not replaced in place: %+v", changes[0])
	}
}

func TestPendingChangesSaveKeepsUnapplied(t *testing.T) {
	ctx := context.Background()
	p := NewPendingChanges[bool](NewMemoryStore(), "Pending:test", time.Hour)
	for _, id := range []int{1, 2, 3} {
		if _, err := p.Stage(ctx, id, true); err != nil {
			t.Fatalf("stage: %v", err)
		}
	}

	confirmed := map[int]bool{}
	res, err := p.Save(ctx, func(_ context.Context, id int, v bool) error {
		if id == 2 {
			return errors.New("plan not found")
		}
		confirmed[id] = v
		return nil
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Success || res.Applied != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !confirmed[1] || len(confirmed) != 1 {
		t.Fatalf("unexpected confirmed state %v", confirmed)
	}
	left, err := p.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 2 || left[0].Id != 2 || left[1].Id != 3 {
		t.Fatalf("unexpected remaining %+v", left)
	}
}

func TestPendingChangesDiscard(t *testing.T) {
	ctx := context.Background()
	p := NewPendingChanges[string](NewMemoryStore(), "Pending:test", time.Hour)
	if _, err := p.Stage(ctx, 7, "x"); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := p.Discard(ctx); err != nil {
		t.Fatalf("discard: %v", err)
	}
	left, err := p.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected nothing staged, got %+v", left)
	}
}
