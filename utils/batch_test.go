package utils

import (
	"context"
	"errors"
	"testing"
)

func TestRunBatchStopsAtFirstFailure(t *testing.T) {
	var applied []int
	res := RunBatch(context.Background(), []int{1, 2, 3, 4}, func(_ context.Context, n int) error {
		if n == 3 {
			return errors.New("boom")
		}
		applied = append(applied, n)
		return nil
	})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Applied != 2 {
		t.Fatalf("applied=%d want 2", res.Applied)
	}
	if len(applied) != 2 || applied[0] != 1 || applied[1] != 2 {
		t.Fatalf("unexpected applied items %v", applied)
	}
	if res.Message != "item 3: boom" {
		t.Fatalf("message=%q", res.Message)
	}
}

func TestRunBatchEmptyAndSuccess(t *testing.T) {
	res := RunBatch(context.Background(), []string{}, func(context.Context, string) error {
		t.Fatalf("apply must not be called")
		return nil
	})
	if !res.Success || res.Applied != 0 {
		t.Fatalf("empty batch: %+v", res)
	}

	res = RunBatch(context.Background(), []string{"a", "b"}, func(context.Context, string) error { return nil })
	if !res.Success || res.Applied != 2 {
		t.Fatalf("success batch: %+v", res)
	}
}

func TestRunBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := RunBatch(ctx, []int{1}, func(context.Context, int) error { return nil })
	if res.Success || res.Applied != 0 {
		t.Fatalf("cancelled batch: %+v", res)
	}
}
