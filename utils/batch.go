package utils

import (
	"context"
	"fmt"
)

// BatchResult is what every batch collaborator reports back.
type BatchResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Applied int    `json:"applied"`
}

// RunBatch applies items in order and stops at the first failure.
// Items applied before the failure stay applied.
func RunBatch[T any](ctx context.Context, items []T, apply func(ctx context.Context, item T) error) BatchResult {
	if len(items) == 0 {
		return BatchResult{Success: true, Message: "nothing to save"}
	}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return BatchResult{Success: false, Message: fmt.Sprintf("item %d: %v", i+1, err), Applied: i}
		}
		if err := apply(ctx, item); err != nil {
			return BatchResult{Success: false, Message: fmt.Sprintf("item %d: %v", i+1, err), Applied: i}
		}
	}
	return BatchResult{Success: true, Message: fmt.Sprintf("saved %d item(s)", len(items)), Applied: len(items)}
}
