// outbox-replay puts FAILED (and optionally DEAD) outbox rows of a business
// back to PENDING so the dispatcher publishes them again.
//
// Usage:
//
//	go run ./cmd/outbox-replay -business <id> [-include-dead] [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
)

func main() {
	var (
		businessID  = flag.String("business", "", "business id (required)")
		includeDead = flag.Bool("include-dead", false, "also replay DEAD rows")
		dryRun      = flag.Bool("dry-run", false, "only count rows that would be replayed")
	)
	flag.Parse()

	if *businessID == "" {
		fmt.Fprintln(os.Stderr, "-business is required")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized. Set DB_* env vars.")
		os.Exit(1)
	}

	// Ops command: the query filters by business_id itself.
	ctx := utils.SetSkipTenantScopeInContext(context.Background(), true)

	statuses := []string{models.OutboxPublishStatusFailed}
	if *includeDead {
		statuses = append(statuses, models.OutboxPublishStatusDead)
	}

	if *dryRun {
		var count int64
		if err := db.WithContext(ctx).Model(&models.OutboxMessage{}).
			Where("business_id = ? AND publish_status IN ?", *businessID, statuses).
			Count(&count).Error; err != nil {
			fmt.Fprintf(os.Stderr, "count failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("dry-run: %d outbox rows (%v) would be replayed for %s\n", count, statuses, *businessID)
		return
	}

	n, err := models.ReplayOutboxMessages(ctx, db, *businessID, *includeDead)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("replayed %d outbox rows for %s\n", n, *businessID)
}
