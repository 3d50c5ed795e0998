// seed-demo fills a business with demo locations, employees and assets and
// opens one audit plan over them.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo -business demo-biz
//
// With -token, a session for the business is also written to Redis so the API
// can be called with that token header.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/models"
	"github.com/mmdatafocus/asset_audit_backend/utils"
	"github.com/shopspring/decimal"
)

func main() {
	var (
		businessID = flag.String("business", "", "business id to seed (required)")
		token      = flag.String("token", "", "optional session token to register in Redis")
		skipPlan   = flag.Bool("skip-plan", false, "seed reference data only")
		migrate    = flag.Bool("migrate", false, "run AutoMigrate before seeding")
	)
	flag.Parse()

	if *businessID == "" {
		fmt.Fprintln(os.Stderr, "-business is required")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized. Set DB_* env vars.")
		os.Exit(1)
	}
	if *migrate {
		models.MigrateTable()
	}

	ctx := utils.SetBusinessIdInContext(context.Background(), *businessID)
	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	must("locations", func() (utils.BatchResult, error) {
		return models.SaveLocationsBatch(ctx, []*models.NewLocation{
			{Name: "Tokyo HQ", Address: "Chiyoda-ku, Tokyo"},
			{Name: "Osaka Branch", Address: "Kita-ku, Osaka"},
			{Name: "Warehouse", Address: "Koto-ku, Tokyo"},
		})
	})
	must("employees", func() (utils.BatchResult, error) {
		return models.SaveEmployeesBatch(ctx, []*models.NewEmployee{
			{EmployeeCode: "E001", Name: "Sato Hana", Email: "sato@example.com", Department: "IT"},
			{EmployeeCode: "E002", Name: "Suzuki Ken", Email: "suzuki@example.com", Department: "Sales"},
			{EmployeeCode: "E003", Name: "Tanaka Yui", Email: "tanaka@example.com", Department: "Finance"},
		})
	})
	must("assets", func() (utils.BatchResult, error) {
		return models.SaveAssetsBatch(ctx, []*models.NewAsset{
			{AssetCode: "PC-0001", Model: "ThinkPad X1 Carbon", Category: "Laptop", LocationName: "Tokyo HQ", EmployeeCode: utils.NewString("E001"), Status: models.AssetStatusInUse, PurchaseCost: decimal.NewFromInt(240000)},
			{AssetCode: "PC-0002", Model: "MacBook Pro 14", Category: "Laptop", LocationName: "Tokyo HQ", EmployeeCode: utils.NewString("E002"), Status: models.AssetStatusInUse, PurchaseCost: decimal.NewFromInt(320000)},
			{AssetCode: "MON-0001", Model: "Dell U2723QE", Category: "Monitor", LocationName: "Osaka Branch", Status: models.AssetStatusInUse, PurchaseCost: decimal.NewFromInt(80000)},
			{AssetCode: "PC-0003", Model: "Surface Laptop 5", Category: "Laptop", LocationName: "Warehouse", Status: models.AssetStatusInStorage, PurchaseCost: decimal.NewFromInt(180000)},
			{AssetCode: "TAB-0001", Model: "iPad Air", Category: "Tablet", LocationName: "Osaka Branch", EmployeeCode: utils.NewString("E003"), Status: models.AssetStatusOnLoan, PurchaseCost: decimal.NewFromInt(90000)},
		})
	})

	if !*skipPlan {
		locations, err := models.ListLocations(ctx, true)
		exitOn("list locations", err)
		employees, err := models.ListEmployees(ctx, true)
		exitOn("list employees", err)

		now := time.Now()
		input := &models.NewAuditPlan{
			Name:      fmt.Sprintf("Demo audit %s", now.Format("2006-01")),
			StartDate: utils.DateOnly(now),
			DueDate:   utils.DateOnly(now.AddDate(0, 0, 14)),
		}
		for _, l := range locations {
			input.LocationIds = append(input.LocationIds, l.ID)
		}
		for _, e := range employees {
			input.AuditorIds = append(input.AuditorIds, e.ID)
		}
		plan, err := models.CreateAuditPlan(ctx, input)
		exitOn("create audit plan", err)
		fmt.Printf("Created audit plan %d %q with %d records\n", plan.ID, plan.Name, len(plan.Records))
	}

	if *token != "" {
		config.ConnectRedisWithRetry()
		session := map[string]any{
			"username":   "seed@example.com",
			"userId":     0,
			"userName":   "Seed",
			"businessId": *businessID,
		}
		exitOn("register session", config.SetRedisObject("Session:"+*token, session, 24*time.Hour))
		fmt.Printf("Registered session token for business %s (24h)\n", *businessID)
	}
}

func must(name string, save func() (utils.BatchResult, error)) {
	result, err := save()
	exitOn("seed "+name, err)
	if !result.Success {
		fmt.Fprintf(os.Stderr, "seed %s stopped after %d: %s\n", name, result.Applied, result.Message)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d %s\n", result.Applied, name)
}

func exitOn(step string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
