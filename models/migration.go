package models

import (
	"log"

	"github.com/mmdatafocus/asset_audit_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Employee{}, &Location{}, &Asset{},
		&AuditPlan{}, &AuditAssignment{}, &AuditAssetRecord{},
		&CorrectiveAction{},
		&OutboxMessage{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
