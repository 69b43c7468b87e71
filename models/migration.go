package models

import (
	"log"

	"github.com/mcaservicing/mca_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &User{}, &History{},
		&Account{}, &Address{}, &BusinessDetail{}, &Document{},
		&Funding{}, &PaybackPlan{}, &Payback{},
		&DisbursementIntent{}, &Disbursement{},
		&CommissionIntent{}, &Commission{},
		&Fee{}, &Credit{}, &Syndication{},
		&PubSubMessageRecord{}, &IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
