package models

import (
	"log"

	"github.com/mmdatafocus/kitchen_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Category{}, &Discount{},
		&Ingredient{},
		&MenuItem{}, &MenuItemComponent{},
		&Order{}, &OrderItem{}, &OutboxRecord{},
		&Recipe{},
		&StockMovement{}, &Supplier{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
