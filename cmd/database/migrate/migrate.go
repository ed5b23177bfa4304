package migration

import (
	"fmt"
	"log"

	"ecocycle-backend/entities"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.WastePost{}); err != nil {
		log.Fatalf("Error migrating waste post database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
