package database

import (
	"fmt"

	"github.com/TuhinPramanik4/Civicsolve/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Issue{}); err != nil {
		return err
	}

	db.Exec("CREATE INDEX IF NOT EXISTS idx_issues_lat_lng ON issues(latitude, longitude)")

	return nil
}
