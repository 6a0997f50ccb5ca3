package database

import (
	"github.com/martapons/campustour-be/internal/entity"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.CampusLocation{},
	)
	return err
}
