package repository

import (
	"github.com/martapons/campustour-be/internal/entity"
	"gorm.io/gorm"
)

type (
	LocationRepository interface {
		FindAllOrdered(db *gorm.DB) ([]entity.CampusLocation, error)
		FindBySlug(db *gorm.DB, slug string) (*entity.CampusLocation, error)
	}

	locationRepository struct {
		db *gorm.DB
	}
)

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) FindAllOrdered(db *gorm.DB) ([]entity.CampusLocation, error) {
	if db == nil {
		db = r.db
	}
	var locations []entity.CampusLocation
	err := db.Order("stop_order ASC").Find(&locations).Error
	return locations, err
}

func (r *locationRepository) FindBySlug(db *gorm.DB, slug string) (*entity.CampusLocation, error) {
	if db == nil {
		db = r.db
	}
	var location entity.CampusLocation
	err := db.Where("slug = ?", slug).First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}
