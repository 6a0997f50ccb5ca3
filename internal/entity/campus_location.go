package entity

import (
	"time"

	"gorm.io/gorm"
)

// CampusLocation - one stop of the fixed campus tour. The catalog is seeded
// at startup and injected into the content-service system instruction.
type CampusLocation struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Slug         string         `gorm:"uniqueIndex;size:50;not null" json:"slug"`     // e.g. "biblioteca-central"
	Name         string         `gorm:"size:100;not null" json:"name"`                // Biblioteca Central
	Category     string         `gorm:"size:30;not null;index" json:"category"`       // library, cafeteria, ...
	GrammarFocus string         `gorm:"size:100;not null" json:"grammar_focus"`       // impersonal "se", ser/estar, ...
	Blurb        string         `gorm:"type:text" json:"blurb"`                       // short situational context
	StopOrder    int            `gorm:"not null;index" json:"stop_order"`             // suggested tour order
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CampusLocation) TableName() string {
	return "campus_locations"
}
