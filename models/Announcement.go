package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Announcement struct {
	gorm.Model
	OrganizationID uint           `json:"organizationID" gorm:"not null;index"`
	Organization   Organization   `json:"organization"`
	Title          string         `json:"title" gorm:"size:255;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Type           string         `json:"type" gorm:"size:32"` // partnership, opportunity
	Requirements   datatypes.JSON `json:"requirements"`
	Location       string         `json:"location" gorm:"size:255"`
	Deadline       *time.Time     `json:"deadline"`
}
