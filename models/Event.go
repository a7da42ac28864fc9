package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	OrganizationID uint         `json:"organizationID" gorm:"not null;index"`
	Organization   Organization `json:"organization"`
	Title          string       `json:"title" gorm:"size:255;not null"`
	Description    string       `json:"description" gorm:"type:text"`
	Location       string       `json:"location" gorm:"size:255"`
	StartsAt       time.Time    `json:"startsAt"`
	EndsAt         *time.Time   `json:"endsAt"`
	Capacity       int          `json:"capacity"`
}
