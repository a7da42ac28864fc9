package models

import "gorm.io/gorm"

type Organization struct {
	gorm.Model
	UserID             uint   `json:"userID" gorm:"uniqueIndex;not null"`
	User               User   `json:"user"`
	OrganizationName   string `json:"organizationName" gorm:"size:255;not null"`
	RegistrationNumber string `json:"registrationNumber" gorm:"size:64"`
	FoundedYear        int    `json:"foundedYear"`
	MissionStatement   string `json:"missionStatement" gorm:"type:text"`
	WebsiteURL         string `json:"websiteURL" gorm:"size:512"`
}
