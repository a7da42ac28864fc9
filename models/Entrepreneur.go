package models

import "gorm.io/gorm"

type Entrepreneur struct {
	gorm.Model
	UserID    uint   `json:"userID" gorm:"uniqueIndex;not null"`
	User      User   `json:"user"`
	FirstName string `json:"firstName" gorm:"size:128"`
	LastName  string `json:"lastName" gorm:"size:128"`
}

func (e *Entrepreneur) FullName() string {
	return e.FirstName + " " + e.LastName
}
