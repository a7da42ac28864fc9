package models

import (
	"time"

	"gorm.io/gorm"
)

// Collaboration is the durable record of an accepted proposal's resulting
// partnership. One row per (entrepreneur, investor, project, contract).
type Collaboration struct {
	gorm.Model
	EntrepreneurID    uint         `json:"entrepreneurID" gorm:"not null;index;uniqueIndex:idx_collaboration_parties"`
	Entrepreneur      Entrepreneur `json:"entrepreneur"`
	InvestorID        uint         `json:"investorID" gorm:"not null;index;uniqueIndex:idx_collaboration_parties"`
	Investor          Investor     `json:"investor"`
	ProjectID         uint         `json:"projectID" gorm:"not null;index;uniqueIndex:idx_collaboration_parties"`
	Project           Project      `json:"project"`
	ContractID        *uint        `json:"contractID" gorm:"uniqueIndex:idx_collaboration_parties"`
	Contract          *Contract    `json:"contract,omitempty"`
	CollaborationType string       `json:"collaborationType" gorm:"size:20;not null"`
	StartDate         time.Time    `json:"startDate" gorm:"autoCreateTime"`
	EndDate           *time.Time   `json:"endDate"`
	IsActive          bool         `json:"isActive" gorm:"default:true"`
}
