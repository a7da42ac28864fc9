package models

import "gorm.io/gorm"

const (
	ProjectStatusPending  = "pending"
	ProjectStatusApproved = "approved"
	ProjectStatusRejected = "rejected"
)

type Project struct {
	gorm.Model
	EntrepreneurID     uint         `json:"entrepreneurID" gorm:"not null;index"`
	Entrepreneur       Entrepreneur `json:"entrepreneur"`
	ProjectName        string       `json:"projectName" gorm:"size:255;not null"`
	Sector             string       `json:"sector" gorm:"size:128"`
	Description        string       `json:"description" gorm:"type:text"`
	SpecificObjectives string       `json:"specificObjectives" gorm:"type:text"`
	TargetAudience     string       `json:"targetAudience" gorm:"size:255"`
	EstimatedBudget    float64      `json:"estimatedBudget"`
	FinancingPlan      string       `json:"financingPlan" gorm:"type:text"`
	Status             string       `json:"status" gorm:"size:20;default:pending;index"`
	AdminComments      string       `json:"adminComments" gorm:"type:text"`
}
