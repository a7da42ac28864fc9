package models

import (
	"math"

	"gorm.io/gorm"
)

const (
	RequestTypeFinancial = "financial"
	RequestTypeTechnical = "technical"

	HelpRequestStatusPending   = "pending"
	HelpRequestStatusCompleted = "completed"
)

// HelpRequest is an entrepreneur's ask for financial or technical
// assistance tied to one of their projects. Exactly one of the two detail
// rows exists, matching RequestType.
type HelpRequest struct {
	gorm.Model
	ProjectID      uint         `json:"projectID" gorm:"not null;index"`
	Project        Project      `json:"project"`
	EntrepreneurID uint         `json:"entrepreneurID" gorm:"not null;index"`
	Entrepreneur   Entrepreneur `json:"entrepreneur"`
	RequestType    string       `json:"requestType" gorm:"size:20;not null"`
	SpecificNeed   string       `json:"specificNeed" gorm:"size:255"`
	Description    string       `json:"description" gorm:"type:text"`
	Status         string       `json:"status" gorm:"size:20;default:pending;index"`

	FinancialDetails *FinancialRequest `json:"financialDetails,omitempty" gorm:"foreignKey:HelpRequestID"`
	TechnicalDetails *TechnicalRequest `json:"technicalDetails,omitempty" gorm:"foreignKey:HelpRequestID"`
}

type FinancialRequest struct {
	gorm.Model
	HelpRequestID   uint    `json:"helpRequestID" gorm:"uniqueIndex;not null"`
	AmountRequested float64 `json:"amountRequested" gorm:"not null"`
	InterestRate    float64 `json:"interestRate" gorm:"default:5.0"`
	DurationMonths  int     `json:"durationMonths" gorm:"not null"`
}

// MonthlyPayment amortizes AmountRequested over DurationMonths at the
// annual InterestRate. Zero-rate loans divide evenly.
func (r *FinancialRequest) MonthlyPayment() float64 {
	if r.DurationMonths <= 0 {
		return 0
	}
	monthlyRate := r.InterestRate / 100 / 12
	if monthlyRate == 0 {
		return r.AmountRequested / float64(r.DurationMonths)
	}
	n := float64(r.DurationMonths)
	return r.AmountRequested * monthlyRate / (1 - math.Pow(1+monthlyRate, -n))
}

func (r *FinancialRequest) TotalRepayment() float64 {
	return r.MonthlyPayment() * float64(r.DurationMonths)
}

func (r *FinancialRequest) TotalInterest() float64 {
	return r.TotalRepayment() - r.AmountRequested
}

type TechnicalRequest struct {
	gorm.Model
	HelpRequestID     uint   `json:"helpRequestID" gorm:"uniqueIndex;not null"`
	ExpertiseNeeded   string `json:"expertiseNeeded" gorm:"size:255"`
	EstimatedDuration int    `json:"estimatedDuration"` // days
}
