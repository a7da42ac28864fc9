package models

import "gorm.io/gorm"

const (
	ProposalKindFinancial = "financial"
	ProposalKindTechnical = "technical"

	ProposalStatusPending  = "pending"
	ProposalStatusAccepted = "accepted"
	ProposalStatusRefused  = "refused"
)

// Proposal is the common view the decision engine takes of both variants.
// Status is terminal once accepted or refused.
type Proposal interface {
	GetID() uint
	GetHelpRequestID() uint
	GetInvestorID() uint
	GetStatus() string
	Kind() string
}

type FinancialProposal struct {
	gorm.Model
	HelpRequestID    uint        `json:"helpRequestID" gorm:"not null;index"`
	HelpRequest      HelpRequest `json:"helpRequest"`
	InvestorID       uint        `json:"investorID" gorm:"not null;index"`
	Investor         Investor    `json:"investor"`
	Status           string      `json:"status" gorm:"size:20;default:pending;index"`
	InvestmentAmount float64     `json:"investmentAmount" gorm:"not null"`
	InvestmentType   string      `json:"investmentType" gorm:"size:64"`
	PaymentSchedule  string      `json:"paymentSchedule" gorm:"size:64"`
	ExpectedReturn   string      `json:"expectedReturn" gorm:"size:128"`
	Timeline         string      `json:"timeline" gorm:"size:128"`
	AdditionalTerms  string      `json:"additionalTerms" gorm:"type:text"`
}

func (p *FinancialProposal) GetID() uint            { return p.ID }
func (p *FinancialProposal) GetHelpRequestID() uint { return p.HelpRequestID }
func (p *FinancialProposal) GetInvestorID() uint    { return p.InvestorID }
func (p *FinancialProposal) GetStatus() string      { return p.Status }
func (p *FinancialProposal) Kind() string           { return ProposalKindFinancial }

type TechnicalProposal struct {
	gorm.Model
	HelpRequestID       uint        `json:"helpRequestID" gorm:"not null;index"`
	HelpRequest         HelpRequest `json:"helpRequest"`
	InvestorID          uint        `json:"investorID" gorm:"not null;index"`
	Investor            Investor    `json:"investor"`
	Status              string      `json:"status" gorm:"size:20;default:pending;index"`
	Expertise           string      `json:"expertise" gorm:"size:255"`
	ExperienceLevel     string      `json:"experienceLevel" gorm:"size:64"`
	Availability        string      `json:"availability" gorm:"size:128"`
	SupportDuration     string      `json:"supportDuration" gorm:"size:128"`
	SupportType         string      `json:"supportType" gorm:"size:128"`
	ProposedApproach    string      `json:"proposedApproach" gorm:"type:text"`
	AdditionalResources string      `json:"additionalResources" gorm:"type:text"`
	ExpectedOutcomes    string      `json:"expectedOutcomes" gorm:"type:text"`
}

func (p *TechnicalProposal) GetID() uint            { return p.ID }
func (p *TechnicalProposal) GetHelpRequestID() uint { return p.HelpRequestID }
func (p *TechnicalProposal) GetInvestorID() uint    { return p.InvestorID }
func (p *TechnicalProposal) GetStatus() string      { return p.Status }
func (p *TechnicalProposal) Kind() string           { return ProposalKindTechnical }
