package models

import (
	"time"

	"gorm.io/gorm"
)

// Contract owns exactly one of the two proposal references; ContractType
// always matches the kind of the set reference.
type Contract struct {
	gorm.Model
	ContractType          string             `json:"contractType" gorm:"size:20;not null"`
	FinancialProposalID   *uint              `json:"financialProposalID" gorm:"uniqueIndex"`
	FinancialProposal     *FinancialProposal `json:"financialProposal,omitempty"`
	TechnicalProposalID   *uint              `json:"technicalProposalID" gorm:"uniqueIndex"`
	TechnicalProposal     *TechnicalProposal `json:"technicalProposal,omitempty"`
	HTMLContent           string             `json:"-" gorm:"type:text"`
	PDFData               []byte             `json:"-" gorm:"type:bytea"`
	SignatureEntrepreneur *time.Time         `json:"signatureEntrepreneur"`
	SignatureInvestor     *time.Time         `json:"signatureInvestor"`
}

// SourceProposal returns whichever proposal reference is set.
func (c *Contract) SourceProposal() Proposal {
	if c.FinancialProposal != nil {
		return c.FinancialProposal
	}
	if c.TechnicalProposal != nil {
		return c.TechnicalProposal
	}
	return nil
}
