package services

import (
	"eco-community-server/models"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DecisionResult carries everything a proposal decision produced. Contract
// and Collaboration are set only when the proposal was accepted.
type DecisionResult struct {
	Proposal      models.Proposal
	Contract      *models.Contract
	Collaboration *models.Collaboration
}

// DecideProposal transitions a pending proposal to accepted or refused on
// behalf of the entrepreneur owning its help request. The whole decision is
// one transaction: status write, sibling refusals, contract and
// collaboration all commit together or not at all.
//
// Locking: the proposal row and its parent help request row are both taken
// FOR UPDATE. Locking the help request serializes concurrent decisions on
// sibling proposals, which keeps the funding-cap check race-free.
func DecideProposal(db *gorm.DB, renderer DocumentRenderer, kind string, proposalID, entrepreneurID uint, newStatus string) (*DecisionResult, error) {
	if newStatus != models.ProposalStatusAccepted && newStatus != models.ProposalStatusRefused {
		return nil, ErrInvalidStatus
	}
	if kind != models.ProposalKindFinancial && kind != models.ProposalKindTechnical {
		return nil, ErrInvalidProposalKind
	}

	result := &DecisionResult{}
	err := db.Transaction(func(tx *gorm.DB) error {
		var proposal models.Proposal
		switch kind {
		case models.ProposalKindFinancial:
			fp := new(models.FinancialProposal)
			if err := forUpdate(tx).First(fp, proposalID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProposalNotFound
				}
				return fmt.Errorf("loading proposal: %w", err)
			}
			proposal = fp
		case models.ProposalKindTechnical:
			tp := new(models.TechnicalProposal)
			if err := forUpdate(tx).First(tp, proposalID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProposalNotFound
				}
				return fmt.Errorf("loading proposal: %w", err)
			}
			proposal = tp
		}

		// Ownership check folded into the lookup: the help request must
		// belong to the acting entrepreneur.
		var helpRequest models.HelpRequest
		if err := forUpdate(tx).
			Where("id = ? AND entrepreneur_id = ?", proposal.GetHelpRequestID(), entrepreneurID).
			First(&helpRequest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProposalNotFound
			}
			return fmt.Errorf("loading help request: %w", err)
		}

		if proposal.GetStatus() != models.ProposalStatusPending {
			return ErrAlreadyDecided
		}

		if newStatus == models.ProposalStatusAccepted {
			if kind == models.ProposalKindFinancial {
				if err := checkFundingCap(tx, helpRequest.ID, proposal.(*models.FinancialProposal)); err != nil {
					return err
				}
			} else {
				if err := refuseSiblingTechnicals(tx, helpRequest.ID, proposal.GetID()); err != nil {
					return err
				}
			}
		}

		if err := tx.Model(proposal).Update("status", newStatus).Error; err != nil {
			return fmt.Errorf("updating proposal status: %w", err)
		}

		result.Proposal = proposal
		if newStatus != models.ProposalStatusAccepted {
			return nil
		}

		contract, collaboration, err := CreateContractAndCollaboration(tx, renderer, proposal)
		if err != nil {
			if errors.Is(err, ErrDuplicateCollaboration) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrContractCreation, err)
		}
		result.Contract = contract
		result.Collaboration = collaboration
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkFundingCap fails when the already-accepted investments plus the
// candidate amount would exceed what the help request asked for.
func checkFundingCap(tx *gorm.DB, helpRequestID uint, proposal *models.FinancialProposal) error {
	var financialRequest models.FinancialRequest
	if err := tx.Where("help_request_id = ?", helpRequestID).First(&financialRequest).Error; err != nil {
		return fmt.Errorf("loading financial request: %w", err)
	}

	var totalAccepted float64
	if err := tx.Model(&models.FinancialProposal{}).
		Where("help_request_id = ? AND status = ?", helpRequestID, models.ProposalStatusAccepted).
		Select("COALESCE(SUM(investment_amount), 0)").
		Scan(&totalAccepted).Error; err != nil {
		return fmt.Errorf("summing accepted proposals: %w", err)
	}

	if totalAccepted+proposal.InvestmentAmount > financialRequest.AmountRequested {
		return ErrCapExceeded
	}
	return nil
}

// refuseSiblingTechnicals enforces at most one accepted technical proposal
// per help request, mass-refusing the still-pending siblings.
func refuseSiblingTechnicals(tx *gorm.DB, helpRequestID, proposalID uint) error {
	var accepted int64
	if err := tx.Model(&models.TechnicalProposal{}).
		Where("help_request_id = ? AND status = ? AND id <> ?", helpRequestID, models.ProposalStatusAccepted, proposalID).
		Count(&accepted).Error; err != nil {
		return fmt.Errorf("counting accepted technical proposals: %w", err)
	}
	if accepted > 0 {
		return ErrTechnicalAlreadyAccepted
	}

	if err := tx.Model(&models.TechnicalProposal{}).
		Where("help_request_id = ? AND id <> ? AND status = ?", helpRequestID, proposalID, models.ProposalStatusPending).
		Update("status", models.ProposalStatusRefused).Error; err != nil {
		return fmt.Errorf("refusing sibling technical proposals: %w", err)
	}
	return nil
}

// forUpdate adds a row-level lock. The sqlite dialect used in tests has no
// row locks and serializes writers itself.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
