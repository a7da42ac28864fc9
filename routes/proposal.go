package routes

import (
	"eco-community-server/models"
	"eco-community-server/services"
	"eco-community-server/storage"
	"eco-community-server/utils"
	"errors"

	"github.com/kataras/iris/v12"
)

// ContractRenderer produces contract document bytes when a proposal is
// accepted. Swapped out in tests.
var ContractRenderer services.DocumentRenderer = services.HTMLDocumentRenderer{}

type FinancialProposalInput struct {
	HelpRequestID    uint    `json:"helpRequestID" validate:"required"`
	InvestmentAmount float64 `json:"investmentAmount" validate:"required,gt=0"`
	InvestmentType   string  `json:"investmentType"`
	PaymentSchedule  string  `json:"paymentSchedule"`
	ExpectedReturn   string  `json:"expectedReturn"`
	Timeline         string  `json:"timeline"`
	AdditionalTerms  string  `json:"additionalTerms"`
}

type TechnicalProposalInput struct {
	HelpRequestID       uint   `json:"helpRequestID" validate:"required"`
	Expertise           string `json:"expertise" validate:"required"`
	ExperienceLevel     string `json:"experienceLevel"`
	Availability        string `json:"availability"`
	SupportDuration     string `json:"supportDuration"`
	SupportType         string `json:"supportType"`
	ProposedApproach    string `json:"proposedApproach"`
	AdditionalResources string `json:"additionalResources"`
	ExpectedOutcomes    string `json:"expectedOutcomes"`
}

// CreateProposal lets an investor respond to a pending help request. The
// conversation for the pair is opened alongside so the parties can chat
// while the proposal is considered.
func CreateProposal(ctx iris.Context) {
	investor, ok := currentInvestor(ctx)
	if !ok {
		return
	}
	kind := ctx.Params().Get("type")

	var helpRequestID uint
	var created interface{}

	switch kind {
	case models.ProposalKindFinancial:
		var input FinancialProposalInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
		helpRequestID = input.HelpRequestID
		if !pendingHelpRequest(ctx, helpRequestID, models.RequestTypeFinancial) {
			return
		}
		proposal := models.FinancialProposal{
			HelpRequestID:    input.HelpRequestID,
			InvestorID:       investor.ID,
			Status:           models.ProposalStatusPending,
			InvestmentAmount: input.InvestmentAmount,
			InvestmentType:   input.InvestmentType,
			PaymentSchedule:  input.PaymentSchedule,
			ExpectedReturn:   input.ExpectedReturn,
			Timeline:         input.Timeline,
			AdditionalTerms:  input.AdditionalTerms,
		}
		if err := storage.DB.Create(&proposal).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		created = proposal
	case models.ProposalKindTechnical:
		var input TechnicalProposalInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
		helpRequestID = input.HelpRequestID
		if !pendingHelpRequest(ctx, helpRequestID, models.RequestTypeTechnical) {
			return
		}
		proposal := models.TechnicalProposal{
			HelpRequestID:       input.HelpRequestID,
			InvestorID:          investor.ID,
			Status:              models.ProposalStatusPending,
			Expertise:           input.Expertise,
			ExperienceLevel:     input.ExperienceLevel,
			Availability:        input.Availability,
			SupportDuration:     input.SupportDuration,
			SupportType:         input.SupportType,
			ProposedApproach:    input.ProposedApproach,
			AdditionalResources: input.AdditionalResources,
			ExpectedOutcomes:    input.ExpectedOutcomes,
		}
		if err := storage.DB.Create(&proposal).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		created = proposal
	default:
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Invalid proposal type")
		return
	}

	conversation := models.Conversation{HelpRequestID: helpRequestID, InvestorID: investor.ID}
	storage.DB.Where("help_request_id = ? AND investor_id = ?", helpRequestID, investor.ID).
		FirstOrCreate(&conversation)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"proposal": created, "conversationID": conversation.ID})
}

func pendingHelpRequest(ctx iris.Context, id uint, requestType string) bool {
	var helpRequest models.HelpRequest
	if err := storage.DB.First(&helpRequest, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return false
	}
	if helpRequest.RequestType != requestType {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Proposal type does not match the help request")
		return false
	}
	if helpRequest.Status != models.HelpRequestStatusPending {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Help request is no longer open")
		return false
	}
	return true
}

// ListInvestorProposals returns the acting investor's own proposals.
func ListInvestorProposals(ctx iris.Context) {
	investor, ok := currentInvestor(ctx)
	if !ok {
		return
	}
	kind := ctx.Params().Get("type")

	switch kind {
	case models.ProposalKindFinancial:
		var proposals []models.FinancialProposal
		if err := storage.DB.Preload("HelpRequest.Project").
			Where("investor_id = ?", investor.ID).Find(&proposals).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		ctx.JSON(proposals)
	case models.ProposalKindTechnical:
		var proposals []models.TechnicalProposal
		if err := storage.DB.Preload("HelpRequest.Project").
			Where("investor_id = ?", investor.ID).Find(&proposals).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		ctx.JSON(proposals)
	default:
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Invalid proposal type")
	}
}

// GetProposal returns one of the acting investor's own proposals.
func GetProposal(ctx iris.Context) {
	investor, ok := currentInvestor(ctx)
	if !ok {
		return
	}
	kind := ctx.Params().Get("type")
	id := ctx.Params().GetUintDefault("id", 0)

	switch kind {
	case models.ProposalKindFinancial:
		var proposal models.FinancialProposal
		if err := storage.DB.Preload("HelpRequest.Project").
			Where("id = ? AND investor_id = ?", id, investor.ID).
			First(&proposal).Error; err != nil {
			utils.CreateNotFound(ctx)
			return
		}
		ctx.JSON(proposal)
	case models.ProposalKindTechnical:
		var proposal models.TechnicalProposal
		if err := storage.DB.Preload("HelpRequest.Project").
			Where("id = ? AND investor_id = ?", id, investor.ID).
			First(&proposal).Error; err != nil {
			utils.CreateNotFound(ctx)
			return
		}
		ctx.JSON(proposal)
	default:
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Invalid proposal type")
	}
}

// UpdateProposal lets an investor revise a proposal that is still pending.
func UpdateProposal(ctx iris.Context) {
	investor, ok := currentInvestor(ctx)
	if !ok {
		return
	}
	kind := ctx.Params().Get("type")
	id := ctx.Params().GetUintDefault("id", 0)

	switch kind {
	case models.ProposalKindFinancial:
		var proposal models.FinancialProposal
		if err := storage.DB.Where("id = ? AND investor_id = ?", id, investor.ID).
			First(&proposal).Error; err != nil {
			utils.CreateNotFound(ctx)
			return
		}
		if proposal.Status != models.ProposalStatusPending {
			utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Only pending proposals can be updated")
			return
		}
		var input FinancialProposalInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
		proposal.InvestmentAmount = input.InvestmentAmount
		proposal.InvestmentType = input.InvestmentType
		proposal.PaymentSchedule = input.PaymentSchedule
		proposal.ExpectedReturn = input.ExpectedReturn
		proposal.Timeline = input.Timeline
		proposal.AdditionalTerms = input.AdditionalTerms
		if err := storage.DB.Save(&proposal).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		ctx.JSON(proposal)
	case models.ProposalKindTechnical:
		var proposal models.TechnicalProposal
		if err := storage.DB.Where("id = ? AND investor_id = ?", id, investor.ID).
			First(&proposal).Error; err != nil {
			utils.CreateNotFound(ctx)
			return
		}
		if proposal.Status != models.ProposalStatusPending {
			utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Only pending proposals can be updated")
			return
		}
		var input TechnicalProposalInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
		proposal.Expertise = input.Expertise
		proposal.ExperienceLevel = input.ExperienceLevel
		proposal.Availability = input.Availability
		proposal.SupportDuration = input.SupportDuration
		proposal.SupportType = input.SupportType
		proposal.ProposedApproach = input.ProposedApproach
		proposal.AdditionalResources = input.AdditionalResources
		proposal.ExpectedOutcomes = input.ExpectedOutcomes
		if err := storage.DB.Save(&proposal).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		ctx.JSON(proposal)
	default:
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Invalid proposal type")
	}
}

// DeleteProposal withdraws an investor's own pending proposal.
func DeleteProposal(ctx iris.Context) {
	investor, ok := currentInvestor(ctx)
	if !ok {
		return
	}
	kind := ctx.Params().Get("type")
	id := ctx.Params().GetUintDefault("id", 0)

	var result int64
	switch kind {
	case models.ProposalKindFinancial:
		res := storage.DB.Where("id = ? AND investor_id = ? AND status = ?",
			id, investor.ID, models.ProposalStatusPending).Delete(&models.FinancialProposal{})
		result = res.RowsAffected
	case models.ProposalKindTechnical:
		res := storage.DB.Where("id = ? AND investor_id = ? AND status = ?",
			id, investor.ID, models.ProposalStatusPending).Delete(&models.TechnicalProposal{})
		result = res.RowsAffected
	default:
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Invalid proposal type")
		return
	}

	if result == 0 {
		utils.CreateNotFound(ctx)
		return
	}
	ctx.StatusCode(iris.StatusNoContent)
}

// ListEntrepreneurProposals returns every proposal targeting the acting
// entrepreneur's help requests.
func ListEntrepreneurProposals(ctx iris.Context) {
	entrepreneur, ok := currentEntrepreneur(ctx)
	if !ok {
		return
	}

	var financial []models.FinancialProposal
	storage.DB.Preload("Investor").Preload("HelpRequest.Project").
		Joins("JOIN help_requests ON help_requests.id = financial_proposals.help_request_id").
		Where("help_requests.entrepreneur_id = ?", entrepreneur.ID).
		Find(&financial)

	var technical []models.TechnicalProposal
	storage.DB.Preload("Investor").Preload("HelpRequest.Project").
		Joins("JOIN help_requests ON help_requests.id = technical_proposals.help_request_id").
		Where("help_requests.entrepreneur_id = ?", entrepreneur.ID).
		Find(&technical)

	ctx.JSON(iris.Map{
		"financial_proposals": financial,
		"technical_proposals": technical,
	})
}

type decideProposalInput struct {
	Status string `json:"status" validate:"required"`
}

// DecideProposalRoute is the HTTP entry point of the decision engine:
// PATCH /api/entrepreneur/proposals/{type}/{id}.
func DecideProposalRoute(ctx iris.Context) {
	entrepreneur, ok := currentEntrepreneur(ctx)
	if !ok {
		return
	}
	kind := ctx.Params().Get("type")
	id := ctx.Params().GetUintDefault("id", 0)

	var input decideProposalInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	result, err := services.DecideProposal(storage.DB, ContractRenderer, kind, id, entrepreneur.ID, input.Status)
	if err != nil {
		writeDecisionError(ctx, err)
		return
	}

	if result.Contract != nil {
		ctx.JSON(iris.Map{
			"proposal":         result.Proposal,
			"contract_id":      result.Contract.ID,
			"collaboration_id": result.Collaboration.ID,
			"message":          "Proposal accepted. Contract and collaboration created.",
		})
		return
	}
	ctx.JSON(iris.Map{
		"proposal": result.Proposal,
		"message":  "Proposal refused successfully.",
	})
}

func writeDecisionError(ctx iris.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProposalNotFound):
		utils.CreateNotFound(ctx)
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidProposalKind),
		errors.Is(err, services.ErrAlreadyDecided),
		errors.Is(err, services.ErrCapExceeded),
		errors.Is(err, services.ErrTechnicalAlreadyAccepted),
		errors.Is(err, services.ErrContractCreation):
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, services.ErrDuplicateCollaboration):
		utils.JSONError(ctx, iris.StatusConflict, "conflict", err.Error())
	default:
		utils.CreateInternalServerError(ctx)
	}
}
