package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"

	"github.com/kataras/iris/v12"
)

// ListContracts returns the contracts the acting party is either side of.
func ListContracts(ctx iris.Context) {
	claims := currentClaims(ctx)

	var contracts []models.Contract
	query := storage.DB.Preload("FinancialProposal.HelpRequest.Project").
		Preload("FinancialProposal.Investor").
		Preload("TechnicalProposal.HelpRequest.Project").
		Preload("TechnicalProposal.Investor")

	switch claims.Role {
	case "entrepreneur":
		entrepreneur, ok := currentEntrepreneur(ctx)
		if !ok {
			return
		}
		query = query.
			Joins("LEFT JOIN financial_proposals fp ON fp.id = contracts.financial_proposal_id").
			Joins("LEFT JOIN technical_proposals tp ON tp.id = contracts.technical_proposal_id").
			Joins("LEFT JOIN help_requests fhr ON fhr.id = fp.help_request_id").
			Joins("LEFT JOIN help_requests thr ON thr.id = tp.help_request_id").
			Where("fhr.entrepreneur_id = ? OR thr.entrepreneur_id = ?", entrepreneur.ID, entrepreneur.ID)
	case "investor":
		investor, ok := currentInvestor(ctx)
		if !ok {
			return
		}
		query = query.
			Joins("LEFT JOIN financial_proposals fp ON fp.id = contracts.financial_proposal_id").
			Joins("LEFT JOIN technical_proposals tp ON tp.id = contracts.technical_proposal_id").
			Where("fp.investor_id = ? OR tp.investor_id = ?", investor.ID, investor.ID)
	default:
		ctx.JSON([]iris.Map{})
		return
	}

	if err := query.Find(&contracts).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	out := make([]iris.Map, 0, len(contracts))
	for i := range contracts {
		out = append(out, contractResponse(&contracts[i]))
	}
	ctx.JSON(out)
}

// GetContractDocument serves the generated agreement. action is "view"
// (inline HTML) or "download" (rendered document bytes).
func GetContractDocument(ctx iris.Context) {
	claims := currentClaims(ctx)
	id := ctx.Params().GetUintDefault("id", 0)
	action := ctx.Params().Get("action")

	var contract models.Contract
	if err := storage.DB.Preload("FinancialProposal.HelpRequest").
		Preload("TechnicalProposal.HelpRequest").
		First(&contract, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if !contractParty(&contract, claims) {
		utils.CreateForbidden(ctx, "You are not a party to this contract")
		return
	}

	switch action {
	case "view":
		ctx.ContentType("text/html")
		ctx.WriteString(contract.HTMLContent)
	case "download":
		ctx.Header("Content-Disposition", "attachment; filename=contract.pdf")
		ctx.ContentType("application/pdf")
		ctx.Write(contract.PDFData)
	default:
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Invalid action")
	}
}

func contractParty(contract *models.Contract, claims *utils.AccessToken) bool {
	switch claims.Role {
	case "entrepreneur":
		var entrepreneur models.Entrepreneur
		if err := storage.DB.Where("user_id = ?", claims.ID).First(&entrepreneur).Error; err != nil {
			return false
		}
		if contract.FinancialProposal != nil {
			return contract.FinancialProposal.HelpRequest.EntrepreneurID == entrepreneur.ID
		}
		if contract.TechnicalProposal != nil {
			return contract.TechnicalProposal.HelpRequest.EntrepreneurID == entrepreneur.ID
		}
	case "investor":
		var investor models.Investor
		if err := storage.DB.Where("user_id = ?", claims.ID).First(&investor).Error; err != nil {
			return false
		}
		if contract.FinancialProposal != nil {
			return contract.FinancialProposal.InvestorID == investor.ID
		}
		if contract.TechnicalProposal != nil {
			return contract.TechnicalProposal.InvestorID == investor.ID
		}
	}
	return false
}

func contractResponse(contract *models.Contract) iris.Map {
	out := iris.Map{
		"id":           contract.ID,
		"contractType": contract.ContractType,
		"createdAt":    contract.CreatedAt,
	}
	var projectName, investorName string
	if contract.FinancialProposal != nil {
		projectName = contract.FinancialProposal.HelpRequest.Project.ProjectName
		investorName = contract.FinancialProposal.Investor.FullName()
	} else if contract.TechnicalProposal != nil {
		projectName = contract.TechnicalProposal.HelpRequest.Project.ProjectName
		investorName = contract.TechnicalProposal.Investor.FullName()
	}
	out["proposalDetails"] = iris.Map{
		"project_name":  projectName,
		"investor_name": investorName,
		"type":          contract.ContractType,
	}
	return out
}

// ListCollaborations returns the acting party's collaborations.
func ListCollaborations(ctx iris.Context) {
	claims := currentClaims(ctx)

	query := storage.DB.Preload("Entrepreneur.User").Preload("Investor.User").
		Preload("Project").Preload("Contract")
	switch claims.Role {
	case "entrepreneur":
		entrepreneur, ok := currentEntrepreneur(ctx)
		if !ok {
			return
		}
		query = query.Where("entrepreneur_id = ?", entrepreneur.ID)
	case "investor":
		investor, ok := currentInvestor(ctx)
		if !ok {
			return
		}
		query = query.Where("investor_id = ?", investor.ID)
	default:
		ctx.JSON([]models.Collaboration{})
		return
	}

	var collaborations []models.Collaboration
	if err := query.Order("created_at DESC").Find(&collaborations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(collaborations)
}

// CollaborationStats summarizes collaborations by kind for dashboards.
func CollaborationStats(ctx iris.Context) {
	var total, financial, technical int64
	storage.DB.Model(&models.Collaboration{}).Count(&total)
	storage.DB.Model(&models.Collaboration{}).
		Where("collaboration_type = ?", models.ProposalKindFinancial).Count(&financial)
	storage.DB.Model(&models.Collaboration{}).
		Where("collaboration_type = ?", models.ProposalKindTechnical).Count(&technical)

	ctx.JSON(iris.Map{
		"total_collaborations":     total,
		"financial_collaborations": financial,
		"technical_collaborations": technical,
	})
}
