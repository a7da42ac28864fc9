package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type FinancialDetailsInput struct {
	AmountRequested float64 `json:"amountRequested" validate:"required,gt=0"`
	InterestRate    float64 `json:"interestRate"`
	DurationMonths  int     `json:"durationMonths" validate:"required,gt=0"`
}

type TechnicalDetailsInput struct {
	ExpertiseNeeded   string `json:"expertiseNeeded" validate:"required"`
	EstimatedDuration int    `json:"estimatedDuration" validate:"required,gt=0"`
}

type HelpRequestInput struct {
	ProjectID        uint                   `json:"projectID" validate:"required"`
	RequestType      string                 `json:"requestType" validate:"required,oneof=financial technical"`
	SpecificNeed     string                 `json:"specificNeed" validate:"required"`
	Description      string                 `json:"description"`
	FinancialDetails *FinancialDetailsInput `json:"financialDetails"`
	TechnicalDetails *TechnicalDetailsInput `json:"technicalDetails"`
}

// CreateHelpRequest writes the help request and its type-specific detail
// row in one transaction.
func CreateHelpRequest(ctx iris.Context) {
	entrepreneur, ok := currentEntrepreneur(ctx)
	if !ok {
		return
	}

	var input HelpRequestInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.RequestType == models.RequestTypeFinancial && input.FinancialDetails == nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "financialDetails is required for financial requests")
		return
	}
	if input.RequestType == models.RequestTypeTechnical && input.TechnicalDetails == nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "technicalDetails is required for technical requests")
		return
	}

	var project models.Project
	if err := storage.DB.Where("id = ? AND entrepreneur_id = ?", input.ProjectID, entrepreneur.ID).First(&project).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	helpRequest := models.HelpRequest{
		ProjectID:      project.ID,
		EntrepreneurID: entrepreneur.ID,
		RequestType:    input.RequestType,
		SpecificNeed:   input.SpecificNeed,
		Description:    input.Description,
		Status:         models.HelpRequestStatusPending,
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&helpRequest).Error; err != nil {
			return err
		}
		if input.RequestType == models.RequestTypeFinancial {
			interestRate := input.FinancialDetails.InterestRate
			if interestRate == 0 {
				interestRate = 5.0
			}
			return tx.Create(&models.FinancialRequest{
				HelpRequestID:   helpRequest.ID,
				AmountRequested: input.FinancialDetails.AmountRequested,
				InterestRate:    interestRate,
				DurationMonths:  input.FinancialDetails.DurationMonths,
			}).Error
		}
		return tx.Create(&models.TechnicalRequest{
			HelpRequestID:     helpRequest.ID,
			ExpertiseNeeded:   input.TechnicalDetails.ExpertiseNeeded,
			EstimatedDuration: input.TechnicalDetails.EstimatedDuration,
		}).Error
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	storage.DB.Preload("FinancialDetails").Preload("TechnicalDetails").First(&helpRequest, helpRequest.ID)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(helpRequestResponse(&helpRequest))
}

func ListHelpRequests(ctx iris.Context) {
	claims := currentClaims(ctx)

	query := storage.DB.Preload("Project").Preload("Entrepreneur.User").
		Preload("FinancialDetails").Preload("TechnicalDetails")
	if claims.Role == "entrepreneur" {
		query = query.Joins("JOIN entrepreneurs ON entrepreneurs.id = help_requests.entrepreneur_id").
			Where("entrepreneurs.user_id = ?", claims.ID)
	}

	var helpRequests []models.HelpRequest
	if err := query.Order("help_requests.created_at DESC").Find(&helpRequests).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	out := make([]iris.Map, 0, len(helpRequests))
	for i := range helpRequests {
		out = append(out, helpRequestResponse(&helpRequests[i]))
	}
	ctx.JSON(out)
}

func GetHelpRequest(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var helpRequest models.HelpRequest
	if err := storage.DB.Preload("Project").Preload("Entrepreneur.User").
		Preload("FinancialDetails").Preload("TechnicalDetails").
		First(&helpRequest, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(helpRequestResponse(&helpRequest))
}

// GetAcceptedAmount reports funding progress for a financial help request.
func GetAcceptedAmount(ctx iris.Context) {
	entrepreneur, ok := currentEntrepreneur(ctx)
	if !ok {
		return
	}
	id := ctx.Params().GetUintDefault("id", 0)

	var helpRequest models.HelpRequest
	if err := storage.DB.Preload("FinancialDetails").
		Where("id = ? AND entrepreneur_id = ?", id, entrepreneur.ID).
		First(&helpRequest).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if helpRequest.FinancialDetails == nil {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Not a financial help request")
		return
	}

	var totalAccepted float64
	storage.DB.Model(&models.FinancialProposal{}).
		Where("help_request_id = ? AND status = ?", helpRequest.ID, models.ProposalStatusAccepted).
		Select("COALESCE(SUM(investment_amount), 0)").
		Scan(&totalAccepted)

	requested := helpRequest.FinancialDetails.AmountRequested
	ctx.JSON(iris.Map{
		"accepted_amount":  totalAccepted,
		"requested_amount": requested,
		"remaining_amount": requested - totalAccepted,
	})
}

type helpRequestStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending completed"`
}

func UpdateHelpRequestStatus(ctx iris.Context) {
	entrepreneur, ok := currentEntrepreneur(ctx)
	if !ok {
		return
	}
	id := ctx.Params().GetUintDefault("id", 0)

	var helpRequest models.HelpRequest
	if err := storage.DB.Where("id = ? AND entrepreneur_id = ?", id, entrepreneur.ID).First(&helpRequest).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input helpRequestStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	helpRequest.Status = input.Status
	if err := storage.DB.Save(&helpRequest).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(helpRequestResponse(&helpRequest))
}

// helpRequestResponse mirrors the detail shape clients expect, including
// the amortization-derived fields for financial requests.
func helpRequestResponse(helpRequest *models.HelpRequest) iris.Map {
	out := iris.Map{
		"id":           helpRequest.ID,
		"projectID":    helpRequest.ProjectID,
		"requestType":  helpRequest.RequestType,
		"specificNeed": helpRequest.SpecificNeed,
		"description":  helpRequest.Description,
		"status":       helpRequest.Status,
		"createdAt":    helpRequest.CreatedAt,
		"updatedAt":    helpRequest.UpdatedAt,
	}
	if helpRequest.Project.ID != 0 {
		out["project"] = helpRequest.Project
	}
	if helpRequest.Entrepreneur.ID != 0 {
		out["entrepreneur"] = iris.Map{
			"name":  helpRequest.Entrepreneur.FullName(),
			"email": helpRequest.Entrepreneur.User.Email,
		}
	}
	if fin := helpRequest.FinancialDetails; fin != nil {
		out["financialDetails"] = iris.Map{
			"amountRequested": fin.AmountRequested,
			"interestRate":    fin.InterestRate,
			"durationMonths":  fin.DurationMonths,
			"monthlyPayment":  fin.MonthlyPayment(),
			"totalRepayment":  fin.TotalRepayment(),
			"totalInterest":   fin.TotalInterest(),
		}
	}
	if tech := helpRequest.TechnicalDetails; tech != nil {
		out["technicalDetails"] = iris.Map{
			"expertiseNeeded":   tech.ExpertiseNeeded,
			"estimatedDuration": tech.EstimatedDuration,
		}
	}
	return out
}
