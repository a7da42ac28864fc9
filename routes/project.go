package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"

	"github.com/kataras/iris/v12"
)

type ProjectInput struct {
	ProjectName        string  `json:"projectName" validate:"required"`
	Sector             string  `json:"sector"`
	Description        string  `json:"description"`
	SpecificObjectives string  `json:"specificObjectives"`
	TargetAudience     string  `json:"targetAudience"`
	EstimatedBudget    float64 `json:"estimatedBudget"`
	FinancingPlan      string  `json:"financingPlan"`
}

func CreateProject(ctx iris.Context) {
	entrepreneur, ok := currentEntrepreneur(ctx)
	if !ok {
		return
	}

	var input ProjectInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	project := models.Project{
		EntrepreneurID:     entrepreneur.ID,
		ProjectName:        input.ProjectName,
		Sector:             input.Sector,
		Description:        input.Description,
		SpecificObjectives: input.SpecificObjectives,
		TargetAudience:     input.TargetAudience,
		EstimatedBudget:    input.EstimatedBudget,
		FinancingPlan:      input.FinancingPlan,
		Status:             models.ProjectStatusPending,
	}
	if err := storage.DB.Create(&project).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(project)
}

func ListProjects(ctx iris.Context) {
	claims := currentClaims(ctx)

	var projects []models.Project
	query := storage.DB.Preload("Entrepreneur")
	if claims.Role == "entrepreneur" {
		query = query.Joins("JOIN entrepreneurs ON entrepreneurs.id = projects.entrepreneur_id").
			Where("entrepreneurs.user_id = ?", claims.ID)
	} else if claims.Role != "admin" {
		// Investors and organizations only see approved projects
		query = query.Where("projects.status = ?", models.ProjectStatusApproved)
	}
	if err := query.Order("projects.created_at DESC").Find(&projects).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(projects)
}

func GetProject(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var project models.Project
	if err := storage.DB.Preload("Entrepreneur.User").First(&project, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(project)
}

func UpdateProject(ctx iris.Context) {
	entrepreneur, ok := currentEntrepreneur(ctx)
	if !ok {
		return
	}
	id := ctx.Params().GetUintDefault("id", 0)

	var project models.Project
	if err := storage.DB.Where("id = ? AND entrepreneur_id = ?", id, entrepreneur.ID).First(&project).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input ProjectInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	project.ProjectName = input.ProjectName
	project.Sector = input.Sector
	project.Description = input.Description
	project.SpecificObjectives = input.SpecificObjectives
	project.TargetAudience = input.TargetAudience
	project.EstimatedBudget = input.EstimatedBudget
	project.FinancingPlan = input.FinancingPlan
	if err := storage.DB.Save(&project).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(project)
}

func DeleteProject(ctx iris.Context) {
	entrepreneur, ok := currentEntrepreneur(ctx)
	if !ok {
		return
	}
	id := ctx.Params().GetUintDefault("id", 0)

	result := storage.DB.Where("id = ? AND entrepreneur_id = ?", id, entrepreneur.ID).Delete(&models.Project{})
	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if result.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

type projectStatusInput struct {
	Status        string `json:"status" validate:"required,oneof=pending approved rejected"`
	AdminComments string `json:"adminComments"`
}

// UpdateProjectStatus is the admin review step gating projects before help
// requests against them become visible.
func UpdateProjectStatus(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var project models.Project
	if err := storage.DB.First(&project, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input projectStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	project.Status = input.Status
	project.AdminComments = input.AdminComments
	if err := storage.DB.Save(&project).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(project)
}
