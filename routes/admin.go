package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"

	"github.com/kataras/iris/v12"
)

// AdminListUsers returns a paginated user listing for the dashboard.
func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := storage.DB.Model(&models.User{})
	if role := ctx.URLParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&users).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// AdminUserStats counts users per role for the dashboard charts.
func AdminUserStats(ctx iris.Context) {
	stats := iris.Map{}
	for _, role := range []string{"entrepreneur", "investor", "organization", "admin"} {
		var count int64
		storage.DB.Model(&models.User{}).Where("role = ?", role).Count(&count)
		stats[role] = count
	}

	var total int64
	storage.DB.Model(&models.User{}).Count(&total)
	stats["total"] = total

	ctx.JSON(stats)
}

type adminUserUpdateInput struct {
	IsActive  *bool `json:"isActive"`
	IsBlocked *bool `json:"isBlocked"`
}

// AdminUpdateUser toggles account activation/blocking.
func AdminUpdateUser(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input adminUserUpdateInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsBlocked != nil {
		user.IsBlocked = *input.IsBlocked
	}
	if err := storage.DB.Save(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(user)
}

func AdminDeleteUser(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	result := storage.DB.Delete(&models.User{}, id)
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
