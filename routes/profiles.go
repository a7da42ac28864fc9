package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// Profile lookups for the acting identity. Each returns false after
// writing the 403 when the caller lacks the matching profile row.

func currentEntrepreneur(ctx iris.Context) (*models.Entrepreneur, bool) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	var entrepreneur models.Entrepreneur
	if err := storage.DB.Where("user_id = ?", claims.ID).First(&entrepreneur).Error; err != nil {
		utils.CreateForbidden(ctx, "Entrepreneur profile required")
		return nil, false
	}
	return &entrepreneur, true
}

func currentInvestor(ctx iris.Context) (*models.Investor, bool) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	var investor models.Investor
	if err := storage.DB.Where("user_id = ?", claims.ID).First(&investor).Error; err != nil {
		utils.CreateForbidden(ctx, "Investor profile required")
		return nil, false
	}
	return &investor, true
}

func currentOrganization(ctx iris.Context) (*models.Organization, bool) {
	claims := jwt.Get(ctx).(*utils.AccessToken)
	var organization models.Organization
	if err := storage.DB.Where("user_id = ?", claims.ID).First(&organization).Error; err != nil {
		utils.CreateForbidden(ctx, "Organization profile required")
		return nil, false
	}
	return &organization, true
}

func currentClaims(ctx iris.Context) *utils.AccessToken {
	return jwt.Get(ctx).(*utils.AccessToken)
}
