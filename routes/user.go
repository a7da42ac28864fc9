package routes

import (
	"context"
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=entrepreneur investor organization"`

	// Entrepreneur / investor profiles
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Organization profile
	OrganizationName   string `json:"organizationName"`
	RegistrationNumber string `json:"registrationNumber"`
	FoundedYear        int    `json:"foundedYear"`
	MissionStatement   string `json:"missionStatement"`
	WebsiteURL         string `json:"websiteURL"`
}

func Register(ctx iris.Context) {
	var input RegisterInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Password != input.ConfirmPassword {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Passwords don't match")
		return
	}
	if input.Role != "organization" && (input.FirstName == "" || input.LastName == "") {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "First and last name are required")
		return
	}
	if input.Role == "organization" && (input.OrganizationName == "" || input.RegistrationNumber == "") {
		utils.JSONError(ctx, iris.StatusBadRequest, "bad_request", "Organization name and registration number are required")
		return
	}

	var existing models.User
	if err := storage.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		utils.JSONError(ctx, iris.StatusConflict, "conflict", "An account with this email already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	user := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Password: string(hashed),
		Role:     input.Role,
		IsActive: true,
	}

	err = storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		switch input.Role {
		case "entrepreneur":
			return tx.Create(&models.Entrepreneur{
				UserID:    user.ID,
				FirstName: input.FirstName,
				LastName:  input.LastName,
			}).Error
		case "investor":
			return tx.Create(&models.Investor{
				UserID:    user.ID,
				FirstName: input.FirstName,
				LastName:  input.LastName,
			}).Error
		case "organization":
			return tx.Create(&models.Organization{
				UserID:             user.ID,
				OrganizationName:   input.OrganizationName,
				RegistrationNumber: input.RegistrationNumber,
				FoundedYear:        input.FoundedYear,
				MissionStatement:   input.MissionStatement,
				WebsiteURL:         input.WebsiteURL,
			}).Error
		}
		return nil
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	tokenPair, err := utils.CreateTokenPair(user.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{
		"user":         user,
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Login(ctx iris.Context) {
	var input LoginInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.JSONError(ctx, iris.StatusUnauthorized, "unauthorized", "Invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		utils.JSONError(ctx, iris.StatusUnauthorized, "unauthorized", "Invalid credentials")
		return
	}
	if !user.IsActive || user.IsBlocked {
		utils.CreateForbidden(ctx, "Account is inactive or blocked")
		return
	}

	tokenPair, err := utils.CreateTokenPair(user.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"user":         user,
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

func Logout(ctx iris.Context) {
	var input utils.RefreshTokenInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	storage.Redis.Del(context.Background(), input.RefreshToken)
	ctx.JSON(iris.Map{"success": true, "message": "Logged out"})
}
