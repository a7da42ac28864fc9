package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"
	"encoding/json"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/datatypes"
)

type AnnouncementInput struct {
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description"`
	Type         string     `json:"type" validate:"omitempty,oneof=partnership opportunity"`
	Requirements []string   `json:"requirements"`
	Location     string     `json:"location"`
	Deadline     *time.Time `json:"deadline"`
}

func CreateAnnouncement(ctx iris.Context) {
	organization, ok := currentOrganization(ctx)
	if !ok {
		return
	}

	var input AnnouncementInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	requirements, _ := json.Marshal(input.Requirements)
	announcement := models.Announcement{
		OrganizationID: organization.ID,
		Title:          input.Title,
		Description:    input.Description,
		Type:           input.Type,
		Requirements:   datatypes.JSON(requirements),
		Location:       input.Location,
		Deadline:       input.Deadline,
	}
	if err := storage.DB.Create(&announcement).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(announcement)
}

func ListAnnouncements(ctx iris.Context) {
	var announcements []models.Announcement
	if err := storage.DB.Preload("Organization").Order("created_at DESC").Find(&announcements).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(announcements)
}

func UpdateAnnouncement(ctx iris.Context) {
	organization, ok := currentOrganization(ctx)
	if !ok {
		return
	}
	id := ctx.Params().GetUintDefault("id", 0)

	var announcement models.Announcement
	if err := storage.DB.Where("id = ? AND organization_id = ?", id, organization.ID).First(&announcement).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input AnnouncementInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	requirements, _ := json.Marshal(input.Requirements)
	announcement.Title = input.Title
	announcement.Description = input.Description
	announcement.Type = input.Type
	announcement.Requirements = datatypes.JSON(requirements)
	announcement.Location = input.Location
	announcement.Deadline = input.Deadline
	if err := storage.DB.Save(&announcement).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(announcement)
}

func DeleteAnnouncement(ctx iris.Context) {
	organization, ok := currentOrganization(ctx)
	if !ok {
		return
	}
	id := ctx.Params().GetUintDefault("id", 0)

	result := storage.DB.Where("id = ? AND organization_id = ?", id, organization.ID).Delete(&models.Announcement{})
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
