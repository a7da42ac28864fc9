package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"
	"time"

	"github.com/kataras/iris/v12"
)

type EventInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"startsAt" validate:"required"`
	EndsAt      *time.Time `json:"endsAt"`
	Capacity    int        `json:"capacity"`
}

func CreateEvent(ctx iris.Context) {
	organization, ok := currentOrganization(ctx)
	if !ok {
		return
	}

	var input EventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	event := models.Event{
		OrganizationID: organization.ID,
		Title:          input.Title,
		Description:    input.Description,
		Location:       input.Location,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
		Capacity:       input.Capacity,
	}
	if err := storage.DB.Create(&event).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(event)
}

func ListEvents(ctx iris.Context) {
	var events []models.Event
	if err := storage.DB.Preload("Organization").Order("starts_at ASC").Find(&events).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(events)
}

func UpdateEvent(ctx iris.Context) {
	organization, ok := currentOrganization(ctx)
	if !ok {
		return
	}
	id := ctx.Params().GetUintDefault("id", 0)

	var event models.Event
	if err := storage.DB.Where("id = ? AND organization_id = ?", id, organization.ID).First(&event).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input EventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	event.Title = input.Title
	event.Description = input.Description
	event.Location = input.Location
	event.StartsAt = input.StartsAt
	event.EndsAt = input.EndsAt
	event.Capacity = input.Capacity
	if err := storage.DB.Save(&event).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(event)
}

func DeleteEvent(ctx iris.Context) {
	organization, ok := currentOrganization(ctx)
	if !ok {
		return
	}
	id := ctx.Params().GetUintDefault("id", 0)

	result := storage.DB.Where("id = ? AND organization_id = ?", id, organization.ID).Delete(&models.Event{})
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
