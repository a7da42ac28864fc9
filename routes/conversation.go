package routes

import (
	"eco-community-server/models"
	"eco-community-server/storage"
	"eco-community-server/utils"
	"fmt"
	"time"

	"github.com/kataras/iris/v12"
)

// ListConversations returns the conversations the acting user is party to.
func ListConversations(ctx iris.Context) {
	claims := currentClaims(ctx)

	query := storage.DB.Preload("Investor.User").Preload("HelpRequest.Entrepreneur.User").
		Preload("HelpRequest.Project")
	switch claims.Role {
	case "investor":
		investor, ok := currentInvestor(ctx)
		if !ok {
			return
		}
		query = query.Where("investor_id = ?", investor.ID)
	case "entrepreneur":
		entrepreneur, ok := currentEntrepreneur(ctx)
		if !ok {
			return
		}
		query = query.Joins("JOIN help_requests ON help_requests.id = conversations.help_request_id").
			Where("help_requests.entrepreneur_id = ?", entrepreneur.ID)
	default:
		ctx.JSON([]models.Conversation{})
		return
	}

	var conversations []models.Conversation
	if err := query.Order("conversations.updated_at DESC").Find(&conversations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(conversations)
}

type startConversationInput struct {
	HelpRequestID uint `json:"helpRequestID" validate:"required"`
}

// StartConversation creates or reuses the conversation for a help
// request/investor pair.
func StartConversation(ctx iris.Context) {
	investor, ok := currentInvestor(ctx)
	if !ok {
		return
	}

	var input startConversationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var helpRequest models.HelpRequest
	if err := storage.DB.First(&helpRequest, input.HelpRequestID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	conversation := models.Conversation{HelpRequestID: helpRequest.ID, InvestorID: investor.ID}
	if err := storage.DB.Where("help_request_id = ? AND investor_id = ?", helpRequest.ID, investor.ID).
		FirstOrCreate(&conversation).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"conversationID": conversation.ID})
}

// ListMessages returns a conversation's history, oldest first.
func ListMessages(ctx iris.Context) {
	claims := currentClaims(ctx)
	id := ctx.Params().GetUintDefault("id", 0)

	conversation, ok := participantConversation(ctx, id, claims.ID, claims.Role)
	if !ok {
		return
	}

	var messages []models.Message
	if err := storage.DB.Where("conversation_id = ?", conversation.ID).
		Preload("Sender").Order("id ASC").Limit(100).Find(&messages).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	out := make([]iris.Map, 0, len(messages))
	for _, message := range messages {
		out = append(out, iris.Map{
			"id":        message.ID,
			"message":   message.Content,
			"sender_id": message.SenderID,
			"timestamp": message.CreatedAt.UTC().Format(time.RFC3339),
			"is_read":   message.IsRead,
			"is_sender": message.SenderID == claims.ID,
		})
	}
	ctx.JSON(out)
}

// MarkMessagesRead is the read-receipt path: everything sent by the other
// party becomes read.
func MarkMessagesRead(ctx iris.Context) {
	claims := currentClaims(ctx)
	id := ctx.Params().GetUintDefault("id", 0)

	conversation, ok := participantConversation(ctx, id, claims.ID, claims.Role)
	if !ok {
		return
	}

	result := storage.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversation.ID, claims.ID, false).
		Update("is_read", true)
	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "updated": result.RowsAffected})
}

// Typing sets a short-lived Redis key other members poll for.
func Typing(ctx iris.Context) {
	claims := currentClaims(ctx)
	id := ctx.Params().GetUintDefault("id", 0)

	if _, ok := participantConversation(ctx, id, claims.ID, claims.Role); !ok {
		return
	}

	storage.Redis.Set(ctx, typingKey(id, claims.ID), "1", 5*time.Second)
	ctx.JSON(iris.Map{"success": true})
}

func ListTyping(ctx iris.Context) {
	claims := currentClaims(ctx)
	id := ctx.Params().GetUintDefault("id", 0)

	conversation, ok := participantConversation(ctx, id, claims.ID, claims.Role)
	if !ok {
		return
	}

	typing := []iris.Map{}
	for _, userID := range []uint{conversation.Investor.UserID, conversation.HelpRequest.Entrepreneur.UserID} {
		if userID == claims.ID {
			continue
		}
		if val, err := storage.Redis.Get(ctx, typingKey(id, userID)).Result(); err == nil && val == "1" {
			typing = append(typing, iris.Map{"userID": userID})
		}
	}
	ctx.JSON(iris.Map{"success": true, "typing": typing})
}

func typingKey(conversationID, userID uint) string {
	return fmt.Sprintf("typing:conv:%d:user:%d", conversationID, userID)
}

// participantConversation loads the conversation and enforces the same
// role-specific membership rule the chat handshake uses.
func participantConversation(ctx iris.Context, conversationID, userID uint, role string) (*models.Conversation, bool) {
	var conversation models.Conversation
	if err := storage.DB.Preload("Investor").Preload("HelpRequest.Entrepreneur").
		First(&conversation, conversationID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil, false
	}
	if !ConversationParticipant(&conversation, userID, role) {
		utils.CreateForbidden(ctx, "You are not a participant in this conversation")
		return nil, false
	}
	return &conversation, true
}

// ConversationParticipant is the role-specific membership rule: investors
// must own the conversation's investor side, entrepreneurs must own the
// underlying help request, every other role is denied.
func ConversationParticipant(conversation *models.Conversation, userID uint, role string) bool {
	switch role {
	case "investor":
		return conversation.Investor.UserID == userID
	case "entrepreneur":
		return conversation.HelpRequest.Entrepreneur.UserID == userID
	}
	return false
}
