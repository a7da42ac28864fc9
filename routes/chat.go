package routes

import (
	"eco-community-server/models"
	"eco-community-server/services"
	"eco-community-server/storage"
	"fmt"
	"log"
	"net/http"
	"os"

	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the dashboard origin; the token query
	// parameter is the actual gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type socketClaims struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"`
	jwtv4.RegisteredClaims
}

// identityFromToken resolves the access token carried as a query
// parameter. The iris jwt middleware only reads the Authorization header,
// which websocket browser clients cannot set.
func identityFromToken(tokenStr string) (*socketClaims, bool) {
	if tokenStr == "" {
		return nil, false
	}
	claims := new(socketClaims)
	token, err := jwtv4.ParseWithClaims(tokenStr, claims, func(t *jwtv4.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv4.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(os.Getenv("ACCESS_TOKEN_SECRET")), nil
	})
	if err != nil || !token.Valid || claims.ID == 0 {
		return nil, false
	}
	return claims, true
}

// ChatSocket upgrades GET /ws/chat/{id} into a conversation session.
// Unauthenticated connections close with 4003, non-participants with 4004;
// a close code needs an established socket, so authorization is decided
// first and the verdict delivered right after the upgrade.
func ChatSocket(hub *services.ChatHub) iris.Handler {
	return func(ctx iris.Context) {
		conversationID := ctx.Params().GetUintDefault("id", 0)

		claims, authenticated := identityFromToken(ctx.URLParam("token"))

		var user models.User
		authorized := false
		if authenticated {
			if err := storage.DB.First(&user, claims.ID).Error; err == nil && user.IsActive && !user.IsBlocked {
				var conversation models.Conversation
				if err := storage.DB.Preload("Investor").Preload("HelpRequest.Entrepreneur").
					First(&conversation, conversationID).Error; err == nil {
					authorized = ConversationParticipant(&conversation, user.ID, user.Role)
				}
			}
		}

		conn, err := chatUpgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
		if err != nil {
			log.Printf("chat: upgrading conversation %d: %v", conversationID, err)
			return
		}

		if !authenticated {
			services.CloseWithCode(conn, services.CloseUnauthenticated, "authentication required")
			return
		}
		if !authorized {
			services.CloseWithCode(conn, services.CloseUnauthorized, "not a participant in this conversation")
			return
		}

		client := services.NewChatClient(hub, conn, conversationID, user.ID, user.Username())
		client.Serve()
	}
}
