package routes

import (
	"eco-community-server/models"
	"eco-community-server/services"
	"eco-community-server/storage"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
)

func startChatServer(t *testing.T) *httptest.Server {
	t.Helper()
	newTestVerifier() // sets ACCESS_TOKEN_SECRET for token signing

	app := iris.New()
	hub := services.NewChatHub(storage.DB)
	app.Get("/ws/chat/{id:uint}", ChatSocket(hub))
	if err := app.Build(); err != nil {
		t.Fatalf("building app: %v", err)
	}

	server := httptest.NewServer(app)
	t.Cleanup(server.Close)
	return server
}

func seedConversation(t *testing.T, w testWorld) models.Conversation {
	t.Helper()
	conversation := models.Conversation{
		HelpRequestID: w.helpRequest.ID,
		InvestorID:    w.investor.ID,
	}
	if err := storage.DB.Create(&conversation).Error; err != nil {
		t.Fatalf("seeding conversation: %v", err)
	}
	return conversation
}

func dialChat(t *testing.T, server *httptest.Server, conversationID uint, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/ws/chat/" + uintString(conversationID)
	if token != "" {
		wsURL += "?token=" + url.QueryEscape(token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding frame %s: %v", data, err)
	}
	return decoded
}

func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != code {
		t.Fatalf("close code = %d, want %d", closeErr.Code, code)
	}
}

func TestChatSocketRejectsAnonymous(t *testing.T) {
	db := setupTestDB(t)
	w := seedWorld(t, db)
	conversation := seedConversation(t, w)
	server := startChatServer(t)

	conn := dialChat(t, server, conversation.ID, "")
	expectClose(t, conn, services.CloseUnauthenticated)
}

func TestChatSocketRejectsNonParticipant(t *testing.T) {
	db := setupTestDB(t)
	w := seedWorld(t, db)
	conversation := seedConversation(t, w)
	server := startChatServer(t)

	outsiderUser := models.User{Email: "other@example.com", Role: "investor", IsActive: true}
	db.Create(&outsiderUser)
	db.Create(&models.Investor{UserID: outsiderUser.ID, FirstName: "Omar", LastName: "Sy"})

	conn := dialChat(t, server, conversation.ID, signTestToken(t, outsiderUser.ID, "investor"))
	expectClose(t, conn, services.CloseUnauthorized)
}

func TestChatSocketConversationFlow(t *testing.T) {
	db := setupTestDB(t)
	w := seedWorld(t, db)
	conversation := seedConversation(t, w)
	server := startChatServer(t)

	entConn := dialChat(t, server, conversation.ID, signTestToken(t, w.entrepreneurUser.ID, "entrepreneur"))
	invConn := dialChat(t, server, conversation.ID, signTestToken(t, w.investorUser.ID, "investor"))

	// The member already present hears about the new arrival; the
	// arrival itself does not.
	joined := readFrame(t, entConn)
	if joined["type"] != "user_joined" {
		t.Fatalf("first frame type = %v, want user_joined", joined["type"])
	}
	if joined["username"] != "backer" {
		t.Fatalf("joined username = %v, want backer", joined["username"])
	}

	if err := invConn.WriteJSON(map[string]string{"message": "hello there"}); err != nil {
		t.Fatalf("sending message: %v", err)
	}

	senderFrame := readFrame(t, invConn)
	if senderFrame["message"] != "hello there" || senderFrame["is_sender"] != true {
		t.Fatalf("sender echo = %v", senderFrame)
	}
	peerFrame := readFrame(t, entConn)
	if peerFrame["message"] != "hello there" || peerFrame["is_sender"] != false {
		t.Fatalf("peer delivery = %v", peerFrame)
	}

	var saved models.Message
	if err := storage.DB.Where("conversation_id = ?", conversation.ID).First(&saved).Error; err != nil {
		t.Fatalf("message was not persisted: %v", err)
	}
	if saved.SenderID != w.investorUser.ID || saved.Content != "hello there" {
		t.Fatalf("persisted message = %+v", saved)
	}
}

func TestChatSocketMalformedPayloads(t *testing.T) {
	db := setupTestDB(t)
	w := seedWorld(t, db)
	conversation := seedConversation(t, w)
	server := startChatServer(t)

	conn := dialChat(t, server, conversation.ID, signTestToken(t, w.investorUser.ID, "investor"))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("sending junk: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["error"] != "Invalid JSON format" {
		t.Fatalf("junk payload error = %v", frame["error"])
	}

	if err := conn.WriteJSON(map[string]string{"text": "wrong key"}); err != nil {
		t.Fatalf("sending wrong key: %v", err)
	}
	frame = readFrame(t, conn)
	if frame["error"] != "Message key is required" {
		t.Fatalf("missing key error = %v", frame["error"])
	}

	// Errors do not end the session
	if err := conn.WriteJSON(map[string]string{"message": "still here"}); err != nil {
		t.Fatalf("sending after errors: %v", err)
	}
	frame = readFrame(t, conn)
	if frame["message"] != "still here" || frame["is_sender"] != true {
		t.Fatalf("post-error delivery = %v", frame)
	}

	var count int64
	storage.DB.Model(&models.Message{}).Where("conversation_id = ?", conversation.ID).Count(&count)
	if count != 1 {
		t.Fatalf("persisted %d messages, want 1", count)
	}
}

func TestChatSocketAnnouncesDeparture(t *testing.T) {
	db := setupTestDB(t)
	w := seedWorld(t, db)
	conversation := seedConversation(t, w)
	server := startChatServer(t)

	entConn := dialChat(t, server, conversation.ID, signTestToken(t, w.entrepreneurUser.ID, "entrepreneur"))
	invConn := dialChat(t, server, conversation.ID, signTestToken(t, w.investorUser.ID, "investor"))

	joined := readFrame(t, entConn)
	if joined["type"] != "user_joined" {
		t.Fatalf("first frame type = %v, want user_joined", joined["type"])
	}

	invConn.Close()

	left := readFrame(t, entConn)
	if left["type"] != "user_left" || left["username"] != "backer" {
		t.Fatalf("departure frame = %v", left)
	}
}
