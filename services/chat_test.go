package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func newTestClient(hub *ChatHub, conversationID, userID uint, username string) *ChatClient {
	return &ChatClient{
		hub:            hub,
		conversationID: conversationID,
		userID:         userID,
		username:       username,
		send:           make(chan []byte, chatSendBuffer),
	}
}

func receivePayload(t *testing.T, c *ChatClient) map[string]interface{} {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed while expecting a payload")
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		return decoded
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
		return nil
	}
}

func TestHubJoinLeaveLifecycle(t *testing.T) {
	hub := NewChatHub(nil)
	a := newTestClient(hub, 7, 1, "awa")
	b := newTestClient(hub, 7, 2, "moussa")

	hub.Join(a)
	hub.Join(b)
	if got := hub.GroupSize(7); got != 2 {
		t.Fatalf("group size = %d, want 2", got)
	}

	hub.Leave(a)
	hub.Leave(a) // second leave is a no-op
	if got := hub.GroupSize(7); got != 1 {
		t.Fatalf("group size after leave = %d, want 1", got)
	}
	if _, ok := <-a.send; ok {
		t.Fatal("leaving must close the send channel")
	}

	hub.Leave(b)
	if got := hub.GroupSize(7); got != 0 {
		t.Fatalf("empty group must be dropped, size = %d", got)
	}
}

func TestBroadcastMessageMarksSender(t *testing.T) {
	hub := NewChatHub(nil)
	sender := newTestClient(hub, 7, 1, "awa")
	peer := newTestClient(hub, 7, 2, "moussa")
	hub.Join(sender)
	hub.Join(peer)

	hub.Broadcast(7, MessageEvent{
		ID:        42,
		Content:   "hello",
		SenderID:  1,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	got := receivePayload(t, sender)
	if got["is_sender"] != true {
		t.Errorf("sender payload is_sender = %v, want true", got["is_sender"])
	}
	got = receivePayload(t, peer)
	if got["is_sender"] != false {
		t.Errorf("peer payload is_sender = %v, want false", got["is_sender"])
	}
	if got["message"] != "hello" || got["sender_id"] != float64(1) {
		t.Errorf("unexpected message payload: %v", got)
	}
	if got["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Errorf("timestamp = %v, want RFC3339 UTC", got["timestamp"])
	}
}

func TestBroadcastPresenceSkipsSubject(t *testing.T) {
	hub := NewChatHub(nil)
	joiner := newTestClient(hub, 7, 1, "awa")
	peer := newTestClient(hub, 7, 2, "moussa")
	hub.Join(joiner)
	hub.Join(peer)

	hub.Broadcast(7, PresenceEvent{
		Type:      "user_joined",
		UserID:    1,
		Username:  "awa",
		Timestamp: time.Now(),
	})

	got := receivePayload(t, peer)
	if got["type"] != "user_joined" || got["username"] != "awa" {
		t.Errorf("unexpected presence payload: %v", got)
	}
	select {
	case payload := <-joiner.send:
		t.Fatalf("subject received its own presence event: %s", payload)
	default:
	}
}

func TestBroadcastDropsStalledMembers(t *testing.T) {
	hub := NewChatHub(nil)
	stalled := newTestClient(hub, 7, 1, "awa")
	stalled.send = make(chan []byte) // unbuffered and never read
	healthy := newTestClient(hub, 7, 2, "moussa")
	hub.Join(stalled)
	hub.Join(healthy)

	hub.Broadcast(7, MessageEvent{ID: 1, Content: "x", SenderID: 2, Timestamp: time.Now()})

	if got := hub.GroupSize(7); got != 1 {
		t.Fatalf("group size = %d, want stalled member dropped to 1", got)
	}
	receivePayload(t, healthy)
}

func TestBroadcastDuringDisconnect(t *testing.T) {
	hub := NewChatHub(nil)
	peer := newTestClient(hub, 7, 2, "moussa")
	hub.Join(peer)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range peer.send {
		}
	}()

	// A member leaving while a broadcast is fanning out must never see a
	// delivery land on its closed channel.
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		churn := newTestClient(hub, 7, 1, "awa")
		hub.Join(churn)

		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Broadcast(7, MessageEvent{ID: 1, Content: "x", SenderID: 2, Timestamp: time.Now()})
		}()
		go func() {
			defer wg.Done()
			hub.Leave(churn)
		}()
		wg.Wait()
	}

	hub.Leave(peer)
	<-drained
	if got := hub.GroupSize(7); got != 0 {
		t.Fatalf("group size after churn = %d, want 0", got)
	}
}

func TestBroadcastScopedToConversation(t *testing.T) {
	hub := NewChatHub(nil)
	in := newTestClient(hub, 7, 1, "awa")
	out := newTestClient(hub, 8, 2, "moussa")
	hub.Join(in)
	hub.Join(out)

	hub.Broadcast(7, MessageEvent{ID: 1, Content: "x", SenderID: 3, Timestamp: time.Now()})

	receivePayload(t, in)
	select {
	case payload := <-out.send:
		t.Fatalf("member of another conversation received payload: %s", payload)
	default:
	}
}
