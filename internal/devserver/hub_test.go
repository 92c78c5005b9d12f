package devserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	received := make(chan string, 4)

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer ts.Close()

	u := "ws" + strings.TrimPrefix(ts.URL, "http")
	var clients []*websocket.Conn
	for i := 0; i < 2; i++ {
		c, _, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		defer c.Close()
		clients = append(clients, c)
	}
	waitForClients(t, hub, 2)

	if failed := hub.Broadcast([]byte("ping")); len(failed) != 0 {
		t.Fatalf("Expected no failed sends, got %d", len(failed))
	}
	for _, c := range clients {
		_, data, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		received <- string(data)
	}
	close(received)
	for msg := range received {
		if msg != "ping" {
			t.Errorf("Expected ping, got %q", msg)
		}
	}

	for _, c := range hub.GetAll() {
		hub.Unregister(c)
	}
	if hub.Count() != 0 {
		t.Errorf("Expected empty hub, got %d", hub.Count())
	}
}

func TestHubBroadcastDropsStalledClient(t *testing.T) {
	prev := writeWait
	writeWait = 50 * time.Millisecond
	t.Cleanup(func() { writeWait = prev })

	hub := NewHub()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer ts.Close()

	// the client never reads, so the socket buffers fill up
	stalled, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer stalled.Close()
	waitForClients(t, hub, 1)

	payload := []byte(strings.Repeat("x", 1<<20))
	start := time.Now()
	for i := 0; i < 256; i++ {
		if failed := hub.Broadcast(payload); len(failed) == 1 {
			if elapsed := time.Since(start); elapsed > 5*time.Second {
				t.Errorf("Broadcast took %s to give up", elapsed)
			}
			return
		}
	}
	t.Fatal("Expected the stalled client to fail a send")
}
