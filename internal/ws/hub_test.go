package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// connPair is a live websocket with both ends in hand: the server side goes
// into the hub, the client side observes what the hub wrote.
type connPair struct {
	server *websocket.Conn
	client *websocket.Conn
}

func newConnPair(t *testing.T) connPair {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case server := <-serverConns:
		t.Cleanup(func() { server.Close() })
		return connPair{server: server, client: client}
	case <-time.After(2 * time.Second):
		t.Fatal("server connection never arrived")
		return connPair{}
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func expectNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestBroadcastRoomScoped(t *testing.T) {
	hub := NewHub()
	a := newConnPair(t)
	b := newConnPair(t)
	hub.AddConnection("AAAA22", a.server)
	hub.AddConnection("BBBB22", b.server)

	hub.Broadcast("AAAA22", WSMessage{Type: "session_updated"})

	if msg := readMessage(t, a.client); msg.Type != "session_updated" {
		t.Fatalf("room A got %q, want session_updated", msg.Type)
	}
	expectNoMessage(t, b.client)
}

func TestBroadcastPrunesDeadConnection(t *testing.T) {
	hub := NewHub()
	dead := newConnPair(t)
	live := newConnPair(t)
	hub.AddConnection("AAAA22", dead.server)
	hub.AddConnection("AAAA22", live.server)

	// A closed server conn fails its write immediately; the hub must drop
	// it and keep the room serviceable.
	dead.server.Close()

	hub.Broadcast("AAAA22", WSMessage{Type: "first"})
	if msg := readMessage(t, live.client); msg.Type != "first" {
		t.Fatalf("got %q, want first", msg.Type)
	}

	hub.Broadcast("AAAA22", WSMessage{Type: "second"})
	if msg := readMessage(t, live.client); msg.Type != "second" {
		t.Fatalf("got %q, want second", msg.Type)
	}
}

func TestRemoveConnectionStopsDelivery(t *testing.T) {
	hub := NewHub()
	pair := newConnPair(t)
	hub.AddConnection("AAAA22", pair.server)
	hub.RemoveConnection("AAAA22", pair.server)

	hub.Broadcast("AAAA22", WSMessage{Type: "session_updated"})
	expectNoMessage(t, pair.client)
}

func TestSendBeforeSubscription(t *testing.T) {
	hub := NewHub()
	pair := newConnPair(t)

	hub.Send("", pair.server, WSMessage{Type: "error", Data: ErrorData{Message: "nope"}})
	if msg := readMessage(t, pair.client); msg.Type != "error" {
		t.Fatalf("got %q, want error", msg.Type)
	}
}

func TestBroadcastsAcrossRoomsInParallel(t *testing.T) {
	hub := NewHub()

	rooms := []string{"AAAA22", "BBBB22", "CCCC22"}
	clients := make(map[string]*websocket.Conn, len(rooms))
	for _, code := range rooms {
		pair := newConnPair(t)
		hub.AddConnection(code, pair.server)
		clients[code] = pair.client
	}

	done := make(chan struct{})
	for _, code := range rooms {
		go func(code string) {
			for i := 0; i < 10; i++ {
				hub.Broadcast(code, WSMessage{Type: "session_updated"})
			}
			done <- struct{}{}
		}(code)
	}
	for range rooms {
		<-done
	}

	for _, code := range rooms {
		for i := 0; i < 10; i++ {
			if msg := readMessage(t, clients[code]); msg.Type != "session_updated" {
				t.Fatalf("room %s message %d: got %q", code, i, msg.Type)
			}
		}
	}
}
