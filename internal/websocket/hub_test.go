package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gloqe-backend/internal/models"
)

// dialTestConn upgrades a real socket pair and returns the server side,
// draining the client side in the background so writes never block.
func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { clientConn.Close() })

	go func() {
		for {
			if _, _, err := clientConn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	serverConn := <-serverConns
	t.Cleanup(func() { serverConn.Close() })
	return serverConn
}

func TestHubSerializesConcurrentSenders(t *testing.T) {
	hub := NewHub(nil, "test-secret")
	userID := uuid.New()

	conn := dialTestConn(t)
	hub.connections[userID] = []*client{{conn: conn}}

	// Scheduler pushes and pub/sub dispatches land on the same socket
	// from different goroutines; gorilla panics if two writers overlap.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				hub.SendToUser(userID, models.WSMessage{Type: "streak_reminder", Payload: map[string]int{"streak": i}})
			}
		}()
	}
	wg.Wait()
}

func TestHubConnectedAndUnregister(t *testing.T) {
	hub := NewHub(nil, "test-secret")
	userID := uuid.New()

	if hub.Connected(userID) {
		t.Fatal("expected no connection before register")
	}

	conn := dialTestConn(t)
	hub.connections[userID] = []*client{{conn: conn}}

	if !hub.Connected(userID) {
		t.Fatal("expected user to be connected")
	}

	hub.unregisterConnection(userID, conn)

	if hub.Connected(userID) {
		t.Fatal("expected user to be disconnected after unregister")
	}
}
