package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

func TestHub_Run(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Helper to create a connected client via a real websocket handshake.
	// Returns the test-side connection, the *Client the hub sees, and a
	// cleanup function.
	createConnectedClient := func() (*websocket.Conn, *Client, func()) {
		var internalClient *Client
		var createdWg sync.WaitGroup
		createdWg.Add(1)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := testUpgrader.Upgrade(w, r, nil)
			if err != nil {
				t.Errorf("Failed to upgrade: %v", err)
				return
			}
			client := &Client{
				hub:  hub,
				conn: conn,
				send: make(chan []byte, 256),
				role: RoleHost,
			}
			internalClient = client
			createdWg.Done()

			go client.writePump()
		}))

		url := "ws" + strings.TrimPrefix(server.URL, "http")

		clientWs, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("Failed to dial: %v", err)
		}

		createdWg.Wait()

		cleanup := func() {
			server.Close()
			clientWs.Close()
		}

		return clientWs, internalClient, cleanup
	}

	t.Run("Register And Broadcast", func(t *testing.T) {
		clientWs, internalClient, cleanup := createConnectedClient()
		defer cleanup()

		hub.register <- internalClient
		time.Sleep(20 * time.Millisecond)

		msg := []byte(`{"type":"playback_state","state":"synced"}`)
		hub.broadcast <- msg

		_, received, err := clientWs.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read message: %v", err)
		}
		if string(received) != string(msg) {
			t.Errorf("Expected message %s, got %s", msg, received)
		}
	})

	t.Run("Unregister Closes Send", func(t *testing.T) {
		_, internalClient, cleanup := createConnectedClient()
		defer cleanup()

		hub.register <- internalClient
		time.Sleep(10 * time.Millisecond)

		hub.unregister <- internalClient
		time.Sleep(50 * time.Millisecond)

		select {
		case _, ok := <-internalClient.send:
			if ok {
				t.Error("Expected internalClient.send to be closed")
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("Timed out waiting for send channel close")
		}
	})

	t.Run("Broadcast To Multiple Clients", func(t *testing.T) {
		clientWs1, internalClient1, cleanup1 := createConnectedClient()
		defer cleanup1()
		clientWs2, internalClient2, cleanup2 := createConnectedClient()
		defer cleanup2()

		hub.register <- internalClient1
		hub.register <- internalClient2
		time.Sleep(20 * time.Millisecond)

		msg := []byte(`{"type":"playback_state","state":"searching"}`)
		hub.broadcast <- msg

		verifyReceive := func(ws *websocket.Conn, name string) {
			_, received, err := ws.ReadMessage()
			if err != nil {
				t.Errorf("%s: Failed to read: %v", name, err)
				return
			}
			if string(received) != string(msg) {
				t.Errorf("%s: Expected %s, got %s", name, msg, received)
			}
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			verifyReceive(clientWs1, "Client1")
		}()
		go func() {
			defer wg.Done()
			verifyReceive(clientWs2, "Client2")
		}()

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			t.Error("Timeout waiting for clients to receive message")
		}
	})
}
