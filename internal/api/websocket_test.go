package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	// Save original config and restore after test
	originalConfig := ServerConfig
	defer func() { ServerConfig = originalConfig }()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no restrictions", nil, "http://evil.example.com", true},
		{"no origin header", []string{"http://localhost:3000"}, "", true},
		{"allowed origin", []string{"http://localhost:3000"}, "http://localhost:3000", true},
		{"second allowed origin", []string{"http://localhost:3000", "https://gantry.example.com"}, "https://gantry.example.com", true},
		{"disallowed origin", []string{"http://localhost:3000"}, "http://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ServerConfig = Config{AllowedOrigins: tt.allowed}
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHubRunAndBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Create a test server with WebSocket handler
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}

		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}

		hub.register <- client
		go client.writePump()
		go client.readPump()
	}))
	defer server.Close()

	// Connect WebSocket client
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	// Wait for client to register
	time.Sleep(100 * time.Millisecond)

	// Broadcast a message
	testMsg := ValidationMessage{
		Type:     "validation",
		Config:   "Run Server",
		Severity: "warning",
		Message:  "no toolchain specified for module server",
	}
	hub.Broadcast(testMsg)

	// Read the message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var received ValidationMessage
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if received.Type != testMsg.Type {
		t.Errorf("Expected type %s, got %s", testMsg.Type, received.Type)
	}
	if received.Config != testMsg.Config {
		t.Errorf("Expected config %s, got %s", testMsg.Config, received.Config)
	}
	if received.Severity != testMsg.Severity {
		t.Errorf("Expected severity %s, got %s", testMsg.Severity, received.Severity)
	}
	if received.Message != testMsg.Message {
		t.Errorf("Expected message %s, got %s", testMsg.Message, received.Message)
	}
	if received.Timestamp == "" {
		t.Error("Timestamp should be automatically set")
	}
}

func TestBroadcastHelpers(t *testing.T) {
	// Save original hub and restore after test
	originalHub := GlobalHub
	defer func() { GlobalHub = originalHub }()

	hub := NewHub()
	GlobalHub = hub
	go hub.Run()

	// Create a test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}

		hub.register <- client
		go client.writePump()
		go client.readPump()
	}))
	defer server.Close()

	// Connect client
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	// Test BroadcastValidation
	BroadcastValidation(ValidationInfo{
		Config:   "Run Ghost",
		Status:   "error",
		Message:  "module does not exist in project: ghost",
		Runnable: false,
	})
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read validation: %v", err)
	}

	var validation ValidationMessage
	if err := json.Unmarshal(data, &validation); err != nil {
		t.Fatalf("Failed to unmarshal validation: %v", err)
	}
	if validation.Type != "validation" {
		t.Errorf("Expected type 'validation', got %s", validation.Type)
	}
	if validation.Severity != "error" {
		t.Errorf("Expected severity 'error', got %s", validation.Severity)
	}

	// Test BroadcastComplete
	BroadcastComplete("validated 3 configurations")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read complete: %v", err)
	}

	var complete ValidationMessage
	if err := json.Unmarshal(data, &complete); err != nil {
		t.Fatalf("Failed to unmarshal complete: %v", err)
	}
	if complete.Type != "complete" {
		t.Errorf("Expected type 'complete', got %s", complete.Type)
	}
	if complete.Message != "validated 3 configurations" {
		t.Errorf("Unexpected message %q", complete.Message)
	}

	// Test BroadcastError
	BroadcastError("workspace fingerprint failed")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read error: %v", err)
	}

	var errorMsg ValidationMessage
	if err := json.Unmarshal(data, &errorMsg); err != nil {
		t.Fatalf("Failed to unmarshal error: %v", err)
	}
	if errorMsg.Type != "error" {
		t.Errorf("Expected type 'error', got %s", errorMsg.Type)
	}
}

func TestBroadcastHelpersNilHub(t *testing.T) {
	// Save original hub and restore after test
	originalHub := GlobalHub
	GlobalHub = nil
	defer func() { GlobalHub = originalHub }()

	// None of these should panic without a hub
	BroadcastValidation(ValidationInfo{Config: "Run Server", Status: "ok"})
	BroadcastComplete("done")
	BroadcastError("failed")
}

func TestHandleWebSocket(t *testing.T) {
	// Save original hub and restore after test
	originalHub := GlobalHub
	defer func() { GlobalHub = originalHub }()

	hub := NewHub()
	GlobalHub = hub
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(handleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("Expected status 101, got %d", resp.StatusCode)
	}

	// Verify client was registered
	time.Sleep(100 * time.Millisecond)
	hub.mu.RLock()
	clientCount := len(hub.clients)
	hub.mu.RUnlock()

	if clientCount != 1 {
		t.Errorf("Expected 1 client, got %d", clientCount)
	}
}

func TestHandleWebSocketNoHub(t *testing.T) {
	// Save original hub and restore after test
	originalHub := GlobalHub
	GlobalHub = nil
	defer func() { GlobalHub = originalHub }()

	req := httptest.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()

	handleWebSocket(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestHandleWebSocketDisallowedOrigin(t *testing.T) {
	// Save original hub and config, restore after test
	originalHub := GlobalHub
	originalConfig := ServerConfig
	defer func() {
		GlobalHub = originalHub
		ServerConfig = originalConfig
	}()

	hub := NewHub()
	GlobalHub = hub
	go hub.Run()
	ServerConfig = Config{AllowedOrigins: []string{"http://localhost:3000"}}

	server := httptest.NewServer(http.HandlerFunc(handleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"http://evil.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		conn.Close()
		t.Fatal("Expected handshake to fail for disallowed origin")
	}
}

func TestMultipleClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}

		hub.register <- client
		go client.writePump()
		go client.readPump()
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect first client: %v", err)
	}
	defer conn1.Close()

	conn2, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect second client: %v", err)
	}
	defer conn2.Close()

	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(ValidationMessage{Type: "complete", Message: "all done"})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Client %d failed to read: %v", i+1, err)
		}

		var msg ValidationMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Client %d failed to unmarshal: %v", i+1, err)
		}
		if msg.Type != "complete" {
			t.Errorf("Client %d got type %s, want complete", i+1, msg.Type)
		}
	}
}
