// Package api provides the Gantry REST API server.
//
// The server is the single owner of the loaded workspace; every handler
// serializes its access behind one mutex.
package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/FocuswithJustin/Gantry/core/history"
	"github.com/FocuswithJustin/Gantry/internal/logging"
	"github.com/FocuswithJustin/Gantry/internal/server"
	"github.com/FocuswithJustin/Gantry/internal/workspace"
)

var (
	stateMu         sync.Mutex
	activeWorkspace *workspace.Workspace
	historyStore    *history.Store
)

// SetState installs the workspace and history store the handlers operate on.
func SetState(ws *workspace.Workspace, store *history.Store) {
	stateMu.Lock()
	activeWorkspace = ws
	historyStore = store
	stateMu.Unlock()
}

// Start starts the API server with the given configuration. The server
// takes ownership of ws; store may be nil to disable history recording.
func Start(cfg Config, ws *workspace.Workspace, store *history.Store) error {
	ServerConfig = cfg
	SetState(ws, store)

	// Initialize WebSocket hub
	GlobalHub = NewHub()
	go GlobalHub.Run()

	// Setup routes
	mux := setupRoutes()

	logging.ServerStartup("rest_api", "http", ServerConfig.Port,
		"websocket_protocol", "ws",
		"workspace", server.AbsPath(ws.Path()))

	// Build middleware chain with security headers
	cspConfig := server.APICSPConfig()
	var handler http.Handler = server.SecurityHeadersWithCSP(cspConfig, mux)

	// Apply CORS middleware (outermost)
	corsConfig := server.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
	}
	handler = server.CORSMiddlewareWithConfig(corsConfig, handler)
	if len(cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}

	// Apply logging middleware
	handler = logging.CombinedMiddleware(handler)

	addr := fmt.Sprintf(":%d", ServerConfig.Port)
	return http.ListenAndServe(addr, handler)
}

// setupRoutes configures all HTTP routes.
func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/v1/configurations", handleConfigurations)
	mux.HandleFunc("/api/v1/configurations/", handleConfigurationByName)
	mux.HandleFunc("/api/v1/validate", handleValidateAll)
	mux.HandleFunc("/api/v1/modules", handleModules)
	mux.HandleFunc("/api/v1/history", handleHistory)
	mux.HandleFunc("/api/v1/jobs", handleJobs)
	mux.HandleFunc("/api/v1/jobs/", handleJobByID)
	mux.HandleFunc("/ws", handleWebSocket)

	return mux
}
