package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/Gantry/core/history"
	"github.com/FocuswithJustin/Gantry/core/runconfig"
	"github.com/FocuswithJustin/Gantry/internal/logging"
	"github.com/FocuswithJustin/Gantry/internal/server"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ConfigInfo describes a run configuration.
type ConfigInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Module     string `json:"module,omitempty"`
	Parameters string `json:"parameters,omitempty"`
	Selected   bool   `json:"selected"`
}

// ValidationInfo describes a validation outcome.
type ValidationInfo struct {
	Config   string `json:"config"`
	Status   string `json:"status"` // "ok", "warning", "error"
	Message  string `json:"message,omitempty"`
	Runnable bool   `json:"runnable"`
}

// ModuleInfo describes a module of the bound project.
type ModuleInfo struct {
	Name      string `json:"name"`
	Toolchain string `json:"toolchain,omitempty"`
	Disposed  bool   `json:"disposed,omitempty"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Configs int    `json:"configs"`
	Modules int    `json:"modules"`
}

const apiVersion = "0.1.0"

var startTime = time.Now()

const configPathPrefix = "/api/v1/configurations/"

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "Gantry API",
		"version": apiVersion,
		"endpoints": []string{
			"GET /health",
			"GET /api/v1/configurations",
			"GET /api/v1/configurations/:name",
			"POST /api/v1/configurations/:name/validate",
			"POST /api/v1/validate",
			"GET /api/v1/modules",
			"GET /api/v1/history",
			"GET /api/v1/jobs",
			"GET /api/v1/jobs/:id",
			"DELETE /api/v1/jobs/:id",
			"WS /ws",
		},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	stateMu.Lock()
	configs := 0
	modules := 0
	if activeWorkspace != nil {
		configs = len(activeWorkspace.Manager().List())
		modules = len(activeWorkspace.Project().ModuleManager().Modules())
	}
	stateMu.Unlock()

	respond(w, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Version: apiVersion,
		Uptime:  time.Since(startTime).String(),
		Configs: configs,
		Modules: modules,
	})
}

// handleConfigurations handles GET /api/v1/configurations.
func handleConfigurations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	stateMu.Lock()
	if activeWorkspace == nil {
		stateMu.Unlock()
		respondError(w, http.StatusServiceUnavailable, "NO_WORKSPACE", "No workspace loaded")
		return
	}
	infos := configInfosLocked()
	stateMu.Unlock()

	respondList(w, infos, len(infos))
}

// handleConfigurationByName handles GET /api/v1/configurations/{name} and
// POST /api/v1/configurations/{name}/validate.
func handleConfigurationByName(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, configPathPrefix)
	if rest == "" {
		respondError(w, http.StatusBadRequest, "MISSING_NAME", "Configuration name is required")
		return
	}

	if name, found := strings.CutSuffix(rest, "/validate"); found {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
			return
		}
		validateConfigHandler(w, r, name)
		return
	}

	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	getConfigHandler(w, r, rest)
}

// getConfigHandler handles GET /api/v1/configurations/{name}.
func getConfigHandler(w http.ResponseWriter, r *http.Request, name string) {
	stateMu.Lock()
	if activeWorkspace == nil {
		stateMu.Unlock()
		respondError(w, http.StatusServiceUnavailable, "NO_WORKSPACE", "No workspace loaded")
		return
	}
	c := activeWorkspace.Manager().FindByName(name)
	var info ConfigInfo
	if c != nil {
		info = configInfoLocked(c)
	}
	stateMu.Unlock()

	if c == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Configuration not found")
		return
	}
	respond(w, http.StatusOK, info)
}

// validateConfigHandler handles POST /api/v1/configurations/{name}/validate.
func validateConfigHandler(w http.ResponseWriter, r *http.Request, name string) {
	stateMu.Lock()
	if activeWorkspace == nil {
		stateMu.Unlock()
		respondError(w, http.StatusServiceUnavailable, "NO_WORKSPACE", "No workspace loaded")
		return
	}
	c := activeWorkspace.Manager().FindByName(name)
	if c == nil {
		stateMu.Unlock()
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Configuration not found")
		return
	}
	info := validateConfigLocked(c)
	moduleName := c.Module.ModuleName()
	fingerprint, err := activeWorkspace.Fingerprint()
	stateMu.Unlock()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "VALIDATE_FAILED", err.Error())
		return
	}

	recordValidation(info, moduleName, fingerprint)
	BroadcastValidation(info)

	respond(w, http.StatusOK, info)
}

// handleValidateAll handles POST /api/v1/validate - start a validate-all job.
func handleValidateAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	stateMu.Lock()
	if activeWorkspace == nil {
		stateMu.Unlock()
		respondError(w, http.StatusServiceUnavailable, "NO_WORKSPACE", "No workspace loaded")
		return
	}
	total := len(activeWorkspace.Manager().List())
	stateMu.Unlock()

	job := globalJobStore.Create(total)
	respond(w, http.StatusCreated, job)

	runValidationJob(job)
}

// handleModules handles GET /api/v1/modules.
func handleModules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	stateMu.Lock()
	if activeWorkspace == nil {
		stateMu.Unlock()
		respondError(w, http.StatusServiceUnavailable, "NO_WORKSPACE", "No workspace loaded")
		return
	}
	modules := activeWorkspace.Project().ModuleManager().Modules()
	infos := make([]ModuleInfo, 0, len(modules))
	for _, m := range modules {
		info := ModuleInfo{
			Name:     m.Name(),
			Disposed: m.IsDisposed(),
		}
		if tc := m.Toolchain(); tc != nil {
			info.Toolchain = tc.ID
		}
		infos = append(infos, info)
	}
	stateMu.Unlock()

	respondList(w, infos, len(infos))
}

// handleHistory handles GET /api/v1/history with optional config, status,
// and limit query parameters.
func handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	stateMu.Lock()
	store := historyStore
	stateMu.Unlock()
	if store == nil {
		respondError(w, http.StatusServiceUnavailable, "NO_HISTORY", "History store not configured")
		return
	}

	q := r.URL.Query()
	filter := history.Filter{
		ConfigName: server.LimitStringLength(server.SanitizeUserInput(q.Get("config")), 256),
		Status:     history.Status(server.SanitizeUserInput(q.Get("status"))),
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	entries, err := store.List(filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "HISTORY_FAILED", err.Error())
		return
	}
	respondList(w, entries, len(entries))
}

// configInfosLocked builds ConfigInfos for the active workspace.
// stateMu must be held.
func configInfosLocked() []ConfigInfo {
	configs := activeWorkspace.Manager().List()
	infos := make([]ConfigInfo, 0, len(configs))
	for _, c := range configs {
		infos = append(infos, configInfoLocked(c))
	}
	return infos
}

// configInfoLocked builds the ConfigInfo for one configuration.
// stateMu must be held.
func configInfoLocked(c *runconfig.RunConfiguration) ConfigInfo {
	sel := activeWorkspace.Manager().Selected()
	return ConfigInfo{
		ID:         c.ID,
		Name:       c.Name,
		Kind:       c.Kind,
		Module:     c.Module.ModuleName(),
		Parameters: c.Parameters,
		Selected:   sel != nil && sel.ID == c.ID,
	}
}

// validateConfigLocked validates one configuration. stateMu must be held.
func validateConfigLocked(c *runconfig.RunConfiguration) ValidationInfo {
	info := ValidationInfo{
		Config:   c.Name,
		Status:   string(history.StatusOK),
		Runnable: true,
	}
	if p := c.Validate(); p != nil {
		info.Status = string(p.Severity)
		info.Message = p.Message
		info.Runnable = p.Severity != runconfig.SeverityError
	}
	return info
}

// recordValidation logs the outcome and appends it to the history store
// when one is configured.
func recordValidation(info ValidationInfo, moduleName, fingerprint string) {
	logging.ValidationEvent(info.Config, info.Status, info.Message)

	stateMu.Lock()
	store := historyStore
	stateMu.Unlock()
	if store == nil {
		return
	}

	entry := history.Entry{
		ConfigName:  info.Config,
		ModuleName:  moduleName,
		Status:      history.Status(info.Status),
		Message:     info.Message,
		Fingerprint: fingerprint,
	}
	if _, err := store.Record(entry); err != nil {
		logging.Error("failed to record validation history",
			"config", info.Config, "error", err)
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondList(w http.ResponseWriter, data interface{}, total int) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
