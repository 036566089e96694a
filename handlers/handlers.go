package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pricewatch/config"
	"pricewatch/models"
	"pricewatch/scheduler"
	"pricewatch/services"

	"github.com/gorilla/mux"
)

const defaultHistoryDays = 30

var (
	errURLRequired   = errors.New("url is required")
	errInvalidURL    = errors.New("invalid url")
	errHTTPSRequired = errors.New("only https urls are supported")
	errDomainBlocked = errors.New("domain not supported")
)

// Handlers serves the HTTP API
type Handlers struct {
	tracker     *services.Tracker
	taskManager *scheduler.TaskManager
	apiConfig   *config.APIConfig
	startedAt   time.Time
}

// NewHandlers creates handlers over the tracker and task manager
func NewHandlers(tracker *services.Tracker, taskManager *scheduler.TaskManager, apiConfig *config.APIConfig) *Handlers {
	return &Handlers{
		tracker:     tracker,
		taskManager: taskManager,
		apiConfig:   apiConfig,
		startedAt:   time.Now(),
	}
}

// RegisterRoutes mounts the API on r
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	apiV1 := r.PathPrefix("/api/" + h.apiConfig.Version).Subrouter()

	// Price checks
	apiV1.HandleFunc("/prices/check", h.CheckPrice).Methods("POST")
	apiV1.HandleFunc("/prices/check-async", h.CheckPriceAsync).Methods("POST")

	// Task management
	apiV1.HandleFunc("/tasks/stats", h.GetTaskStats).Methods("GET")
	apiV1.HandleFunc("/tasks/{taskId}", h.GetTaskStatus).Methods("GET")

	// Tracked products
	apiV1.HandleFunc("/products", h.GetAllProducts).Methods("GET")
	apiV1.HandleFunc("/products", h.DeleteProduct).Methods("DELETE")
	apiV1.HandleFunc("/products/history", h.GetPriceHistory).Methods("GET")
	apiV1.HandleFunc("/products/export", h.ExportPriceHistory).Methods("GET")
}

// HealthCheck returns a simple health check response
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now(),
		"service":     "pricewatch",
		"api_version": h.apiConfig.Version,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
	}
	if cache := h.tracker.Cache(); cache != nil {
		response["cached_results"] = cache.Len()
	}
	writeJSON(w, http.StatusOK, response)
}

// CheckPrice runs a price check and waits for the result
func (h *Handlers) CheckPrice(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCheckRequest(w, r)
	if !ok {
		return
	}

	result := h.tracker.GetCurrentPrice(r.Context(), req.URL, req.UserPrice)
	writeJSON(w, http.StatusOK, result)
}

// CheckPriceAsync queues a price check and returns a task ID
func (h *Handlers) CheckPriceAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCheckRequest(w, r)
	if !ok {
		return
	}

	task := h.taskManager.SubmitTask(req)
	log.Printf("🚀 Async price check started for %s (Task ID: %s)", req.URL, task.ID)

	view := task.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"task_id": view.ID,
		"status":  view.Status,
		"message": view.Message,
		"url":     req.URL,
	})
}

// GetTaskStatus returns the status of an async task
func (h *Handlers) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	task, exists := h.taskManager.GetTask(taskID)
	if !exists {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	writeJSON(w, http.StatusOK, task.Snapshot())
}

// GetTaskStats returns statistics about the task manager
func (h *Handlers) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":     h.taskManager.GetStats(),
		"timestamp": time.Now(),
	})
}

// GetAllProducts returns the latest record for every tracked URL
func (h *Handlers) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.tracker.GetAllProducts(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetPriceHistory returns recent records for one URL
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	rawURL, days, ok := historyParams(w, r)
	if !ok {
		return
	}

	history, err := h.tracker.GetPriceHistory(r.Context(), rawURL, days)
	if err != nil {
		log.Printf("❌ Failed to get price history: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get price history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"url":     rawURL,
		"days":    days,
		"history": history,
	})
}

// DeleteProduct removes all records for a URL
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, errURLRequired.Error())
		return
	}

	result, err := h.tracker.DeleteProduct(r.Context(), rawURL)
	if err != nil {
		log.Printf("❌ Failed to delete product: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) decodeCheckRequest(w http.ResponseWriter, r *http.Request) (models.CheckPriceRequest, bool) {
	var req models.CheckPriceRequest

	if h.apiConfig.MaxRequestSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.apiConfig.MaxRequestSize)
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}

	req.URL = strings.TrimSpace(req.URL)
	if err := h.admitURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}

	if req.UserPrice != nil && *req.UserPrice < 0 {
		writeError(w, http.StatusBadRequest, "User price must be positive")
		return req, false
	}

	return req, true
}

// admitURL accepts only HTTPS URLs on the allowed domain list
func (h *Handlers) admitURL(rawURL string) error {
	if rawURL == "" {
		return errURLRequired
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return errInvalidURL
	}
	if parsed.Scheme != "https" {
		return errHTTPSRequired
	}
	if !h.apiConfig.IsAllowedDomain(parsed.Hostname()) {
		return errDomainBlocked
	}
	return nil
}

func historyParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, errURLRequired.Error())
		return "", 0, false
	}

	days := defaultHistoryDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		d, err := strconv.Atoi(daysStr)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid days")
			return "", 0, false
		}
		days = d
	}

	return rawURL, days, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
