package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"pricewatch/config"
	"pricewatch/database"
	"pricewatch/handlers"
	"pricewatch/middleware"
	"pricewatch/repository"
	"pricewatch/scheduler"
	"pricewatch/scraper"
	"pricewatch/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// Metrics struct for basic monitoring
type Metrics struct {
	Timestamp       time.Time `json:"timestamp"`
	Uptime          string    `json:"uptime"`
	Goroutines      int       `json:"goroutines"`
	MemoryUsage     string    `json:"memory_usage"`
	TrackedProducts int       `json:"tracked_products"`
	CachedResults   int       `json:"cached_results"`
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	apiConfig := config.DefaultAPIConfig()
	scraperConfig := config.LoadScraperConfig()

	store, closeStore, err := openRecordStore(scraperConfig)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer closeStore()

	cache, err := services.NewResultCache(scraperConfig.CacheTTL, scraperConfig.CacheMaxKeys)
	if err != nil {
		log.Fatalf("Failed to create result cache: %v", err)
	}

	sink := scraper.StdLogSink{Prefix: "🛒 "}
	fetcher := scraper.NewFetcher(scraperConfig.FetchOptions(), sink)
	tracker := services.NewTracker(
		scraper.NewPriceScraper(fetcher, sink),
		repository.NewRecordLog(store),
		cache,
		sink,
	)

	taskManager := scheduler.NewTaskManager(tracker.GetCurrentPrice, scraperConfig.MaxConcurrentTasks, apiConfig.RequestTimeout, scraperConfig.TaskRetention)
	defer taskManager.Stop()

	priceChecker := scheduler.NewPriceChecker(tracker, cache, scraperConfig.RefreshSchedule, scraperConfig.CacheSweepSchedule)
	if err := priceChecker.Start(); err != nil {
		log.Fatalf("Failed to start price checker: %v", err)
	}
	defer priceChecker.Stop()

	// Setup router
	r := mux.NewRouter()
	if apiConfig.LoggingEnabled {
		r.Use(middleware.LoggingMiddleware)
	}
	r.Use(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Enabled:           apiConfig.RateLimitEnabled,
		RequestsPerMinute: apiConfig.RateLimitPerMinute,
	}))
	r.Use(middleware.APIKeyMiddleware(apiConfig.RequireAPIKey, apiConfig.APIKeys))

	startedAt := time.Now()
	r.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		getMetrics(w, req, tracker, cache, startedAt)
	}).Methods("GET")

	h := handlers.NewHandlers(tracker, taskManager, apiConfig)
	h.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   apiConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              apiConfig.Host + ":" + apiConfig.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🌐 Server starting on %s", srv.Addr)
	log.Printf("📋 API endpoints:")
	log.Printf("   GET    /health - Health check")
	log.Printf("   GET    /metrics - System metrics")
	log.Printf("   POST   /api/v1/prices/check - Check a price now")
	log.Printf("   POST   /api/v1/prices/check-async - Queue a price check")
	log.Printf("   GET    /api/v1/tasks/{taskId} - Async task status")
	log.Printf("   GET    /api/v1/products - Latest price per product")
	log.Printf("   GET    /api/v1/products/history?url=&days= - Price history")
	log.Printf("   GET    /api/v1/products/export?url=&days= - Price history as XLSX")
	log.Printf("   DELETE /api/v1/products?url= - Forget a product")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// openRecordStore picks Postgres when DATABASE_URL is set, the JSON file otherwise
func openRecordStore(cfg *config.ScraperConfig) (repository.RecordStore, func(), error) {
	if !cfg.UsePostgres() {
		log.Printf("💾 Storing price records in %s", cfg.DataFile)
		return repository.NewJSONFileStore(cfg.DataFile), func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.CreateTables(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	log.Println("💾 Storing price records in Postgres")
	return repository.NewPostgresStore(db), func() { db.Close() }, nil
}

func getMetrics(w http.ResponseWriter, r *http.Request, tracker *services.Tracker, cache *services.ResultCache, startedAt time.Time) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tracked := 0
	if products, err := tracker.GetAllProducts(r.Context()); err == nil {
		tracked = len(products)
	}

	writeJSON(w, http.StatusOK, Metrics{
		Timestamp:       time.Now(),
		Uptime:          time.Since(startedAt).Round(time.Second).String(),
		Goroutines:      runtime.NumGoroutine(),
		MemoryUsage:     fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
		TrackedProducts: tracked,
		CachedResults:   cache.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
