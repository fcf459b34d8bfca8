package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/analytics-ceew/agri-google/internal/config"
	"github.com/analytics-ceew/agri-google/internal/handlers"
	"github.com/analytics-ceew/agri-google/internal/services"
	"github.com/analytics-ceew/agri-google/internal/storage"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("log", "landscape_monitor")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func newStore(cfg *config.LandscapeServiceConfig) storage.Store {
	ttl := time.Duration(cfg.SnapshotTTLMinutes) * time.Minute
	if cfg.RedisAddr != "" {
		store, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl)
		if err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		log.Printf("Using Redis snapshot store at %s", cfg.RedisAddr)
		return store
	}
	log.Printf("Using in-memory snapshot store (ttl %s)", ttl)
	return storage.NewMemoryStore(ttl)
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		fmt.Printf("File logging unavailable, using stderr: %v\n", err)
	} else {
		defer logFile.Close()
	}

	cfg := config.New()
	if cfg.APIKey == "" {
		log.Println("Warning: AGRI_API_KEY is not set; landscape fetches will fail until it is configured")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8087"
	}

	r := gin.Default()
	r.LoadHTMLGlob("web/templates/*.html")

	store := newStore(cfg)
	cellService := services.NewCellService()
	landscapeService := services.NewLandscapeService(*cfg)
	mapService := services.NewMapService(cellService)
	exportService := services.NewExportService()

	handlers.NewPageHandler().RegisterRoutes(r)
	handlers.NewLandscapeHandler(landscapeService, mapService, exportService, store).RegisterRoutes(r)
	handlers.NewCellHandler(cellService).RegisterRoutes(r)

	log.Printf("Starting landscape monitor on port %s", serverPort)
	if err := r.Run(":" + serverPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
