package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhinash-ops/MindCanvus/config"
	"github.com/abhinash-ops/MindCanvus/database"
	"github.com/abhinash-ops/MindCanvus/handlers"
	"github.com/abhinash-ops/MindCanvus/routes"
	"github.com/abhinash-ops/MindCanvus/scheduler"
	"github.com/abhinash-ops/MindCanvus/websocket"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting MindCanvus backend...")

	cfg := config.Load()

	log.Println("Connecting to MongoDB...")
	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.ConnectMongo(cfg.MongoURI, cfg.DBName); err != nil {
			dbErr = err
			log.Printf("MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("Failed to connect to MongoDB: ", dbErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := database.EnsureIndexes(ctx); err != nil {
		cancel()
		log.Fatal("Failed to create indexes: ", err)
	}
	cancel()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := routes.SetupRouter(cfg)

	wsManager := websocket.NewManager()
	go wsManager.Start()
	handlers.SetWebSocketManager(wsManager)
	handlers.SetVAPIDConfig(cfg.VapidPublicKey, cfg.VapidPrivateKey, cfg.VapidSubscriber)

	router.GET("/ws", func(c *gin.Context) {
		websocket.WebSocketHandler(wsManager)(c.Writer, c.Request)
	})

	publisher := scheduler.NewPublisher(&scheduler.MongoPostStore{Posts: database.Posts}, wsManager)
	publisher.Start()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	publisher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown: ", err)
	}

	if err := database.DisconnectMongo(); err != nil {
		log.Println("Mongo disconnect error: ", err)
	}

	log.Println("Server stopped gracefully")
}
