package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amora/config"
	"amora/database"
	"amora/handlers"
	"amora/routes"
	"amora/store"
	"amora/websocket"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	var client *mongo.Client
	for attempt := 1; attempt <= 3; attempt++ {
		client, err = database.Connect(cfg.MongoURI)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("MongoDB connection failed")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer database.Disconnect(client)

	st := store.NewMongo(client.Database(cfg.MongoDatabase))
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := st.EnsureIndexes(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		cancel()
	}

	wsManager := websocket.NewManager()
	go wsManager.Start()

	api := handlers.New(st, cfg, wsManager)
	router := routes.SetupRouter(api)
	router.GET("/ws", func(c *gin.Context) {
		websocket.Handler(wsManager, cfg.JWTSecret)(c.Writer, c.Request)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
