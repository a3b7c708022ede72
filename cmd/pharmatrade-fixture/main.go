// pharmatrade-fixture serves the mock REST surface the front-end prototypes
// were built against, optionally seeded from a JSON file in the db.json
// shape: {"products": [...], "users": [...]}.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/catalog"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/fixture"
	"github.com/rishabhkhetan/pharma-trade-connect/pkg/logger"
)

type seedFile struct {
	Products []catalog.Product `json:"products"`
	Users    []fixture.User    `json:"users"`
}

func main() {
	port := getEnv("HTTP_PORT", "3000")
	seedPath := getEnv("SEED_FILE", "")

	log, err := logger.New(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	fx := fixture.NewServer()
	if seedPath != "" {
		raw, err := os.ReadFile(seedPath)
		if err != nil {
			log.Fatal("failed to read seed file", zap.Error(err))
		}
		var seed seedFile
		if err := json.Unmarshal(raw, &seed); err != nil {
			log.Fatal("failed to parse seed file", zap.Error(err))
		}
		fx.SeedProducts(seed.Products)
		fx.SeedUsers(seed.Users)
		log.Info("seeded fixture data",
			zap.Int("products", len(seed.Products)),
			zap.Int("users", len(seed.Users)))
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      fx.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("fixture server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("fixture server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
