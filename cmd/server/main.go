package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/rstolbov/dictation-backend/internal/audio"
	"github.com/rstolbov/dictation-backend/internal/config"
	"github.com/rstolbov/dictation-backend/internal/database"
	"github.com/rstolbov/dictation-backend/internal/handler"
	"github.com/rstolbov/dictation-backend/internal/middleware"
	"github.com/rstolbov/dictation-backend/internal/queue"
	"github.com/rstolbov/dictation-backend/internal/repository"
	"github.com/rstolbov/dictation-backend/internal/router"
	"github.com/rstolbov/dictation-backend/internal/service"
	"github.com/rstolbov/dictation-backend/internal/storage"
	"github.com/rstolbov/dictation-backend/internal/tts"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Redis backs the response cache and rate limiter; both turn into
	// pass-throughs when the client is nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	store, err := storage.NewLocal(cfg.UploadsDir, cfg.UploadsPrefix)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	resolver := audio.NewResolver(tts.NewGoogleTranslate(cfg.TTSHost, nil), store, cfg.TTSTimeout)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	dictations := repository.NewDictationRepo(db)
	words := repository.NewWordRepo(db)
	practices := repository.NewPracticeRepo(db)

	svc := service.NewDictationService(dictations, words, practices, resolver, queue.NewPublisher())

	go func() {
		if err := queue.StartPracticeConsumer(); err != nil {
			log.Printf("practice consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e, cfg.UploadsPrefix, store.Dir())
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, limitMW)
	router.RegisterDictations(e, handler.NewDictationHandler(svc), handler.NewWordHandler(svc), cfg.JWTSecret, cacheMW, limitMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
