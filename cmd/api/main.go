package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/seasky/seasky-api/internal/config"
	"github.com/seasky/seasky-api/internal/domain/logistics"
	"github.com/seasky/seasky-api/internal/domain/party"
	"github.com/seasky/seasky-api/internal/domain/qr"
	"github.com/seasky/seasky-api/internal/domain/stock"
	"github.com/seasky/seasky-api/internal/domain/wallet"
	"github.com/seasky/seasky-api/internal/middleware"
	"github.com/seasky/seasky-api/internal/pkg/database"
	"github.com/seasky/seasky-api/internal/pkg/jwt"
	"github.com/seasky/seasky-api/internal/pkg/logger"
	"github.com/seasky/seasky-api/internal/pkg/response"
	"github.com/seasky/seasky-api/internal/realtime"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting SeaSky API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Realtime activity feed ----------
	feed := realtime.NewHub(redisClient)
	go feed.Run()
	defer feed.Shutdown()

	// ---------- Repositories ----------
	partyRepo := party.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	stockRepo := stock.NewRepository(db)
	qrRepo := qr.NewRepository(db)
	logisticsRepo := logistics.NewRepository(db)

	subjectResolver := party.NewResolver(partyRepo)

	// ---------- Services ----------
	walletSvc := wallet.NewService(walletRepo, wallet.Config{
		InitialBalance: cfg.WalletInitialBalance,
		Provider:       cfg.WalletProvider,
	})
	stockSvc := stock.NewService(stockRepo)
	qrSvc := qr.NewService(qrRepo, subjectResolver)
	logisticsSvc := logistics.NewService(db, logisticsRepo, qrRepo, stockRepo, partyRepo)

	// ---------- Handlers ----------
	partyHandler := party.NewHandler(partyRepo, subjectResolver)
	walletHandler := wallet.NewHandler(walletSvc, feed)
	stockHandler := stock.NewHandler(stockSvc)
	qrHandler := qr.NewHandler(qrSvc, feed, cfg.QRDefaultTTL)
	logisticsHandler := logistics.NewHandler(logisticsSvc, feed)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(middleware.Recover)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/parties", partyHandler.Routes(authMiddleware))
		r.Mount("/wallets", walletHandler.Routes(authMiddleware))
		r.Mount("/stock", stockHandler.Routes(authMiddleware))
		r.Mount("/qr", qrHandler.Routes(authMiddleware))
		r.Mount("/logistics", logisticsHandler.Routes(authMiddleware))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/ws/activity", feed.ServeWS)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
