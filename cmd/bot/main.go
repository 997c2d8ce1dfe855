package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tournament-tool-backend/internal/bot"
	"tournament-tool-backend/internal/common/config"
	"tournament-tool-backend/internal/common/logger"
	redisp "tournament-tool-backend/internal/platform/redis"
	"tournament-tool-backend/internal/platform/telegram"
	redisrepo "tournament-tool-backend/internal/repository/redis"
	"tournament-tool-backend/internal/service/advisor"
	"tournament-tool-backend/internal/service/lifecycle"
	"tournament-tool-backend/internal/service/notifications"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("tournament-tool", cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("starting tournament tool backend")

	loc, err := time.LoadLocation(cfg.Tournament.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Tournament.Timezone).Msg("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redisp.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis connection failed")
	}
	defer redisClient.Close()
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	tournaments := redisrepo.NewTournamentRepository(redisClient)
	payments := redisrepo.NewPaymentRepository(redisClient)
	users := redisrepo.NewUserRepository(redisClient)

	engine := lifecycle.NewService(tournaments, payments, users, loc)
	adv := advisor.NewClient(cfg.Advisor.APIKey, cfg.Advisor.BaseURL, cfg.Advisor.Model,
		time.Duration(cfg.Advisor.TimeoutSec)*time.Second)

	tg := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.SendRate)

	b := bot.New(tg, bot.Config{
		AdminID:       cfg.Telegram.AdminID,
		AdminUsername: cfg.Telegram.AdminUsername,
		ChannelID:     cfg.Telegram.ChannelID,
		ChannelURL:    cfg.Telegram.ChannelURL,
		UPIID:         cfg.Tournament.UPIID,
		MinEntryFee:   cfg.Tournament.MinEntryFee,
		MaxEntryFee:   cfg.Tournament.MaxEntryFee,
	}, engine, users, adv)

	notifier := notifications.NewService(engine, users, b, cfg.Times(), loc)
	go notifier.Run(ctx)

	opsServer := newOpsServer(cfg.Server.Port, cfg.Debug, redisClient)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("ops server listening")
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("update loop exited")
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server forced shutdown")
	}

	logger.Info().Msg("stopped")
}

// newOpsServer exposes the internal health, readiness and metrics
// endpoints.
func newOpsServer(port int, debug bool, redisClient *redisp.Client) *http.Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
