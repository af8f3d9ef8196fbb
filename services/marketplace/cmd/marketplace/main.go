package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"marketplace/internal/ratelimit"
	"marketplace/internal/usertoken"
	"marketplace/internal/util"
	"marketplace/pkg/auth"
	"marketplace/pkg/payment"
	"marketplace/pkg/storage"
	"marketplace/services/marketplace/internal/app"
	"marketplace/services/marketplace/internal/config"
	"marketplace/services/marketplace/internal/server"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseDuration("sessionTTL", cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	lockTimeout, err := config.ParseDuration("lockTimeout", cfg.LockTimeout)
	if err != nil {
		log.Fatalf("failed to parse lock timeout: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	tokens, err := usertoken.NewService(usertoken.Config{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    sessionTTL,
	})
	if err != nil {
		log.Fatalf("failed to init token service: %v", err)
	}

	appCfg := app.Config{
		DatabaseURL: cfg.DatabaseURL,
		LockTimeout: lockTimeout,
		Tokens:      tokens,
		Hasher:      auth.NewHasher(cfg.BcryptCost),
	}
	if gateway := payment.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL); gateway != nil {
		appCfg.Payments = gateway
	} else {
		slog.Warn("razorpay credentials not set; payment routes disabled")
	}
	if cfg.MinioEndpoint != "" {
		images, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicBaseURL,
		})
		if err != nil {
			log.Fatalf("failed to init object storage: %v", err)
		}
		appCfg.Images = images
	} else {
		slog.Warn("minio endpoint not set; product image upload disabled")
	}

	appCore, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	srvCfg := server.Config{
		App:                appCore,
		TrustedProxies:     trusted,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.RedisAddr != "" {
		client, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("failed to init redis: %v", err)
		}
		defer client.Close()
		srvCfg.RegisterLimiter = mustLimiter(client, "register", cfg.RegisterRateLimitPerMinute, 5)
		srvCfg.LoginLimiter = mustLimiter(client, "login", cfg.LoginRateLimitPerMinute, 10)
	} else {
		slog.Warn("redis addr not set; rate limiting disabled")
	}

	httpServer, err := server.New(srvCfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "err", err)
		}
	}()

	slog.Info("marketplace server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}

func mustLimiter(client *redis.Client, name string, limit, fallback int) ratelimit.Limiter {
	if limit <= 0 {
		limit = fallback
	}
	limiter, err := ratelimit.NewFixedWindowLimiter(client, "marketplace:ratelimit:"+name, limit, time.Minute)
	if err != nil {
		log.Fatalf("failed to init %s limiter: %v", name, err)
	}
	return limiter
}
