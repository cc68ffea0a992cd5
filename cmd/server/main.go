package main

import (
	"context"
	"crypto/rand"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"milkbook/internal/cache"
	"milkbook/internal/config"
	"milkbook/internal/httpapi"
	"milkbook/internal/service"
	"milkbook/internal/store"
	"milkbook/internal/store/memory"
	"milkbook/internal/store/sqlite"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DBPath != "" {
		db, err := sqlite.New(ctx, cfg.DBPath)
		if err != nil {
			log.Fatalf("sqlite unavailable (%v) and DB_PATH is set; refusing to start with in-memory fallback", err)
		}
		repo = db
		closers = append(closers, db.Close)
		log.Printf("repository: sqlite (%s)", cfg.DBPath)
	} else if cfg.SeedDemoData {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory (seeded)")
	} else {
		repo = memory.New()
		log.Println("repository: in-memory")
	}

	balances := cache.BalanceCache(cache.NoopBalanceCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisBalanceCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			balances = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	svc := service.New(repo, balances, time.Duration(cfg.BalanceCacheTTLSeconds)*time.Second)
	auth := httpapi.NewAuthManager(repo, sessionSecret(cfg.AuthSecret), time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("milkbook backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// sessionSecret returns the configured signing secret, or a random one
// when none is set. A random secret means sessions do not survive a
// restart, which is acceptable for a single-operator install.
func sessionSecret(configured string) []byte {
	if len(configured) >= 32 {
		return []byte(configured)
	}
	if configured != "" {
		log.Println("AUTH_SECRET shorter than 32 characters, generating a random session secret")
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("generate session secret: %v", err)
	}
	return secret
}
