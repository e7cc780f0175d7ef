package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/vironax/adinsights/internal/adapter"
	"github.com/vironax/adinsights/internal/api"
	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/meta"
	"github.com/vironax/adinsights/internal/pkg/distlock"
	"github.com/vironax/adinsights/internal/repository/postgres"
	"github.com/vironax/adinsights/internal/salla"
	"github.com/vironax/adinsights/internal/shopify"
	"github.com/vironax/adinsights/internal/syncer"
)

// checkPortAvailable verifies that the target port is not already in use,
// so a stale process does not silently swallow the traffic.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	return ln.Close()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("[server] config: %v", err)
	}
	if len(cfg.Stores) == 0 {
		log.Fatalf("[server] config: no stores configured")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("[server] database open: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("[server] database ping: %v", err)
	}
	cancel()
	log.Printf("[server] database connected")

	repo := postgres.New(db)

	var notifier *syncer.Notifier
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[server] redis ping failed, notifications disabled: %v", err)
			rdb = nil
		} else {
			notifier = syncer.NewNotifier(rdb)
			log.Printf("[server] redis connected at %s", cfg.Redis.Addr)
		}
	}

	var adapters []adapter.SourceAdapter
	if cfg.Meta.Enabled {
		adapters = append(adapters, meta.New(cfg.Meta))
	}
	if cfg.Shopify.Enabled {
		adapters = append(adapters, shopify.New(cfg.Shopify))
	}
	if cfg.Salla.Enabled {
		adapters = append(adapters, salla.New(cfg.Salla))
	}

	var sync *syncer.Syncer
	if len(adapters) > 0 {
		sync = syncer.New(cfg.Sync, cfg.Stores, adapters, repo, notifier)
		lockTTL := cfg.Sync.Timeout() + time.Minute
		sync.SetLocks(func(storeID string) distlock.DistLock {
			return distlock.NewLock(rdb, db, "sync:"+storeID, lockTTL)
		})
		go sync.Run(ctx)
		log.Printf("[server] sync loop started with %d adapter(s), interval %s",
			len(adapters), cfg.Sync.Interval())
	} else {
		log.Printf("[server] no source adapters enabled, sync loop disabled")
	}

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("[server] %v", err)
	}

	srv := api.NewServer(*cfg, repo, sync, notifier, repo)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", addr)
		errCh <- srv.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		log.Fatalf("[server] http server: %v", err)
	case <-ctx.Done():
		log.Printf("[server] shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown: %v", err)
		os.Exit(1)
	}
	log.Printf("[server] stopped cleanly")
}
