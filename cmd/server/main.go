package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/SophieEDesign/fibi-lifecycle/internal/api"
	"github.com/SophieEDesign/fibi-lifecycle/internal/config"
	"github.com/SophieEDesign/fibi-lifecycle/internal/mailer"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/distlock"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/logger"
	"github.com/SophieEDesign/fibi-lifecycle/internal/repository/postgres"
	"github.com/SophieEDesign/fibi-lifecycle/internal/scheduler"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

// runLockTTL bounds how long a crashed run can hold the Redis lock.
const runLockTTL = 10 * time.Minute

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url is required (or set DATABASE_URL)")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("ping database: %v", err)
	}
	cancel()

	// Redis is optional; without it the run lock uses PG advisory locks.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, run lock falls back to PG advisory locks", "error", err.Error())
			redisClient = nil
		}
		cancel()
	}

	sender, err := mailer.NewSESSender(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, cfg.SES.Timeout())
	if err != nil {
		log.Fatalf("init SES sender: %v", err)
	}

	userRepo := postgres.NewUserRepo(db)
	ruleRepo := postgres.NewRuleRepo(db)
	templateRepo := postgres.NewTemplateRepo(db)
	sendLogRepo := postgres.NewSendLogRepo(db)
	runRepo := postgres.NewRunRepo(db)

	exec := lifecycle.NewExecutor(userRepo, ruleRepo, templateRepo, sendLogRepo, sender, cfg.Mail.FromAddress)
	audit := lifecycle.NewAuditor(runRepo)
	runner := lifecycle.NewRunner(exec, audit, func() distlock.DistLock {
		return distlock.NewLock(redisClient, db, "lifecycle-run", runLockTTL)
	})

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(runner, cfg.Scheduler.Cron)
		if err := sched.Start(); err != nil {
			log.Fatalf("start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	handlers := api.NewHandlers(runner, ruleRepo, templateRepo, runRepo)
	router := api.SetupRoutes(handlers, cfg.Auth)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 320 * time.Second, // must outlast the 300s admin run timeout
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err.Error())
	}
}
