package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/fleetwatch/internal/api"
	"github.com/ignite/fleetwatch/internal/autosync"
	"github.com/ignite/fleetwatch/internal/classifier/llm"
	"github.com/ignite/fleetwatch/internal/config"
	"github.com/ignite/fleetwatch/internal/eventbus"
	"github.com/ignite/fleetwatch/internal/mailprovider"
	"github.com/ignite/fleetwatch/internal/pipeline"
	"github.com/ignite/fleetwatch/internal/pkg/distlock"
	"github.com/ignite/fleetwatch/internal/repository/postgres"
	"github.com/ignite/fleetwatch/internal/scanner"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

// buildLLMClassifier selects a transport per the documented rule: an
// explicit llm_api_base means an OpenAI-compatible endpoint; otherwise,
// fall back to AWS Bedrock. An empty llm_api_key with an empty llm_api_base
// disables the AI tier entirely (the pipeline degrades to rules + manual).
func buildLLMClassifier(ctx context.Context, cfg config.LLMConfig) *llm.Classifier {
	if cfg.APIBase != "" {
		if cfg.APIKey == "" {
			log.Println("llm: llm_api_base set but llm_api_key is empty, disabling AI tier")
			return nil
		}
		log.Printf("llm: using OpenAI-compatible transport at %s (model=%s)", cfg.APIBase, cfg.Model)
		return llm.New(llm.NewOpenAITransport(cfg.APIBase, cfg.APIKey, cfg.Model))
	}

	transport, err := llm.NewBedrockTransport(ctx, cfg.BedrockRegion, cfg.BedrockModelID)
	if err != nil {
		log.Printf("llm: bedrock transport unavailable, disabling AI tier: %v", err)
		return nil
	}
	log.Printf("llm: using AWS Bedrock transport (region=%s, model=%s)", cfg.BedrockRegion, cfg.BedrockModelID)
	return llm.New(transport)
}

func main() {
	log.Println("========================================")
	log.Println(" fleetwatch server (cmd/server/main.go)")
	log.Println("========================================")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("pre-flight check FAILED: %v", err)
	}
	log.Printf("pre-flight check passed: port %d is available", port)

	if cfg.Storage.DatabaseURL == "" {
		log.Fatal("storage.database_url (or DATABASE_URL) is required")
	}
	db, err := sql.Open("postgres", cfg.Storage.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("database ping failed: %v", err)
	}
	pingCancel()
	log.Println("database connected")

	var redisClient *redis.Client
	if cfg.Storage.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisURL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("redis connection failed (%v) — falling back to PG advisory locks", err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Println("redis connected: distributed locking enabled")
		}
		pingCancel()
	} else {
		log.Println("storage.redis_url not set — using PG advisory locks for distributed locking")
	}

	inboxes := postgres.NewInboxRepo(db)
	portalUsers := postgres.NewPortalUserRepo(db)
	classifications := postgres.NewClassificationRepo(db)
	alerts := postgres.NewAlertRepo(db)
	scanLogs := postgres.NewScanLogRepo(db)

	mail := mailprovider.NewClient(cfg.Mail.APIBase, cfg.Mail.APIKey)
	llmClassifier := buildLLMClassifier(ctx, cfg.LLM)
	pl := pipeline.New(classifications, llmClassifier, cfg.Scanner.PipelineMaxConcurrent, cfg.Scanner.RulesVersion())
	bus := eventbus.New()
	lock := distlock.NewLock(redisClient, db, "fleetwatch:scan", 5*time.Minute)

	orchestrator := scanner.New(mail, inboxes, portalUsers, classifications, alerts, scanLogs, pl, bus, lock, cfg.Scanner.BatchSize)

	sync := autosync.New(orchestrator, cfg.Autosync.Interval())
	sync.Start()

	handlers := api.NewHandlers(bus, orchestrator)
	server := api.NewServer(cfg.Server, handlers)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	log.Println("fleetwatch is ready")

	<-done
	log.Println("shutting down...")

	sync.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()

	log.Println("server stopped")
}
