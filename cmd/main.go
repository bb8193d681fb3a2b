package main

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"gifswap/internal/config"
	"gifswap/internal/core/adapt"
	"gifswap/internal/core/batch"
	"gifswap/internal/core/job"
	"gifswap/internal/core/provider"
	"gifswap/internal/core/swap"
	"gifswap/internal/core/transcode"
	"gifswap/internal/logger"
	rds "gifswap/internal/platform/redis"
	"gifswap/internal/platform/storage"
	tasks "gifswap/internal/platform/tasks"
	"gifswap/internal/server"
	"gifswap/internal/worker"
)

func main() {
	cfg := config.Load()
	log.Printf("[gifswap] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	logr := logger.New("main")

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// Asynq client and server
	taskClient := tasks.New(redisSvc)
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
	})

	// Core services
	jobSvc := job.NewJobService(redisSvc)
	providerClient := provider.NewClient(provider.Config{
		BaseURL:      cfg.ProviderBaseURL,
		Token:        cfg.ProviderToken,
		ModelVersion: cfg.ProviderModelVersion,
		Timeout:      cfg.ProviderTimeout,
	})
	swapSvc := swap.NewService(providerClient, swap.PollOptions{
		Interval:    cfg.PollInterval,
		Timeout:     cfg.PollTimeout,
		MaxAttempts: cfg.MaxPollAttempts,
	})
	orch := batch.NewOrchestrator(swapSvc, cfg.BatchParallelism)
	batchSvc := batch.NewService(jobSvc, taskClient, orch, cfg.TaskMaxRetries)

	storageSvc, err := storage.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	transcoder := transcode.New(cfg.DataDir)
	selector := adapt.NewSelector(transcoder)

	// Worker mux
	mux := worker.NewMux()
	mux.HandleFunc(batch.TaskTypeBatch, batchSvc.HandleTask)

	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName:   "Gifswap Engine",
		BodyLimit: 32 << 20,
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})
	// Serve locally stored artifacts (stickers, optimized GIFs) under /files
	app.Static("/files", cfg.DataDir)

	deps := server.Dependencies{
		Job:      jobSvc,
		Swap:     swapSvc,
		Batch:    batchSvc,
		Selector: selector,
		Storage:  storageSvc,
		Tasks:    taskClient,
		Redis:    redisSvc,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark application as ready after all services are initialized
	go func() {
		time.Sleep(2 * time.Second)
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		asynqServer.Shutdown()
		_ = taskClient.Close()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
