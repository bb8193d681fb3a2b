package server

import (
	"gifswap/internal/core/adapt"
	"gifswap/internal/core/batch"
	"gifswap/internal/core/job"
	"gifswap/internal/core/swap"
	"gifswap/internal/health"
	"gifswap/internal/platform/redis"
	"gifswap/internal/platform/storage"
	tasks "gifswap/internal/platform/tasks"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Job      *job.JobService
	Swap     *swap.Service
	Batch    *batch.Service
	Selector *adapt.Selector
	Storage  *storage.Service
	Tasks    *tasks.Client
	Redis    *redis.Service
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	healthHandler := health.NewHealthHandler(d.Redis)
	app.Get("/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/api")

	swapHandler := swap.NewHandler(d.Swap)
	api.Post("/swap", swapHandler.HandleCreate)
	api.Get("/swap/status/:predictionId", swapHandler.HandleStatus)

	batchHandler := batch.NewHandler(d.Job, d.Batch)
	api.Post("/batch", batchHandler.HandleCreate)
	api.Get("/batch/:jobId", batchHandler.HandleGet)

	adaptHandler := adapt.NewHandler(d.Selector, d.Storage)
	api.Post("/optimize-gif", adaptHandler.HandleOptimize)
	api.Post("/optimize-gif-original", adaptHandler.HandleOptimizeOriginal)
	api.Post("/create-sticker", adaptHandler.HandleCreateSticker)
	api.Post("/adapt", adaptHandler.HandleAdapt)
	api.Get("/download-gif", adaptHandler.HandleDownload)

	return healthHandler
}
