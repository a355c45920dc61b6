package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"plotbot/internal/plotter/models"
	"plotbot/internal/plotter/repository"
	"plotbot/internal/plotter/service"
	preview "plotbot/internal/preview/models"
)

// ============================================================
// Plotter Handler
// ============================================================

const defaultJobLimit = 20

// JobLister читает историю заданий
type JobLister interface {
	Get(ctx context.Context, id string) (*models.Job, error)
	Recent(ctx context.Context, limit int) ([]models.Job, error)
}

type PlotterHandler struct {
	printer *service.Printer
	store   *service.SVGStore
	jobs    JobLister
	device  preview.DeviceConfig
}

func NewPlotterHandler(printer *service.Printer, store *service.SVGStore, jobs JobLister, device preview.DeviceConfig) *PlotterHandler {
	return &PlotterHandler{
		printer: printer,
		store:   store,
		jobs:    jobs,
		device:  device,
	}
}

func details(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(models.ErrorDetails{Details: msg})
}

// Config отдаёт конфигурацию устройства
func (h *PlotterHandler) Config(c fiber.Ctx) error {
	return c.JSON(h.device)
}

// List возвращает отсортированные имена SVG-файлов из svg_dir
func (h *PlotterHandler) List(c fiber.Ctx) error {
	names, err := h.store.List()
	if err != nil {
		log.Printf("[PLOTTER] list: %v", err)
		return details(c, fiber.StatusInternalServerError, "Could not read files in SVG directory")
	}
	return c.JSON(names)
}

// Preview раскладывает присланный SVG на ломаные
func (h *PlotterHandler) Preview(c fiber.Ctx) error {
	var req models.PreviewRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return details(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}

	lines, err := h.printer.Preview(req.SVG)
	if err != nil {
		log.Printf("[PLOTTER] preview: %v", err)
		return details(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(lines)
}

// Print ставит SVG в очередь с размещением и режимом печати
func (h *PlotterHandler) Print(c fiber.Ctx) error {
	var req models.PrintRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return details(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	log.Printf("[PLOTTER] print requested, mode %q", req.Mode)

	if _, err := h.printer.Print(c.Context(), req); err != nil {
		log.Printf("[PLOTTER] print: %v", err)
		if errors.Is(err, service.ErrInvalidInput) {
			return details(c, fiber.StatusBadRequest, err.Error())
		}
		return details(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Jobs возвращает последние задания, новые первыми. ?limit=N ограничивает число.
func (h *PlotterHandler) Jobs(c fiber.Ctx) error {
	limit := defaultJobLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return details(c, fiber.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	jobs, err := h.jobs.Recent(c.Context(), limit)
	if err != nil {
		log.Printf("[PLOTTER] jobs: %v", err)
		return details(c, fiber.StatusInternalServerError, "Could not read job history")
	}
	return c.JSON(jobs)
}

// Job возвращает задание по id
func (h *PlotterHandler) Job(c fiber.Ctx) error {
	job, err := h.jobs.Get(c.Context(), c.Params("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return details(c, fiber.StatusNotFound, "Job not found")
	case err != nil:
		log.Printf("[PLOTTER] job %s: %v", c.Params("id"), err)
		return details(c, fiber.StatusInternalServerError, "Could not read job history")
	}
	return c.JSON(job)
}

// ============================================================
// Routes
// ============================================================

// Register регистрирует маршруты. Без устройства доступны только /preview/ и health.
func Register(app *fiber.App, h *PlotterHandler, active bool, ready func(ctx context.Context) error) {
	app.Get("/health/live", LivenessProbe)
	app.Get("/health/ready", ReadinessProbe(ready))
	app.Get("/health/startup", StartupProbe)

	app.Post("/preview/", h.Preview)
	if !active {
		return
	}
	app.Get("/config/", h.Config)
	app.Get("/list/", h.List)
	app.Post("/print/", h.Print)
	app.Get("/jobs/", h.Jobs)
	app.Get("/jobs/:id", h.Job)
}
