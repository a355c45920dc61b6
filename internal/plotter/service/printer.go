package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"plotbot/internal/plotter/decomposer"
	"plotbot/internal/plotter/models"
	"plotbot/internal/plotter/scaling"
)

// ============================================================
// Printer
// ============================================================

// ErrInvalidInput marks failures caused by the request rather than the server.
var ErrInvalidInput = errors.New("invalid input")

// HeadlessPadding is the free border, in device units, around headless prints.
const HeadlessPadding = 5.0

// Jobs persists print jobs.
type Jobs interface {
	Create(ctx context.Context, mode models.PrintMode, polylines int) (*models.Job, error)
	MarkPrinted(ctx context.Context, id string) error
}

// Queue accepts tasks for the plotter.
type Queue interface {
	Submit(ctx context.Context, task models.Task) error
}

// Printer turns print requests into robot tasks.
type Printer struct {
	jobs      Jobs
	queue     Queue
	tolerance float64
}

func NewPrinter(jobs Jobs, queue Queue) *Printer {
	return &Printer{jobs: jobs, queue: queue, tolerance: decomposer.Tolerance}
}

// Preview decomposes svg without touching the queue.
func (p *Printer) Preview(svg string) ([]models.Polyline, error) {
	return Decompose(svg, p.tolerance)
}

// Decompose parses svg, marking parse failures as invalid input. A valid
// document without shapes yields an empty, non-nil result.
func Decompose(svg string, tolerance float64) ([]models.Polyline, error) {
	lines, err := decomposer.Parse(svg, tolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if lines == nil {
		lines = []models.Polyline{}
	}
	return lines, nil
}

// Print decomposes the request's SVG, maps it onto the device with the
// requested placement and queues it.
func (p *Printer) Print(ctx context.Context, req models.PrintRequest) (*models.Job, error) {
	mode, err := models.ParsePrintMode(string(req.Mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	lines, err := p.Preview(req.SVG)
	if err != nil {
		return nil, err
	}
	scaling.ScalePolylines(lines,
		models.Point{X: req.OffsetX, Y: req.OffsetY},
		models.Point{X: req.ScaleX, Y: req.ScaleY},
	)

	task, err := mode.Task(lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	job, err := p.jobs.Create(ctx, mode, len(lines))
	if err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}
	task.JobID, task.Mode = job.ID, mode

	if err := p.queue.Submit(ctx, task); err != nil {
		return nil, fmt.Errorf("queue job: %w", err)
	}
	log.Printf("[PLOTTER] queued job %s (%s, %d polylines)", job.ID, mode, len(lines))
	return job, nil
}

// Printed is the robot's completion hook.
func (p *Printer) Printed(ctx context.Context, jobID string) {
	if err := p.jobs.MarkPrinted(ctx, jobID); err != nil {
		log.Printf("[PLOTTER] mark job %s printed: %v", jobID, err)
	}
}

// StartHeadless fits every file of store into the padded surface and
// schedules them together, one drawing per interval.
func (p *Printer) StartHeadless(ctx context.Context, store *SVGStore, bounds models.Bounds, interval time.Duration) (*models.Job, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("headless interval must be positive, got %s", interval)
	}
	files, names, err := store.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no SVG files found in %s", store.Root())
	}

	bounds = bounds.Pad(HeadlessPadding)
	task := models.Task{Interval: interval}
	total := 0
	for _, name := range names {
		lines, err := p.Preview(files[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := scaling.FitPolylines(lines, bounds); err != nil {
			return nil, fmt.Errorf("%s: scale: %w", name, err)
		}
		task.Drawings = append(task.Drawings, lines)
		total += len(lines)
	}

	job, err := p.jobs.Create(ctx, models.ModeHeadless, total)
	if err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}
	task.JobID, task.Mode = job.ID, models.ModeHeadless

	if err := p.queue.Submit(ctx, task); err != nil {
		return nil, fmt.Errorf("queue job: %w", err)
	}
	log.Printf("[PLOTTER] headless: scheduled %d files every %s", len(names), interval)
	return job, nil
}
