// Package robot owns the plotter. A single goroutine takes print tasks from a
// queue: one-off tasks are drawn right away, scheduled tasks are drawn one
// drawing per interval for as long as they are the current schedule.
package robot

import (
	"context"
	"errors"
	"log"
	"time"

	"plotbot/internal/plotter/models"
)

// ============================================================
// Robot
// ============================================================

var ErrStopped = errors.New("robot is not running")

// Plotter draws polylines given in device units.
type Plotter interface {
	Draw(ctx context.Context, lines []models.Polyline) error
}

type Config struct {
	// TimeLimits restricts scheduled prints. One-off prints ignore it.
	TimeLimits *models.TimeLimits
	// QueueSize is the number of tasks that may wait for the robot.
	QueueSize int
	// OnPrinted is called after every finished drawing of a task with a job id.
	OnPrinted func(ctx context.Context, jobID string)
	Now       func() time.Time
}

type Robot struct {
	plotter Plotter
	cfg     Config
	tasks   chan models.Task
	done    chan struct{}
}

func New(p Plotter, cfg Config) *Robot {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Robot{
		plotter: p,
		cfg:     cfg,
		tasks:   make(chan models.Task, cfg.QueueSize),
		done:    make(chan struct{}),
	}
}

// Submit queues a task. It blocks while the queue is full.
func (r *Robot) Submit(ctx context.Context, task models.Task) error {
	select {
	case r.tasks <- task:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks until ctx is cancelled.
func (r *Robot) Run(ctx context.Context) error {
	defer close(r.done)

	var (
		schedule *models.Task
		next     int
		ticker   *time.Ticker
		tick     <-chan time.Time
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stopTicker()

	log.Printf("[ROBOT] running (time limits: %s)", r.limitsString())
	for {
		select {
		case <-ctx.Done():
			log.Printf("[ROBOT] stopping")
			return ctx.Err()

		case task := <-r.tasks:
			if !task.Scheduled() {
				log.Printf("[ROBOT] printing job %s (%d drawings)", task.JobID, len(task.Drawings))
				for _, drawing := range task.Drawings {
					r.draw(ctx, task.JobID, drawing)
				}
				continue
			}

			stopTicker()
			if len(task.Drawings) == 0 {
				schedule = nil
				continue
			}
			log.Printf("[ROBOT] scheduling job %s every %s (%d drawings)", task.JobID, task.Interval, len(task.Drawings))
			schedule, next = &task, 0
			ticker = time.NewTicker(task.Interval)
			tick = ticker.C
			next = r.scheduled(ctx, schedule, next)

		case <-tick:
			next = r.scheduled(ctx, schedule, next)
		}
	}
}

// scheduled draws drawing i of the schedule if the clock allows it and
// returns the index of the drawing for the next tick.
func (r *Robot) scheduled(ctx context.Context, task *models.Task, i int) int {
	if limits := r.cfg.TimeLimits; limits != nil && !limits.Contains(r.cfg.Now()) {
		log.Printf("[ROBOT] outside time limits %s, skipping", limits)
		return i
	}
	r.draw(ctx, task.JobID, task.Drawings[i])
	return (i + 1) % len(task.Drawings)
}

func (r *Robot) draw(ctx context.Context, jobID string, lines []models.Polyline) {
	if err := r.plotter.Draw(ctx, lines); err != nil {
		log.Printf("[ROBOT] draw failed: %v", err)
		return
	}
	if jobID != "" && r.cfg.OnPrinted != nil {
		r.cfg.OnPrinted(ctx, jobID)
	}
}

func (r *Robot) limitsString() string {
	if r.cfg.TimeLimits == nil {
		return "none"
	}
	return r.cfg.TimeLimits.String()
}
