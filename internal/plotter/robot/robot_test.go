package robot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"plotbot/internal/plotter/models"
	preview "plotbot/internal/preview/models"
)

type recordingPlotter struct {
	mu    sync.Mutex
	drawn [][]models.Polyline
	ch    chan struct{}
}

func newRecordingPlotter() *recordingPlotter {
	return &recordingPlotter{ch: make(chan struct{}, 64)}
}

func (p *recordingPlotter) Draw(ctx context.Context, lines []models.Polyline) error {
	p.mu.Lock()
	p.drawn = append(p.drawn, lines)
	p.mu.Unlock()
	select {
	case p.ch <- struct{}{}:
	default:
	}
	return nil
}

func (p *recordingPlotter) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for drawing %d", i+1)
		}
	}
}

func drawing(x float64) []models.Polyline {
	return []models.Polyline{{{X: x, Y: 0}, {X: x, Y: 1}}}
}

func start(t *testing.T, p Plotter, cfg Config) *Robot {
	t.Helper()
	r := New(p, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errs
	})
	return r
}

func TestOnceTaskIsDrawnAndReported(t *testing.T) {
	p := newRecordingPlotter()
	var (
		mu      sync.Mutex
		printed []string
	)
	r := start(t, p, Config{OnPrinted: func(_ context.Context, id string) {
		mu.Lock()
		printed = append(printed, id)
		mu.Unlock()
	}})

	task := models.Task{JobID: "job-1", Drawings: [][]models.Polyline{drawing(1)}}
	if err := r.Submit(context.Background(), task); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	p.wait(t, 1)

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(printed)
		mu.Unlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(printed) != 1 || printed[0] != "job-1" {
		t.Fatalf("unexpected printed hooks %v", printed)
	}
}

func TestScheduledTaskCyclesDrawings(t *testing.T) {
	p := newRecordingPlotter()
	r := start(t, p, Config{})

	task := models.Task{
		Interval: 5 * time.Millisecond,
		Drawings: [][]models.Polyline{drawing(1), drawing(2)},
	}
	if err := r.Submit(context.Background(), task); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	p.wait(t, 3)

	p.mu.Lock()
	defer p.mu.Unlock()
	xs := []float64{p.drawn[0][0][0].X, p.drawn[1][0][0].X, p.drawn[2][0][0].X}
	if xs[0] != 1 || xs[1] != 2 || xs[2] != 1 {
		t.Fatalf("drawings not cycled in order: %v", xs)
	}
}

func TestTimeLimitsSkipScheduledButNotOnce(t *testing.T) {
	limits, _ := models.ParseTimeLimits("08:00", "09:00")
	noon := func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	p := newRecordingPlotter()
	r := start(t, p, Config{TimeLimits: &limits, Now: noon})
	ctx := context.Background()

	scheduled := models.Task{Interval: 2 * time.Millisecond, Drawings: [][]models.Polyline{drawing(1)}}
	if err := r.Submit(ctx, scheduled); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	p.mu.Lock()
	n := len(p.drawn)
	p.mu.Unlock()
	if n != 0 {
		t.Fatalf("scheduled task printed outside time limits %d times", n)
	}

	if err := r.Submit(ctx, models.Task{Drawings: [][]models.Polyline{drawing(3)}}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	p.wait(t, 1)
}

func TestSubmitAfterStop(t *testing.T) {
	r := New(newRecordingPlotter(), Config{QueueSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	r.tasks <- models.Task{}
	if err := r.Submit(context.Background(), models.Task{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestJournalFormat(t *testing.T) {
	var buf bytes.Buffer
	j := NewJournal(&buf, preview.DefaultSurface)

	lines := []models.Polyline{
		{{X: 1, Y: 2}, {X: 3.5, Y: 4}},
		{{X: 400, Y: 0}},
	}
	if err := j.Draw(context.Background(), lines); err != nil {
		t.Fatalf("Draw error: %v", err)
	}
	want := "D 1\nM 1.000 2.000\nL 3.500 4.000\nM 400.000 0.000\n"
	if buf.String() != want {
		t.Fatalf("unexpected journal:\n%s", buf.String())
	}
	if j.Drawings() != 1 {
		t.Fatalf("expected 1 drawing, got %d", j.Drawings())
	}
}

func TestOpenJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device")
	for i := 0; i < 2; i++ {
		j, err := OpenJournal(path, preview.DefaultSurface)
		if err != nil {
			t.Fatalf("OpenJournal error: %v", err)
		}
		if err := j.Draw(context.Background(), drawing(1)); err != nil {
			t.Fatalf("Draw error: %v", err)
		}
		j.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if strings.Count(string(data), "D 1\n") != 2 {
		t.Fatalf("expected two appended drawings, got:\n%s", data)
	}
}
