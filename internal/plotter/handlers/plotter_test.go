package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"plotbot/internal/plotter/models"
	"plotbot/internal/plotter/repository"
	"plotbot/internal/plotter/service"
	preview "plotbot/internal/preview/models"
)

type fakeJobs struct {
	jobs []models.Job
}

func (f *fakeJobs) Create(ctx context.Context, mode models.PrintMode, polylines int) (*models.Job, error) {
	job := models.Job{ID: "job-1", Mode: mode, Polylines: polylines, Status: models.JobQueued}
	f.jobs = append([]models.Job{job}, f.jobs...)
	return &job, nil
}

func (f *fakeJobs) MarkPrinted(ctx context.Context, id string) error { return nil }

func (f *fakeJobs) Get(ctx context.Context, id string) (*models.Job, error) {
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			return &f.jobs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
}

func (f *fakeJobs) Recent(ctx context.Context, limit int) ([]models.Job, error) {
	if limit < len(f.jobs) {
		return f.jobs[:limit], nil
	}
	return f.jobs, nil
}

type fakeQueue struct {
	tasks []models.Task
	err   error
}

func (q *fakeQueue) Submit(ctx context.Context, task models.Task) error {
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

type fixture struct {
	app   *fiber.App
	jobs  *fakeJobs
	queue *fakeQueue
	dir   string
}

func newFixture(t *testing.T, active bool, ready func(context.Context) error) *fixture {
	t.Helper()
	dir := t.TempDir()
	jobs, queue := &fakeJobs{}, &fakeQueue{}
	device := preview.DeviceConfig{Listen: "127.0.0.1:8080", Device: "/dev/null", SVGDir: dir, IntervalSeconds: 60}

	app := fiber.New()
	h := NewPlotterHandler(service.NewPrinter(jobs, queue), service.NewSVGStore(dir), jobs, device)
	Register(app, h, active, ready)
	return &fixture{app: app, jobs: jobs, queue: queue, dir: dir}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(data)
}

func TestPreviewReturnsPolylines(t *testing.T) {
	f := newFixture(t, true, nil)
	body, _ := json.Marshal(models.PreviewRequest{SVG: `<svg><path d="M0 0 L3 4"/></svg>`})

	resp, out := f.do(t, http.MethodPost, "/preview/", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, out)
	}
	var lines []models.Polyline
	if err := json.Unmarshal([]byte(out), &lines); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lines) != 1 || len(lines[0]) != 2 || lines[0][1] != (models.Point{X: 3, Y: 4}) {
		t.Fatalf("unexpected polylines %v", lines)
	}
}

func TestPreviewErrors(t *testing.T) {
	f := newFixture(t, true, nil)

	resp, out := f.do(t, http.MethodPost, "/preview/", `{"svg": "<html/>"}`)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(out, `"details"`) {
		t.Fatalf("expected 400 with details, got %d: %s", resp.StatusCode, out)
	}
	resp, _ = f.do(t, http.MethodPost, "/preview/", `{"svg":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken json, got %d", resp.StatusCode)
	}
}

func TestPrintQueuesJob(t *testing.T) {
	f := newFixture(t, true, nil)
	body := `{"svg": "<svg><path d=\"M0 0 L1 1\"/></svg>", "offset_x": 10, "offset_y": 5, "scale_x": 2, "scale_y": 2, "mode": "once"}`

	resp, out := f.do(t, http.MethodPost, "/print/", body)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, out)
	}
	if len(f.queue.tasks) != 1 {
		t.Fatalf("expected one queued task, got %d", len(f.queue.tasks))
	}
	if p := f.queue.tasks[0].Drawings[0][0][1]; p != (models.Point{X: 12, Y: 7}) {
		t.Fatalf("placement not applied: %v", p)
	}

	resp, out = f.do(t, http.MethodGet, "/jobs/?limit=5", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(out, `"job-1"`) {
		t.Fatalf("job not listed: %d %s", resp.StatusCode, out)
	}

	resp, out = f.do(t, http.MethodGet, "/jobs/job-1", "")
	var job models.Job
	if err := json.Unmarshal([]byte(out), &job); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected job response %d: %s", resp.StatusCode, out)
	}
	if job.ID != "job-1" || job.Mode != models.ModeOnce || job.Status != models.JobQueued {
		t.Fatalf("unexpected job %+v", job)
	}

	resp, out = f.do(t, http.MethodGet, "/jobs/missing", "")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(out, `"details"`) {
		t.Fatalf("expected 404 for unknown job, got %d: %s", resp.StatusCode, out)
	}
}

func TestPrintErrors(t *testing.T) {
	f := newFixture(t, true, nil)

	resp, _ := f.do(t, http.MethodPost, "/print/", `{"svg": "<svg/>", "mode": "weekly"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", resp.StatusCode)
	}

	f.queue.err = errors.New("robot gone")
	resp, out := f.do(t, http.MethodPost, "/print/", `{"svg": "<svg/>", "mode": "once", "scale_x": 1, "scale_y": 1}`)
	if resp.StatusCode != http.StatusInternalServerError || !strings.Contains(out, "robot gone") {
		t.Fatalf("expected 500 with details, got %d: %s", resp.StatusCode, out)
	}

	resp, _ = f.do(t, http.MethodGet, "/jobs/?limit=zero", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestConfigAndList(t *testing.T) {
	f := newFixture(t, true, nil)
	for _, name := range []string{"b.svg", "a.svg", "c.txt"} {
		if err := os.WriteFile(filepath.Join(f.dir, name), []byte("<svg/>"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	resp, out := f.do(t, http.MethodGet, "/list/", "")
	if resp.StatusCode != http.StatusOK || out != `["a.svg","b.svg"]` {
		t.Fatalf("unexpected listing %d: %s", resp.StatusCode, out)
	}

	resp, out = f.do(t, http.MethodGet, "/config/", "")
	var cfg preview.DeviceConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected config response %d: %s", resp.StatusCode, out)
	}
	if cfg.IntervalSeconds != 60 || cfg.Device != "/dev/null" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestPreviewOnlyMode(t *testing.T) {
	f := newFixture(t, false, nil)

	resp, _ := f.do(t, http.MethodPost, "/preview/", `{"svg": "<svg/>"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview must stay available, got %d", resp.StatusCode)
	}
	for _, path := range []string{"/config/", "/list/"} {
		resp, _ := f.do(t, http.MethodGet, path, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s should not be served, got %d", path, resp.StatusCode)
		}
	}
	resp, _ = f.do(t, http.MethodPost, "/print/", `{}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("/print/ should not be served, got %d", resp.StatusCode)
	}
}

func TestHealthProbes(t *testing.T) {
	down := errors.New("db closed")
	f := newFixture(t, true, func(context.Context) error { return down })

	resp, _ := f.do(t, http.MethodGet, "/health/live", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("liveness failed: %d", resp.StatusCode)
	}
	resp, out := f.do(t, http.MethodGet, "/health/ready", "")
	if resp.StatusCode != http.StatusServiceUnavailable || !strings.Contains(out, "db closed") {
		t.Fatalf("expected 503, got %d: %s", resp.StatusCode, out)
	}

	resp, _ = newFixture(t, true, nil).do(t, http.MethodGet, "/health/ready", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ready, got %d", resp.StatusCode)
	}
}
