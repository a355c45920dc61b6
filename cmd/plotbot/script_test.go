package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"plotbot/internal/preview/client"
	"plotbot/internal/preview/controller"
	"plotbot/internal/preview/models"
	"plotbot/internal/preview/surface"
	"plotbot/internal/preview/surface/scenegraph"
)

type stubService struct {
	mu     sync.Mutex
	prints []map[string]any
}

func (s *stubService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/preview/":
		json.NewEncoder(w).Encode(models.PolylineSet{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}})
	case "/print/":
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.prints = append(s.prints, body)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case "/list/":
		json.NewEncoder(w).Encode([]string{"a.svg", "b.svg"})
	default:
		http.NotFound(w, r)
	}
}

func newSession(t *testing.T) (*session, *stubService, *bytes.Buffer) {
	t.Helper()
	stub := &stubService{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	surf := scenegraph.New(surface.DefaultOptions())
	api := client.New(srv.URL, srv.Client())
	var out bytes.Buffer
	s := &session{
		ctrl:   controller.New(surf, api, api, controller.LogNotifier{}),
		api:    api,
		out:    &out,
		render: func(path string) error { return renderTo(surf, path) },
	}
	return s, stub, &out
}

func TestScriptMovesAndSubmits(t *testing.T) {
	s, stub, out := newSession(t)
	dir := t.TempDir()
	svgPath := filepath.Join(dir, "tri.svg")
	if err := os.WriteFile(svgPath, []byte("<svg/>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pngPath := filepath.Join(dir, "preview.png")

	script := strings.Join([]string{
		"# place the triangle",
		"load " + svgPath,
		"click 400 100",
		"drag 30 -6",
		"placement",
		"render " + pngPath,
		"submit schedule15",
		"list",
	}, "\n")
	if err := s.runScript(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("script error: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "state: selected") {
		t.Fatalf("selection not reported:\n%s", got)
	}
	if !strings.Contains(got, "offset_x=132.5000 offset_y=3.0000") {
		t.Fatalf("unexpected placement output:\n%s", got)
	}
	if !strings.Contains(got, "a.svg\nb.svg\n") {
		t.Fatalf("listing missing:\n%s", got)
	}
	if info, err := os.Stat(pngPath); err != nil || info.Size() == 0 {
		t.Fatalf("preview not rendered: %v", err)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if len(stub.prints) != 1 || stub.prints[0]["mode"] != "schedule15" {
		t.Fatalf("unexpected print requests %v", stub.prints)
	}
}

func TestScriptStopsAtFirstError(t *testing.T) {
	s, stub, _ := newSession(t)

	err := s.runScript(context.Background(), strings.NewReader("drag 1 1\nsubmit once\n"))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected error on line 1, got %v", err)
	}
	if len(stub.prints) != 0 {
		t.Fatalf("commands after the failure must not run")
	}

	for _, bad := range []string{"warp 1", "drag x 1", "handle middle 1 1", "load"} {
		if err := s.runScript(context.Background(), strings.NewReader(bad)); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
