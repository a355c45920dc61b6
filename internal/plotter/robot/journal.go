package robot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"plotbot/internal/plotter/models"
	preview "plotbot/internal/preview/models"
)

// ============================================================
// Journal Plotter
// ============================================================

// Journal records drawings as move/line commands instead of driving hardware.
// Each drawing starts with a "D <n>" header, then every polyline is an "M x y"
// followed by one "L x y" per remaining point.
type Journal struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	surface preview.Surface
	count   int
}

var _ Plotter = (*Journal)(nil)

func NewJournal(w io.Writer, surface preview.Surface) *Journal {
	return &Journal{w: w, surface: surface}
}

// OpenJournal appends to the file at path, creating it if needed.
func OpenJournal(path string, surface preview.Surface) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open device %s: %w", path, err)
	}
	j := NewJournal(f, surface)
	j.closer = f
	return j, nil
}

func (j *Journal) Draw(ctx context.Context, lines []models.Polyline) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.count++
	buf := bufio.NewWriter(j.w)
	fmt.Fprintf(buf, "D %d\n", j.count)

	outside := 0
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i, p := range line {
			if p.X < 0 || p.Y < 0 || p.X > j.surface.Width || p.Y > j.surface.Height {
				outside++
			}
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(buf, "%s %.3f %.3f\n", cmd, p.X, p.Y)
		}
	}
	if outside > 0 {
		log.Printf("[ROBOT] drawing %d: %d points outside the surface", j.count, outside)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Drawings returns how many drawings were recorded.
func (j *Journal) Drawings() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

func (j *Journal) Close() error {
	if j.closer == nil {
		return nil
	}
	return j.closer.Close()
}
