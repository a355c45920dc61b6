package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	preview "plotbot/internal/preview/models"
)

// ============================================================
// Geometry
// ============================================================

type (
	Point    = preview.Point
	Polyline = preview.Polyline
)

// Bounds is the drawable device area along both axes.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// SurfaceBounds covers the whole device surface.
func SurfaceBounds(s preview.Surface) Bounds {
	return Bounds{MaxX: s.Width, MaxY: s.Height}
}

// Pad shrinks the bounds by p on every side.
func (b Bounds) Pad(p float64) Bounds {
	return Bounds{MinX: b.MinX + p, MaxX: b.MaxX - p, MinY: b.MinY + p, MaxY: b.MaxY - p}
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// ============================================================
// Print Modes
// ============================================================

var ErrUnknownMode = errors.New("unknown print mode")

type PrintMode string

const (
	ModeOnce       PrintMode = "once"
	ModeSchedule5  PrintMode = "schedule5"
	ModeSchedule15 PrintMode = "schedule15"
	ModeSchedule30 PrintMode = "schedule30"
	ModeSchedule60 PrintMode = "schedule60"

	// ModeHeadless labels jobs started from the svg directory at boot.
	// Requests cannot ask for it.
	ModeHeadless PrintMode = "headless"
)

var scheduleIntervals = map[PrintMode]time.Duration{
	ModeSchedule5:  5 * time.Minute,
	ModeSchedule15: 15 * time.Minute,
	ModeSchedule30: 30 * time.Minute,
	ModeSchedule60: 60 * time.Minute,
}

// ParsePrintMode validates a mode name. Names are matched exactly.
func ParsePrintMode(s string) (PrintMode, error) {
	m := PrintMode(s)
	if m == ModeOnce {
		return m, nil
	}
	if _, ok := scheduleIntervals[m]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Task builds the print task for one drawing.
func (m PrintMode) Task(polylines []Polyline) (Task, error) {
	if m == ModeOnce {
		return Task{Drawings: [][]Polyline{polylines}}, nil
	}
	interval, ok := scheduleIntervals[m]
	if !ok {
		return Task{}, fmt.Errorf("%w: %q", ErrUnknownMode, string(m))
	}
	return Task{Interval: interval, Drawings: [][]Polyline{polylines}}, nil
}

// Task is a unit of work for the robot. A zero Interval prints the drawings
// once; otherwise one drawing is printed per tick, cycling through the list.
type Task struct {
	JobID    string
	Mode     PrintMode
	Interval time.Duration
	Drawings [][]Polyline
}

func (t Task) Scheduled() bool { return t.Interval > 0 }

// ============================================================
// Time Limits
// ============================================================

const clockLayout = "15:04"

// TimeLimits restricts scheduled printing to a daily window. The window is
// inclusive on both ends and wraps past midnight when Start is after End.
type TimeLimits struct {
	Start time.Duration
	End   time.Duration
}

// ParseTimeLimits reads a window from two "HH:MM" strings.
func ParseTimeLimits(start, end string) (TimeLimits, error) {
	s, err := parseClock(start)
	if err != nil {
		return TimeLimits{}, fmt.Errorf("start_time: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return TimeLimits{}, fmt.Errorf("end_time: %w", err)
	}
	return TimeLimits{Start: s, End: e}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Contains reports whether the wall-clock time of t falls into the window.
// Only hours and minutes are compared.
func (l TimeLimits) Contains(t time.Time) bool {
	now := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	if l.Start < l.End {
		return now >= l.Start && now <= l.End
	}
	return now >= l.Start || now <= l.End
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func (l TimeLimits) String() string {
	return formatClock(l.Start) + "-" + formatClock(l.End)
}

// Wire returns the JSON form used by the config file and the API.
func (l TimeLimits) Wire() *preview.TimeLimits {
	return &preview.TimeLimits{StartTime: formatClock(l.Start), EndTime: formatClock(l.End)}
}

// ============================================================
// Requests
// ============================================================

type PreviewRequest struct {
	SVG string `json:"svg"`
}

type PrintRequest struct {
	SVG     string    `json:"svg"`
	OffsetX float64   `json:"offset_x"`
	OffsetY float64   `json:"offset_y"`
	ScaleX  float64   `json:"scale_x"`
	ScaleY  float64   `json:"scale_y"`
	Mode    PrintMode `json:"mode"`
}

type ErrorDetails struct {
	Details string `json:"details"`
}

// ============================================================
// Jobs
// ============================================================

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobPrinted JobStatus = "printed"
)

// Job is a persisted print request.
type Job struct {
	ID        string     `json:"id"`
	Mode      PrintMode  `json:"mode"`
	Polylines int        `json:"polylines"`
	Status    JobStatus  `json:"status"`
	Prints    int        `json:"prints"`
	CreatedAt time.Time  `json:"created_at"`
	PrintedAt *time.Time `json:"printed_at,omitempty"`
}
