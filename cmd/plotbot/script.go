package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"plotbot/internal/preview/client"
	"plotbot/internal/preview/controller"
	"plotbot/internal/preview/models"
)

// ============================================================
// Command Script
// ============================================================

// session holds what the script commands operate on.
type session struct {
	ctrl   *controller.Controller
	api    *client.Client
	out    io.Writer
	render func(path string) error
}

// runScript executes one command per line. Empty lines and lines starting
// with # are skipped. Execution stops at the first failing command.
func (s *session) runScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := s.exec(ctx, strings.Fields(text)); err != nil {
			return fmt.Errorf("line %d (%s): %w", line, text, err)
		}
	}
	return scanner.Err()
}

func (s *session) exec(ctx context.Context, args []string) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "load":
		if err := want(args, 1); err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return s.ctrl.Load(ctx, string(data))

	case "click":
		nums, err := floats(args, 2)
		if err != nil {
			return err
		}
		state := s.ctrl.PointerDown(nums[0], nums[1])
		fmt.Fprintf(s.out, "state: %s\n", state)
		return nil

	case "drag":
		nums, err := floats(args, 2)
		if err != nil {
			return err
		}
		return s.ctrl.Drag(nums[0], nums[1])

	case "scale":
		nums, err := floats(args, 1)
		if err != nil {
			return err
		}
		return s.ctrl.Scale(nums[0])

	case "handle":
		if len(args) != 3 {
			return fmt.Errorf("usage: handle <name> <dx> <dy>")
		}
		h, ok := controller.ParseHandle(args[0])
		if !ok {
			return fmt.Errorf("unknown handle %q", args[0])
		}
		nums, err := floats(args[1:], 2)
		if err != nil {
			return err
		}
		return s.ctrl.ScaleHandle(h, nums[0], nums[1])

	case "rotate":
		nums, err := floats(args, 1)
		if err != nil {
			return err
		}
		return s.ctrl.Rotate(nums[0])

	case "placement":
		p, err := s.ctrl.Placement()
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "scale_x=%.4f scale_y=%.4f offset_x=%.4f offset_y=%.4f\n", p.ScaleX, p.ScaleY, p.OffsetX, p.OffsetY)
		return nil

	case "handles":
		for _, h := range s.ctrl.Handles() {
			fmt.Fprintf(s.out, "%s %.1f %.1f\n", h.Handle, h.At.X, h.At.Y)
		}
		return nil

	case "submit":
		mode := models.ModeOnce
		if len(args) > 0 {
			mode = models.PrintMode(args[0])
		}
		return s.ctrl.Submit(ctx, mode)

	case "render":
		if err := want(args, 1); err != nil {
			return err
		}
		return s.render(args[0])

	case "list":
		names, err := s.api.ListFiles(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(s.out, name)
		}
		return nil

	case "config":
		cfg, err := s.api.Config(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "listen=%s device=%s svg_dir=%s interval=%ds\n", cfg.Listen, cfg.Device, cfg.SVGDir, cfg.IntervalSeconds)
		if cfg.TimeLimits != nil {
			fmt.Fprintf(s.out, "time limits %s-%s\n", cfg.TimeLimits.StartTime, cfg.TimeLimits.EndTime)
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func want(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

func floats(args []string, n int) ([]float64, error) {
	if err := want(args, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}
