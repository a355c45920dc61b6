package controller

import (
	"errors"
	"fmt"
	"log"

	"plotbot/internal/preview/client"
	"plotbot/internal/preview/models"
)

// ============================================================
// Notifications
// ============================================================

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notifier shows messages to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, msg string)

func (f NotifierFunc) Notify(level Level, msg string) { f(level, msg) }

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(level Level, msg string) {
	log.Printf("[PREVIEW] %s: %s", level, msg)
}

const (
	msgNoObject = "No object loaded"
	msgNothing  = "Nothing to preview"
)

// describeError turns a client error into the message shown to the user,
// telling an invalid file apart from an unavailable service.
func describeError(action string, err error) string {
	var invalid *client.InvalidInputError
	if errors.As(err, &invalid) {
		if invalid.Details != "" {
			return fmt.Sprintf("%s: invalid SVG file (HTTP %d): %s", action, invalid.Status, invalid.Details)
		}
		return fmt.Sprintf("%s: invalid SVG file (HTTP %d)", action, invalid.Status)
	}

	var svcErr *client.ServiceError
	if errors.As(err, &svcErr) {
		switch {
		case svcErr.Status == 0:
			return fmt.Sprintf("%s: service unavailable", action)
		case svcErr.Details != "":
			return fmt.Sprintf("%s: service error (HTTP %d): %s", action, svcErr.Status, svcErr.Details)
		default:
			return fmt.Sprintf("%s: service error (HTTP %d)", action, svcErr.Status)
		}
	}

	return fmt.Sprintf("%s: %v", action, err)
}

func describeSubmitted(mode models.PrintMode) string {
	if mode == models.ModeOnce {
		return "Printing..."
	}
	return fmt.Sprintf("Scheduled (%s)", mode)
}
