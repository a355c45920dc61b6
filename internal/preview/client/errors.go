package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ============================================================
// Errors
// ============================================================

// InvalidInputError means the device service could not interpret the SVG.
type InvalidInputError struct {
	Status  int
	Details string
}

func (e *InvalidInputError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("invalid input (status %d)", e.Status)
	}
	return fmt.Sprintf("invalid input (status %d): %s", e.Status, e.Details)
}

// ServiceError covers every other failure, including transport errors (Status 0).
type ServiceError struct {
	Status  int
	Details string
	Err     error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("service unavailable: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("service error (status %d): %v", e.Status, e.Err)
	case e.Details != "":
		return fmt.Sprintf("service error (status %d): %s", e.Status, e.Details)
	default:
		return fmt.Sprintf("service error (status %d)", e.Status)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

type errorBody struct {
	Details string `json:"details"`
}

// statusError maps a non-success response to InvalidInputError or ServiceError.
// The details field is optional; an unreadable body just leaves it empty.
func statusError(status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	if status == http.StatusBadRequest {
		return &InvalidInputError{Status: status, Details: eb.Details}
	}
	return &ServiceError{Status: status, Details: eb.Details}
}
