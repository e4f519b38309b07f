package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrStorage       = errors.New("storage error")
)

// Error kinds recorded on failed jobs.
const (
	KindConfig   = "config"
	KindNotFound = "not_found"
	KindStage    = "stage"
	KindTimeout  = "timeout"
	KindStorage  = "storage"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above; nil defaults to ErrExternalTool.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return KindConfig
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindStage
	}
}

// IsStageFailure reports whether err describes a failed render stage as opposed
// to a degraded tracking store.
func IsStageFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrStorage)
}

// ErrorDetails is the diagnostic record persisted on a failed job.
type ErrorDetails struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Details flattens err into an ErrorDetails value. stage is the pipeline stage
// that was running when the error surfaced.
func Details(stage string, err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	full := err.Error()
	message := stripMarker(full)
	if root := rootCause(err); root != nil && root != err {
		message = stripMarker(root.Error())
	}
	return ErrorDetails{
		Kind:    Kind(err),
		Stage:   strings.TrimSpace(stage),
		Message: message,
		Detail:  full,
	}
}

func rootCause(err error) error {
	for {
		var next error
		switch x := err.(type) {
		case interface{ Unwrap() []error }:
			// fewer than two entries leaves no distinct cause
			errs := x.Unwrap()
			if len(errs) < 2 {
				return err
			}
			next = errs[len(errs)-1]
		case interface{ Unwrap() error }:
			next = x.Unwrap()
		}
		if next == nil || isMarker(next) {
			return err
		}
		err = next
	}
}

var markers = []error{ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound, ErrTimeout, ErrStorage}

func isMarker(err error) bool {
	for _, marker := range markers {
		if err == marker {
			return true
		}
	}
	return false
}

// stripMarker drops a leading marker text such as "configuration error: ".
func stripMarker(text string) string {
	for _, marker := range markers {
		if trimmed, ok := strings.CutPrefix(text, marker.Error()+": "); ok {
			return trimmed
		}
	}
	return text
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
