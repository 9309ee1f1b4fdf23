package domain

import (
	"errors"
	"strings"
)

var (
	// ErrDestroyed is returned by operations on an adapter that reached StateDestroyed.
	ErrDestroyed = errors.New("video adapter destroyed")
	// ErrHookDestroyed is returned when a DRM hook is destroyed while preparing.
	ErrHookDestroyed = errors.New("hook destroyed while preparing")
)

// UnsupportedFeature reports a capability the device cannot provide.
type UnsupportedFeature struct {
	Feature string
}

func (e *UnsupportedFeature) Error() string {
	return e.Feature + " is not supported"
}

func NewUnsupportedFeature(feature string) *UnsupportedFeature {
	return &UnsupportedFeature{Feature: feature}
}

// PlaybackError is a normalized vendor failure. Any of the fields may be
// empty; Error joins the ones that are present.
type PlaybackError struct {
	Name    string
	Code    string
	Message string
	Err     error
}

func (e *PlaybackError) Error() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Name, e.Code, e.Message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// AsPlaybackError normalizes any error into a PlaybackError without
// losing the original in the chain.
func AsPlaybackError(err error) *PlaybackError {
	if err == nil {
		return nil
	}
	var pErr *PlaybackError
	if errors.As(err, &pErr) {
		return pErr
	}
	var unsupported *UnsupportedFeature
	if errors.As(err, &unsupported) {
		return &PlaybackError{Name: "UnsupportedFeature", Message: unsupported.Error(), Err: err}
	}
	return &PlaybackError{Message: err.Error(), Err: err}
}

// ToolError is the error shape returned to host bridge callers.
type ToolError struct {
	Code           string         `json:"code"`
	Message        string         `json:"message"`
	Limitations    []Limitation   `json:"limitations,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}
