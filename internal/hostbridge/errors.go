package hostbridge

import (
	"context"
	"errors"

	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/loop"
	"go2tv.app/tizenbridge/internal/tasks"
	"go2tv.app/tizenbridge/internal/video"
)

// Tool error codes returned to the host.
const (
	CodeUnsupportedFeature = "UNSUPPORTED_FEATURE"
	CodePlaybackError      = "PLAYBACK_ERROR"
	CodeInvalidState       = "INVALID_STATE"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeToolNotFound       = "TOOL_NOT_FOUND"
)

var invalidStateErrors = []error{
	video.ErrInvalidTransition,
	video.ErrTransitionConflict,
	video.ErrStopped,
	domain.ErrDestroyed,
	loop.ErrClosed,
	tasks.ErrClosed,
	tasks.ErrSuperseded,
}

// toolError maps an adapter error onto the host error shape.
func toolError(err error) *domain.ToolError {
	var tErr *domain.ToolError
	if errors.As(err, &tErr) && tErr != nil {
		return tErr
	}

	var unsupported *domain.UnsupportedFeature
	if errors.As(err, &unsupported) {
		return &domain.ToolError{
			Code:    CodeUnsupportedFeature,
			Message: unsupported.Error(),
			Details: map[string]any{"feature": unsupported.Feature},
		}
	}

	for _, target := range invalidStateErrors {
		if errors.Is(err, target) {
			return &domain.ToolError{Code: CodeInvalidState, Message: err.Error()}
		}
	}

	var pErr *domain.PlaybackError
	if errors.As(err, &pErr) {
		details := map[string]any{}
		if pErr.Name != "" {
			details["name"] = pErr.Name
		}
		if pErr.Code != "" {
			details["code"] = pErr.Code
		}
		return &domain.ToolError{Code: CodePlaybackError, Message: pErr.Error(), Details: details}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ToolError{
			Code:           CodePlaybackError,
			Message:        err.Error(),
			SuggestedFixes: []string{"Check that the renderer is powered on and reachable."},
		}
	}

	return &domain.ToolError{Code: CodeInternalError, Message: err.Error()}
}

func toolErrorResult(tErr *domain.ToolError) toolCallResult {
	body := map[string]any{
		"code":    tErr.Code,
		"message": tErr.Message,
	}
	if len(tErr.Limitations) > 0 {
		body["limitations"] = tErr.Limitations
	}
	if len(tErr.SuggestedFixes) > 0 {
		body["suggested_fixes"] = tErr.SuggestedFixes
	}
	if len(tErr.Details) > 0 {
		body["details"] = tErr.Details
	}
	return toolCallResult{
		Content:           []textContent{{Type: "text", Text: tErr.Error()}},
		StructuredContent: map[string]any{"error": body},
		IsError:           true,
	}
}
