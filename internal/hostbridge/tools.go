package hostbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/video"
)

const (
	defaultDiscoveryTimeoutMS = 5000
	minDiscoveryTimeoutMS     = 100
)

var errInvalidParams = errors.New("invalid params")

type toolHandler func(ctx context.Context, args json.RawMessage) (toolCallResult, error)

func (s *Server) handlers() map[string]toolHandler {
	return map[string]toolHandler{
		"prepare_and_play": s.prepareAndPlay,
		"pause":            s.simple("Playback paused.", func(ctx context.Context, c Controller) error { return c.Pause(ctx) }),
		"resume":           s.simple("Playback resumed.", func(ctx context.Context, c Controller) error { return c.Resume(ctx) }),
		"stop":             s.simple("Playback stopped.", func(ctx context.Context, c Controller) error { return c.Stop(ctx) }),
		"seek":             s.seek,
		"set_volume":       s.setVolume,
		"get_status":       s.getStatus,
		"set_visibility":   s.setVisibility,
		"list_renderers":   s.listRenderers,
	}
}

func (s *Server) requireController() (Controller, error) {
	if s.controller == nil {
		return nil, errors.New("video adapter is not configured")
	}
	return s.controller, nil
}

func (s *Server) simple(text string, fn func(context.Context, Controller) error) toolHandler {
	return func(ctx context.Context, args json.RawMessage) (toolCallResult, error) {
		if err := decodeStrict(args, &struct{}{}); err != nil {
			return toolCallResult{}, errInvalidParams
		}
		c, err := s.requireController()
		if err != nil {
			return toolCallResult{}, err
		}
		if err := fn(ctx, c); err != nil {
			return toolCallResult{}, err
		}
		return s.statusResult(ctx, c, text)
	}
}

func (s *Server) prepareAndPlay(ctx context.Context, raw json.RawMessage) (toolCallResult, error) {
	var args struct {
		URL             string `json:"url"`
		StartPositionMS *int   `json:"start_position_ms,omitempty"`
		Is4K            bool   `json:"is_4k,omitempty"`
		Is8K            bool   `json:"is_8k,omitempty"`
	}
	if err := decodeStrict(raw, &args); err != nil {
		return toolCallResult{}, errInvalidParams
	}
	args.URL = strings.TrimSpace(args.URL)
	if u, err := url.ParseRequestURI(args.URL); err != nil || u.Host == "" {
		return toolCallResult{}, errInvalidParams
	}
	if args.StartPositionMS != nil && *args.StartPositionMS < 0 {
		return toolCallResult{}, errInvalidParams
	}

	c, err := s.requireController()
	if err != nil {
		return toolCallResult{}, err
	}
	if err := c.Play(ctx, args.URL, video.PrepareOptions{
		Is4K:          args.Is4K,
		Is8K:          args.Is8K,
		StartPosition: args.StartPositionMS,
	}); err != nil {
		return toolCallResult{}, err
	}
	return s.statusResult(ctx, c, fmt.Sprintf("Playing %s.", args.URL))
}

func (s *Server) seek(ctx context.Context, raw json.RawMessage) (toolCallResult, error) {
	var args struct {
		PositionMS *int `json:"position_ms"`
	}
	if err := decodeStrict(raw, &args); err != nil || args.PositionMS == nil || *args.PositionMS < 0 {
		return toolCallResult{}, errInvalidParams
	}
	c, err := s.requireController()
	if err != nil {
		return toolCallResult{}, err
	}
	if err := c.Seek(ctx, *args.PositionMS); err != nil {
		return toolCallResult{}, err
	}
	return s.statusResult(ctx, c, fmt.Sprintf("Seeked to %d ms.", *args.PositionMS))
}

func (s *Server) setVolume(ctx context.Context, raw json.RawMessage) (toolCallResult, error) {
	var args struct {
		Volume *int `json:"volume"`
	}
	if err := decodeStrict(raw, &args); err != nil || args.Volume == nil || *args.Volume < 0 || *args.Volume > 100 {
		return toolCallResult{}, errInvalidParams
	}
	c, err := s.requireController()
	if err != nil {
		return toolCallResult{}, err
	}
	if err := c.SetVolume(ctx, *args.Volume); err != nil {
		return toolCallResult{}, err
	}
	return s.statusResult(ctx, c, fmt.Sprintf("Volume set to %d.", *args.Volume))
}

func (s *Server) getStatus(ctx context.Context, raw json.RawMessage) (toolCallResult, error) {
	if err := decodeStrict(raw, &struct{}{}); err != nil {
		return toolCallResult{}, errInvalidParams
	}
	c, err := s.requireController()
	if err != nil {
		return toolCallResult{}, err
	}
	return s.statusResult(ctx, c, "")
}

func (s *Server) setVisibility(ctx context.Context, raw json.RawMessage) (toolCallResult, error) {
	var args struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeStrict(raw, &args); err != nil || args.Visible == nil {
		return toolCallResult{}, errInvalidParams
	}
	c, err := s.requireController()
	if err != nil {
		return toolCallResult{}, err
	}
	c.SetVisible(*args.Visible)
	text := "Application hidden."
	if *args.Visible {
		text = "Application visible."
	}
	return textResult(text, map[string]any{"visible": *args.Visible}), nil
}

func (s *Server) listRenderers(ctx context.Context, raw json.RawMessage) (toolCallResult, error) {
	var args struct {
		TimeoutMS          *int  `json:"timeout_ms,omitempty"`
		IncludeUnreachable *bool `json:"include_unreachable,omitempty"`
	}
	if err := decodeStrict(raw, &args); err != nil {
		return toolCallResult{}, errInvalidParams
	}
	timeoutMS := defaultDiscoveryTimeoutMS
	if args.TimeoutMS != nil {
		if *args.TimeoutMS < minDiscoveryTimeoutMS {
			return toolCallResult{}, errInvalidParams
		}
		timeoutMS = *args.TimeoutMS
	}
	includeUnreachable := args.IncludeUnreachable != nil && *args.IncludeUnreachable

	if s.renderers == nil {
		return toolCallResult{}, errors.New("discovery service is not configured")
	}
	renderers, err := s.renderers.ListRenderers(ctx, time.Duration(timeoutMS)*time.Millisecond, includeUnreachable)
	if err != nil {
		return toolCallResult{}, err
	}

	text := fmt.Sprintf("Discovered %d renderer(s).", len(renderers))
	if len(renderers) > 0 {
		text += "\n" + formatRenderers(renderers)
	}
	return textResult(text, map[string]any{
		"count":     len(renderers),
		"renderers": renderers,
	}), nil
}

func (s *Server) statusResult(ctx context.Context, c Controller, prefix string) (toolCallResult, error) {
	st, err := c.Status(ctx)
	if err != nil {
		return toolCallResult{}, err
	}
	text := fmt.Sprintf("State %s, position %d/%d ms, volume %d.", st.State, st.PositionMS, st.DurationMS, st.Volume)
	if prefix != "" {
		text = prefix + " " + text
	}
	return textResult(text, st), nil
}

func formatRenderers(renderers []domain.Renderer) string {
	var out strings.Builder
	for i, r := range renderers {
		if i > 0 {
			out.WriteByte('\n')
		}
		fmt.Fprintf(&out, "%d. id=%s name=%s address=%s", i+1, r.ID, r.Name, r.Address)
		if r.IsAudioOnly {
			out.WriteString(" audio_only")
		}
	}
	return out.String()
}

func decodeStrict(raw json.RawMessage, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	var trailing any
	if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON payload")
	}
	return nil
}

func toolSpecs() []toolSpec {
	empty := map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
	return []toolSpec{
		{
			Name:        "prepare_and_play",
			Description: "Load a media URL into the video adapter and start playback once it is ready.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "HTTP or HTTPS URL of the media.",
					},
					"start_position_ms": map[string]any{
						"type":        "integer",
						"minimum":     0,
						"description": "Position to start from, in milliseconds.",
					},
					"is_4k": map[string]any{"type": "boolean", "default": false},
					"is_8k": map[string]any{"type": "boolean", "default": false},
				},
				"required":             []string{"url"},
				"additionalProperties": false,
			},
		},
		{Name: "pause", Description: "Pause playback.", InputSchema: empty},
		{Name: "resume", Description: "Resume paused playback.", InputSchema: empty},
		{Name: "stop", Description: "Stop playback and unload the source.", InputSchema: empty},
		{
			Name:        "seek",
			Description: "Move playback to an absolute position.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"position_ms": map[string]any{"type": "integer", "minimum": 0},
				},
				"required":             []string{"position_ms"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "set_volume",
			Description: "Set the system volume.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"volume": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				},
				"required":             []string{"volume"},
				"additionalProperties": false,
			},
		},
		{Name: "get_status", Description: "Report the adapter state, position, duration and volume.", InputSchema: empty},
		{
			Name:        "set_visibility",
			Description: "Report the application as hidden or visible. Hiding suspends playback.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"visible": map[string]any{"type": "boolean"},
				},
				"required":             []string{"visible"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "list_renderers",
			Description: "Discover DLNA media renderers on the local network.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"timeout_ms": map[string]any{
						"type":    "integer",
						"minimum": minDiscoveryTimeoutMS,
						"default": defaultDiscoveryTimeoutMS,
					},
					"include_unreachable": map[string]any{"type": "boolean", "default": false},
				},
				"additionalProperties": false,
			},
		},
	}
}
