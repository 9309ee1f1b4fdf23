// Package hostbridge serves the video adapter to an out-of-process host
// over stdio JSON-RPC.
package hostbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"go2tv.app/tizenbridge/internal/buildinfo"
	"go2tv.app/tizenbridge/internal/domain"
	"go2tv.app/tizenbridge/internal/log"
	"go2tv.app/tizenbridge/internal/metrics"
	"go2tv.app/tizenbridge/internal/video"
)

// Controller is the playback surface driven by the host.
type Controller interface {
	Play(ctx context.Context, url string, opts video.PrepareOptions) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, positionMS int) error
	SetVolume(ctx context.Context, volume int) error
	Status(ctx context.Context) (video.Status, error)
	SetVisible(visible bool)
}

type RendererLister interface {
	ListRenderers(ctx context.Context, timeout time.Duration, includeUnreachable bool) ([]domain.Renderer, error)
}

type Config struct {
	ServerName    string
	ServerVersion string
	Logger        zerolog.Logger
	Controller    Controller
	Renderers     RendererLister
}

type Server struct {
	codec      *codec
	name       string
	version    string
	logger     zerolog.Logger
	controller Controller
	renderers  RendererLister
	tools      map[string]toolHandler
}

func New(in io.Reader, out io.Writer, cfg Config) *Server {
	if cfg.ServerName == "" {
		cfg.ServerName = buildinfo.Name
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = buildinfo.Version
	}

	s := &Server{
		codec:      newCodec(in, out),
		name:       cfg.ServerName,
		version:    cfg.ServerVersion,
		logger:     cfg.Logger.With().Str(log.FieldComponent, "hostbridge").Logger(),
		controller: cfg.Controller,
		renderers:  cfg.Renderers,
	}
	s.tools = s.handlers()
	return s
}

// Run serves requests until the input ends or ctx is cancelled. A clean
// end of input returns nil.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info().Str("reason", err.Error()).Msg("bridge_context_done")
			return err
		}

		payload, err := s.codec.read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info().Msg("bridge_stream_eof")
				return nil
			}
			s.logger.Error().Err(err).Msg("bridge_read_failed")
			return err
		}
		s.logger.Debug().Int("bytes", len(payload)).Stringer("framing", s.codec.mode).Msg("bridge_message_received")

		if err := s.handle(ctx, payload); err != nil {
			s.logger.Error().Err(err).Msg("bridge_write_failed")
			return err
		}
	}
}

func (s *Server) handle(ctx context.Context, payload []byte) error {
	startedAt := time.Now()

	var req request
	if err := json.Unmarshal(payload, &req); err != nil {
		s.logCall("parse", startedAt, "-32700")
		return s.sendError(nil, codeParseError, "parse error")
	}

	// Notifications get no response.
	if len(req.ID) == 0 {
		return nil
	}

	if req.JSONRPC != "" && req.JSONRPC != jsonrpcVersion {
		s.logCall(req.Method, startedAt, "-32600")
		return s.sendError(req.ID, codeInvalidRequest, "invalid request")
	}

	switch req.Method {
	case "initialize":
		s.logCall(req.Method, startedAt, "")
		return s.send(response{JSONRPC: jsonrpcVersion, ID: req.ID, Result: initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
			ServerInfo:   map[string]string{"name": s.name, "version": s.version},
			Instructions: "Call list_renderers to find a renderer, then prepare_and_play.",
		}})
	case "tools/list":
		s.logCall(req.Method, startedAt, "")
		return s.send(response{JSONRPC: jsonrpcVersion, ID: req.ID, Result: toolsListResult{Tools: toolSpecs()}})
	case "tools/call":
		return s.handleToolCall(ctx, req.ID, req.Params)
	default:
		s.logCall(req.Method, startedAt, "-32601")
		return s.sendError(req.ID, codeMethodNotFound, "method not found")
	}
}

func (s *Server) handleToolCall(ctx context.Context, id, rawParams json.RawMessage) error {
	startedAt := time.Now()

	params, err := decodeToolCallParams(rawParams)
	if err != nil {
		s.logCall("tools/call", startedAt, "-32602")
		return s.sendError(id, codeInvalidParams, "invalid params")
	}

	handler, ok := s.tools[params.Name]
	if !ok {
		s.recordTool(params.Name, startedAt, CodeToolNotFound)
		return s.sendResult(id, toolErrorResult(&domain.ToolError{
			Code:    CodeToolNotFound,
			Message: fmt.Sprintf("unknown tool: %s", params.Name),
		}))
	}

	result, err := handler(ctx, params.Arguments)
	if err != nil {
		if errors.Is(err, errInvalidParams) {
			s.recordTool(params.Name, startedAt, "-32602")
			return s.sendError(id, codeInvalidParams, "invalid params")
		}
		tErr := toolError(err)
		s.recordTool(params.Name, startedAt, tErr.Code)
		return s.sendResult(id, toolErrorResult(tErr))
	}
	s.recordTool(params.Name, startedAt, "")
	return s.sendResult(id, result)
}

// decodeToolCallParams accepts arguments nested under "arguments" or
// flattened next to the tool name.
func decodeToolCallParams(raw json.RawMessage) (toolCallParams, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return toolCallParams{}, err
	}

	var name string
	if nameRaw, ok := payload["name"]; ok {
		if err := json.Unmarshal(nameRaw, &name); err != nil {
			return toolCallParams{}, err
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return toolCallParams{}, errors.New("missing tool name")
	}

	arguments, ok := payload["arguments"]
	if !ok {
		flattened := map[string]json.RawMessage{}
		for key, value := range payload {
			if key == "name" || key == "_meta" {
				continue
			}
			flattened[key] = value
		}
		if len(flattened) > 0 {
			normalized, err := json.Marshal(flattened)
			if err != nil {
				return toolCallParams{}, err
			}
			arguments = normalized
		}
	}
	if len(bytes.TrimSpace(arguments)) == 0 || string(bytes.TrimSpace(arguments)) == "null" {
		arguments = json.RawMessage("{}")
	}

	return toolCallParams{Name: name, Arguments: arguments}, nil
}

func (s *Server) sendResult(id json.RawMessage, result toolCallResult) error {
	return s.send(response{JSONRPC: jsonrpcVersion, ID: id, Result: result})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	return s.send(response{JSONRPC: jsonrpcVersion, ID: id, Error: &rpcError{Code: code, Message: message}})
}

func (s *Server) send(resp response) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	s.logger.Debug().Int("bytes", len(encoded)).Msg("bridge_send")
	return s.codec.write(encoded)
}

func (s *Server) recordTool(tool string, startedAt time.Time, errorCode string) {
	metrics.HostCallsTotal.WithLabelValues(tool, errorCode).Inc()
	s.logCall("tools/call:"+tool, startedAt, errorCode)
}

func (s *Server) logCall(method string, startedAt time.Time, errorCode string) {
	ev := s.logger.Info()
	if errorCode != "" {
		ev = s.logger.Warn()
	}
	ev.Str(log.FieldMethod, method).
		Int64("duration_ms", time.Since(startedAt).Milliseconds()).
		Str(log.FieldErrorCode, errorCode).
		Msg("bridge_call")
}
