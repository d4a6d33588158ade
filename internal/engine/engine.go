package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ggoodman/mcp-hello-world/internal/jsonrpc"
	"github.com/ggoodman/mcp-hello-world/internal/logctx"
	"github.com/ggoodman/mcp-hello-world/mcp"
	"github.com/ggoodman/mcp-hello-world/mcpservice"
	"github.com/ggoodman/mcp-hello-world/sessions"
)

var (
	ErrInvalidUserID = errors.New("invalid user id")
)

// Engine routes MCP requests for a session to the server's capabilities and
// turns their outcome into JSON-RPC responses. It holds no per-request state
// and is transport-agnostic.
type Engine struct {
	srv mcpservice.ServerCapabilities
	log *slog.Logger
}

// NewEngine creates an Engine serving srv.
func NewEngine(srv mcpservice.ServerCapabilities, opts ...EngineOption) *Engine {
	e := &Engine{
		srv: srv,
		log: slog.Default(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(m *Engine) {
		if l != nil {
			m.log = l
		}
	}
}

// InitializeSession performs the initialize handshake: it negotiates the
// protocol version, creates the session and builds the initialize result
// advertising the capabilities available to it.
func (e *Engine) InitializeSession(ctx context.Context, userID string, req *mcp.InitializeRequest) (*SessionHandle, *mcp.InitializeResult, error) {
	if req == nil {
		return nil, nil, fmt.Errorf("initialize request required")
	}
	if userID == "" {
		return nil, nil, ErrInvalidUserID
	}
	start := time.Now()

	preferred, hasPreferred, err := e.srv.GetPreferredProtocolVersion(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get preferred protocol version: %w", err)
	}
	negotiatedVersion := negotiateProtocolVersion(req.ProtocolVersion, preferred, hasPreferred)

	capSet := sessions.CapabilitySet{}
	if req.Capabilities.Sampling != nil {
		capSet.Sampling = true
	}
	if req.Capabilities.Roots != nil {
		capSet.Roots = true
		capSet.RootsListChanged = req.Capabilities.Roots.ListChanged
	}
	if req.Capabilities.Elicitation != nil {
		capSet.Elicitation = true
	}

	sess := newSessionHandle(sessions.New(userID, negotiatedVersion,
		sessions.WithClientInfo(sessions.ClientInfo{Name: req.ClientInfo.Name, Version: req.ClientInfo.Version}),
		sessions.WithCapabilities(capSet),
	))

	serverInfo, err := e.srv.GetServerInfo(ctx, sess)
	if err != nil {
		return nil, nil, fmt.Errorf("get server info: %w", err)
	}

	initRes := &mcp.InitializeResult{
		ProtocolVersion: negotiatedVersion,
		Capabilities:    mcp.ServerCapabilities{},
		ServerInfo:      serverInfo,
	}

	if instr, ok, err := e.srv.GetInstructions(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("get instructions: %w", err)
	} else if ok {
		initRes.Instructions = instr
	}

	if toolsCap, ok, err := e.srv.GetToolsCapability(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("get tools capability: %w", err)
	} else if ok && toolsCap != nil {
		// The tool set is fixed for the life of the process.
		initRes.Capabilities.Tools = &struct {
			ListChanged bool `json:"listChanged"`
		}{}
	}

	if _, ok, err := e.srv.GetLoggingCapability(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("get logging capability: %w", err)
	} else if ok {
		initRes.Capabilities.Logging = &struct{}{}
	}

	e.log.InfoContext(ctx, "engine.create_session.ok",
		slog.String("session_id", sess.SessionID()),
		slog.String("protocol_version", negotiatedVersion),
		slog.String("client_name", req.ClientInfo.Name),
		slog.Group("client_capabilities",
			slog.Bool("sampling", capSet.Sampling),
			slog.Bool("roots", capSet.Roots),
			slog.Bool("roots_list_changed", capSet.RootsListChanged),
			slog.Bool("elicitation", capSet.Elicitation),
		),
		slog.Duration("dur", time.Since(start)),
	)

	return sess, initRes, nil
}

// negotiateProtocolVersion picks the server preference when configured, else
// the client's requested version when supported, else the latest version.
func negotiateProtocolVersion(requested, preferred string, hasPreferred bool) string {
	if hasPreferred && preferred != "" {
		return preferred
	}
	if mcp.IsSupportedProtocolVersion(requested) {
		return requested
	}
	return mcp.LatestProtocolVersion
}

// HandleRequest routes a request to its handler. Protocol failures are
// returned as JSON-RPC error responses; a Go error means no response could be
// produced at all. sess may be nil only for ping.
func (e *Engine) HandleRequest(ctx context.Context, sess *SessionHandle, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	if sess != nil {
		ctx = logctx.WithSessionData(ctx, &logctx.SessionData{
			SessionID:       sess.SessionID(),
			UserID:          sess.UserID(),
			ProtocolVersion: sess.ProtocolVersion(),
			State:           sess.State(),
		})
	}

	switch req.Method {
	case string(mcp.PingMethod):
		return e.handlePing(ctx, req)
	case string(mcp.ToolsListMethod):
		return e.handleToolsList(ctx, sess, req)
	case string(mcp.ToolsCallMethod):
		return e.handleToolCall(ctx, sess, req)
	case string(mcp.LoggingSetLevelMethod):
		return e.handleSetLoggingLevel(ctx, sess, req)
	}

	e.log.InfoContext(ctx, "engine.handle_request.unsupported", slog.String("method", req.Method))
	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil), nil
}

func (e *Engine) handlePing(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	e.log.DebugContext(ctx, "engine.handle_request.ok", slog.String("method", req.Method))
	return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
}

func (e *Engine) handleSetLoggingLevel(ctx context.Context, sess *SessionHandle, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))
	var params mcp.SetLevelRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	cap, ok, err := e.srv.GetLoggingCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "logging level not supported", nil), nil
	}

	if err := cap.SetLevel(ctx, sess, params.Level); err != nil {
		if errors.Is(err, mcpservice.ErrInvalidLoggingLevel) {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
		}
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.String("level", string(params.Level)), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})
}

func (e *Engine) handleToolsList(ctx context.Context, sess *SessionHandle, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.ListToolsRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
		}
	}

	cap, ok, err := e.srv.GetToolsCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "tools capability not supported", nil), nil
	}

	var cursor *string
	if params.Cursor != "" {
		s := params.Cursor
		cursor = &s
	}

	page, err := cap.ListTools(ctx, sess, cursor)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	result := &mcp.ListToolsResult{
		Tools: page.Items,
	}
	if page.NextCursor != nil {
		result.NextCursor = *page.NextCursor
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("tool_count", len(page.Items)))

	return jsonrpc.NewResultResponse(req.ID, result)
}

func (e *Engine) handleToolCall(ctx context.Context, sess *SessionHandle, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	params, err := decodeToolCallParams(req.Params)
	if err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid params", nil), nil
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})

	cap, ok, err := e.srv.GetToolsCapability(ctx, sess)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if !ok || cap == nil {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "tools capability not supported", nil), nil
	}

	res, err := cap.CallTool(ctx, sess, params)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}
	if res == nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", "nil tool result"))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil), nil
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Bool("is_error", res.IsError), slog.Int64("dur_ms", time.Since(start).Milliseconds()))

	return jsonrpc.NewResultResponse(req.ID, res)
}

// decodeToolCallParams requires params to be an object carrying a string
// name. Arguments are passed through raw; JSON null is normalized to absent.
func decodeToolCallParams(raw json.RawMessage) (*mcp.CallToolRequestReceived, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("params must be an object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	name := bytes.TrimSpace(fields["name"])
	if len(name) == 0 || name[0] != '"' {
		return nil, fmt.Errorf("params.name must be a string")
	}
	params := &mcp.CallToolRequestReceived{}
	if err := json.Unmarshal(name, &params.Name); err != nil {
		return nil, fmt.Errorf("decode params.name: %w", err)
	}
	if args := bytes.TrimSpace(fields["arguments"]); len(args) > 0 && string(args) != "null" {
		params.Arguments = args
	}
	return params, nil
}

// HandleNotification processes a client notification. Notifications never
// produce a response; the returned error is for the caller's diagnostics only.
func (e *Engine) HandleNotification(ctx context.Context, sess *SessionHandle, note *jsonrpc.Request) error {
	if sess != nil {
		ctx = logctx.WithSessionData(ctx, &logctx.SessionData{
			SessionID:       sess.SessionID(),
			UserID:          sess.UserID(),
			ProtocolVersion: sess.ProtocolVersion(),
			State:           sess.State(),
		})
	}

	switch note.Method {
	case string(mcp.InitializedNotificationMethod):
		if sess == nil {
			e.log.InfoContext(ctx, "engine.handle_notification.no_session", slog.String("method", note.Method))
			return nil
		}
		if sess.markOpen() {
			e.log.InfoContext(ctx, "engine.session.initialized")
		}
		return nil

	case string(mcp.CancelledNotificationMethod):
		var params mcp.CancelledNotification
		if err := json.Unmarshal(note.Params, &params); err != nil {
			e.log.InfoContext(ctx, "engine.handle_notification.invalid", slog.String("method", note.Method), slog.String("err", err.Error()))
			return fmt.Errorf("decode cancelled notification: %w", err)
		}
		// Requests are handled to completion before the next message is read,
		// so the referenced request has already been answered.
		e.log.InfoContext(ctx, "engine.handle_notification.cancel",
			slog.String("request_id", string(params.RequestID)),
			slog.String("reason", params.Reason),
		)
		return nil
	}

	e.log.DebugContext(ctx, "engine.handle_notification.ignored", slog.String("method", note.Method))
	return nil
}
