// Package echo implements the hello-world MCP server: a single "echo" tool
// that validates its arguments and returns the message unchanged.
//
// The registry is built once and never mutated. Listing and invocation are
// safe for concurrent use.
package echo

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ggoodman/mcp-hello-world/mcp"
	"github.com/ggoodman/mcp-hello-world/mcpservice"
	"github.com/ggoodman/mcp-hello-world/sessions"
)

const (
	// ToolName is the only tool this server exposes.
	ToolName = "echo"
	// ToolDescription is the human-readable description advertised by tools/list.
	ToolDescription = "Returns the input text exactly as provided"

	// DefaultServerName and DefaultServerVersion populate serverInfo when no
	// override is supplied.
	DefaultServerName    = "hello-world-server"
	DefaultServerVersion = "1.0.0"
)

// Validation messages returned as tool error results.
const (
	InvalidArgumentsMessage = `Invalid arguments: expected an object with a "message" property`
	InvalidMessageMessage   = `Invalid argument: "message" must be a string`
)

// Args is the argument object accepted by the echo tool.
type Args struct {
	Message string `json:"message" jsonschema:"description=Text to echo back"`
}

// Descriptor returns the echo tool descriptor advertised by tools/list.
func Descriptor() mcp.Tool {
	return mcp.Tool{
		Name:        ToolName,
		Description: ToolDescription,
		InputSchema: mcpservice.ReflectInputSchema[Args](),
	}
}

// Tool pairs the echo descriptor with its handler. Successful calls are
// reported on logger; rejected calls are not logged.
func Tool(logger *slog.Logger) mcpservice.StaticTool {
	if logger == nil {
		logger = slog.Default()
	}
	return mcpservice.StaticTool{
		Descriptor: Descriptor(),
		Handler: func(ctx context.Context, _ sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
			args, res := decodeArgs(req.Arguments)
			if res != nil {
				return res, nil
			}
			logger.InfoContext(ctx, "echo.tool.called", slog.String("message", args.Message))
			return mcpservice.TextResult(args.Message), nil
		},
	}
}

// decodeArgs classifies the raw argument payload. Exactly one of the return
// values is non-nil.
func decodeArgs(raw json.RawMessage) (*Args, *mcp.CallToolResult) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, mcpservice.Errorf("%s", InvalidArgumentsMessage)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, mcpservice.Errorf("%s", InvalidArgumentsMessage)
	}

	// Unmarshalling null into a string is a no-op, so the literal has to be
	// checked before decoding.
	msg := bytes.TrimSpace(fields["message"])
	if len(msg) == 0 || msg[0] != '"' {
		return nil, mcpservice.Errorf("%s", InvalidMessageMessage)
	}
	var args Args
	if err := json.Unmarshal(msg, &args.Message); err != nil {
		return nil, mcpservice.Errorf("%s", InvalidMessageMessage)
	}
	return &args, nil
}

// NewTools returns the immutable tool registry holding only the echo tool.
func NewTools(opts ...Option) *mcpservice.ToolsContainer {
	cfg := newConfig(opts)
	return mcpservice.NewToolsContainer(Tool(cfg.logger))
}

// New assembles the complete server capability set: server info, the tools
// capability and, when a level var is configured, the logging capability.
func New(opts ...Option) mcpservice.ServerCapabilities {
	cfg := newConfig(opts)

	srvOpts := []mcpservice.ServerOption{
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: cfg.name, Version: cfg.version}),
		mcpservice.WithToolsCapability(mcpservice.NewToolsContainer(Tool(cfg.logger))),
		mcpservice.WithInstructions(cfg.instructions),
	}
	if cfg.levelVar != nil {
		srvOpts = append(srvOpts, mcpservice.WithLoggingCapability(mcpservice.NewSlogLevelVarLogging(cfg.levelVar)))
	}
	return mcpservice.NewServer(srvOpts...)
}
