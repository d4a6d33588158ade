package mcpservice

import (
	"context"

	"github.com/ggoodman/mcp-hello-world/mcp"
	"github.com/ggoodman/mcp-hello-world/sessions"
)

// ServerCapabilities is everything the engine needs to answer initialize and
// route requests for a session.
type ServerCapabilities interface {
	// GetServerInfo returns implementation information surfaced in the
	// initialize result.
	GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error)

	// GetPreferredProtocolVersion returns the server's preferred MCP protocol
	// version. If ok is false, the engine negotiates from the client's
	// requested version.
	GetPreferredProtocolVersion(ctx context.Context) (version string, ok bool, err error)

	// GetInstructions returns optional human-readable instructions surfaced
	// during initialization.
	GetInstructions(ctx context.Context, session sessions.Session) (instructions string, ok bool, err error)

	// GetToolsCapability returns the tools capability if supported for the
	// session. If ok is false, tools are not advertised.
	GetToolsCapability(ctx context.Context, session sessions.Session) (cap ToolsCapability, ok bool, err error)

	// GetLoggingCapability returns the logging capability if supported for
	// the session. If ok is false, logging/setLevel is not advertised.
	GetLoggingCapability(ctx context.Context, session sessions.Session) (cap LoggingCapability, ok bool, err error)
}

// ToolsCapability defines the server's tools surface area.
type ToolsCapability interface {
	// ListTools returns a (possibly paginated) list of tools available to the session.
	// A nil cursor requests the first page.
	ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error)

	// CallTool invokes a named tool with the provided request payload.
	// Validation failures are reported as results with IsError set; a
	// returned error means the call could not be dispatched at all.
	CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)
}

// LoggingCapability allows the client to adjust the server's logging level.
type LoggingCapability interface {
	// SetLevel updates the server's logging level. Implementations decide scope
	// (process-wide vs session-specific) and mapping to underlying logger(s).
	SetLevel(ctx context.Context, session sessions.Session, level mcp.LoggingLevel) error
}
