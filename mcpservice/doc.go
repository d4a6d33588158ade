// Package mcpservice defines the capability interfaces that an MCP server
// implementation exposes to the engine, together with ready-made static
// implementations.
//
// The engine discovers capabilities per session and translates method calls on
// these interfaces into MCP JSON-RPC messages. Implementations MUST be safe for
// concurrent use and respect the provided context for cancellation.
//
// Conventions used throughout this package:
//   - Capability discovery methods return (cap, ok, err). A false ok indicates
//     that the capability is not supported for the given session; err is
//     reserved for unexpected failures while determining support.
//   - The sessions.Session value is the unit of isolation.
//   - Pagination uses the Page[T] type in this package; a nil cursor requests
//     the first page.
//
// Quick start:
//
//	type EchoArgs struct {
//	    Message string `json:"message" jsonschema:"description=Text to echo back"`
//	}
//	tools := mcpservice.NewToolsContainer(mcpservice.StaticTool{
//	    Descriptor: mcp.Tool{
//	        Name:        "echo",
//	        Description: "Returns the input text exactly as provided",
//	        InputSchema: mcpservice.ReflectInputSchema[EchoArgs](),
//	    },
//	    Handler: func(ctx context.Context, s sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
//	        // validate req.Arguments
//	        return mcpservice.TextResult("..."), nil
//	    },
//	})
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	    mcpservice.WithToolsCapability(tools),
//	    mcpservice.WithLoggingCapability(mcpservice.NewSlogLevelVarLogging(levelVar)),
//	)
//
// The resulting ServerCapabilities is handed to a transport such as the stdio
// package.
package mcpservice
