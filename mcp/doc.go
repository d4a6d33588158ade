// Package mcp contains the protocol data types and constants spoken by the
// hello-world server. It mirrors the wire representation of the Model Context
// Protocol for the subset the server implements (initialize, ping, tools and
// logging) while keeping the surface Go-friendly: exported structs with json
// tags and string constants for method names and enumerations.
//
// The package is free of transport logic. The stdio transport and the engine
// import these types but own framing, session handling and JSON-RPC
// serialization.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod). Using the constants avoids typographical mistakes.
//
// # Tool results
//
// CallToolResult always carries its isError flag on the wire, including when
// it is false:
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
//
// # Protocol versions
//
// LatestProtocolVersion is the newest revision the server targets and
// SupportedProtocolVersions lists every revision it accepts during
// initialize.
package mcp
