package mcpservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/ggoodman/mcp-hello-world/mcp"
	"github.com/ggoodman/mcp-hello-world/sessions"
	"github.com/invopop/jsonschema"
)

// ToolHandler is the function signature used to handle a tool invocation.
//
// Arguments are delivered raw so that the handler owns validation of their
// shape. Validation failures should be reported through Errorf rather than a
// Go error.
type ToolHandler func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ReflectInputSchema reflects a Go type A into the simplified
// mcp.ToolInputSchema. Property descriptions come from `jsonschema` struct
// tags; fields without omitempty are required.
func ReflectInputSchema[A any]() mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	s := r.Reflect(new(A))

	// Only object schemas map cleanly to ToolInputSchema.
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]mcp.SchemaProperty{},
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toMCPProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}

const defaultToolsPageSize = 50

// ToolsContainer is a fixed set of tool descriptors and handlers. The set is
// decided at construction and never changes afterwards, so a container is
// safe for concurrent use without locking.
type ToolsContainer struct {
	tools    []mcp.Tool
	handlers map[string]ToolHandler

	pageSize int
}

var _ ToolsCapability = (*ToolsContainer)(nil)

// NewToolsContainer constructs a ToolsContainer from the given tool
// definitions. Listing order follows argument order; a definition whose name
// was already registered is ignored.
func NewToolsContainer(defs ...StaticTool) *ToolsContainer {
	st := &ToolsContainer{
		tools:    make([]mcp.Tool, 0, len(defs)),
		handlers: make(map[string]ToolHandler, len(defs)),
		pageSize: defaultToolsPageSize,
	}
	for _, d := range defs {
		name := d.Descriptor.Name
		if _, exists := st.handlers[name]; exists {
			continue
		}
		st.tools = append(st.tools, d.Descriptor)
		st.handlers[name] = d.Handler
	}
	return st
}

// Snapshot returns a copy of the tool descriptors.
func (st *ToolsContainer) Snapshot() []mcp.Tool {
	out := make([]mcp.Tool, len(st.tools))
	copy(out, st.tools)
	return out
}

// Names returns the registered tool names in listing order.
func (st *ToolsContainer) Names() []string {
	out := make([]string, len(st.tools))
	for i, t := range st.tools {
		out[i] = t.Name
	}
	return out
}

// ListTools implements ToolsCapability.
func (st *ToolsContainer) ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error) {
	return pageSlice(st.tools, st.pageSize, cursor), nil
}

// CallTool implements ToolsCapability. A name that is not registered yields
// an error result listing the available tools.
func (st *ToolsContainer) CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	if req == nil {
		return nil, fmt.Errorf("invalid tool request: nil request")
	}
	h, ok := st.handlers[req.Name]
	if !ok {
		return Errorf("Unknown tool: %s. Available tools: %s", req.Name, strings.Join(st.Names(), ", ")), nil
	}
	if h == nil {
		return nil, fmt.Errorf("tool %q has no handler", req.Name)
	}
	return h(ctx, session, req)
}

// TextResult is a small helper to build a text CallToolResult.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: s}}}
}

// Errorf returns an error CallToolResult with a single text block and IsError=true.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: msg}}, IsError: true}
}
