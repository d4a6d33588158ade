package echo

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/ggoodman/mcp-hello-world/mcp"
	"github.com/ggoodman/mcp-hello-world/mcpservice"
	"github.com/ggoodman/mcp-hello-world/sessions"
	"github.com/google/go-cmp/cmp"
)

type harness struct {
	tools *mcpservice.ToolsContainer
	sess  sessions.Session
	logs  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &harness{
		tools: NewTools(WithLogger(logger)),
		sess:  sessions.New("tester", mcp.LatestProtocolVersion),
		logs:  &buf,
	}
}

func (h *harness) call(t *testing.T, name string, args string) *mcp.CallToolResult {
	t.Helper()
	req := &mcp.CallToolRequestReceived{Name: name}
	if args != "" {
		req.Arguments = json.RawMessage(args)
	}
	res, err := h.tools.CallTool(t.Context(), h.sess, req)
	if err != nil {
		t.Fatalf("CallTool(%q, %s): %v", name, args, err)
	}
	return res
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected exactly one content block, got %d", len(res.Content))
	}
	if res.Content[0].Type != mcp.ContentTypeText {
		t.Fatalf("content type = %q", res.Content[0].Type)
	}
	return res.Content[0].Text
}

func TestListTools_WireContract(t *testing.T) {
	h := newHarness(t)
	page, err := h.tools.ListTools(t.Context(), h.sess, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if page.NextCursor != nil {
		t.Fatalf("single tool registry should not paginate")
	}
	got := mustJSON(t, mcp.ListToolsResult{Tools: page.Items})
	want := `{"tools":[{"name":"echo","description":"Returns the input text exactly as provided","inputSchema":{"type":"object","properties":{"message":{"type":"string","description":"Text to echo back"}},"required":["message"]}}]}`
	if got != want {
		t.Fatalf("tools/list mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestListTools_Stateless(t *testing.T) {
	h := newHarness(t)
	first, _ := h.tools.ListTools(t.Context(), h.sess, nil)
	h.call(t, ToolName, `{"message":"in between"}`)
	h.call(t, "nope", "")
	second, _ := h.tools.ListTools(t.Context(), h.sess, nil)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("listing changed between calls (-first +second):\n%s", diff)
	}
}

func TestCallTool_EchoesIdentity(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"hello":     "Hello, World!",
		"control":   "line1\nline2\ttab\x00nul\r",
		"unicode":   "héllo wörld 👋 日本語",
		"html":      `<script>alert("x") & 'y'</script>`,
		"long":      strings.Repeat("abcdefghij", 100_000),
		"escapes":   `back\slash "quoted" A`,
		"leadspace": "   padded   ",
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			res := h.call(t, ToolName, mustJSON(t, map[string]string{"message": msg}))
			if res.IsError {
				t.Fatalf("unexpected error result: %+v", res)
			}
			if got := textOf(t, res); got != msg {
				t.Fatalf("echo mismatch: got %q want %q", got, msg)
			}
		})
	}
}

func TestCallTool_HelloWorldScenario(t *testing.T) {
	h := newHarness(t)
	res := h.call(t, ToolName, `{"message":"Hello, World!"}`)
	got := mustJSON(t, res)
	want := `{"content":[{"type":"text","text":"Hello, World!"}],"isError":false}`
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestCallTool_ExtraPropertiesIgnored(t *testing.T) {
	h := newHarness(t)
	res := h.call(t, ToolName, `{"message":"hi","extra":[1,2,3]}`)
	if res.IsError || textOf(t, res) != "hi" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCallTool_UnknownTool(t *testing.T) {
	h := newHarness(t)
	// The name check wins over any argument problem.
	for _, args := range []string{`{"message":"hi"}`, "", `null`, `{"message":1}`} {
		res := h.call(t, "reverse", args)
		if !res.IsError {
			t.Fatalf("expected isError for unknown tool")
		}
		if got, want := textOf(t, res), "Unknown tool: reverse. Available tools: echo"; got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
}

func TestCallTool_InvalidArguments(t *testing.T) {
	cases := map[string]string{
		"absent":  "",
		"null":    `null`,
		"string":  `"hello"`,
		"number":  `42`,
		"boolean": `true`,
		"array":   `[{"message":"hi"}]`,
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			res := h.call(t, ToolName, args)
			if !res.IsError {
				t.Fatalf("expected isError")
			}
			if got := textOf(t, res); got != InvalidArgumentsMessage {
				t.Fatalf("got %q", got)
			}
		})
	}
}

func TestCallTool_InvalidMessage(t *testing.T) {
	cases := map[string]string{
		"number":  `{"message":42}`,
		"null":    `{"message":null}`,
		"missing": `{}`,
		"other":   `{"msg":"hi"}`,
		"object":  `{"message":{"text":"hi"}}`,
		"array":   `{"message":["hi"]}`,
		"boolean": `{"message":false}`,
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			res := h.call(t, ToolName, args)
			if !res.IsError {
				t.Fatalf("expected isError")
			}
			if got := textOf(t, res); got != InvalidMessageMessage {
				t.Fatalf("got %q", got)
			}
		})
	}
}

func TestCallTool_DiagnosticsOnlyOnSuccess(t *testing.T) {
	h := newHarness(t)

	h.call(t, "nope", `{"message":"x"}`)
	h.call(t, ToolName, `null`)
	h.call(t, ToolName, `{"message":7}`)
	if h.logs.Len() != 0 {
		t.Fatalf("failure paths must not log, got: %s", h.logs.String())
	}

	h.call(t, ToolName, `{"message":"Hello, World!"}`)
	var rec map[string]any
	if err := json.Unmarshal(h.logs.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON log record, got %q: %v", h.logs.String(), err)
	}
	if rec["msg"] != "echo.tool.called" || rec["message"] != "Hello, World!" {
		t.Fatalf("unexpected log record: %v", rec)
	}
}

func TestCallTool_Idempotent(t *testing.T) {
	h := newHarness(t)
	first := h.call(t, ToolName, `{"message":"same"}`)
	second := h.call(t, ToolName, `{"message":"same"}`)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ (-first +second):\n%s", diff)
	}
}

func TestCallTool_Concurrent(t *testing.T) {
	h := newHarness(t)
	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := strings.Repeat("x", i)
			res, err := h.tools.CallTool(t.Context(), h.sess, &mcp.CallToolRequestReceived{
				Name:      ToolName,
				Arguments: json.RawMessage(`{"message":"` + msg + `"}`),
			})
			if err != nil || res.IsError || res.Content[0].Text != msg {
				errs <- msg
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Errorf("concurrent call for %q failed", msg)
	}
}

func TestNew_AssemblesCapabilities(t *testing.T) {
	ctx := t.Context()
	sess := sessions.New("u", mcp.LatestProtocolVersion)

	srv := New()
	info, err := srv.GetServerInfo(ctx, sess)
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != DefaultServerName || info.Version != DefaultServerVersion {
		t.Fatalf("unexpected server info %+v", info)
	}
	if _, ok, _ := srv.GetToolsCapability(ctx, sess); !ok {
		t.Fatalf("tools capability missing")
	}
	if _, ok, _ := srv.GetLoggingCapability(ctx, sess); ok {
		t.Fatalf("logging should be absent without a level var")
	}
	if _, ok, _ := srv.GetInstructions(ctx, sess); ok {
		t.Fatalf("instructions should be absent by default")
	}

	var lv slog.LevelVar
	srv = New(WithServerInfo("custom", ""), WithLevelVar(&lv), WithInstructions("say hi"))
	info, _ = srv.GetServerInfo(ctx, sess)
	if info.Name != "custom" || info.Version != DefaultServerVersion {
		t.Fatalf("unexpected server info %+v", info)
	}
	logging, ok, _ := srv.GetLoggingCapability(ctx, sess)
	if !ok {
		t.Fatalf("logging capability missing")
	}
	if err := logging.SetLevel(ctx, sess, mcp.LoggingLevelDebug); err != nil {
		t.Fatal(err)
	}
	if lv.Level() != slog.LevelDebug {
		t.Fatalf("level var not updated")
	}
}
