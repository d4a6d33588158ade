package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const childEnv = "HELLO_WORLD_SERVER_TEST_CHILD"

// TestMain lets the test binary double as the server binary for end-to-end
// tests: when childEnv is set it runs main instead of the tests.
func TestMain(m *testing.M) {
	if os.Getenv(childEnv) == "1" {
		main()
		return
	}
	os.Exit(m.Run())
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MCP_SERVER_NAME", "MCP_SERVER_VERSION", "MCP_LOG_LEVEL", "MCP_LOG_FORMAT", "MCP_USER_ID", "MCP_INSTRUCTIONS"} {
		t.Setenv(k, "")
	}
	t.Setenv("MCP_USER_ID", "tester")
}

func TestRun_ServesUntilEOF(t *testing.T) {
	clearConfigEnv(t)
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"t","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"message":"Hello, World!"}}}`,
	}, "\n") + "\n"

	var stdout, stderr bytes.Buffer
	code := run(t.Context(), nil, strings.NewReader(in), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 protocol lines, got %d:\n%s", len(lines), stdout.String())
	}
	for _, l := range lines {
		if !json.Valid([]byte(l)) {
			t.Fatalf("non-JSON line on stdout: %q", l)
		}
	}
	if got, want := lines[1], `{"jsonrpc":"2.0","result":{"content":[{"type":"text","text":"Hello, World!"}],"isError":false},"id":2}`; got != want {
		t.Fatalf("tools/call\n got: %s\nwant: %s", got, want)
	}

	logs := stderr.String()
	for _, want := range []string{"server started and waiting for requests", "echo.tool.called", "Hello, World!"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("stderr missing %q:\n%s", want, logs)
		}
	}
}

func TestRun_JSONLogsAndServerInfoFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MCP_SERVER_NAME", "renamed")
	in := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"t","version":"0"}}}` + "\n"

	var stdout, stderr bytes.Buffer
	if code := run(t.Context(), []string{"--log-format", "json"}, strings.NewReader(in), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}

	var res struct {
		Result struct {
			ProtocolVersion string `json:"protocolVersion"`
			ServerInfo      struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Result.ServerInfo.Name != "renamed" || res.Result.ProtocolVersion != "2024-11-05" {
		t.Fatalf("unexpected initialize result: %s", stdout.String())
	}

	first, _, _ := strings.Cut(stderr.String(), "\n")
	if !json.Valid([]byte(first)) {
		t.Fatalf("expected JSON log lines, got %q", first)
	}
}

func TestRun_Version(t *testing.T) {
	clearConfigEnv(t)
	var stdout, stderr bytes.Buffer
	if code := run(t.Context(), []string{"--version"}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got := strings.TrimSpace(stdout.String()); got != "1.0.0" {
		t.Fatalf("version output %q", got)
	}
}

func TestRun_StartupFailures(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "bad level flag", args: []string{"--log-level", "loud"}},
		{name: "bad format env", env: map[string]string{"MCP_LOG_FORMAT": "xml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			var stdout, stderr bytes.Buffer
			if code := run(t.Context(), tc.args, strings.NewReader(""), &stdout, &stderr); code != 1 {
				t.Fatalf("exit code %d, want 1", code)
			}
			if stdout.Len() != 0 {
				t.Fatalf("nothing may reach stdout on failure, got %q", stdout.String())
			}
			if !strings.Contains(stderr.String(), "failed to start server") {
				t.Fatalf("missing diagnostic, stderr:\n%s", stderr.String())
			}
		})
	}
}

// TestE2E_SDKClient drives the real binary over stdio with the official MCP
// Go SDK client.
func TestE2E_SDKClient(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a subprocess")
	}
	ctx := t.Context()

	cmd := exec.Command(os.Args[0], "--log-level", "debug")
	cmd.Env = append(os.Environ(), childEnv+"=1", "MCP_USER_ID=e2e")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	client := sdk.NewClient(&sdk.Implementation{Name: "e2e", Version: "0.0.0"}, &sdk.ClientOptions{})
	cs, err := client.Connect(ctx, &sdk.CommandTransport{Command: cmd}, &sdk.ClientSessionOptions{})
	if err != nil {
		t.Fatalf("connect failed: %v\nstderr:\n%s", err, stderr.String())
	}
	defer cs.Close()

	lt, err := cs.ListTools(ctx, &sdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	if len(lt.Tools) != 1 || lt.Tools[0].Name != "echo" || lt.Tools[0].Description != "Returns the input text exactly as provided" {
		t.Fatalf("unexpected tools: %+v", lt.Tools)
	}

	for _, msg := range []string{"Hello, World!", "", "<b>bold</b> & ünïcødé"} {
		res, err := cs.CallTool(ctx, &sdk.CallToolParams{
			Name:      "echo",
			Arguments: map[string]any{"message": msg},
		})
		if err != nil {
			t.Fatalf("CallTool(%q) failed: %v", msg, err)
		}
		if res.IsError || len(res.Content) != 1 {
			t.Fatalf("unexpected result: %+v", res)
		}
		text, ok := res.Content[0].(*sdk.TextContent)
		if !ok || text.Text != msg {
			t.Fatalf("echo mismatch for %q: %+v", msg, res.Content[0])
		}
	}

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "echo", Arguments: map[string]any{"message": 42}})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected isError for numeric message")
	}
	if text, ok := res.Content[0].(*sdk.TextContent); !ok || text.Text != `Invalid argument: "message" must be a string` {
		t.Fatalf("unexpected error content: %+v", res.Content[0])
	}

	res, err = cs.CallTool(ctx, &sdk.CallToolParams{Name: "missing", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if text, ok := res.Content[0].(*sdk.TextContent); !res.IsError || !ok || text.Text != "Unknown tool: missing. Available tools: echo" {
		t.Fatalf("unexpected unknown-tool result: %+v", res)
	}
}
