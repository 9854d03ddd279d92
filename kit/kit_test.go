package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	chained := Chain(mw("a"), mw("b"), mw("c"))(base)
	resp, err := chained(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "c_before", "endpoint", "c_after", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_ErrorPropagation(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	noop := func(next Endpoint) Endpoint { return next }
	chained := Chain(noop)(base)

	_, err := chained(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ok := Logging(logger, "parse")(func(_ context.Context, _ any) (any, error) { return 1, nil })
	fail := Logging(logger, "act")(func(_ context.Context, _ any) (any, error) { return nil, errors.New("boom") })

	ctx := WithSessionID(WithRequestID(context.Background(), "req_1"), "quic_1")
	if _, err := ok(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := fail(ctx, nil); err == nil {
		t.Fatal("expected error")
	}

	out := buf.String()
	for _, want := range []string{"endpoint=parse", "endpoint=act", "request_id=req_1", "session=quic_1", "error=boom", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestContext_Transport(t *testing.T) {
	if v := GetTransport(context.Background()); v != "cli" {
		t.Fatalf("default transport: got %q, want 'cli'", v)
	}
	if v := GetTransport(WithTransport(context.Background(), "mcp")); v != "mcp" {
		t.Fatalf("transport: got %q", v)
	}
}

func TestContext_IDs(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetSessionID(ctx) != "" {
		t.Fatal("empty context should have no ids")
	}
	ctx = WithSessionID(WithRequestID(ctx, "req_abc"), "prs_1")
	if v := GetRequestID(ctx); v != "req_abc" {
		t.Fatalf("request_id: got %q", v)
	}
	if v := GetSessionID(ctx); v != "prs_1" {
		t.Fatalf("session_id: got %q", v)
	}
}

type echoRequest struct {
	Text string `json:"text"`
}

func TestRegisterMCPTool(t *testing.T) {
	impl := &mcp.Implementation{Name: "kit-test", Version: "0.1.0"}
	srv := mcp.NewServer(impl, nil)

	var transport string
	tool := &mcp.Tool{
		Name:        "echo",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{"text": map[string]any{"type": "string"}}},
	}
	RegisterMCPTool(srv, tool, func(ctx context.Context, req any) (any, error) {
		transport = GetTransport(ctx)
		r := req.(*echoRequest)
		if r.Text == "" {
			return nil, errors.New("empty text")
		}
		return map[string]string{"echo": r.Text}, nil
	}, DecodeJSON[echoRequest]())

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() {
		_ = srv.Run(ctx, serverT)
	}()
	session, err := mcp.NewClient(impl, nil).Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"text": "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %+v", res.Content)
	}
	if got := res.Content[0].(*mcp.TextContent).Text; got != `{"echo":"hi"}` {
		t.Fatalf("content = %s", got)
	}
	if transport != "mcp" {
		t.Errorf("transport = %q, want mcp", transport)
	}

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for empty text")
	}
}
