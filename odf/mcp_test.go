package odf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "odf-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	conv := newTestConverter(Config{})
	srv := mcp.NewServer(testMCPImpl, nil)
	conv.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return result
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result := mcpCall(t, session, name, args)
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

// --- odf_validate ---

func TestMCP_Validate(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "odf_validate", map[string]any{"content": minimalODS})

	var report Report
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.DocType != TypeODS || !report.Ready() {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestMCP_Validate_Malformed(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "odf_validate", map[string]any{"content": "<oops"})

	var report Report
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.WellFormed || len(report.Errors) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

// --- odf_detect ---

func TestMCP_Detect(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "odf_detect", map[string]any{"content": minimalODT})

	var resp struct {
		DocType DocumentType `json:"doc_type"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.DocType != TypeODT {
		t.Fatalf("doc_type = %q", resp.DocType)
	}
}

// --- odf_convert ---

func TestMCP_Convert(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "odf_convert", map[string]any{
		"name":    "memo.xml",
		"content": minimalODT,
	})

	var resp convertResp
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Name != "memo.odt" || resp.DocType != TypeODT {
		t.Fatalf("got %s (%s)", resp.Name, resp.DocType)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data) != resp.Size {
		t.Fatalf("size = %d, decoded %d", resp.Size, len(data))
	}
	r := openZip(t, data)
	if r.File[0].Name != EntryMimetype {
		t.Fatal("mimetype must be first")
	}
}

func TestMCP_Convert_DefaultName(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "odf_convert", map[string]any{"content": minimalODS})

	var resp convertResp
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Name != "content.ods" {
		t.Fatalf("name = %q, want content.ods", resp.Name)
	}
}

func TestMCP_Convert_InvalidIsToolError(t *testing.T) {
	session := mcpSession(t)

	result := mcpCall(t, session, "odf_convert", map[string]any{"content": "<root/>"})
	if !result.IsError {
		t.Fatal("invalid content should produce a tool error")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	if !strings.Contains(tc.Text, "Root tag must be") {
		t.Fatalf("tool error should carry the report: %s", tc.Text)
	}
}
