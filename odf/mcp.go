package odf

import (
	"context"
	"encoding/base64"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/odfpack/kit"
	"github.com/hazyhaar/odfpack/safe"
)

// RegisterMCP registers the odf tools on an MCP server.
func (c *Converter) RegisterMCP(srv *mcp.Server) {
	c.registerValidateTool(srv)
	c.registerDetectTool(srv)
	c.registerConvertTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var contentProperty = map[string]any{
	"type":        "string",
	"description": "Raw content.xml text",
}

func (c *Converter) endpoint(name string, ep kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Logging(c.logger, name))(ep)
}

// --- validate ---

type validateReq struct {
	Content string `json:"content"`
}

func (c *Converter) registerValidateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "odf_validate",
		Description: "Check an OpenDocument content.xml fragment (ODT or ODS) and return the validation report.",
		InputSchema: inputSchema(map[string]any{"content": contentProperty}, []string{"content"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*validateReq)
		return c.Validate(r.Content), nil
	}

	kit.RegisterMCPTool(srv, tool, c.endpoint(tool.Name, endpoint), kit.DecodeArgs[validateReq]())
}

// --- detect ---

func (c *Converter) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "odf_detect",
		Description: "Classify a content.xml fragment as odt, ods or unknown.",
		InputSchema: inputSchema(map[string]any{"content": contentProperty}, []string{"content"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*validateReq)
		return map[string]any{"doc_type": DetectString(r.Content)}, nil
	}

	kit.RegisterMCPTool(srv, tool, c.endpoint(tool.Name, endpoint), kit.DecodeArgs[validateReq]())
}

// --- convert ---

type convertReq struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type convertResp struct {
	Name    string       `json:"name"`
	DocType DocumentType `json:"doc_type"`
	Size    int          `json:"size"`
	Data    string       `json:"data_base64"`
}

func (c *Converter) registerConvertTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "odf_convert",
		Description: "Validate a content.xml fragment and package it as .odt or .ods. The archive is returned base64-encoded.",
		InputSchema: inputSchema(map[string]any{
			"name":    map[string]any{"type": "string", "description": "Source file name, e.g. report.xml"},
			"content": contentProperty,
		}, []string{"content"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*convertReq)
		out, err := c.Convert(ctx, File{Name: safe.FileName(r.Name, "content.xml"), Content: r.Content})
		if err != nil {
			return nil, err
		}
		return convertResp{
			Name:    out.Name,
			DocType: out.DocType,
			Size:    len(out.Data),
			Data:    base64.StdEncoding.EncodeToString(out.Data),
		}, nil
	}

	kit.RegisterMCPTool(srv, tool, c.endpoint(tool.Name, endpoint), kit.DecodeArgs[convertReq]())
}
