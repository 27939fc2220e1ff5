package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/sprite-tools-mcp/internal/imaging"
	"github.com/ironsheep/sprite-tools-mcp/internal/sheet"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sprite_combine", "image_load").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Sprite Sheets
	case "sprite_combine":
		return s.handleSpriteCombine(args)
	case "sprite_canvas_size":
		return s.handleSpriteCanvasSize(args)
	case "sprite_verify":
		return s.handleSpriteVerify(args)
	case "sprite_extract":
		return s.handleSpriteExtract(args)

	// Source Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments, treating missing arguments as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === Sprite Sheet Handlers ===

func (s *Server) handleSpriteCombine(args json.RawMessage) (interface{}, error) {
	var a sheet.Request
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	result, err := sheet.Build(s.ctx, a, s.decodeOpts...)
	if err != nil {
		return nil, err
	}
	// The sheet may be inspected next; drop any stale copy.
	s.cache.Evict(result.Output)
	return result, nil
}

func (s *Server) handleSpriteCanvasSize(args json.RawMessage) (interface{}, error) {
	var a sheet.Request
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return sheet.Size(a)
}

func (s *Server) handleSpriteVerify(args json.RawMessage) (interface{}, error) {
	var a sheet.VerifyRequest
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative")
	}
	return sheet.Verify(s.ctx, a, s.decodeOpts...)
}

func (s *Server) handleSpriteExtract(args json.RawMessage) (interface{}, error) {
	var a sheet.ExtractRequest
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return sheet.Extract(s.ctx, a, s.decodeOpts...)
}

// === Source Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.GetDimensions(s.cache, a.Path)
}
