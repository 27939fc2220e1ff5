// Package server implements the MCP (Model Context Protocol) server for sprite
// sheet tools.
//
// This package provides a JSON-RPC 2.0 server that exposes sprite sheet
// compositing through the MCP protocol, so an assistant that has worked out a
// layout can build, size and check the resulting sheet.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Sprite Sheets:
//   - sprite_combine: Build a sheet (and optional stylesheet) from a layout
//   - sprite_canvas_size: Compute sheet dimensions without decoding
//   - sprite_verify: Check a sheet against its layout
//   - sprite_extract: Cut one image back out of a sheet
//
// Source Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// The sprite tools accept either a layout file path ("layout") or inline
// layout entries ("images"); see package layout for the schema.
//
// # Image Caching
//
// image_load and image_dimensions share an in-memory cache keyed by path.
// sprite_combine never reads from it, and evicts the sheet it writes.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(sprite.WithConcurrency(8))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
