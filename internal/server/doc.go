// Package server implements the MCP (Model Context Protocol) server for the
// pixel pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes decoding,
// adjustment, filtering, geometry, kernel features and encoding through the
// MCP protocol.
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
// Source Information:
//   - image_info: Dimensions, format, alpha and EXIF without decoding pixels
//
// Point Transforms:
//   - image_adjust: Brightness, contrast, saturation
//   - image_filter: Grayscale, sepia, warm, cool, posterize, blur
//
// Geometry:
//   - image_transform: Rotate and scale about the center
//
// Kernel and Edge-Aware Features:
//   - image_ai_feature: Enhance, restore, retouch, background, style
//   - image_process: All stages in one call, in fixed order
//
// Output:
//   - image_convert: Re-encode in another format
//   - image_to_base64: Base64 text or data URL
//
// Analysis:
//   - image_edge_map: Sobel edge map as a PNG
//
// Every tool takes its source as either "path" or "base64". Each call
// decodes into its own buffer; nothing is cached between calls.
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses with:
//   - code: -32602 for malformed arguments, -32000 for tool execution failure
//     (decode, config and encode errors, or the tool timeout)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("Server error")
//	}
package server
