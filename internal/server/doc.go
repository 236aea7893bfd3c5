// Package server exposes house-number detection as an MCP (Model Context
// Protocol) server.
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
//   - image_info: Dimensions and format of an image file
//   - detect_house_numbers: Run the detection pipeline on a map image,
//     optionally annotating it and saving the result to the project
//   - generate_test_image: Write a synthetic map
//   - project_areas: List stored areas
//   - project_addresses: List the addresses of one area
//
// The project tools need a database; without one they fail with
// ErrNoProject.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	r, _ := runner.New(config.Default(), nil)
//	srv := server.New(r, server.Options{Version: version})
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
