// Package server implements the MCP (Model Context Protocol) server for the
// superpixel labeling tools.
//
// The server exposes segmentation, labeling and classification of
// orthomosaic images as MCP tools so an assistant can drive the same workflow
// a human annotator would: import an image, split it into superpixels, label
// some of them, and classify the rest with a trained model.
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
// Uploads:
//   - superpixel_import: Copy an image into the data directory
//   - superpixel_image_info: Dimensions, format and downscale preview
//
// Segmentation:
//   - superpixel_segment: Segment, outline and describe an image; save the record
//   - superpixel_get_segments: Read a saved segmentation record
//
// Labels:
//   - superpixel_save_label: Label one superpixel
//   - superpixel_get_labels: Read all labels of an image
//
// Classification:
//   - superpixel_aggregate: Majority class per superpixel from a ground truth mask
//   - superpixel_classify: Predict classes with a trained model and project them to a mask
//
// # Caching
//
// Decoded images are cached by path and trained models by absolute path for
// the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: ToolErrorData with the error kind ("input", "not_found",
//     "consistency" or "internal") and the Go error string
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	st, err := store.Open(cfg.Storage.DataDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg, st, server.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
