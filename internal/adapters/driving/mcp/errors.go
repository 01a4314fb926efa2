// Package mcp provides an MCP (Model Context Protocol) server adapter
// for coursetta. It lets AI assistants ask questions against the course
// knowledge base and inspect what retrieval would ground them on.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
