// Package logging provides structured slog logging with size-based file
// rotation for osai.
//
// Interactive commands log to stderr only. The --debug flag, the daemon and
// the MCP server additionally write JSON logs to ~/.osai/logs/ so that a
// long-running index can be diagnosed after the fact.
package logging
