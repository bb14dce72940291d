// Package mcptools exposes the task service as Model Context Protocol tools.
package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/NHHoangTuan/todo-api/task"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "todo-api"

// NewServer returns an MCP server with every tool registered.
func NewServer(svc *task.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)
	RegisterAll(s, svc)
	return s
}

// RegisterAll adds the task and dependency tools to s.
func RegisterAll(s *server.MCPServer, svc *task.Service) {
	registerTaskTools(s, svc)
	registerDependencyTools(s, svc)
}
