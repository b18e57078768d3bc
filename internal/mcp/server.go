package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/referents-ia/portail/internal/contacts"
	"github.com/referents-ia/portail/internal/pages"
	"github.com/referents-ia/portail/internal/tools"
	"github.com/referents-ia/portail/internal/training"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Deps are the directories exposed to MCP clients.
type Deps struct {
	Contacts *contacts.Store
	Tools    *tools.Store
	Training *training.Store
	Pages    *pages.Library
}

// Server wraps an MCP server that exposes the portal directories as tools.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"portail-referents-ia",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	if s.deps.Contacts != nil {
		s.mcp.AddTool(searchContactsTool, s.handleSearchContacts)
	}
	if s.deps.Tools != nil {
		s.mcp.AddTool(listAIToolsTool, s.handleListAITools)
	}
	if s.deps.Training != nil {
		s.mcp.AddTool(listTrainingCoursesTool, s.handleListTrainingCourses)
	}
	if s.deps.Pages != nil {
		s.mcp.AddTool(getPageTool, s.handleGetPage)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
