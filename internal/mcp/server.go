// Package mcp exposes workflow memory over the Model Context Protocol so
// other assistants can read sessions, tasks, and history. All tools are
// read-only; mutation stays with the engine and the HTTP surface.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/mabouzeid04/workflow-daddy/internal/history"
	"github.com/mabouzeid04/workflow-daddy/internal/question"
	"github.com/mabouzeid04/workflow-daddy/internal/session"
	"github.com/mabouzeid04/workflow-daddy/internal/summarize"
	"github.com/mabouzeid04/workflow-daddy/internal/task"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server over the workflow stores.
type Server struct {
	sessions  *session.Store
	tasks     *task.Store
	questions *question.Store
	summaries *summarize.Store
	facts     *history.FactStore
	mcp       *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(sessions *session.Store, tasks *task.Store, questions *question.Store, summaries *summarize.Store, facts *history.FactStore) *Server {
	s := &Server{
		sessions:  sessions,
		tasks:     tasks,
		questions: questions,
		summaries: summaries,
		facts:     facts,
	}

	s.mcp = server.NewMCPServer(
		"workflowd",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(getSessionTool, s.handleGetSession)
	s.mcp.AddTool(listTasksTool, s.handleListTasks)
	s.mcp.AddTool(searchHistoryTool, s.handleSearchHistory)
	s.mcp.AddTool(pendingQuestionsTool, s.handlePendingQuestions)
	s.mcp.AddTool(getBaselineTool, s.handleGetBaseline)
}

// Serve starts the MCP server on stdio. Stdout carries protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
