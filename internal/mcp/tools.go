package mcp

import "github.com/mark3labs/mcp-go/mcp"

// getSessionTool defines the get_session MCP tool.
var getSessionTool = mcp.NewTool("get_session",
	mcp.WithDescription("Get a work session with its detected tasks, per-app time, and current task theory."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session identifier"),
	),
)

// listTasksTool defines the list_tasks MCP tool.
var listTasksTool = mcp.NewTool("list_tasks",
	mcp.WithDescription("List the detected tasks of a session, oldest first, with durations and app segments."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session identifier"),
	),
)

// searchHistoryTool defines the search_history MCP tool.
var searchHistoryTool = mcp.NewTool("search_history",
	mcp.WithDescription("Search prior session summaries by keyword overlap. Returns the best-matching briefs."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Keywords describing the work to look for"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of summaries to return (default 5)"),
	),
)

// pendingQuestionsTool defines the pending_questions MCP tool.
var pendingQuestionsTool = mcp.NewTool("pending_questions",
	mcp.WithDescription("List the clarification questions still waiting for the user in a session."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session identifier"),
	),
)

// getBaselineTool defines the get_baseline MCP tool.
var getBaselineTool = mcp.NewTool("get_baseline",
	mcp.WithDescription("Get the user's interview baseline and known recurring tasks."),
)
