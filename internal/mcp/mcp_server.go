// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/commitclock/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the commitclock MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	return newMCPServer(baseCfg, mgr, contract.NewLocalGitClient())
}

func newMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, client contract.GitClient) *server.MCPServer {
	s := server.NewMCPServer(
		"Commitclock Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		client:  client,
	}

	// Options shared by every tool
	runOptions := []mcp.ToolOption{
		mcp.WithString("repo_paths", mcp.Description("Comma-separated paths to Git repositories (defaults to the configured repositories).")),
		mcp.WithNumber("start_year", mcp.Description("First calendar year to count.")),
		mcp.WithNumber("end_year", mcp.Description("Last calendar year to count.")),
		mcp.WithNumber("interval", mcp.Description("Number of years per column.")),
		mcp.WithString("policy", mcp.Description("Inclusion policy for contributors without a known timezone."),
			mcp.Enum("count_all", "require_canonical", "from_first_canonical")),
	}

	// --- 1. Tool: get_bins ---
	s.AddTool(mcp.NewTool("get_bins", append([]mcp.ToolOption{
		mcp.WithDescription("Count commits per day of week and hour of day in each contributor's local time, combined over repositories."),
		mcp.WithString("binning", mcp.Description("Which tables to build. Defaults to both."),
			mcp.Enum("day_of_week", "hour_of_day", "both")),
		mcp.WithBoolean("per_repo", mcp.Description("Include the table of every repository.")),
	}, runOptions...)...), h.handleGetBins)

	// --- 2. Tool: get_most_active_slot ---
	s.AddTool(mcp.NewTool("get_most_active_slot", append([]mcp.ToolOption{
		mcp.WithDescription("Find the most active day of week or hour of day per interval, combined and per repository."),
		mcp.WithString("kind", mcp.Description("Slot kind to query."), mcp.Required(), mcp.Enum("day", "hour")),
	}, runOptions...)...), h.handleGetMostActiveSlot)

	// --- 3. Tool: get_timezones ---
	s.AddTool(mcp.NewTool("get_timezones",
		mcp.WithDescription("Show how commits spread over recorded UTC offsets per repository."),
		mcp.WithString("repo_paths", mcp.Description("Comma-separated paths to Git repositories.")),
	), h.handleGetTimezones)

	return s
}

// StartMCPServer starts the commitclock MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
