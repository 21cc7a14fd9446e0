// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only guidsync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/guidsync/internal/mapping"
	"github.com/starford/guidsync/internal/report"
	"github.com/starford/guidsync/internal/syncservice"
)

// Server wraps the MCP server with guidsync tools. Every tool is a read-only
// projection; synchronization itself only happens through the CLI.
type Server struct {
	mcp *server.MCPServer
	svc *syncservice.Service
}

// New creates a new MCP server with all guidsync tools registered.
func New(svc *syncservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"guidsync",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("scan_projects",
		mcp.WithDescription("Scan two project trees and list assets whose GUIDs diverge. "+
			"Main GUIDs are authoritative; the subordinate tree is the one that would be rewritten."),
		mcp.WithString("main", mcp.Required(), mcp.Description("Path to the main project root")),
		mcp.WithString("subordinate", mcp.Required(), mcp.Description("Path to the subordinate project root")),
	), s.scanProjects)

	s.mcp.AddTool(mcp.NewTool("report_plan",
		mcp.WithDescription("Compute the full sync operations report (declaration and reference "+
			"rewrites per asset) without modifying any file."),
		mcp.WithString("main", mcp.Required(), mcp.Description("Path to the main project root")),
		mcp.WithString("subordinate", mcp.Required(), mcp.Description("Path to the subordinate project root")),
	), s.reportPlan)

	s.mcp.AddTool(mcp.NewTool("get_sync_contract",
		mcp.WithDescription("Returns the guidsync safety contract: what a sync does, "+
			"in which direction, and which conditions abort it."),
	), s.getSyncContract)

	// Resource: sync contract.
	s.mcp.AddResource(
		mcp.NewResource("guidsync://sync-contract", "Sync Safety Contract",
			mcp.WithResourceDescription("Rules governing GUID synchronization between project trees."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyncContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) scanProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mainRoot, err := req.RequireString("main")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subRoot, err := req.RequireString("subordinate")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.Scan(ctx, mainRoot, subRoot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type diff struct {
		Path     string `json:"path"`
		SubGuid  string `json:"sub_guid"`
		MainGuid string `json:"main_guid"`
	}
	payload := struct {
		Differences []diff `json:"differences"`
		Skipped     int    `json:"skipped"`
	}{Differences: []diff{}}
	for _, e := range res.Corr.Entries {
		if e.Reason != mapping.MatchedByPath {
			continue
		}
		payload.Differences = append(payload.Differences, diff{
			Path:     e.Path,
			SubGuid:  string(e.SubGuid),
			MainGuid: string(e.MainGuid),
		})
	}
	payload.Skipped = len(res.Corr.Skipped)

	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) reportPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mainRoot, err := req.RequireString("main")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subRoot, err := req.RequireString("subordinate")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, p, err := s.svc.PlanSync(ctx, mainRoot, subRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("plan failed: %v", err)), nil
	}
	rep := report.Build(res.MainRoot, res.SubRoot, res.Corr, res.Sub, p)
	out, _ := json.MarshalIndent(rep, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSyncContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SyncContract), nil
}

func (s *Server) readSyncContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "guidsync://sync-contract",
			MIMEType: "text/markdown",
			Text:     SyncContract,
		},
	}, nil
}
