// Package mcp implements the Model Context Protocol server for protodex
// using the mcp-go library.
//
// The server exposes the protocol corpus to AI assistants as tools: direct
// lookup by name or trigger, weighted full-text search, fuzzy name matching,
// and task routing. It communicates over stdin/stdout using JSON-RPC 2.0 as
// specified by the MCP standard.
package mcp

import (
	"context"
	"fmt"
	"os"

	"protodex/internal/config"
	"protodex/internal/logging"
	"protodex/internal/protocol"
	"protodex/internal/scanner"
	"protodex/internal/search"
	"protodex/pkg/fileops"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Service bundles the shared dependencies every tool handler needs.
type Service struct {
	scanner *scanner.Scanner
	indexer *search.Indexer
	matcher *search.Matcher
	logger  *logging.AppLogger
}

// protocolNames lists the names of all scanned protocols in scan order.
func (s *Service) protocolNames() []string {
	records, err := s.scanner.Scan()
	if err != nil {
		return nil
	}
	names := make([]string, len(records))
	for i := range records {
		names[i] = records[i].Name
	}
	return names
}

// protocolContent returns a protocol's raw content. The file path is
// resolved under the protocols root and checked for containment before any
// read; escapes are rejected with INVALID_PATH.
func (s *Service) protocolContent(meta *protocol.Metadata) (string, *ProtocolError) {
	resolved, err := fileops.ResolveWithin(s.scanner.Root(), meta.FilePath)
	if err != nil {
		return "", newProtocolError(ErrInvalidPath, "invalid protocol path %q: %v", meta.FilePath, err)
	}

	if content, ok := s.scanner.Contents()[meta.ContentKey()]; ok {
		return content, nil
	}

	// Cache miss: the file appeared after the scan. Verify it is a readable
	// regular file, then read it directly.
	if err := fileops.ValidateFileAccess(resolved); err != nil {
		return "", wrapInternal(fmt.Errorf("protocol file %s: %w", meta.FilePath, err))
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return "", wrapInternal(fmt.Errorf("reading %s: %w", meta.FilePath, err))
	}
	return string(raw), nil
}

// Server wires the scanner, index, and tool handlers into an MCP server.
type Server struct {
	config    *config.Config
	logger    *logging.AppLogger
	service   *Service
	mcpServer *server.MCPServer
	tools     map[string]server.ToolHandlerFunc
}

// NewServer creates an MCP server instance. The scanner is constructed and
// the index built in Start.
func NewServer(cfg *config.Config, logger *logging.AppLogger) *Server {
	return &Server{
		config: cfg,
		logger: logger,
	}
}

// Start scans the protocol corpus, builds the search index, registers all
// tools, and serves on stdio until EOF. A missing protocols directory is a
// construction failure and aborts startup.
func (s *Server) Start() error {
	s.logger.Info("Initializing MCP server", "protocolsDir", s.config.ProtocolsDir)

	if err := s.Initialize(); err != nil {
		return err
	}

	s.logger.Info("MCP server created, starting stdio communication")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Initialize builds the service and registers tools without serving. The
// CLI uses it to dispatch one-off tool calls via CallTool.
func (s *Server) Initialize() error {
	sc, err := scanner.New(s.config.ProtocolsDir, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize protocol scanner: %w", err)
	}

	records, err := sc.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan protocols: %w", err)
	}
	s.logger.Info("Protocols loaded", "count", len(records), "readErrors", sc.ReadErrors())

	indexer := search.NewIndexer()
	indexer.Build(records, sc.Contents())

	s.service = &Service{
		scanner: sc,
		indexer: indexer,
		matcher: search.NewMatcher(),
		logger:  s.logger,
	}

	s.mcpServer = server.NewMCPServer(
		"protodex",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	s.tools = make(map[string]server.ToolHandlerFunc)

	getTool := NewGetProtocolTool(s.service)
	s.register(getTool.Definition(), getTool.Handle)

	listTool := NewListProtocolsTool(s.service)
	s.register(listTool.Definition(), listTool.Handle)

	triggerTool := NewGetProtocolByTriggerTool(s.service)
	s.register(triggerTool.Definition(), triggerTool.Handle)

	searchTool := NewSearchProtocolsTool(s.service)
	s.register(searchTool.Definition(), searchTool.Handle)

	fuzzyTool := NewFuzzyMatchProtocolTool(s.service)
	s.register(fuzzyTool.Definition(), fuzzyTool.Handle)

	routeTool := NewRouteTaskTool(s.service)
	s.register(routeTool.Definition(), routeTool.Handle)

	return nil
}

// register adds a tool to the stdio server and to the local dispatch table
// used by CallTool.
func (s *Server) register(def mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools[def.Name] = handler
	s.mcpServer.AddTool(def, handler)
}

// CallTool dispatches a single tool call by name outside the stdio
// transport, as used by the CLI. A name no tool is registered under yields
// an UNKNOWN_TOOL error payload, not a Go error.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	handler, ok := s.tools[name]
	if !ok {
		return toolError(newProtocolError(ErrUnknownTool, "unknown tool %q", name)), nil
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return handler(ctx, req)
}

// Stop gracefully shuts down the MCP server.
func (s *Server) Stop() error {
	s.logger.Info("Stopping MCP server")
	return nil
}

// serverInstructions tells the connected assistant how to use the tools.
func serverInstructions() string {
	return `You have access to protodex, a protocol knowledge-base MCP server.

Protocols are reusable workflow documents selected by trigger keywords
(e.g. DEEPDIVE, FULLINDEX, COMPREHENSIVE).

Tool guide:
- Use list_protocols to discover what is available.
- Use get_protocol or get_protocol_by_trigger when you know what you want.
- Use search_protocols for free-text discovery; pass project_root to favor
  protocols matching the project's tech stack.
- Use fuzzy_match_protocol when a protocol name lookup fails.
- Use route_task with a task description to get a recommended ordered
  workflow of protocols, with shortcuts for smaller scopes.

Start a task by calling route_task, then fetch each recommended protocol
by its trigger as you reach that step.`
}
