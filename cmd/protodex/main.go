// Package main is the entry point for the protodex MCP server.
//
// Startup sequence:
//
// 1. Initialize logging system
// 2. Load configuration from disk (defaults when absent)
// 3. Resolve the protocols directory (env > flag > config > default)
// 4. Scan the corpus and serve MCP over stdio
//
// The server reads JSON-RPC requests from stdin and writes responses to
// stdout until it receives EOF or is terminated, so all logging goes to
// stderr or the debug log file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"protodex/internal/config"
	"protodex/internal/logging"
	"protodex/internal/mcp"
	"protodex/internal/scanner"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

var protocolsFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "protodex",
		Short: "Protocol knowledge-base MCP server",
		Long: `protodex indexes a directory of protocol markdown documents and serves
them to AI assistants over the Model Context Protocol: lookup by name or
trigger, full-text search, fuzzy matching, and task routing.`,
		// Running with no subcommand serves MCP on stdio, which is what
		// MCP client configurations expect.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	rootCmd.PersistentFlags().StringVar(&protocolsFlag, "protocols", "", "path to the protocols directory")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the protocol corpus over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scanned protocols and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}

	callCmd := &cobra.Command{
		Use:   "call <tool> [arguments-json]",
		Short: "Invoke a single tool directly and print the payload",
		Long: `Invoke one MCP tool outside the stdio transport, for inspection and
scripting. Arguments are passed as a JSON object, for example:

  protodex call search_protocols '{"query": "debug"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(args)
		},
	}

	rootCmd.AddCommand(serveCmd, listCmd, callCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies the protocols dir precedence.
func loadConfig(logger *logging.AppLogger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ProtocolsDir = cfg.ResolveProtocolsDir(protocolsFlag)
	logger.Debug("Configuration loaded", "protocolsDir", cfg.ProtocolsDir)
	return cfg, nil
}

func runServe() error {
	logger := logging.NewAppLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("Error loading config", "error", err)
		return err
	}

	srv := mcp.NewServer(cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Error("Server failed", "error", err)
		return err
	}
	return nil
}

func runCall(args []string) error {
	logger := logging.NewAppLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("Error loading config", "error", err)
		return err
	}

	toolArgs := map[string]any{}
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}

	srv := mcp.NewServer(cfg, logger)
	if err := srv.Initialize(); err != nil {
		logger.Error("Server initialization failed", "error", err)
		return err
	}

	result, err := srv.CallTool(context.Background(), args[0], toolArgs)
	if err != nil {
		return err
	}

	for _, content := range result.Content {
		if text, ok := content.(mcptypes.TextContent); ok {
			fmt.Println(text.Text)
		}
	}
	if result.IsError {
		os.Exit(1)
	}
	return nil
}

func runList() error {
	logger := logging.NewAppLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("Error loading config", "error", err)
		return err
	}

	sc, err := scanner.New(cfg.ProtocolsDir, logger)
	if err != nil {
		logger.Error("Error opening protocols directory", "error", err)
		return err
	}

	records, err := sc.Scan()
	if err != nil {
		logger.Error("Scan failed", "error", err)
		return err
	}

	for i := range records {
		meta := &records[i]
		fmt.Printf("%-40s %-16s %s\n", meta.Name, meta.Category, meta.Title)
	}
	fmt.Printf("\n%d protocols", len(records))
	if n := sc.ReadErrors(); n > 0 {
		fmt.Printf(" (%d unreadable files skipped)", n)
	}
	fmt.Println()
	return nil
}
