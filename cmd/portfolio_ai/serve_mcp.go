package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// version is reported to MCP clients
const version = "0.1.0"

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the pipeline as MCP tools over stdio",
	Long: `Serve extract_text, render_markdown, synthesize_cv and generate_cv as Model Context
Protocol tools on stdin/stdout. Rendered artifacts are removed after cleanup_delay_seconds.`,
	RunE: runServeMCP,
}

func init() {
	rootCmd.AddCommand(serveMCPCmd)
}

func runServeMCP(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcp.NewServer(&mcp.Implementation{Name: "portfolio-ai", Version: version}, nil)
	a.pipeline.RegisterMCP(srv)

	a.logger.Info("serving MCP over stdio", "temp_dir", a.alloc.Dir(), "cleanup_delay", a.cfg.CleanupDelay())
	return srv.Run(cmd.Context(), &mcp.StdioTransport{})
}
