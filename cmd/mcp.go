package cmd

import (
	"context"
	"fmt"
	"strings"

	"quickfind/internal/format"
	"quickfind/internal/query"
	"quickfind/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server exposing file index lookup tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			return mcpserver.ServeStdio(newMCPServer(st, query.NewEngine(st, a.logger), a.settings.Search.DefaultLimit))
		},
	}
}

func newMCPServer(st store.Store, engine *query.Engine, defaultLimit int) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("quickfind", Version, mcpserver.WithToolCapabilities(false))
	s.AddTool(searchFilesTool(defaultLimit), makeSearchFilesHandler(engine, defaultLimit))
	s.AddTool(indexStatusTool(), makeIndexStatusHandler(st))
	return s
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchFilesTool(defaultLimit int) mcp.Tool {
	return mcp.NewTool("search_files",
		mcp.WithDescription("Look up files in the local file index by name. Patterns with * or ? are case-insensitive wildcards over the whole filename, largest files first; other patterns match filenames containing the text, sorted by name."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Substring or wildcard pattern, e.g. 'report' or '*.pdf'"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of files to return (default %d)", defaultLimit)),
		),
	)
}

func indexStatusTool() mcp.Tool {
	return mcp.NewTool("index_status",
		mcp.WithDescription("Report how many files are indexed and when the index was last refreshed."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchFilesHandler(engine *query.Engine, defaultLimit int) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pattern := req.GetString("pattern", "")
		if pattern == "" {
			return mcp.NewToolResultError("pattern is required"), nil
		}
		limit := req.GetInt("limit", defaultLimit)

		res, err := engine.Search(ctx, pattern, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if res.Empty {
			return mcp.NewToolResultText("The file index is empty. Run 'quickfind refresh' to build it."), nil
		}
		return mcp.NewToolResultText(formatSearchMarkdown(pattern, res)), nil
	}
}

func makeIndexStatusHandler(st store.Store) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		total, err := st.CountAll(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## File index\n\n**Files:** %d\n", total)

		if last, ok, err := st.MaxIndexedAt(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("read last refresh time failed: %v", err)), nil
		} else if ok {
			fmt.Fprintf(&sb, "**Last updated:** %s\n", format.Timestamp(last))
		}

		run, err := st.LastRun(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("read last run failed: %v", err)), nil
		}
		if run != nil {
			fmt.Fprintf(&sb, "**Roots:** %s\n**Skipped last run:** %d\n", strings.Join(run.Roots, ", "), run.Skipped)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatSearchMarkdown(pattern string, res *query.Result) string {
	if len(res.Records) == 0 {
		return fmt.Sprintf("No files matching %q among %d indexed files.", pattern, res.Total)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Files matching %q (%s, %d shown)\n\n", pattern, res.Mode, len(res.Records))
	for i, r := range res.Records {
		fmt.Fprintf(&sb, "%d. **%s**  \n   `%s`  \n   %s, modified %s\n",
			i+1, r.Filename, r.Filepath, format.Size(r.Filesize), format.Timestamp(r.LastModified))
	}
	return sb.String()
}
