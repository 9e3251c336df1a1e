package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"trailbook/internal/application"
	"trailbook/internal/application/commands"
	"trailbook/internal/ports"
)

// Opener returns the history of an entity
type Opener func(ctx context.Context, entityID string) (ports.History, error)

// RegisterReadTools adds all read-only history tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, store ports.MetadataStore, open Opener) {
	s.AddTool(listTool(), listHandler(store))
	s.AddTool(treeTool(), treeHandler(open))
	s.AddTool(showTool(), showHandler(open))
	s.AddTool(queryTool(), queryHandler(open))
	s.AddTool(exportTool(), exportHandler(open))
}

// --- list_entities ---

func listTool() mcp.Tool {
	return mcp.NewTool("list_entities",
		mcp.WithDescription("List every entity with a recorded interaction history."),
	)
}

func listHandler(store ports.MetadataStore) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entities, err := commands.NewListEntitiesCommand(store).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(entities, func(e commands.EntitySummary) string {
			if !e.HasBaseline {
				return e.ID + "  (no baseline)"
			}
			return e.ID
		})
	}
}

// --- history_tree ---

func treeTool() mcp.Tool {
	return mcp.NewTool("history_tree",
		mcp.WithDescription("Display the interaction history of an entity as a tree. The current node is marked with *."),
		entityParam(),
	)
}

func treeHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewTreeCommand(h).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		var sb strings.Builder
		renderTree(&sb, res.Root, "")
		return mcp.NewToolResultText(sb.String()), nil
	})
}

func renderTree(sb *strings.Builder, node *application.TreeNode, prefix string) {
	marker := " "
	if node.IsCurrent {
		marker = "*"
	}
	fmt.Fprintf(sb, "%s%s %s  %s  %s\n", prefix, marker, node.ID, node.Label, node.CreatedAt.Format("2006-01-02T15:04:05"))
	for _, child := range node.Children {
		renderTree(sb, child, prefix+"  ")
	}
}

// --- show_node ---

func showTool() mcp.Tool {
	return mcp.NewTool("show_node",
		mcp.WithDescription("Show the state recorded at a history node: message, interactions and the node's own interaction."),
		entityParam(),
		nodeParam("Node ID, unique prefix, 'root' or 'current'. Defaults to the current node."),
		formatParam(),
	)
}

func showHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewShowCommand(h, req.GetString("node", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		doc := map[string]any{
			"id":         res.Node.ID,
			"parent":     res.Node.ParentID,
			"label":      res.Node.Label,
			"created_at": res.Node.CreatedAt,
			"current":    res.IsCurrent,
			"state":      res.State,
		}
		if res.Interaction != nil {
			doc["interaction"] = res.Interaction
		}
		return formatDocument(doc, req.GetString("format", "yaml"))
	})
}

// --- query ---

func queryTool() mcp.Tool {
	return mcp.NewTool("query",
		mcp.WithDescription("Render the brushes applied up to a node as a pandas query expression."),
		entityParam(),
		nodeParam("Node ID, unique prefix, 'root' or 'current'. Defaults to the current node."),
	)
}

func queryHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewQueryCommand(h, req.GetString("node", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if res.Query == "" {
			return mcp.NewToolResultText("No brush applied."), nil
		}
		return mcp.NewToolResultText(res.Query), nil
	})
}

// --- export ---

func exportTool() mcp.Tool {
	return mcp.NewTool("export",
		mcp.WithDescription("Export the complete history of an entity as JSON, suitable for import."),
		entityParam(),
	)
}

func exportHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewExportCommand(h).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(res.Export), nil
	})
}

// --- helpers ---

func entityParam() mcp.ToolOption {
	return mcp.WithString("entity_id",
		mcp.Description("Entity whose history to use (e.g. a notebook cell id)"),
		mcp.Required(),
	)
}

func nodeParam(desc string) mcp.ToolOption {
	return mcp.WithString("node", mcp.Description(desc))
}

func formatParam() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Output format"),
		mcp.Enum("yaml", "json"),
	)
}

type historyHandler func(ctx context.Context, h ports.History, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// withHistory resolves the entity_id argument before calling fn
func withHistory(open Opener, fn historyHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entityID := req.GetString("entity_id", "")
		if err := application.ValidateRequired("entityID", entityID); err != nil {
			return toolError(err)
		}
		h, err := open(ctx, entityID)
		if err != nil {
			return toolError(err)
		}
		return fn(ctx, h, req)
	}
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatDocument renders v as indented JSON or as YAML. Field names follow
// the JSON encoding in both formats.
func formatDocument(v any, format string) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err)
	}
	switch format {
	case "json":
		return mcp.NewToolResultText(string(data)), nil
	case "yaml", "":
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return toolError(err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(string(out)), nil
	default:
		return toolError(fmt.Errorf("unknown format %q (expected yaml or json)", format))
	}
}
