package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"trailbook/internal/application/commands"
	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

// RegisterWriteTools adds all history-changing tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, open Opener) {
	s.AddTool(gotoTool(), gotoHandler(open))
	s.AddTool(undoTool(), undoHandler(open))
	s.AddTool(redoTool(), redoHandler(open))
	s.AddTool(resetTool(), resetHandler(open))
	s.AddTool(importTool(), importHandler(open))
	s.AddTool(noteTool(), noteHandler(open))
	s.AddTool(brushTool(), brushHandler(open))
}

// --- goto ---

func gotoTool() mcp.Tool {
	return mcp.NewTool("goto",
		mcp.WithDescription("Make a history node current. The rendered artifact follows the node's specification."),
		entityParam(),
		mcp.WithString("node",
			mcp.Description("Node ID, unique prefix, or 'root'"),
			mcp.Required(),
		),
	)
}

func gotoHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewNavigateCommand(h, req.GetString("node", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	})
}

// --- undo / redo ---

func undoTool() mcp.Tool {
	return mcp.NewTool("undo",
		mcp.WithDescription("Move to the parent of the current node."),
		entityParam(),
	)
}

func undoHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewUndoCommand(h).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	})
}

func redoTool() mcp.Tool {
	return mcp.NewTool("redo",
		mcp.WithDescription("Move to the most recently created child of the current node."),
		entityParam(),
	)
}

func redoHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewRedoCommand(h).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	})
}

// --- reset ---

func resetTool() mcp.Tool {
	return mcp.NewTool("reset",
		mcp.WithDescription("Discard the history and start from a blank root. With reload=true the saved history is re-read instead."),
		entityParam(),
		mcp.WithBoolean("reload",
			mcp.Description("Re-read the saved history instead of discarding it"),
		),
	)
}

func resetHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewResetCommand(h, req.GetBool("reload", false)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	})
}

// --- import ---

func importTool() mcp.Tool {
	return mcp.NewTool("import",
		mcp.WithDescription("Replace the history of an entity with an export produced by the export tool."),
		entityParam(),
		mcp.WithString("export",
			mcp.Description("Exported history JSON"),
			mcp.Required(),
		),
	)
}

func importHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewImportCommand(h, req.GetString("export", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	})
}

// --- note ---

func noteTool() mcp.Tool {
	return mcp.NewTool("note",
		mcp.WithDescription("Record a message in the history state as a new node."),
		entityParam(),
		mcp.WithString("message",
			mcp.Description("Message to record"),
			mcp.Required(),
		),
	)
}

func noteHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewMessageCommand(h, req.GetString("message", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Recorded %s", result.NodeID)), nil
	})
}

// --- brush ---

func brushTool() mcp.Tool {
	return mcp.NewTool("brush",
		mcp.WithDescription("Record an interval selection on the entity's active specification, as if the user had brushed it."),
		entityParam(),
		mcp.WithString("selection",
			mcp.Description("Interval selection name defined in the specification (e.g. brush)"),
			mcp.Required(),
		),
		mcp.WithString("ranges",
			mcp.Description(`Field ranges as a JSON object, e.g. {"horsepower": [50, 120]}`),
			mcp.Required(),
		),
	)
}

func brushHandler(open Opener) server.ToolHandlerFunc {
	return withHistory(open, func(ctx context.Context, h ports.History, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw map[string][]float64
		if err := json.Unmarshal([]byte(req.GetString("ranges", "")), &raw); err != nil {
			return toolError(fmt.Errorf("ranges must be a JSON object of [lo, hi] pairs: %w", err))
		}
		ranges, err := parseRanges(raw)
		if err != nil {
			return toolError(err)
		}

		result, err := commands.NewBrushCommand(h, req.GetString("selection", ""), ranges).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	})
}

func parseRanges(raw map[string][]float64) (map[string]domain.Range, error) {
	ranges := make(map[string]domain.Range, len(raw))
	for field, bounds := range raw {
		if len(bounds) != 2 {
			return nil, fmt.Errorf("range of %s must have two bounds, got %d", field, len(bounds))
		}
		ranges[field] = domain.Range{bounds[0], bounds[1]}
	}
	return ranges, nil
}
