package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/edvin/saaslens/internal/llm"
)

// Caller runs a catalog tool and returns its JSON result.
type Caller interface {
	Definitions() []llm.ToolDefinition
	Call(ctx context.Context, name, args string) json.RawMessage
}

func boolPtr(b bool) *bool { return &b }

// BuildTools converts the enabled catalog tools into MCP tools. Unknown names
// in the config are an error so a typo doesn't silently hide a tool.
func BuildTools(cfg *Config, catalog Caller) ([]server.ServerTool, error) {
	enabled := cfg.enabled()
	known := map[string]bool{}

	var tools []server.ServerTool
	for _, def := range catalog.Definitions() {
		fn := def.Function
		known[fn.Name] = true
		if enabled != nil && !enabled[fn.Name] {
			continue
		}

		desc := fn.Description
		override, hasOverride := cfg.Overrides[fn.Name]
		if hasOverride && override.Description != "" {
			desc = override.Description
		}

		tool := mcp.NewToolWithRawSchema(fn.Name, desc, fn.Parameters)
		tool.Annotations = mcp.ToolAnnotation{
			Title:           override.Title,
			ReadOnlyHint:    boolPtr(true),
			DestructiveHint: boolPtr(false),
			IdempotentHint:  boolPtr(true),
			OpenWorldHint:   boolPtr(false),
		}
		tools = append(tools, server.ServerTool{Tool: tool, Handler: toolHandler(catalog, fn.Name)})
	}

	for name := range enabled {
		if !known[name] {
			return nil, fmt.Errorf("mcp config enables unknown tool %q", name)
		}
	}
	for name := range cfg.Overrides {
		if !known[name] {
			return nil, fmt.Errorf("mcp config overrides unknown tool %q", name)
		}
	}
	return tools, nil
}

// toolHandler forwards an MCP call to the catalog. Catalog errors come back
// as {"error": ...} documents and are flagged as tool errors.
func toolHandler(catalog Caller, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode arguments: %s", err)), nil
		}

		out := catalog.Call(ctx, name, string(args))
		if isError(out) {
			return mcp.NewToolResultError(string(out)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func isError(doc json.RawMessage) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		return false
	}
	_, ok := obj["error"]
	return ok && len(obj) == 1
}
