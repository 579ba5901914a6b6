package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"studiomcp/internal/api"
	"studiomcp/pkg/logging"
)

const subsystem = "Tools"

// Options controls how tools are exposed.
type Options struct {
	// ReadOnly hides the write tools and rejects them if they are called anyway.
	ReadOnly bool
	// SanitizeErrors replaces upstream failure details with a generic message.
	SanitizeErrors bool
}

type invoker func(ctx context.Context, name string, schema *jsonschema.Schema, args map[string]any) (any, error)

type toolEntry struct {
	tool   mcp.Tool
	write  bool
	action string
	schema *jsonschema.Schema
	invoke invoker
}

// Tools exposes the api.Service operations as MCP tools.
type Tools struct {
	service *api.Service
	opts    Options

	entries map[string]*toolEntry
	order   []string
}

// New builds the tool set and compiles every input schema.
func New(service *api.Service, opts Options) (*Tools, error) {
	t := &Tools{
		service: service,
		opts:    opts,
		entries: make(map[string]*toolEntry),
	}

	for _, e := range t.definitions() {
		schema, err := compileSchema(e.tool)
		if err != nil {
			return nil, err
		}
		e.schema = schema
		t.entries[e.tool.Name] = e
		t.order = append(t.order, e.tool.Name)
	}
	return t, nil
}

// bind adapts a typed handler to the generic invoker.
func bind[P any](fn func(ctx context.Context, p P) (any, error)) invoker {
	return func(ctx context.Context, name string, schema *jsonschema.Schema, args map[string]any) (any, error) {
		params, err := decodeParams[P](name, schema, args)
		if err != nil {
			return nil, err
		}
		return fn(ctx, params)
	}
}

// Names returns the names of the tools that are exposed with the current options.
func (t *Tools) Names() []string {
	names := make([]string, 0, len(t.order))
	for _, name := range t.order {
		if t.exposed(t.entries[name]) {
			names = append(names, name)
		}
	}
	return names
}

// IsWrite reports whether the named tool mutates upstream state.
func (t *Tools) IsWrite(name string) bool {
	e, ok := t.entries[name]
	return ok && e.write
}

func (t *Tools) exposed(e *toolEntry) bool {
	return !(t.opts.ReadOnly && e.write)
}

// ServerTools returns the tools to register on an MCP server.
func (t *Tools) ServerTools() []server.ServerTool {
	out := make([]server.ServerTool, 0, len(t.order))
	for _, name := range t.Names() {
		out = append(out, server.ServerTool{
			Tool:    t.entries[name].tool,
			Handler: t.Handler(name),
		})
	}
	return out
}

// Handler returns the MCP handler for the named tool.
func (t *Tools) Handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return t.Call(ctx, name, req.GetArguments()), nil
	}
}

// Call runs one tool call. Failures are returned as error results, never as Go errors.
func (t *Tools) Call(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	requestID := uuid.NewString()
	log := logging.With(slog.String("request_id", requestID), slog.String("tool", name))

	e, ok := t.entries[name]
	if !ok {
		log.Warn(subsystem, "Unknown tool %s", name)
		return mcp.NewToolResultError(fmt.Sprintf("Unknown tool: %s", name))
	}

	if !t.exposed(e) {
		log.Warn(subsystem, "Rejected write tool %s in read-only mode", name)
		return mcp.NewToolResultError(fmt.Sprintf("Tool %s is not available: the server is running in read-only mode", name))
	}

	normalized, err := normalizeArguments(e.tool, args)
	if err != nil {
		log.Warn(subsystem, "Could not read arguments: %v", err)
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments for %s: %v", name, err))
	}

	log.Debug(subsystem, "Calling %s", name)
	result, err := e.invoke(ctx, name, e.schema, normalized)
	if err != nil {
		return t.errorResult(log, e, err)
	}
	log.Debug(subsystem, "Completed %s", name)

	return textResult(result)
}

func (t *Tools) errorResult(log *logging.Scoped, e *toolEntry, err error) *mcp.CallToolResult {
	var ve *ValidationError
	if errors.As(err, &ve) {
		log.Warn(subsystem, "Rejected arguments: %s", ve.Reason)
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %s", ve.Reason))
	}

	log.Error(subsystem, err, "Failed %s", e.action)
	if t.opts.SanitizeErrors {
		// Keep the ID of a scenario that now exists upstream.
		var ic *api.IncompleteCreateError
		if errors.As(err, &ic) {
			return mcp.NewToolResultError(fmt.Sprintf("Scenario %s was created but %s failed. Check the server logs for details.", ic.ScenarioID, ic.Stage))
		}
		return mcp.NewToolResultError(fmt.Sprintf("An error occurred while %s. Check the server logs for details.", e.action))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed %s: %v", e.action, err))
}

func textResult(result any) *mcp.CallToolResult {
	if s, ok := result.(string); ok {
		return mcp.NewToolResultText(s)
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(resultJSON)),
		},
	}
}
