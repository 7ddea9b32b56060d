package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// emptyArgs replaces argument payloads that are malformed or fail schema
// validation. Tools treat missing fields as "ask the user to clarify", so a
// bad payload degrades to a clarification rather than failing the turn.
var emptyArgs = json.RawMessage(`{}`)

type entry struct {
	tool   Tool
	schema *jsonschema.Schema
}

// Registry holds the static tool catalog, built once at startup and read-only
// afterwards. Registration compiles each tool's argument schema so dispatch
// can validate payloads cheaply.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tools  map[string]entry
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]entry),
		logger: logger.With("component", "tools"),
	}
}

// Register adds a tool and compiles its argument schema. A tool with an
// invalid schema is a programming error, reported at startup.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("register: nil tool")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("register: tool with empty name")
	}

	compiler := jsonschema.NewCompiler()
	res := name + ".schema.json"
	if err := compiler.AddResource(res, bytes.NewReader(t.Schema())); err != nil {
		return fmt.Errorf("register %s: invalid schema: %w", name, err)
	}
	schema, err := compiler.Compile(res)
	if err != nil {
		return fmt.Errorf("register %s: compile schema: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("register: duplicate tool %q", name)
	}
	r.order = append(r.order, name)
	r.tools[name] = entry{tool: t, schema: schema}
	return nil
}

// All returns the catalog in registration order, for declaring tools to the
// model gateway.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}
	return out
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e.tool, ok
}

// Dispatch runs a named tool against a raw argument payload and always
// returns result text. An unknown name yields a literal placeholder so the
// conversation can proceed even when the model hallucinates a tool; malformed
// or schema-invalid arguments degrade to an empty argument set.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs json.RawMessage) string {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("dispatch of unknown tool", "tool", name)
		return fmt.Sprintf("unknown tool: %s", name)
	}

	args := r.validateArgs(name, e.schema, rawArgs)

	result, err := e.tool.Execute(ctx, args)
	if err != nil {
		// Tools report data failures inside the result; an error here is
		// unexpected and still must not abort the turn.
		r.logger.Error("tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("the %s tool hit an internal problem and returned no data", name)
	}
	if result.IsError {
		r.logger.Warn("tool degraded", "tool", name, "result", result.Content)
	}
	return result.Content
}

// validateArgs returns rawArgs when it parses and satisfies the tool schema,
// and the empty argument set otherwise.
func (r *Registry) validateArgs(name string, schema *jsonschema.Schema, rawArgs json.RawMessage) json.RawMessage {
	if len(rawArgs) == 0 {
		return emptyArgs
	}
	var decoded any
	if err := json.Unmarshal(rawArgs, &decoded); err != nil {
		r.logger.Warn("malformed tool arguments, using defaults", "tool", name, "error", err)
		return emptyArgs
	}
	if err := schema.Validate(decoded); err != nil {
		r.logger.Warn("tool arguments failed validation, using defaults", "tool", name, "error", err)
		return emptyArgs
	}
	return rawArgs
}
