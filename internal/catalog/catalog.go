// Package catalog declares the fixed set of named EOS bridge operations and
// binds each one to the directory adapter. The catalog is transport
// metadata plus handlers: the MCP dispatcher registers every operation as a
// tool, while Invoke gives direct access for callers and tests.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eigital/eos-bridge/internal/directory"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrOperationNotFound indicates a dispatch request for an unknown operation
// name. Unlike upstream failures this is a programming-level fault and is
// raised to the caller instead of being wrapped in an envelope.
var ErrOperationNotFound = errors.New("operation not found")

// Handler executes one catalog operation against raw JSON arguments. It
// returns exactly one envelope; the error return is reserved for malformed
// arguments and other programming faults, never for upstream failures.
type Handler func(ctx context.Context, args json.RawMessage) (directory.Result, error)

// Operation describes one named, schema-declared bridge operation.
type Operation struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     Handler

	register func(*mcp.Server)
}

// Register adds this operation to an MCP server as a typed tool.
func (op Operation) Register(server *mcp.Server) {
	if server == nil || op.register == nil {
		return
	}
	op.register(server)
}

// Catalog is the static, insertion-ordered operation registry. It is built
// once per directory service and never mutated afterwards.
type Catalog struct {
	ops    []Operation
	byName map[string]Operation
}

// New builds the fixed operation catalog bound to svc.
func New(svc directory.Service) *Catalog {
	ops := []Operation{
		loginOperation(svc),
		currentUserOperation(svc),
		listUsersOperation(svc),
		inviteUserOperation(svc),
		updateUserStatusOperation(svc),
		deleteUserOperation(svc),
		healthCheckOperation(svc),
	}
	byName := make(map[string]Operation, len(ops))
	for _, op := range ops {
		byName[op.Name] = op
	}
	return &Catalog{ops: ops, byName: byName}
}

// Operations returns the catalog entries in registration order.
func (c *Catalog) Operations() []Operation {
	if c == nil {
		return nil
	}
	ops := make([]Operation, len(c.ops))
	copy(ops, c.ops)
	return ops
}

// Lookup resolves one operation by exact name.
func (c *Catalog) Lookup(name string) (Operation, bool) {
	if c == nil {
		return Operation{}, false
	}
	op, ok := c.byName[name]
	return op, ok
}

// Invoke dispatches one operation by name. Unknown names raise
// ErrOperationNotFound; everything an operation can fail on upstream comes
// back as a failure envelope, not an error.
func (c *Catalog) Invoke(ctx context.Context, name string, args json.RawMessage) (directory.Result, error) {
	op, ok := c.Lookup(name)
	if !ok {
		return directory.Result{}, fmt.Errorf("%w: %q", ErrOperationNotFound, name)
	}
	return op.Handler(ctx, args)
}

// newOperation builds one catalog entry from a typed operation func. The
// same func backs both the raw-JSON handler used by Invoke and the typed
// MCP tool registration, so the two dispatch paths cannot drift.
func newOperation[I any](name, description string, schema *jsonschema.Schema, fn func(context.Context, I) directory.Result) Operation {
	handler := func(ctx context.Context, args json.RawMessage) (directory.Result, error) {
		var in I
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return directory.Result{}, fmt.Errorf("decode %s arguments: %w", name, err)
			}
		}
		return fn(ctx, in), nil
	}
	register := func(server *mcp.Server) {
		tool := &mcp.Tool{Name: name, Description: description, InputSchema: schema}
		mcp.AddTool(server, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in I) (*mcp.CallToolResult, any, error) {
			result := fn(ctx, in)
			payload, err := json.Marshal(result)
			if err != nil {
				return nil, nil, fmt.Errorf("tool %s: encode result: %w", name, err)
			}
			return &mcp.CallToolResult{
				IsError: !result.Success,
				Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
			}, nil, nil
		})
	}
	return Operation{
		Name:        name,
		Description: description,
		InputSchema: schema,
		Handler:     handler,
		register:    register,
	}
}

// objectSchema declares one object input schema as boundary metadata.
func objectSchema(required []string, properties map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: properties, Required: required}
}

// stringSchema declares one string property.
func stringSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

// enumSchema declares one string property restricted to a closed set.
func enumSchema(description string, values []string) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, value := range values {
		enum[i] = value
	}
	return &jsonschema.Schema{Type: "string", Description: description, Enum: enum}
}
