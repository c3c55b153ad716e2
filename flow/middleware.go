package flow

import (
	"github.com/stewardai/steward/tool"
)

// Middleware bundles a cross-cutting capability that an agent can opt into.
//
// A middleware may contribute any combination of:
//   - extra system prompt text appended after the agent's own instructions
//   - tools exposed to the model alongside the agent's registered tools
//   - a wrapper applied to every tool, letting it intercept results
//   - request / response processors run inside the flow pipeline
//
// All accessors may return zero values; a middleware only implements the
// hooks it needs. Embed PassthroughMiddleware to get no-op defaults.
type Middleware interface {
	// Name returns the middleware identifier used in logs.
	Name() string

	// Instruction returns additional system prompt text, or "" for none.
	Instruction() string

	// Tools returns the tools this middleware contributes to the agent.
	Tools() []tool.Tool

	// WrapTool may decorate a tool to observe or rewrite its results.
	// Implementations must return the input unchanged when they do not
	// intercept it.
	WrapTool(t tool.Tool) tool.Tool

	// RequestProcessor returns a processor run before each model call,
	// or nil for none.
	RequestProcessor() RequestProcessor

	// ResponseProcessor returns a processor run on each model response,
	// or nil for none.
	ResponseProcessor() ResponseProcessor
}

// PassthroughMiddleware provides no-op defaults for every Middleware hook
// except Name. Embed it and override what the middleware needs.
type PassthroughMiddleware struct{}

func (PassthroughMiddleware) Instruction() string                  { return "" }
func (PassthroughMiddleware) Tools() []tool.Tool                   { return nil }
func (PassthroughMiddleware) WrapTool(t tool.Tool) tool.Tool       { return t }
func (PassthroughMiddleware) RequestProcessor() RequestProcessor   { return nil }
func (PassthroughMiddleware) ResponseProcessor() ResponseProcessor { return nil }
