// Package supervisor assembles the data-analysis supervisor agent: sub-agent
// descriptors become delegation tools, a date-aware system prompt carries the
// fiscal-calendar guidance, and a formatter step scrubs virtual-filesystem
// commentary from the final answer.
package supervisor

// ServedAgent describes a sub-agent served behind a Responses-protocol
// endpoint. Built once from static configuration at startup and never
// mutated.
type ServedAgent struct {
	// Endpoint is the base URL of the serving endpoint.
	Endpoint string
	// Name is the display name; the tool name is derived from it with
	// whitespace and hyphens normalized to underscores.
	Name string
	// Task is a free-form category tag for the delegate.
	Task string
	// Description tells the model when to delegate to this agent.
	Description string
}

// QuerySpace describes a natural-language-to-SQL service space.
type QuerySpace struct {
	// BaseURL is the root of the query service API.
	BaseURL string
	// SpaceID selects the space to query.
	SpaceID string
	// Name is the display name used to derive the tool name.
	Name string
	// Description tells the model what data the space covers.
	Description string
}

// FunctionAgent describes an in-process agent backed by registered analytic
// functions. Each named function resolves to one tool.
type FunctionAgent struct {
	// Functions lists registered function names to resolve.
	Functions []string
	// Name is the display name of the agent.
	Name string
	// Description tells the model what the functions cover.
	Description string
}
