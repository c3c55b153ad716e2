package core

// Agent defines the core interface that all agents in Steward must implement.
//
// Agents are the primary processing units. They receive input through a
// RunContext, process it, and emit events to communicate results and state
// changes back to the Runner.
//
// The interface supports both simple single-agent scenarios and composed
// pipelines (e.g. a supervisor followed by a post-processing step) through the
// sub-agent management methods.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Emit events through the provided RunContext
//   - Handle the async resume mechanism properly
//   - Manage their lifecycle through Start/Stop methods
type Agent interface {
	Name() string
	Start(runCtx *RunContext) error
	Stop(runCtx *RunContext) error
	Run(runCtx *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
	Description() string
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "supervisor", "formatter").
type AgentInfo struct{ Name, Type string }
