// Package core provides the foundational domain types, interfaces and execution
// contexts used by Steward. It defines the core abstractions for:
//
//   - Agents (units of autonomous / orchestrated work)
//   - Sessions (stateful conversational containers with event history)
//   - Events (immutable communication + orchestration records)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - Pluggable stores for session state, virtual files and memory recall/search
//
// The package intentionally keeps implementation concerns (persistence, runner
// orchestration, concrete agents) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
