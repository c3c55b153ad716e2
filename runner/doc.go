// Package runner implements the core orchestration layer for Steward.
//
// The Runner serves as the central coordination hub that manages the complete
// lifecycle of agent conversations and workflows. It bridges the gap between
// high-level serving operations and low-level agent implementations, providing
// a robust foundation for scalable agent orchestration.
//
// # Responsibilities (abridged)
//   - Agent run orchestration (async streaming + sync helper via façade)
//   - Event processing & side‑effect application (session state, virtual files)
//   - Session history persistence
//   - Run lifecycle management & cancellation
//
// See runner.go for the operational implementation details.
package runner
