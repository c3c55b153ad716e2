// Package vfs implements the in-memory virtual filesystem backing the
// supervisor's file tools. Each session owns an isolated path-to-content
// mapping used by middleware to offload large tool output from the
// conversation context; the serving layer surfaces the final mapping to
// callers alongside the agent's answer.
package vfs
