// Package subagent provides clients for the delegates the supervisor hands
// work to: a served agent endpoint speaking the Responses protocol and a
// natural-language-to-SQL query service. Both clients are thin: failures
// propagate unmodified to the calling tool.
package subagent
