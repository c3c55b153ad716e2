// Package middleware provides the cross-cutting agent capabilities wired into
// the supervisor by its factory: planning (todo tracking), filesystem
// (virtual-file tools plus large-tool-result eviction), summarization
// (token-budget history compaction) and tool-call repair. Each capability
// implements flow.Middleware and contributes some mix of prompt guidance,
// tools, tool wrappers and request processors.
package middleware
