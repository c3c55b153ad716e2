package middleware

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/flow"
	"github.com/stewardai/steward/tool"
)

// FilesStateKey is the session state key mirroring the virtual filesystem as
// a path-to-content map. The serving layer reads it to build custom outputs.
const FilesStateKey = "files"

// EvictionDir is where oversized tool results are parked, one file per
// function call ID.
const EvictionDir = "/large_tool_results"

// DefaultEvictionThreshold is the result size (in characters) above which a
// tool result is moved out of the conversation into the virtual filesystem.
// Roughly 15000 tokens at 4 characters per token.
const DefaultEvictionThreshold = 60000

// evictionPreviewLen bounds the inline preview kept in place of an evicted result.
const evictionPreviewLen = 500

const filesystemInstruction = `## Virtual filesystem

You have access to a session-scoped virtual filesystem through the ls,
read_file, write_file, edit_file, glob and grep tools. Oversized tool results
are saved under ` + EvictionDir + ` and replaced with a preview; use read_file
to inspect them. Paths are plain strings, "/" separated.`

// FilesystemOptions configures the filesystem middleware.
type FilesystemOptions struct {
	// EvictionThreshold overrides DefaultEvictionThreshold. Zero keeps the default.
	EvictionThreshold int
}

// Filesystem exposes virtual-file tools and evicts large tool results out of
// the conversation context into the session's file store.
type Filesystem struct {
	flow.PassthroughMiddleware
	threshold int
}

// NewFilesystem constructs the filesystem middleware.
func NewFilesystem(optFns ...func(o *FilesystemOptions)) *Filesystem {
	opts := FilesystemOptions{EvictionThreshold: DefaultEvictionThreshold}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.EvictionThreshold <= 0 {
		opts.EvictionThreshold = DefaultEvictionThreshold
	}
	return &Filesystem{threshold: opts.EvictionThreshold}
}

// Name returns the middleware identifier.
func (f *Filesystem) Name() string { return "filesystem" }

// Instruction returns the virtual filesystem guidance for the system prompt.
func (f *Filesystem) Instruction() string { return filesystemInstruction }

// ownTools lists the tools this middleware contributes. Their results are
// never evicted; parking a read_file result back into a file would loop.
var ownTools = map[string]bool{
	"ls": true, "read_file": true, "write_file": true,
	"edit_file": true, "glob": true, "grep": true,
}

// WrapTool intercepts results from non-filesystem tools and evicts oversized
// ones to the virtual filesystem, leaving a preview in their place.
func (f *Filesystem) WrapTool(t tool.Tool) tool.Tool {
	if ownTools[t.Name()] {
		return t
	}
	return &evictingTool{inner: t, threshold: f.threshold}
}

type evictingTool struct {
	inner     tool.Tool
	threshold int
}

func (e *evictingTool) Name() string                       { return e.inner.Name() }
func (e *evictingTool) Description() string                { return e.inner.Description() }
func (e *evictingTool) Parameters() map[string]interface{} { return e.inner.Parameters() }

func (e *evictingTool) Call(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	result, err := e.inner.Call(tc, args)
	if err != nil {
		return result, err
	}

	text := stringifyResult(result)
	if len(text) <= e.threshold {
		return result, nil
	}

	filePath := EvictionDir + "/" + tc.FunctionCallID()
	if saveErr := tc.SaveFile(filePath, []byte(text)); saveErr != nil {
		return result, nil // keep the inline result if eviction fails
	}
	mirrorFiles(tc)

	tc.LogInfo("middleware.filesystem.evicted", "tool", e.inner.Name(), "path", filePath, "size", len(text))

	preview := text
	if len(preview) > evictionPreviewLen {
		preview = preview[:evictionPreviewLen]
	}
	return fmt.Sprintf(
		"Result too large for the conversation (%d characters). Full output saved to %s; use read_file to inspect it.\n\nPreview:\n%s",
		len(text), filePath, preview,
	), nil
}

// stringifyResult renders a tool result the way it would appear in the
// conversation, so size checks match what the model would receive.
func stringifyResult(result interface{}) string {
	switch v := result.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// mirrorFiles copies the full virtual filesystem into session state under
// FilesStateKey so the final file map survives the run.
func mirrorFiles(tc *core.ToolContext) {
	paths, err := tc.ListFiles()
	if err != nil {
		return
	}
	files := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := tc.LoadFile(p)
		if err != nil {
			continue
		}
		files[p] = string(data)
	}
	tc.SetState(FilesStateKey, files)
}

// Tools returns the virtual filesystem tool set.
func (f *Filesystem) Tools() []tool.Tool {
	return []tool.Tool{
		f.lsTool(),
		f.readFileTool(),
		f.writeFileTool(),
		f.editFileTool(),
		f.globTool(),
		f.grepTool(),
	}
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func strProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func (f *Filesystem) lsTool() tool.Tool {
	return tool.NewFunctionTool(
		"ls",
		"List all files in the virtual filesystem.",
		objectSchema(map[string]interface{}{}),
		func(tc *core.ToolContext, _ map[string]interface{}) (interface{}, error) {
			paths, err := tc.ListFiles()
			if err != nil {
				return nil, err
			}
			if len(paths) == 0 {
				return "No files", nil
			}
			return strings.Join(paths, "\n"), nil
		},
	)
}

func (f *Filesystem) readFileTool() tool.Tool {
	params := objectSchema(map[string]interface{}{
		"path":   strProp("File path to read"),
		"offset": intProp("Line number to start from (0-based, optional)"),
		"limit":  intProp("Maximum number of lines to return (optional)"),
	}, "path")
	return tool.NewFunctionTool(
		"read_file",
		"Read a file from the virtual filesystem, optionally a line range.",
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			p, err := stringArg(args, "path")
			if err != nil {
				return nil, err
			}
			data, err := tc.LoadFile(p)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", p, err)
			}
			lines := strings.Split(string(data), "\n")
			offset := intArg(args, "offset", 0)
			limit := intArg(args, "limit", len(lines))
			if offset < 0 {
				offset = 0
			}
			if limit < 0 {
				limit = 0
			}
			if offset >= len(lines) {
				return "", nil
			}
			end := offset + limit
			if end > len(lines) {
				end = len(lines)
			}
			return strings.Join(lines[offset:end], "\n"), nil
		},
	)
}

func (f *Filesystem) writeFileTool() tool.Tool {
	params := objectSchema(map[string]interface{}{
		"path":    strProp("File path to write"),
		"content": strProp("Full file content"),
	}, "path", "content")
	return tool.NewFunctionTool(
		"write_file",
		"Create or overwrite a file in the virtual filesystem.",
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			p, err := stringArg(args, "path")
			if err != nil {
				return nil, err
			}
			content, err := stringArg(args, "content")
			if err != nil {
				return nil, err
			}
			if err := tc.SaveFile(p, []byte(content)); err != nil {
				return nil, fmt.Errorf("write %s: %w", p, err)
			}
			mirrorFiles(tc)
			return fmt.Sprintf("Wrote %d bytes to %s", len(content), p), nil
		},
	)
}

func (f *Filesystem) editFileTool() tool.Tool {
	params := objectSchema(map[string]interface{}{
		"path":        strProp("File path to edit"),
		"old_string":  strProp("Exact text to replace"),
		"new_string":  strProp("Replacement text"),
		"replace_all": map[string]interface{}{"type": "boolean", "description": "Replace every occurrence instead of requiring a unique match"},
	}, "path", "old_string", "new_string")
	return tool.NewFunctionTool(
		"edit_file",
		"Replace text in an existing virtual file.",
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			p, err := stringArg(args, "path")
			if err != nil {
				return nil, err
			}
			oldStr, err := stringArg(args, "old_string")
			if err != nil {
				return nil, err
			}
			newStr, err := stringArg(args, "new_string")
			if err != nil {
				return nil, err
			}
			replaceAll, _ := args["replace_all"].(bool)

			data, err := tc.LoadFile(p)
			if err != nil {
				return nil, fmt.Errorf("edit %s: %w", p, err)
			}
			content := string(data)
			count := strings.Count(content, oldStr)
			if count == 0 {
				return nil, fmt.Errorf("old_string not found in %s", p)
			}
			if count > 1 && !replaceAll {
				return nil, fmt.Errorf("old_string occurs %d times in %s; pass replace_all or a longer unique match", count, p)
			}
			if replaceAll {
				content = strings.ReplaceAll(content, oldStr, newStr)
			} else {
				content = strings.Replace(content, oldStr, newStr, 1)
			}
			if err := tc.SaveFile(p, []byte(content)); err != nil {
				return nil, fmt.Errorf("edit %s: %w", p, err)
			}
			mirrorFiles(tc)
			return fmt.Sprintf("Edited %s (%d replacement(s))", p, count), nil
		},
	)
}

func (f *Filesystem) globTool() tool.Tool {
	params := objectSchema(map[string]interface{}{
		"pattern": strProp("Shell-style pattern matched against full paths, e.g. /reports/*"),
	}, "pattern")
	return tool.NewFunctionTool(
		"glob",
		"Find virtual files matching a shell-style pattern.",
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			pattern, err := stringArg(args, "pattern")
			if err != nil {
				return nil, err
			}
			paths, err := tc.ListFiles()
			if err != nil {
				return nil, err
			}
			prefix := ""
			if strings.HasSuffix(pattern, "*") && strings.Count(pattern, "*") == 1 {
				prefix = strings.TrimSuffix(pattern, "*")
			}
			var matched []string
			for _, p := range paths {
				ok, err := path.Match(pattern, p)
				if err != nil {
					return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
				}
				if ok || (prefix != "" && strings.HasPrefix(p, prefix)) {
					matched = append(matched, p)
				}
			}
			if len(matched) == 0 {
				return "No matches", nil
			}
			return strings.Join(matched, "\n"), nil
		},
	)
}

func (f *Filesystem) grepTool() tool.Tool {
	params := objectSchema(map[string]interface{}{
		"pattern": strProp("Literal text to search for"),
	}, "pattern")
	return tool.NewFunctionTool(
		"grep",
		"Search all virtual files for a literal string; returns path:line matches.",
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			pattern, err := stringArg(args, "pattern")
			if err != nil {
				return nil, err
			}
			paths, err := tc.ListFiles()
			if err != nil {
				return nil, err
			}
			var hits []string
			for _, p := range paths {
				data, err := tc.LoadFile(p)
				if err != nil {
					continue
				}
				for i, line := range strings.Split(string(data), "\n") {
					if strings.Contains(line, pattern) {
						hits = append(hits, fmt.Sprintf("%s:%d: %s", p, i+1, line))
					}
				}
			}
			if len(hits) == 0 {
				return "No matches", nil
			}
			return strings.Join(hits, "\n"), nil
		},
	)
}

func intArg(args map[string]interface{}, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

// stringArg fetches a required string argument. Schema validation catches a
// missing key, but a null or mistyped value still reaches the closure, so the
// assertion must be checked rather than forced.
func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return v, nil
}
