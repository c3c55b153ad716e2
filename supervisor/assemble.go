package supervisor

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/subagent"
	"github.com/stewardai/steward/tool"
)

// TaskInvoker delegates a free-form task to a served agent.
type TaskInvoker interface {
	Invoke(ctx context.Context, task string) (string, error)
}

// QueryAsker answers a natural-language data question.
type QueryAsker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// FunctionRegistry resolves registered analytic function names to tools.
type FunctionRegistry interface {
	Resolve(name string) (tool.Tool, error)
}

// NormalizeToolName derives an external tool name from a display name:
// whitespace and hyphens become underscores.
func NormalizeToolName(displayName string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return '_'
		}
		return r
	}, displayName)
}

// AssemblerOptions lets tests substitute the sub-agent clients.
type AssemblerOptions struct {
	NewTaskInvoker func(a ServedAgent) TaskInvoker
	NewQueryAsker  func(s QuerySpace) QueryAsker
}

// BuildTools turns the declarative sub-agent descriptors into callable
// tools. Sub-agent call failures propagate unmodified; there are no retries
// and no error translation here.
func BuildTools(
	served []ServedAgent,
	spaces []QuerySpace,
	functionAgents []FunctionAgent,
	registry FunctionRegistry,
	optFns ...func(o *AssemblerOptions),
) ([]tool.Tool, error) {
	opts := AssemblerOptions{
		NewTaskInvoker: func(a ServedAgent) TaskInvoker {
			return subagent.NewServedClient(a.Endpoint)
		},
		NewQueryAsker: func(s QuerySpace) QueryAsker {
			return subagent.NewQueryClient(s.BaseURL, s.SpaceID)
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var tools []tool.Tool

	for _, fa := range functionAgents {
		if registry == nil {
			return nil, fmt.Errorf("function agent %q declared but no function registry provided", fa.Name)
		}
		for _, name := range fa.Functions {
			t, err := registry.Resolve(name)
			if err != nil {
				return nil, fmt.Errorf("resolve function %q for agent %q: %w", name, fa.Name, err)
			}
			tools = append(tools, t)
		}
	}

	// Each helper receives the descriptor by value, so every generated tool
	// closes over its own copy rather than a shared loop variable.
	for _, space := range spaces {
		tools = append(tools, buildQueryTool(space, opts.NewQueryAsker(space)))
	}
	for _, a := range served {
		tools = append(tools, buildDelegationTool(a, opts.NewTaskInvoker(a)))
	}

	return tools, nil
}

func buildQueryTool(space QuerySpace, asker QueryAsker) tool.Tool {
	description := fmt.Sprintf(`Query the %s space for data using natural language.

%s

The service translates questions into SQL and returns the results. You can
call this tool multiple times with different questions.

IMPORTANT: to prevent context overflow, prefer aggregated data (GROUP BY,
SUM, AVG) and include row limits such as "LIMIT 50" in your questions.`,
		space.Name, space.Description)

	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"question": map[string]interface{}{
				"type":        "string",
				"description": "Natural language question about the data (include LIMIT clauses)",
			},
		},
		"required": []string{"question"},
	}

	return tool.NewFunctionTool(
		NormalizeToolName(space.Name),
		description,
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			question, _ := args["question"].(string)
			if question == "" {
				return nil, fmt.Errorf("question must not be empty")
			}
			return asker.Ask(tc.Context(), question)
		},
	)
}

func buildDelegationTool(a ServedAgent, invoker TaskInvoker) tool.Tool {
	description := fmt.Sprintf("Delegate a task to %s.\n\n%s", a.Name, a.Description)

	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "The task or question to send to this agent",
			},
		},
		"required": []string{"task"},
	}

	return tool.NewFunctionTool(
		NormalizeToolName(a.Name),
		description,
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			task, _ := args["task"].(string)
			if task == "" {
				return nil, fmt.Errorf("task must not be empty")
			}
			return invoker.Invoke(tc.Context(), task)
		},
	)
}
