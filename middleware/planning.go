package middleware

import (
	"fmt"
	"strings"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/flow"
	"github.com/stewardai/steward/tool"
)

// TodosStateKey is the session state key holding the current todo list.
const TodosStateKey = "todos"

const planningInstruction = `## Task planning

For multi-step requests, use the write_todos tool to record your plan before
acting and update it as steps complete. Use read_todos periodically to stay
focused on the plan. Keep at most one task in_progress at a time. Skip the
tools entirely for simple single-step questions.`

// Planning tracks a structured todo list in session state, giving the model
// a scratchpad for multi-step work.
type Planning struct {
	flow.PassthroughMiddleware
}

// NewPlanning constructs the planning middleware.
func NewPlanning() *Planning { return &Planning{} }

// Name returns the middleware identifier.
func (p *Planning) Name() string { return "planning" }

// Instruction returns the planning guidance appended to the system prompt.
func (p *Planning) Instruction() string { return planningInstruction }

// Tools returns the write_todos and read_todos tools.
func (p *Planning) Tools() []tool.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"todos": map[string]interface{}{
				"type":        "array",
				"description": "The full replacement todo list",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"content": map[string]interface{}{
							"type":        "string",
							"description": "Short task description",
						},
						"status": map[string]interface{}{
							"type":        "string",
							"enum":        []string{"pending", "in_progress", "completed"},
							"description": "Current task status",
						},
					},
					"required": []string{"content", "status"},
				},
			},
		},
		"required": []string{"todos"},
	}

	writeTodos := tool.NewFunctionTool(
		"write_todos",
		"Replace the current todo list. Pass the complete list every time, including finished items.",
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			todos, ok := args["todos"].([]interface{})
			if !ok {
				return nil, fmt.Errorf("todos must be an array")
			}
			tc.SetState(TodosStateKey, todos)
			return fmt.Sprintf("Updated todo list with %d items", len(todos)), nil
		},
	)

	readTodos := tool.NewFunctionTool(
		"read_todos",
		"Read back the current todo list with each item's status.",
		map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		func(tc *core.ToolContext, _ map[string]interface{}) (interface{}, error) {
			v, _ := tc.GetState(TodosStateKey)
			todos, _ := v.([]interface{})
			if len(todos) == 0 {
				return "No todos recorded", nil
			}
			var b strings.Builder
			for i, item := range todos {
				var content, status string
				if m, ok := item.(map[string]interface{}); ok {
					content, _ = m["content"].(string)
					status, _ = m["status"].(string)
				}
				fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, status, content)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	)

	return []tool.Tool{writeTodos, readTodos}
}
