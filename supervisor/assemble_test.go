package supervisor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/logging"
	"github.com/stewardai/steward/memory"
	"github.com/stewardai/steward/session"
	"github.com/stewardai/steward/tool"
	"github.com/stewardai/steward/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeToolName(t *testing.T) {
	assert.Equal(t, "Account_Lookup", NormalizeToolName("Account Lookup"))
	assert.Equal(t, "Account_Lookup", NormalizeToolName("Account-Lookup"))
	assert.Equal(t, "follow_up_messages", NormalizeToolName("follow-up messages"))
	assert.Equal(t, "plain", NormalizeToolName("plain"))
}

type stubAsker struct{ spaceID string }

func (s *stubAsker) Ask(_ context.Context, question string) (string, error) {
	return "space " + s.spaceID + ": " + question, nil
}

type stubInvoker struct{ endpoint string }

func (s *stubInvoker) Invoke(_ context.Context, task string) (string, error) {
	return "endpoint " + s.endpoint + ": " + task, nil
}

type stubRegistry struct {
	tools map[string]tool.Tool
}

func (r *stubRegistry) Resolve(name string) (tool.Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("function %q not registered", name)
	}
	return t, nil
}

func newAssemblerToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	sessSvc := session.NewInMemoryStore()
	sess, err := sessSvc.Create("sess-1")
	require.NoError(t, err)
	runCtx := core.NewRunContext(
		context.Background(), "sess-1", "run-1",
		core.AgentInfo{Name: SupervisorName, Type: "model"},
		core.Content{}, 0, make(chan core.Event, 10), nil, sess, sessSvc,
		vfs.NewInMemoryStore(), memory.NewInMemoryStore(), logging.NoOpLogger{},
	)
	return core.NewToolContext(runCtx, "call-1")
}

func TestBuildTools_EachToolBindsItsOwnDescriptor(t *testing.T) {
	spaces := []QuerySpace{
		{SpaceID: "s1", Name: "Consumption Data"},
		{SpaceID: "s2", Name: "Pipeline Data"},
	}
	served := []ServedAgent{
		{Endpoint: "http://a.internal", Name: "Account Lookup"},
		{Endpoint: "http://b.internal", Name: "Account-Summary"},
	}

	tools, err := BuildTools(served, spaces, nil, nil, func(o *AssemblerOptions) {
		o.NewQueryAsker = func(s QuerySpace) QueryAsker { return &stubAsker{spaceID: s.SpaceID} }
		o.NewTaskInvoker = func(a ServedAgent) TaskInvoker { return &stubInvoker{endpoint: a.Endpoint} }
	})
	require.NoError(t, err)
	require.Len(t, tools, 4)

	byName := make(map[string]tool.Tool, len(tools))
	for _, tl := range tools {
		byName[tl.Name()] = tl
	}
	require.Contains(t, byName, "Consumption_Data")
	require.Contains(t, byName, "Pipeline_Data")
	require.Contains(t, byName, "Account_Lookup")
	require.Contains(t, byName, "Account_Summary")

	tc := newAssemblerToolContext(t)

	// Every generated tool routes to its own descriptor, not the last loop value.
	r1, err := byName["Consumption_Data"].Call(tc, map[string]interface{}{"question": "q"})
	require.NoError(t, err)
	assert.Equal(t, "space s1: q", r1)

	r2, err := byName["Pipeline_Data"].Call(tc, map[string]interface{}{"question": "q"})
	require.NoError(t, err)
	assert.Equal(t, "space s2: q", r2)

	r3, err := byName["Account_Lookup"].Call(tc, map[string]interface{}{"task": "t"})
	require.NoError(t, err)
	assert.Equal(t, "endpoint http://a.internal: t", r3)

	r4, err := byName["Account_Summary"].Call(tc, map[string]interface{}{"task": "t"})
	require.NoError(t, err)
	assert.Equal(t, "endpoint http://b.internal: t", r4)
}

func TestBuildTools_FunctionAgents(t *testing.T) {
	lookup := tool.NewFunctionTool("get_accounts_by_account_executive", "Accounts for an AE.",
		map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			return "Acme, Globex", nil
		},
	)
	registry := &stubRegistry{tools: map[string]tool.Tool{
		"get_accounts_by_account_executive": lookup,
	}}

	tools, err := BuildTools(nil, nil, []FunctionAgent{
		{Name: "account lookup", Functions: []string{"get_accounts_by_account_executive"}},
	}, registry)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "get_accounts_by_account_executive", tools[0].Name())
}

func TestBuildTools_UnresolvedFunctionFails(t *testing.T) {
	_, err := BuildTools(nil, nil, []FunctionAgent{
		{Name: "broken", Functions: []string{"missing_fn"}},
	}, &stubRegistry{tools: map[string]tool.Tool{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_fn")
}

func TestBuildTools_FunctionAgentWithoutRegistryFails(t *testing.T) {
	_, err := BuildTools(nil, nil, []FunctionAgent{{Name: "x", Functions: []string{"f"}}}, nil)
	assert.Error(t, err)
}
