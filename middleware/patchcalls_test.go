package middleware

import (
	"testing"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callContent(id, name, arguments string) core.Content {
	return core.Content{
		Role: "assistant",
		Parts: []core.Part{core.FunctionCallPart{
			FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: arguments},
		}},
	}
}

func responseContent(id, name string, response interface{}) core.Content {
	return core.Content{
		Role: "tool",
		Parts: []core.Part{core.FunctionResponsePart{
			FunctionResponse: core.FunctionResponse{ID: id, Name: name, Response: response},
		}},
	}
}

func TestPatchCalls_PairedHistoryUntouched(t *testing.T) {
	env := newTestEnv(t)
	req := &model.Request{Contents: []core.Content{
		textContent("system", "sys"),
		textContent("user", "lookup account 42"),
		callContent("call-1", "lookup_account", `{"id":42}`),
		responseContent("call-1", "lookup_account", "Acme Corp"),
		textContent("assistant", "The account is Acme Corp."),
	}}

	require.NoError(t, NewPatchCalls().ProcessRequest(env.runCtx, req, nil))
	require.Len(t, req.Contents, 5)
	fc := req.Contents[2].Parts[0].(core.FunctionCallPart)
	assert.Equal(t, `{"id":42}`, fc.FunctionCall.Arguments)
}

func TestPatchCalls_DanglingCallGetsSyntheticResponse(t *testing.T) {
	env := newTestEnv(t)
	req := &model.Request{Contents: []core.Content{
		textContent("system", "sys"),
		textContent("user", "lookup account 42"),
		callContent("call-1", "lookup_account", `{"id":42}`),
	}}

	require.NoError(t, NewPatchCalls().ProcessRequest(env.runCtx, req, nil))

	require.Len(t, req.Contents, 4)
	synthetic := req.Contents[3]
	assert.Equal(t, "tool", synthetic.Role)
	fr := synthetic.Parts[0].(core.FunctionResponsePart)
	assert.Equal(t, "call-1", fr.FunctionResponse.ID)
	assert.Equal(t, "lookup_account", fr.FunctionResponse.Name)
	assert.Contains(t, fr.FunctionResponse.Response.(string), "interrupted")
}

func TestPatchCalls_OrphanResponseDropped(t *testing.T) {
	env := newTestEnv(t)
	req := &model.Request{Contents: []core.Content{
		textContent("system", "sys"),
		responseContent("call-ghost", "lookup_account", "stale"),
		textContent("user", "hello"),
	}}

	require.NoError(t, NewPatchCalls().ProcessRequest(env.runCtx, req, nil))

	require.Len(t, req.Contents, 2)
	assert.Equal(t, "system", req.Contents[0].Role)
	assert.Equal(t, "user", req.Contents[1].Role)
}

func TestPatchCalls_MalformedArgumentsRewrapped(t *testing.T) {
	env := newTestEnv(t)
	req := &model.Request{Contents: []core.Content{
		textContent("system", "sys"),
		callContent("call-1", "lookup_account", `{"id":42`),
		responseContent("call-1", "lookup_account", "ok"),
	}}

	require.NoError(t, NewPatchCalls().ProcessRequest(env.runCtx, req, nil))

	fc := req.Contents[1].Parts[0].(core.FunctionCallPart)
	assert.Equal(t, `{"_raw":"{\"id\":42"}`, fc.FunctionCall.Arguments)
}

func TestRepairArguments(t *testing.T) {
	fixed, changed := repairArguments("")
	assert.True(t, changed)
	assert.Equal(t, "{}", fixed)

	fixed, changed = repairArguments(`{"a":1}`)
	assert.False(t, changed)
	assert.Equal(t, `{"a":1}`, fixed)

	// Valid JSON but not an object still gets rewrapped.
	fixed, changed = repairArguments(`[1,2]`)
	assert.True(t, changed)
	assert.Equal(t, `{"_raw":"[1,2]"}`, fixed)
}
