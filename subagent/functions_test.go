package subagent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/logging"
	"github.com/stewardai/steward/memory"
	"github.com/stewardai/steward/session"
	"github.com/stewardai/steward/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFunctionServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /functions/get_accounts_by_account_executive", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"name": "get_accounts_by_account_executive",
			"comment": "Returns accounts managed by an Account Executive.",
			"input_params": {"parameters": [
				{"name": "ae_name", "type_name": "STRING", "comment": "Account Executive name", "nullable": false},
				{"name": "limit", "type_name": "INT", "comment": "Max rows", "nullable": true}
			]}
		}`)
	})

	mux.HandleFunc("POST /functions/get_accounts_by_account_executive/invoke", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Parameters map[string]any `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprintf(w, `{"value":"accounts for %s"}`, req.Parameters["ae_name"])
	})

	mux.HandleFunc("GET /functions/broken_fn", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	return httptest.NewServer(mux)
}

func newSubagentToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	sessSvc := session.NewInMemoryStore()
	sess, err := sessSvc.Create("sess-1")
	require.NoError(t, err)
	runCtx := core.NewRunContext(
		context.Background(), "sess-1", "run-1",
		core.AgentInfo{Name: "supervisor", Type: "model"},
		core.Content{}, 0, make(chan core.Event, 10), nil, sess, sessSvc,
		vfs.NewInMemoryStore(), memory.NewInMemoryStore(), logging.NoOpLogger{},
	)
	return core.NewToolContext(runCtx, "call-1")
}

func TestFunctionClient_ResolveAndInvoke(t *testing.T) {
	srv := newFunctionServer(t)
	defer srv.Close()

	c := NewFunctionClient(srv.URL)
	fn, err := c.Resolve("get_accounts_by_account_executive")
	require.NoError(t, err)

	assert.Equal(t, "get_accounts_by_account_executive", fn.Name())
	assert.Equal(t, "Returns accounts managed by an Account Executive.", fn.Description())

	params := fn.Parameters()
	props := params["properties"].(map[string]interface{})
	assert.Contains(t, props, "ae_name")
	assert.Contains(t, props, "limit")
	assert.Equal(t, "integer", props["limit"].(map[string]interface{})["type"])
	assert.Equal(t, []string{"ae_name"}, params["required"])

	result, err := fn.Call(newSubagentToolContext(t), map[string]interface{}{"ae_name": "Jordan"})
	require.NoError(t, err)
	assert.Equal(t, "accounts for Jordan", result)
}

func TestFunctionClient_ResolveMissingFunction(t *testing.T) {
	srv := newFunctionServer(t)
	defer srv.Close()

	_, err := NewFunctionClient(srv.URL).Resolve("broken_fn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken_fn")
}

func TestJSONType(t *testing.T) {
	assert.Equal(t, "integer", jsonType("BIGINT"))
	assert.Equal(t, "number", jsonType("double"))
	assert.Equal(t, "boolean", jsonType("BOOLEAN"))
	assert.Equal(t, "string", jsonType("STRING"))
	assert.Equal(t, "string", jsonType("MAP"))
}
