package subagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stewardai/steward/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServedClient_Invoke(t *testing.T) {
	var gotTask string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/invocations", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req responses.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 1)
		gotTask = req.Input[0].Content

		resp := responses.Response{Output: []responses.OutputItem{
			responses.NewFunctionCallItem("m1", "call-1", "search", "{}"),
			responses.NewFunctionCallOutputItem("call-1", "raw rows"),
			responses.NewTextItem("m2", "Top account is Acme."),
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewServedClient(srv.URL, func(o *ServedClientOptions) { o.Token = "secret" })
	answer, err := c.Invoke(context.Background(), "which account leads consumption?")
	require.NoError(t, err)
	assert.Equal(t, "Top account is Acme.", answer)
	assert.Equal(t, "which account leads consumption?", gotTask)
}

func TestServedClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewServedClient(srv.URL)
	_, err := c.Invoke(context.Background(), "task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestServedClient_NoMessageOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(responses.Response{})
	}))
	defer srv.Close()

	c := NewServedClient(srv.URL)
	_, err := c.Invoke(context.Background(), "task")
	assert.Error(t, err)
}
