package subagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/tool"
	"github.com/tidwall/gjson"
)

// FunctionClientOptions configures a FunctionClient.
type FunctionClientOptions struct {
	Token      string
	HTTPClient *http.Client
}

// FunctionClient resolves registered analytic functions from a function
// catalog service and wraps each one as a callable tool. Resolution fetches
// the function's signature once at startup; invocations post parameter maps
// and return the rendered result.
type FunctionClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewFunctionClient constructs a client for the catalog at baseURL.
func NewFunctionClient(baseURL string, optFns ...func(o *FunctionClientOptions)) *FunctionClient {
	opts := FunctionClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &FunctionClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      opts.Token,
		httpClient: httpClient,
	}
}

// Resolve fetches the signature of a registered function and returns a tool
// bound to it. The function name is used verbatim as the tool name.
func (c *FunctionClient) Resolve(name string) (tool.Tool, error) {
	body, err := c.get(context.Background(), c.baseURL+"/functions/"+name)
	if err != nil {
		return nil, fmt.Errorf("resolve function %q: %w", name, err)
	}

	description := gjson.GetBytes(body, "comment").String()
	if description == "" {
		description = fmt.Sprintf("Registered function %s", name)
	}

	properties := map[string]interface{}{}
	var required []string
	gjson.GetBytes(body, "input_params.parameters").ForEach(func(_, p gjson.Result) bool {
		pname := p.Get("name").String()
		properties[pname] = map[string]interface{}{
			"type":        jsonType(p.Get("type_name").String()),
			"description": p.Get("comment").String(),
		}
		if !p.Get("nullable").Bool() {
			required = append(required, pname)
		}
		return true
	})

	params := map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}

	return tool.NewFunctionTool(
		name,
		description,
		params,
		func(tc *core.ToolContext, args map[string]interface{}) (interface{}, error) {
			return c.invoke(tc.Context(), name, args)
		},
	), nil
}

// invoke executes the function and returns its result as display text.
func (c *FunctionClient) invoke(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{"parameters": args})
	if err != nil {
		return "", fmt.Errorf("encode parameters: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/"+name+"/invoke", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoke function %q: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("function %q returned status %d: %s", name, resp.StatusCode, string(body))
	}

	if errMsg := gjson.GetBytes(body, "error").String(); errMsg != "" {
		return "", fmt.Errorf("function %q failed: %s", name, errMsg)
	}
	return gjson.GetBytes(body, "value").String(), nil
}

func (c *FunctionClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// jsonType maps catalog type names onto JSON schema types.
func jsonType(typeName string) string {
	switch strings.ToUpper(typeName) {
	case "INT", "LONG", "SHORT", "BYTE", "BIGINT", "SMALLINT", "TINYINT", "INTEGER":
		return "integer"
	case "FLOAT", "DOUBLE", "DECIMAL":
		return "number"
	case "BOOLEAN":
		return "boolean"
	default:
		return "string"
	}
}
