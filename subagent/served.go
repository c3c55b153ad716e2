package subagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/stewardai/steward/responses"
)

// ServedClientOptions configures a ServedClient.
type ServedClientOptions struct {
	// Token is sent as a bearer credential when non-empty.
	Token string
	// Timeout bounds one invocation end to end.
	Timeout time.Duration
	// HTTPClient overrides the default pooled client.
	HTTPClient *http.Client
}

// ServedClient delegates a task to a remotely served agent over the
// Responses protocol. Responses are requested non-streaming; the final
// message text is returned as-is.
type ServedClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewServedClient constructs a client for the endpoint at baseURL.
func NewServedClient(baseURL string, optFns ...func(o *ServedClientOptions)) *ServedClient {
	opts := ServedClientOptions{Timeout: 120 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		}
	}

	return &ServedClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      opts.Token,
		httpClient: httpClient,
	}
}

// Invoke sends a single-turn task to the served agent and returns its final
// textual reply.
func (c *ServedClient) Invoke(ctx context.Context, task string) (string, error) {
	payload, err := json.Marshal(responses.Request{
		Input: []responses.InputItem{{Role: "user", Content: task}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invocations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoke served agent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("served agent returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed responses.Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	// The final message item is the agent's answer; intermediate items are
	// tool-call traffic.
	for i := len(parsed.Output) - 1; i >= 0; i-- {
		if parsed.Output[i].Type == responses.ItemTypeMessage {
			return parsed.Output[i].Text(), nil
		}
	}
	return "", fmt.Errorf("served agent returned no message output")
}
