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

	"github.com/tidwall/gjson"
)

// Query message lifecycle states reported by the service.
const (
	queryStatusCompleted = "COMPLETED"
	queryStatusFailed    = "FAILED"
	queryStatusCancelled = "CANCELLED"
)

// QueryClientOptions configures a QueryClient.
type QueryClientOptions struct {
	Token        string
	PollInterval time.Duration
	// PollTimeout bounds how long Ask waits for the service to finish one
	// question. Zero waits until the context is done.
	PollTimeout time.Duration
	HTTPClient  *http.Client
}

// QueryClient talks to a natural-language-to-SQL service: it starts a
// conversation with a question, polls the message until processing finishes,
// and renders the answer (free text plus any query result table) as plain
// text for the delegating tool.
type QueryClient struct {
	baseURL      string
	spaceID      string
	token        string
	pollInterval time.Duration
	pollTimeout  time.Duration
	httpClient   *http.Client
}

// NewQueryClient constructs a client for one query space.
func NewQueryClient(baseURL, spaceID string, optFns ...func(o *QueryClientOptions)) *QueryClient {
	opts := QueryClientOptions{
		PollInterval: 2 * time.Second,
		PollTimeout:  5 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &QueryClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		spaceID:      spaceID,
		token:        opts.Token,
		pollInterval: opts.PollInterval,
		pollTimeout:  opts.PollTimeout,
		httpClient:   httpClient,
	}
}

// Ask submits a natural-language question and blocks until the service
// produces an answer or fails.
func (c *QueryClient) Ask(ctx context.Context, question string) (string, error) {
	if c.pollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.pollTimeout)
		defer cancel()
	}

	body, err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("%s/spaces/%s/start-conversation", c.baseURL, c.spaceID),
		map[string]string{"content": question},
	)
	if err != nil {
		return "", fmt.Errorf("start conversation: %w", err)
	}

	conversationID := gjson.GetBytes(body, "conversation_id").String()
	messageID := gjson.GetBytes(body, "message_id").String()
	if conversationID == "" || messageID == "" {
		return "", fmt.Errorf("start conversation: response missing identifiers")
	}

	messageURL := fmt.Sprintf("%s/spaces/%s/conversations/%s/messages/%s",
		c.baseURL, c.spaceID, conversationID, messageID)

	for {
		body, err = c.do(ctx, http.MethodGet, messageURL, nil)
		if err != nil {
			return "", fmt.Errorf("poll message: %w", err)
		}

		switch status := gjson.GetBytes(body, "status").String(); status {
		case queryStatusCompleted:
			return c.renderAnswer(ctx, messageURL, body)
		case queryStatusFailed, queryStatusCancelled:
			return "", fmt.Errorf("query %s: %s", strings.ToLower(status), gjson.GetBytes(body, "error.message").String())
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// renderAnswer flattens a completed message's attachments into text. Text
// attachments pass through; query attachments are followed to their result
// rows and rendered as a tab-separated table.
func (c *QueryClient) renderAnswer(ctx context.Context, messageURL string, message []byte) (string, error) {
	var sections []string

	var attachErr error
	gjson.GetBytes(message, "attachments").ForEach(func(_, att gjson.Result) bool {
		if text := att.Get("text.content").String(); text != "" {
			sections = append(sections, text)
			return true
		}
		if att.Get("query").Exists() {
			result, err := c.fetchQueryResult(ctx, messageURL, att.Get("attachment_id").String())
			if err != nil {
				attachErr = err
				return false
			}
			if desc := att.Get("query.description").String(); desc != "" {
				sections = append(sections, desc)
			}
			sections = append(sections, result)
		}
		return true
	})
	if attachErr != nil {
		return "", attachErr
	}

	if len(sections) == 0 {
		return "", fmt.Errorf("query completed without attachments")
	}
	return strings.Join(sections, "\n\n"), nil
}

func (c *QueryClient) fetchQueryResult(ctx context.Context, messageURL, attachmentID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, messageURL+"/attachments/"+attachmentID+"/query-result", nil)
	if err != nil {
		return "", fmt.Errorf("fetch query result: %w", err)
	}
	return renderTable(body), nil
}

// renderTable renders a statement result as tab-separated rows with a header
// line.
func renderTable(body []byte) string {
	var sb strings.Builder

	var names []string
	gjson.GetBytes(body, "statement_response.manifest.schema.columns").ForEach(func(_, col gjson.Result) bool {
		names = append(names, col.Get("name").String())
		return true
	})
	if len(names) > 0 {
		sb.WriteString(strings.Join(names, "\t"))
		sb.WriteString("\n")
	}

	gjson.GetBytes(body, "statement_response.result.data_array").ForEach(func(_, row gjson.Result) bool {
		var cells []string
		row.ForEach(func(_, cell gjson.Result) bool {
			cells = append(cells, cell.String())
			return true
		})
		sb.WriteString(strings.Join(cells, "\t"))
		sb.WriteString("\n")
		return true
	})

	return strings.TrimRight(sb.String(), "\n")
}

// do issues one JSON request and returns the response body.
func (c *QueryClient) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
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
