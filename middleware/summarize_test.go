package middleware

import (
	"context"
	"strings"
	"testing"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// summaryModel returns a fixed summary for every request.
type summaryModel struct {
	calls int
	text  string
}

func (m *summaryModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	m.calls++
	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	respCh <- model.Response{
		Content:      core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: m.text}}},
		FinishReason: "stop",
	}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (m *summaryModel) Info() model.Info {
	return model.Info{Name: "summary-model", Provider: "mock"}
}

func textContent(role, text string) core.Content {
	return core.Content{Role: role, Parts: []core.Part{core.TextPart{Text: text}}}
}

// historyRequest builds a request with a system message followed by n
// alternating user/assistant messages of the given size.
func historyRequest(n, msgLen int) *model.Request {
	contents := []core.Content{textContent("system", "You are a data assistant.")}
	for i := 0; i < n; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		contents = append(contents, textContent(role, strings.Repeat("a", msgLen)))
	}
	return &model.Request{Contents: contents}
}

func TestSummarization_UnderBudgetNoOp(t *testing.T) {
	env := newTestEnv(t)
	llm := &summaryModel{text: "summary"}
	s := NewSummarization(llm)

	req := historyRequest(10, 100)
	before := len(req.Contents)

	require.NoError(t, s.ProcessRequest(env.runCtx, req, nil))
	assert.Equal(t, before, len(req.Contents))
	assert.Equal(t, 0, llm.calls)
}

func TestSummarization_CompactsOverBudget(t *testing.T) {
	env := newTestEnv(t)
	llm := &summaryModel{text: "Earlier: user asked for Q1 revenue; answer was 120."}
	s := NewSummarization(llm, func(o *SummarizationOptions) {
		o.TokenBudget = 50
		o.KeepMessages = 2
	})

	req := historyRequest(10, 100)

	require.NoError(t, s.ProcessRequest(env.runCtx, req, nil))

	// system + summary + 2 kept messages
	require.Len(t, req.Contents, 4)
	assert.Equal(t, "system", req.Contents[0].Role)

	summaryText := req.Contents[1].Parts[0].(core.TextPart).Text
	assert.Equal(t, "user", req.Contents[1].Role)
	assert.Contains(t, summaryText, "Summary of the earlier conversation:")
	assert.Contains(t, summaryText, "Q1 revenue")
	assert.Equal(t, 1, llm.calls)
}

func TestSummarization_ArchivesDisplacedHistory(t *testing.T) {
	env := newTestEnv(t)
	llm := &summaryModel{text: "summary"}
	s := NewSummarization(llm, func(o *SummarizationOptions) {
		o.TokenBudget = 50
		o.KeepMessages = 2
	})

	require.NoError(t, s.ProcessRequest(env.runCtx, historyRequest(10, 100), nil))

	require.Len(t, env.memories.stored, 1)
	archived := env.memories.stored[0]
	assert.Equal(t, "sess-1", archived.SessionID)
	assert.Contains(t, archived.Content, "[user]")
	assert.Equal(t, "compacted_history", archived.Metadata["kind"])
	assert.Equal(t, "run-1", archived.Metadata["run_id"])
}

// failingMemoryStore rejects every Store call.
type failingMemoryStore struct {
	recordingMemoryStore
}

func (m *failingMemoryStore) Store(sessionID, content string, metadata map[string]any) error {
	return assert.AnError
}

func TestSummarization_ArchiveFailureNonFatal(t *testing.T) {
	env := newTestEnv(t)
	env.runCtx.MemoryStore = &failingMemoryStore{}

	llm := &summaryModel{text: "summary"}
	s := NewSummarization(llm, func(o *SummarizationOptions) {
		o.TokenBudget = 50
		o.KeepMessages = 2
	})

	req := historyRequest(10, 100)

	// Compaction still happens when archival fails.
	require.NoError(t, s.ProcessRequest(env.runCtx, req, nil))
	require.Len(t, req.Contents, 4)
	assert.Equal(t, 1, llm.calls)
}

func TestSummarization_HonorsSkipFlag(t *testing.T) {
	env := newTestEnv(t)

	ev := core.NewUserMessageEvent("run-1", "keep everything")
	skip := true
	ev.Actions.SkipSummarization = &skip
	env.session.AddEvent(ev)

	llm := &summaryModel{text: "summary"}
	s := NewSummarization(llm, func(o *SummarizationOptions) {
		o.TokenBudget = 50
		o.KeepMessages = 2
	})

	req := historyRequest(10, 100)
	before := len(req.Contents)

	require.NoError(t, s.ProcessRequest(env.runCtx, req, nil))
	assert.Equal(t, before, len(req.Contents))
	assert.Equal(t, 0, llm.calls)
}

func TestSummarization_ShortHistoryKeptIntact(t *testing.T) {
	env := newTestEnv(t)
	llm := &summaryModel{text: "summary"}
	s := NewSummarization(llm, func(o *SummarizationOptions) {
		o.TokenBudget = 10
		o.KeepMessages = 6
	})

	// Over budget but nothing older than the keep window.
	req := historyRequest(4, 100)
	before := len(req.Contents)

	require.NoError(t, s.ProcessRequest(env.runCtx, req, nil))
	assert.Equal(t, before, len(req.Contents))
	assert.Equal(t, 0, llm.calls)
}
