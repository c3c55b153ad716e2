package supervisor

import (
	"context"
	"testing"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/logging"
	"github.com/stewardai/steward/memory"
	"github.com/stewardai/steward/session"
	"github.com/stewardai/steward/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveFileReferences_StripsFileSentences(t *testing.T) {
	cleaned := RemoveFileReferences("I've saved it to report.csv. Thanks!")
	assert.NotContains(t, cleaned, "report.csv")
	assert.Contains(t, cleaned, "Thanks!")
}

func TestRemoveFileReferences_Idempotent(t *testing.T) {
	inputs := []string{
		"I've saved it to report.csv. Thanks!",
		"Revenue was $120k.\n\n\nSaved to /tmp/out.txt\n\nDone.",
		"The full results were automatically saved to /large_tool_results/call-9",
		"Writing to analysis.md now.",
		"plain answer with no file talk",
		"",
	}
	for _, in := range inputs {
		once := RemoveFileReferences(in)
		twice := RemoveFileReferences(once)
		assert.Equal(t, once, twice, "not idempotent for %q", in)
	}
}

func TestRemoveFileReferences_PatternFreeInputUnchanged(t *testing.T) {
	in := "Q1 revenue was $120k across 14 accounts."
	assert.Equal(t, in, RemoveFileReferences(in))

	// Only whitespace normalization applies.
	assert.Equal(t, "a\n\nb", RemoveFileReferences("  a\n\n\n\nb  "))
}

func TestRemoveFileReferences_CaseInsensitive(t *testing.T) {
	cleaned := RemoveFileReferences("SAVED TO output.txt and that is all")
	assert.NotContains(t, cleaned, "output.txt")
}

func newFormatterRunContext(t *testing.T, events ...core.Event) (*core.RunContext, chan core.Event) {
	t.Helper()
	sessSvc := session.NewInMemoryStore()
	sess, err := sessSvc.Create("sess-1")
	require.NoError(t, err)
	for _, ev := range events {
		require.NoError(t, sessSvc.AppendEvent("sess-1", ev))
	}

	emit := make(chan core.Event, 10)
	resume := make(chan struct{}, 10)
	resume <- struct{}{} // formatter waits for resume after emitting

	runCtx := core.NewRunContext(
		context.Background(), "sess-1", "run-1",
		core.AgentInfo{Name: FormatterName, Type: "formatter"},
		core.Content{}, 0, emit, resume, sess, sessSvc,
		vfs.NewInMemoryStore(), memory.NewInMemoryStore(), logging.NoOpLogger{},
	)
	return runCtx, emit
}

func TestFormatter_RewritesLastAssistantMessage(t *testing.T) {
	assistant := core.NewMessageEvent(SupervisorName, "Here is the summary.\n\nI've saved it to report.csv. Enjoy!")
	runCtx, emit := newFormatterRunContext(t,
		core.NewUserMessageEvent("run-1", "summarize consumption"),
		assistant,
	)

	require.NoError(t, NewFormatter().Run(runCtx))

	require.Len(t, emit, 1)
	ev := <-emit
	assert.Equal(t, assistant.ID, ev.ID, "rewritten message keeps the source ID")
	assert.Equal(t, FormatterName, ev.Author)

	text := ev.Content.Parts[0].(core.TextPart).Text
	assert.NotContains(t, text, "report.csv")
	assert.Contains(t, text, "Here is the summary.")
}

func TestFormatter_NoAssistantMessageIsNoOp(t *testing.T) {
	runCtx, emit := newFormatterRunContext(t,
		core.NewUserMessageEvent("run-1", "hello"),
	)

	require.NoError(t, NewFormatter().Run(runCtx))
	assert.Empty(t, emit)
}

func TestFormatter_CleanMessageIsNoOp(t *testing.T) {
	runCtx, emit := newFormatterRunContext(t,
		core.NewUserMessageEvent("run-1", "hello"),
		core.NewMessageEvent(SupervisorName, "Revenue was $120k."),
	)

	require.NoError(t, NewFormatter().Run(runCtx))
	assert.Empty(t, emit)
}
