package runner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stewardai/steward/agent"
	"github.com/stewardai/steward/core"
)

// chattyAgent emits numbered messages, waiting for the resume signal after
// each one. With rounds <= 0 it keeps emitting until the run is cancelled.
type chattyAgent struct {
	agent.BaseAgent
	rounds int
}

func newChattyAgent(rounds int) *chattyAgent {
	return &chattyAgent{BaseAgent: agent.NewBaseAgent("chatty"), rounds: rounds}
}

func (a *chattyAgent) Run(runCtx *core.RunContext) error {
	for i := 0; a.rounds <= 0 || i < a.rounds; i++ {
		ev := core.NewMessageEvent(a.Name(), fmt.Sprintf("message %d", i))
		ev.InvocationID = runCtx.RunID
		if err := runCtx.EmitEvent(ev); err != nil {
			return err
		}
		if err := runCtx.WaitForResume(); err != nil {
			return err
		}
	}
	return nil
}

func newTestRunner(t *testing.T, a core.Agent) (*Runner, string) {
	t.Helper()
	r := New(a)
	sessionID := "sess-1"
	_, err := r.SessionStore().Create(sessionID)
	require.NoError(t, err)
	return r, sessionID
}

func TestRunner_Run_DeliversEventsAndCloses(t *testing.T) {
	r, sessionID := newTestRunner(t, newChattyAgent(3))

	userContent := core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hi"}}}
	runID, events, errs, err := r.Run(context.Background(), sessionID, userContent)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	var texts []string
	for ev := range events {
		if ev.Content != nil {
			for _, p := range ev.Content.Parts {
				if tp, ok := p.(core.TextPart); ok {
					texts = append(texts, tp.Text)
				}
			}
		}
	}
	assert.Equal(t, []string{"message 0", "message 1", "message 2"}, texts)
	assert.NoError(t, <-errs)

	sess, err := r.SessionStore().Get(sessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Events, 4) // user turn + three messages
}

func TestRunner_Cancel_MidRun(t *testing.T) {
	r, sessionID := newTestRunner(t, newChattyAgent(0))

	userContent := core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hi"}}}
	runID, events, errs, err := r.Run(context.Background(), sessionID, userContent)
	require.NoError(t, err)

	// Receive one event, then cancel while the agent is still emitting. Both
	// channels must drain and close without a send on a closed channel.
	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("no event before cancel")
	}
	require.NoError(t, r.Cancel(runID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
		}
		for range errs {
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("channels did not close after cancel")
	}

	assert.Error(t, r.Cancel("missing-run"))
}

func TestRunner_Run_ContextCancellation(t *testing.T) {
	r, sessionID := newTestRunner(t, newChattyAgent(0))

	ctx, cancel := context.WithCancel(context.Background())
	userContent := core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hi"}}}
	_, events, errs, err := r.Run(ctx, sessionID, userContent)
	require.NoError(t, err)

	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("no event before cancel")
	}
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
		}
		for range errs {
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("channels did not close after context cancellation")
	}
}
