package middleware

import (
	"context"
	"testing"

	"github.com/stewardai/steward/core"
	"github.com/stewardai/steward/logging"
	"github.com/stewardai/steward/session"
	"github.com/stewardai/steward/tool"
	"github.com/stewardai/steward/vfs"
)

// storedMemory captures a single MemoryStore.Store call.
type storedMemory struct {
	SessionID string
	Content   string
	Metadata  map[string]any
}

// recordingMemoryStore records Store calls for assertions.
type recordingMemoryStore struct {
	stored []storedMemory
}

func (m *recordingMemoryStore) Get(sessionID string) (map[string]any, error) {
	return map[string]any{}, nil
}
func (m *recordingMemoryStore) Put(sessionID string, delta map[string]any) error { return nil }
func (m *recordingMemoryStore) Search(sessionID, query string, limit int) ([]core.SearchResult, error) {
	return nil, nil
}
func (m *recordingMemoryStore) Store(sessionID, content string, metadata map[string]any) error {
	m.stored = append(m.stored, storedMemory{SessionID: sessionID, Content: content, Metadata: metadata})
	return nil
}
func (m *recordingMemoryStore) Delete(sessionID, memoryID string) error { return nil }

type testEnv struct {
	runCtx   *core.RunContext
	session  *core.Session
	files    *vfs.InMemoryStore
	memories *recordingMemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sessSvc := session.NewInMemoryStore()
	sess, err := sessSvc.Create("sess-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	files := vfs.NewInMemoryStore()
	memories := &recordingMemoryStore{}

	emit := make(chan core.Event, 16)
	resume := make(chan struct{}, 16)

	runCtx := core.NewRunContext(
		context.Background(),
		"sess-1",
		"run-1",
		core.AgentInfo{Name: "Agent", Type: "test"},
		core.Content{Role: "user", Parts: []core.Part{core.TextPart{Text: "hello"}}},
		0,
		emit,
		resume,
		sess,
		sessSvc,
		files,
		memories,
		logging.NoOpLogger{},
	)
	return &testEnv{runCtx: runCtx, session: sess, files: files, memories: memories}
}

func (e *testEnv) toolContext(callID string) *core.ToolContext {
	return core.NewToolContext(e.runCtx, callID)
}

// findTool pulls a tool out of a middleware's tool set by name.
func findTool(t *testing.T, tools []tool.Tool, name string) tool.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %q not found", name)
	return nil
}
