package core

import (
	"context"
	"testing"

	"github.com/stewardai/steward/logging"
)

// --- Test helpers ---
type tcMockSessionService struct{ sessions map[string]*Session }

func (m *tcMockSessionService) Get(id string) (*Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := NewSession(id)
	if m.sessions == nil {
		m.sessions = map[string]*Session{}
	}
	m.sessions[id] = s
	return s, nil
}
func (m *tcMockSessionService) Create(id string) (*Session, error) { return m.Get(id) }
func (m *tcMockSessionService) AppendEvent(id string, ev Event) error {
	if s, ok := m.sessions[id]; ok {
		s.Events = append(s.Events, ev)
	}
	return nil
}
func (m *tcMockSessionService) ApplyDelta(id string, delta map[string]interface{}) error {
	if s, ok := m.sessions[id]; ok {
		for k, v := range delta {
			s.State[k] = v
		}
	}
	return nil
}

type tcMockFileStore struct{ data map[string]map[string][]byte }

func (a *tcMockFileStore) Save(sid, path string, b []byte) error {
	if a.data == nil {
		a.data = map[string]map[string][]byte{}
	}
	if _, ok := a.data[sid]; !ok {
		a.data[sid] = map[string][]byte{}
	}
	a.data[sid][path] = append([]byte{}, b...)
	return nil
}
func (a *tcMockFileStore) Get(sid, path string) ([]byte, error) {
	if a.data == nil {
		return nil, nil
	}
	if m, ok := a.data[sid]; ok {
		return m[path], nil
	}
	return nil, nil
}
func (a *tcMockFileStore) List(sid string) ([]string, error) {
	if a.data == nil {
		return []string{}, nil
	}
	res := []string{}
	for k := range a.data[sid] {
		res = append(res, k)
	}
	return res, nil
}
func (a *tcMockFileStore) Delete(sid, path string) error { return nil }

type tcMockMemoryService struct{}

func (m *tcMockMemoryService) Get(sid string) (map[string]any, error)     { return map[string]any{}, nil }
func (m *tcMockMemoryService) Put(sid string, delta map[string]any) error { return nil }
func (m *tcMockMemoryService) Search(sid, q string, limit int) ([]SearchResult, error) {
	return []SearchResult{{ID: "test-memory", Content: "Test memory content", Score: 0.9, Metadata: map[string]interface{}{"test": true}}}, nil
}
func (m *tcMockMemoryService) Store(sid, content string, metadata map[string]interface{}) error {
	return nil
}
func (m *tcMockMemoryService) Delete(sid, memoryID string) error { return nil }

func createTestRunContext() *RunContext {
	sessSvc := &tcMockSessionService{sessions: map[string]*Session{}}
	fileSvc := &tcMockFileStore{data: map[string]map[string][]byte{}}
	memSvc := &tcMockMemoryService{}
	sess, _ := sessSvc.Create("test-session")
	emit := make(chan Event, 10)
	resume := make(chan struct{}, 10)
	return NewRunContext(
		context.Background(), "test-session", "test-run", AgentInfo{Name: "Test Agent", Type: "test"},
		Content{Role: "user", Parts: []Part{TextPart{Text: "Test input"}}},
		0, emit, resume, sess, sessSvc, fileSvc, memSvc, logging.NoOpLogger{},
	)
}

func TestToolContext_BasicFunctionality(t *testing.T) {
	inv := createTestRunContext()
	tc := NewToolContext(inv, "test-call-id")
	if !tc.IsValid() {
		t.Fatal("expected valid tool context")
	}
	if tc.SessionID() != "test-session" {
		t.Errorf("session id mismatch")
	}
	if tc.RunID() != "test-run" {
		t.Errorf("run id mismatch")
	}
	if tc.FunctionCallID() != "test-call-id" {
		t.Errorf("function call id mismatch")
	}
	if tc.AgentName() != "Test Agent" {
		t.Errorf("agent name mismatch")
	}
	if tc.Logger() == nil {
		t.Errorf("expected logger")
	}
}

func TestToolContext_StateManagement(t *testing.T) {
	tc := NewToolContext(NewRunContext(
		context.Background(), "test-session", "test-run", AgentInfo{Name: "Test Agent", Type: "test"},
		Content{}, 0, nil, nil, nil, nil, nil, nil, nil,
	), "test-call-id")
	tc.SetState("test_key", "test_value")
	actions := tc.Actions()
	if actions.StateDelta == nil {
		t.Fatal("missing state delta")
	}
	if v, ok := actions.StateDelta["test_key"]; !ok || v != "test_value" {
		t.Errorf("unexpected state delta: %+v", actions.StateDelta)
	}
}

func TestToolContext_SkipSummarization(t *testing.T) {
	tc := NewToolContext(createTestRunContext(), "test-call-id")
	tc.SkipSummarization()
	actions := tc.Actions()
	if actions.SkipSummarization == nil || !*actions.SkipSummarization {
		t.Error("skip summarization not set")
	}
	ev := NewEvent("test-run", "Test Agent")
	tc.InternalApplyActions(&ev)
	if ev.Actions.SkipSummarization == nil || !*ev.Actions.SkipSummarization {
		t.Error("skip summarization not applied to event")
	}
}

func TestToolContext_FileManagement(t *testing.T) {
	tc := NewToolContext(createTestRunContext(), "test-call-id")
	if err := tc.SaveFile("report.csv", []byte("data")); err != nil {
		t.Fatalf("save file: %v", err)
	}
	b, err := tc.LoadFile("report.csv")
	if err != nil || string(b) != "data" {
		t.Fatalf("load file mismatch: %v %s", err, string(b))
	}
	list, err := tc.ListFiles()
	if err != nil || len(list) != 1 || list[0] != "report.csv" {
		t.Fatalf("list files mismatch: %v %v", err, list)
	}
	if tc.Actions().FileDelta["report.csv"] != len("data") {
		t.Fatalf("file delta mismatch: %+v", tc.Actions().FileDelta)
	}
}

func TestToolContext_MemoryManagement(t *testing.T) {
	tc := NewToolContext(createTestRunContext(), "test-call-id")
	if err := tc.StoreMemory("content", map[string]interface{}{"test": true}); err != nil {
		t.Fatalf("store memory: %v", err)
	}
	res, err := tc.SearchMemory("test", 10)
	if err != nil || len(res) != 1 {
		t.Fatalf("search memory: %v len=%d", err, len(res))
	}
}

func TestToolContext_Validation(t *testing.T) {
	if (&ToolContext{}).IsValid() {
		t.Error("invalid context should not be valid")
	}
	inv := createTestRunContext()
	tc := NewToolContext(inv, "test-call-id")
	if !tc.IsValid() {
		t.Error("expected valid tool context")
	}
	if err := tc.Validate(); err != nil {
		t.Errorf("validate error: %v", err)
	}
}
