package core

import (
	"context"
)

type testLogger struct{}

func (l testLogger) Debug(string, ...interface{}) {}
func (l testLogger) Info(string, ...interface{})  {}
func (l testLogger) Warn(string, ...interface{})  {}
func (l testLogger) Error(string, ...interface{}) {}

type rcMockSessionService struct {
	applied map[string]map[string]interface{}
}

func (s *rcMockSessionService) Get(id string) (*Session, error)       { return NewSession(id), nil }
func (s *rcMockSessionService) Create(id string) (*Session, error)    { return NewSession(id), nil }
func (s *rcMockSessionService) AppendEvent(id string, ev Event) error { return nil }
func (s *rcMockSessionService) ApplyDelta(id string, delta map[string]interface{}) error {
	if s.applied == nil {
		s.applied = map[string]map[string]interface{}{}
	}
	cp := map[string]interface{}{}
	for k, v := range delta {
		cp[k] = v
	}
	s.applied[id] = cp
	return nil
}

type rcMockFileStore struct{ saved map[string]map[string][]byte }

func (a *rcMockFileStore) Save(sid, path string, data []byte) error {
	if a.saved == nil {
		a.saved = map[string]map[string][]byte{}
	}
	if _, ok := a.saved[sid]; !ok {
		a.saved[sid] = map[string][]byte{}
	}
	a.saved[sid][path] = append([]byte{}, data...)
	return nil
}
func (a *rcMockFileStore) Get(sid, path string) ([]byte, error) {
	if a.saved == nil {
		return nil, nil
	}
	if m, ok := a.saved[sid]; ok {
		return m[path], nil
	}
	return nil, nil
}
func (a *rcMockFileStore) List(sid string) ([]string, error) {
	if a.saved == nil {
		return []string{}, nil
	}
	m := a.saved[sid]
	res := []string{}
	for k := range m {
		res = append(res, k)
	}
	return res, nil
}
func (a *rcMockFileStore) Delete(sid, path string) error { return nil }

type rcMockMemoryService struct{}

func (m *rcMockMemoryService) Get(sessionID string) (map[string]any, error) {
	return map[string]any{}, nil
}
func (m *rcMockMemoryService) Put(sessionID string, delta map[string]any) error { return nil }
func (m *rcMockMemoryService) Search(sid, q string, limit int) ([]SearchResult, error) {
	return []SearchResult{}, nil
}
func (m *rcMockMemoryService) Store(sid, content string, metadata map[string]interface{}) error {
	return nil
}
func (m *rcMockMemoryService) Delete(sid, memoryID string) error { return nil }

func newRunContextForTest() (*RunContext, chan Event) {
	emit := make(chan Event, 5)
	resume := make(chan struct{}, 5)
	sess := NewSession("sess-x")
	sSvc := &rcMockSessionService{}
	fSvc := &rcMockFileStore{}
	mSvc := &rcMockMemoryService{}
	return NewRunContext(context.Background(), "sess-x", "run-x", AgentInfo{Name: "Agent1", Type: "test"}, Content{}, 0, emit, resume, sess, sSvc, fSvc, mSvc, testLogger{}), emit
}
