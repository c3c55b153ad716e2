package vfs

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when a file for the given session / path pair
	// does not exist in the underlying store.
	ErrNotFound = fmt.Errorf("file not found")
)

// InMemoryStore is a process-local virtual filesystem keeping all file
// contents in a nested map guarded by an RWMutex. Data is copied on save /
// retrieval to avoid accidental external mutation of internal buffers.
//
// Layout: sessionID -> path -> raw bytes
//
// It satisfies core.FileStore and additionally provides the lookup helpers
// (Glob, Grep, FileMap) used by the filesystem tools and the serving layer.
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string]map[string][]byte // sessionID -> path -> data
}

// NewInMemoryStore returns an empty in-memory virtual filesystem.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{files: make(map[string]map[string][]byte)}
}

// Save stores (or overwrites) the file bytes for the given session and path.
// The input slice is copied before storage.
func (s *InMemoryStore) Save(sessionID, filePath string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[sessionID]; !exists {
		s.files[sessionID] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.files[sessionID][filePath] = cp
	return nil
}

// Get returns a copy of the stored file bytes or ErrNotFound.
func (s *InMemoryStore) Get(sessionID, filePath string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.files[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := m[filePath]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the sorted file paths stored for the session. The slice is
// a snapshot and safe for caller mutation.
func (s *InMemoryStore) List(sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.files[sessionID]
	if !ok {
		return []string{}, nil
	}
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Delete removes the file if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(sessionID, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.files[sessionID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[filePath]; !ok {
		return ErrNotFound
	}
	delete(m, filePath)
	return nil
}

// Glob returns the sorted paths for the session matching the shell pattern.
// Matching follows path.Match semantics against the full stored path.
func (s *InMemoryStore) Glob(sessionID, pattern string) ([]string, error) {
	paths, err := s.List(sessionID)
	if err != nil {
		return nil, err
	}
	// path.Match never lets "*" cross a separator, which is surprising for
	// directory-style patterns like "/reports/*". Fall back to a prefix
	// check for a single trailing wildcard.
	prefix := ""
	if strings.HasSuffix(pattern, "*") && strings.Count(pattern, "*") == 1 {
		prefix = strings.TrimSuffix(pattern, "*")
	}
	matched := make([]string, 0, len(paths))
	for _, p := range paths {
		ok, err := path.Match(pattern, p)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if ok || (prefix != "" && strings.HasPrefix(p, prefix)) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// GrepMatch is a single line hit produced by Grep.
type GrepMatch struct {
	Path string
	Line int
	Text string
}

// Grep scans every file of the session for the literal substring and returns
// the matching lines in path order.
func (s *InMemoryStore) Grep(sessionID, substring string) ([]GrepMatch, error) {
	paths, err := s.List(sessionID)
	if err != nil {
		return nil, err
	}
	var hits []GrepMatch
	for _, p := range paths {
		data, err := s.Get(sessionID, p)
		if err != nil {
			continue
		}
		for i, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, substring) {
				hits = append(hits, GrepMatch{Path: p, Line: i + 1, Text: line})
			}
		}
	}
	return hits, nil
}

// FileMap returns the full path-to-content mapping for the session. The
// serving layer attaches this to custom outputs when a run completes.
func (s *InMemoryStore) FileMap(sessionID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := map[string]string{}
	for p, data := range s.files[sessionID] {
		result[p] = string(data)
	}
	return result, nil
}
