package core

// FileStore defines the interface for virtual file persistence. Implementations
// should be thread-safe and scope files by session identifier. The supervisor's
// filesystem tools read and write through this interface so large tool output
// can be offloaded from the conversation context and surfaced to callers as a
// path-to-content mapping. Short method names (Save/Get/List/Delete) mirror
// other store interfaces for consistency.
type FileStore interface {
	Save(sessionID, path string, data []byte) error
	Get(sessionID, path string) ([]byte, error)
	List(sessionID string) ([]string, error)
	Delete(sessionID, path string) error
}
