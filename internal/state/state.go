// Package state persists reading snapshots between sessions. Books are
// keyed by a content hash so renamed or moved files keep their position.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tomeapp/tome/internal/chapter"
	"github.com/tomeapp/tome/internal/paginate"
)

const hashBytes = 8192 // first 8KB for content hash

// Snapshot is everything needed to restore a reading session. Progress
// is intentionally absent: it is always re-derived from the offset and
// content length so the two can never disagree.
type Snapshot struct {
	Title           string            `json:"title"`
	Author          string            `json:"author,omitempty"`
	Content         string            `json:"content"`
	Pages           []paginate.Page   `json:"pages"`
	Chapters        []chapter.Chapter `json:"chapters"`
	CharacterOffset int               `json:"characterOffset"`
}

// Progress returns the fraction read, derived from the offset.
func (s *Snapshot) Progress() float64 {
	n := len([]rune(s.Content))
	if n == 0 {
		return 0
	}
	p := float64(s.CharacterOffset) / float64(n)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ErrNotFound is returned by Load when no snapshot exists for the id.
var ErrNotFound = fmt.Errorf("state: snapshot not found")

// Store persists snapshots keyed by book id.
type Store interface {
	Load(id string) (*Snapshot, error)
	Save(id string, snap *Snapshot) error
	Delete(id string) error
}

// ComputeHash generates a content hash for file identity.
func ComputeHash(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}

	hash := sha256.Sum256(buf[:n])
	return hex.EncodeToString(hash[:16]), nil // first 16 bytes = 32 hex chars
}

// HashContent hashes in-memory content the same way, for stdin input.
func HashContent(content string) string {
	buf := []byte(content)
	if len(buf) > hashBytes {
		buf = buf[:hashBytes]
	}
	hash := sha256.Sum256(buf)
	return hex.EncodeToString(hash[:16])
}

// FileStore keeps one JSON file per book under the state directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates or opens a store under XDG_STATE_HOME/tome.
func NewFileStore() (*FileStore, error) {
	return NewFileStoreAt(stateDir())
}

// NewFileStoreAt creates or opens a store under an explicit directory.
func NewFileStoreAt(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// stateDir returns XDG_STATE_HOME/tome or ~/.local/state/tome.
func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "tome")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "tome")
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Load(id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("state: decode %s: %w", id, err)
	}
	return &snap, nil
}

func (s *FileStore) Save(id string, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(id), data, 0644)
}

func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
