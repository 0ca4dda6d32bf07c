package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomeapp/tome/internal/paginate"
)

func TestComputeHash(t *testing.T) {
	tmpDir := t.TempDir()
	file1 := filepath.Join(tmpDir, "test1.txt")
	file2 := filepath.Join(tmpDir, "test2.txt")
	file3 := filepath.Join(tmpDir, "test1_copy.txt")

	os.WriteFile(file1, []byte("Hello, World!"), 0644)
	os.WriteFile(file2, []byte("Different content"), 0644)
	os.WriteFile(file3, []byte("Hello, World!"), 0644) // same as file1

	hash1, err := ComputeHash(file1)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}
	hash2, err := ComputeHash(file2)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}
	hash3, err := ComputeHash(file3)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}

	if hash1 != hash3 {
		t.Errorf("same content should produce same hash: %s != %s", hash1, hash3)
	}
	if hash1 == hash2 {
		t.Errorf("different content should produce different hash")
	}
	if len(hash1) != 32 {
		t.Errorf("hash should be 32 chars, got %d", len(hash1))
	}
}

func TestComputeHashSmallFile(t *testing.T) {
	tmpDir := t.TempDir()
	smallFile := filepath.Join(tmpDir, "small.txt")
	os.WriteFile(smallFile, []byte("tiny"), 0644)

	hash, err := ComputeHash(smallFile)
	if err != nil {
		t.Fatalf("ComputeHash failed on small file: %v", err)
	}
	if len(hash) != 32 {
		t.Errorf("hash should be 32 chars even for small files, got %d", len(hash))
	}
}

func TestHashContentMatchesFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "stdin and file should agree"
	file := filepath.Join(tmpDir, "agree.txt")
	os.WriteFile(file, []byte(content), 0644)

	fileHash, err := ComputeHash(file)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}
	if got := HashContent(content); got != fileHash {
		t.Errorf("HashContent = %s, ComputeHash = %s", got, fileHash)
	}
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Title:   "Test Book",
		Author:  "Someone",
		Content: "0123456789",
		Pages: []paginate.Page{
			{Number: 1, Start: 0, End: 10, Text: "0123456789"},
		},
		CharacterOffset: 4,
	}
}

// runStoreTests exercises the Store contract against any implementation.
func runStoreTests(t *testing.T, store Store) {
	t.Helper()
	id := "abcdef1234567890abcdef1234567890"

	if _, err := store.Load(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load unknown id: err = %v, want ErrNotFound", err)
	}

	snap := testSnapshot()
	if err := store.Save(id, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Title != snap.Title || got.CharacterOffset != snap.CharacterOffset {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if len(got.Pages) != 1 || got.Pages[0].End != 10 {
		t.Errorf("pages not preserved: %+v", got.Pages)
	}

	snap.CharacterOffset = 7
	if err := store.Save(id, snap); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, err = store.Load(id)
	if err != nil {
		t.Fatalf("Load after overwrite failed: %v", err)
	}
	if got.CharacterOffset != 7 {
		t.Errorf("overwrite not applied: offset = %d", got.CharacterOffset)
	}

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete: err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(id); err != nil {
		t.Errorf("Delete of missing id should be a no-op, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStoreAt failed: %v", err)
	}
	runStoreTests(t, store)
}

func TestFileStorePersistence(t *testing.T) {
	dir := t.TempDir()
	id := "abcdef1234567890abcdef1234567890"

	store1, err := NewFileStoreAt(dir)
	if err != nil {
		t.Fatalf("NewFileStoreAt failed: %v", err)
	}
	if err := store1.Save(id, testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	store2, err := NewFileStoreAt(dir)
	if err != nil {
		t.Fatalf("NewFileStoreAt failed: %v", err)
	}
	got, err := store2.Load(id)
	if err != nil {
		t.Fatalf("Load from new instance failed: %v", err)
	}
	if got.CharacterOffset != 4 {
		t.Errorf("persisted offset = %d, want 4", got.CharacterOffset)
	}
}

func TestFileStoreXDGDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmpDir)

	store, err := NewFileStore()
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.Save("deadbeef", testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "tome", "deadbeef.json")); err != nil {
		t.Errorf("snapshot not written under XDG_STATE_HOME/tome: %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tome.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()
	runStoreTests(t, store)
}

func TestSQLiteStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tome.db")
	id := "abcdef1234567890abcdef1234567890"

	store1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store1.Save(id, testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store1.Close()

	store2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store2.Close()
	got, err := store2.Load(id)
	if err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
	if got.Title != "Test Book" {
		t.Errorf("persisted title = %q", got.Title)
	}
}

func TestSnapshotProgress(t *testing.T) {
	tests := []struct {
		name    string
		content string
		offset  int
		want    float64
	}{
		{"start", "0123456789", 0, 0},
		{"middle", "0123456789", 5, 0.5},
		{"end", "0123456789", 10, 1},
		{"past end clamps", "0123456789", 99, 1},
		{"negative clamps", "0123456789", -3, 0},
		{"empty content", "", 0, 0},
		{"cjk runes not bytes", "你好世界", 2, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Snapshot{Content: tt.content, CharacterOffset: tt.offset}
			if got := s.Progress(); got != tt.want {
				t.Errorf("Progress() = %v, want %v", got, tt.want)
			}
		})
	}
}
