package discover

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("test cat\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFilesWalksAndDedups(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.clif"))
	touch(t, filepath.Join(root, "a.clif"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "nested", "c.clif"))
	touch(t, filepath.Join(root, ".git", "hidden.clif"))
	explicit := filepath.Join(root, "notes.txt")

	got, err := Files([]string{root, filepath.Join(root, "a.clif"), explicit}, ".clif")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.clif"),
		filepath.Join(root, "b.clif"),
		filepath.Join(root, "nested", "c.clif"),
		explicit,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Files = %v\nwant %v", got, want)
	}
}

func TestFilesMissingArgument(t *testing.T) {
	if _, err := Files([]string{filepath.Join(t.TempDir(), "nope")}, ".clif"); !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}
