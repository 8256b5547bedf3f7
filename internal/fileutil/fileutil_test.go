package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) {
		t.Error("FileExists() = false for regular file")
	}
	if FileExists(dir) {
		t.Error("FileExists() = true for directory")
	}
	if FileExists(filepath.Join(dir, "absent")) {
		t.Error("FileExists() = true for missing path")
	}
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !DirExists(dir) {
		t.Error("DirExists() = false for directory")
	}
	if DirExists(file) {
		t.Error("DirExists() = true for regular file")
	}
	if DirExists(filepath.Join(dir, "absent")) {
		t.Error("DirExists() = true for missing path")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "out.txt")

	if err := WriteFileAtomic(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}

	// Overwrite replaces the previous content completely.
	if err := WriteFileAtomic(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "x" {
		t.Errorf("after overwrite = %q, want %q", data, "x")
	}

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp_write_") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	if err := WriteJSONAtomic(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteJSONAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, `"a": 1`) {
		t.Errorf("content = %q, want indented JSON", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("JSON file missing trailing newline")
	}
}

func TestWriteJSONAtomicUnmarshalable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	if err := WriteJSONAtomic(path, make(chan int)); err == nil {
		t.Error("WriteJSONAtomic() with unmarshalable value, want error")
	}
}
