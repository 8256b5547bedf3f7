package webassets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManifest(t *testing.T) {
	manifest := Manifest()

	// 3 KaTeX core files, 21 fonts, 3 chart/diagram bundles.
	if len(manifest) != 27 {
		t.Errorf("len(Manifest()) = %d, want 27", len(manifest))
	}

	seen := map[string]bool{}
	for _, a := range manifest {
		if a.RelPath == "" || a.URL == "" {
			t.Errorf("incomplete asset: %+v", a)
		}
		if seen[a.RelPath] {
			t.Errorf("duplicate RelPath %q", a.RelPath)
		}
		seen[a.RelPath] = true
		if !strings.HasPrefix(a.URL, "https://") {
			t.Errorf("asset %q has non-https URL %q", a.RelPath, a.URL)
		}
	}

	for _, want := range []string{"katex/katex.min.css", "chart.umd.min.js", "echarts.min.js", "mermaid.min.js"} {
		if !seen[want] {
			t.Errorf("manifest missing %q", want)
		}
	}
}

func TestCached(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.js")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(dir, "full.js")
	if err := os.WriteFile(full, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	if cached(filepath.Join(dir, "missing.js")) {
		t.Error("cached() = true for missing file")
	}
	if cached(empty) {
		t.Error("cached() = true for empty file")
	}
	if !cached(full) {
		t.Error("cached() = false for non-empty file")
	}
	if cached(dir) {
		t.Error("cached() = true for directory")
	}
}

func TestDownloadOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.js" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("library code"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := srv.Client()

	dest := filepath.Join(dir, "nested", "lib.js")
	if err := downloadOne(context.Background(), client, srv.URL+"/lib.js", dest); err != nil {
		t.Fatalf("downloadOne() error = %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "library code" {
		t.Errorf("downloaded content = %q", data)
	}

	if err := downloadOne(context.Background(), client, srv.URL+"/missing.js", filepath.Join(dir, "x.js")); err == nil {
		t.Error("downloadOne() with 404, want error")
	}
}
