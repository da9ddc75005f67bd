package fsutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestIsSourceFile(t *testing.T) {
	for _, path := range []string{"page.asp", "GLOBAL.ASA", "script.vbs", "mixed.AsP"} {
		if !IsSourceFile(path) {
			t.Errorf("%s should be recognized", path)
		}
	}
	for _, path := range []string{"index.html", "readme.md", "asp", "style.css"} {
		if IsSourceFile(path) {
			t.Errorf("%s should not be recognized", path)
		}
	}
}

func TestFindSourceFiles(t *testing.T) {
	dir := t.TempDir()
	layout := []string{
		"a.asp",
		"sub/b.asp",
		"sub/deep/c.vbs",
		"node_modules/dep/ignored.asp",
		".git/objects/ignored.asp",
		"notes.txt",
	}
	for _, rel := range layout {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<% %>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := FindSourceFiles(dir, DefaultExcludes)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.asp"),
		filepath.Join(dir, "sub", "b.asp"),
		filepath.Join(dir, "sub", "deep", "c.vbs"),
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	if !sort.StringsAreSorted(files) {
		t.Fatalf("results must be sorted: %v", files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, files)
		}
	}
}

func TestExcluded(t *testing.T) {
	cases := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"src/backup/a.asp", []string{"backup"}, true},
		{"src/code/a.asp", []string{"backup"}, false},
		{"src/a.tmp", []string{"*.tmp"}, true},
		{"src/a.asp", nil, false},
	}
	for _, tc := range cases {
		if got := Excluded(tc.path, tc.patterns); got != tc.want {
			t.Errorf("Excluded(%q, %v) = %v, want %v", tc.path, tc.patterns, got, tc.want)
		}
	}
}

func TestReadFileWithFallback(t *testing.T) {
	dir := t.TempDir()

	utf8Path := filepath.Join(dir, "utf8.asp")
	if err := os.WriteFile(utf8Path, []byte("<% s = \"héllo\" %>"), 0o644); err != nil {
		t.Fatal(err)
	}
	content, err := ReadFileWithFallback(utf8Path)
	if err != nil {
		t.Fatal(err)
	}
	if content != "<% s = \"héllo\" %>" {
		t.Fatalf("unexpected content: %q", content)
	}

	// 0xE9 is é in ISO-8859-1 and invalid as a standalone UTF-8 byte.
	latinPath := filepath.Join(dir, "latin.asp")
	if err := os.WriteFile(latinPath, []byte{'<', '%', ' ', 0xE9, ' ', '%', '>'}, 0o644); err != nil {
		t.Fatal(err)
	}
	content, err = ReadFileWithFallback(latinPath)
	if err != nil {
		t.Fatal(err)
	}
	if content != "<% é %>" {
		t.Fatalf("unexpected fallback content: %q", content)
	}

	if _, err := ReadFileWithFallback(filepath.Join(dir, "missing.asp")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
