package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
)

func setupContext(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.csv"), "1\n")
	writeTestFile(t, filepath.Join(dir, "b.CSV"), "2\n")
	writeTestFile(t, filepath.Join(dir, "notes.txt"), "n\n")
	if err := os.MkdirAll(filepath.Join(dir, "archive.csv"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "2024"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	writeTestFile(t, filepath.Join(dir, "2024", "c.csv"), "3\n")
	return dir
}

func TestIsEligible(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want bool
	}{
		{"a.csv", ".csv", true},
		{"A.CSV", ".csv", true},
		{"a.csv.pgp", ".csv", false},
		{"notes.txt", ".csv", false},
		{"csv", ".csv", false},
		{"a.csv", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsEligible(tc.name, tc.ext); got != tc.want {
				t.Errorf("IsEligible(%q, %q) = %v, want %v", tc.name, tc.ext, got, tc.want)
			}
		})
	}
}

func TestAdmitter(t *testing.T) {
	dir := setupContext(t)
	admit := Admitter(dir, ".csv")

	if !admit("a.csv") || !admit("b.CSV") {
		t.Error("expected eligible files to be admitted")
	}
	if admit("notes.txt") {
		t.Error("expected ineligible extension to be rejected")
	}
	if admit("archive.csv") {
		t.Error("expected directories to be rejected")
	}
	if admit("missing.csv") {
		t.Error("expected missing files to be rejected")
	}
}

func TestResolveFiles(t *testing.T) {
	dir := setupContext(t)

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"Literal", []string{"a.csv"}, []string{"a.csv"}},
		{"Glob", []string{"*.csv"}, []string{"a.csv"}},
		{"CaseInsensitiveGlob", []string{"*"}, []string{"a.csv", "b.CSV"}},
		{"DoubleStar", []string{"**/*.csv"}, []string{filepath.Join("2024", "c.csv"), "a.csv"}},
		{"Deduplicated", []string{"a.csv", "*.csv"}, []string{"a.csv"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveFiles(tc.patterns, dir, ".csv")
			if err != nil {
				t.Fatalf("ResolveFiles failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ResolveFiles(%v) = %v, want %v", tc.patterns, got, tc.want)
			}
		})
	}
}

func TestResolveFilesErrors(t *testing.T) {
	dir := setupContext(t)

	if files, err := ResolveFiles(nil, dir, ".csv"); err != nil || files != nil {
		t.Errorf("expected nil result for empty patterns, got %v, %v", files, err)
	}

	if _, err := ResolveFiles([]string{"missing.csv"}, dir, ".csv"); err == nil {
		t.Error("expected error for missing literal file")
	}

	_, err := ResolveFiles([]string{"notes.txt"}, dir, ".csv")
	if !errors.Is(err, kerrors.ErrNoFilesFound) {
		t.Errorf("expected ErrNoFilesFound for ineligible file, got %v", err)
	}

	if _, err := ResolveFiles([]string{"../*.csv"}, filepath.Join(dir, "2024"), ".csv"); err == nil {
		t.Error("expected error for matches outside the context directory")
	}
}

func TestListEligible(t *testing.T) {
	dir := setupContext(t)

	got, err := ListEligible(dir, ".csv")
	if err != nil {
		t.Fatalf("ListEligible failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a.csv", "b.CSV"}) {
		t.Errorf("ListEligible() = %v", got)
	}

	_, err = ListEligible(filepath.Join(dir, "missing"), ".csv")
	if !errors.Is(err, kerrors.ErrContextNotFound) {
		t.Errorf("expected ErrContextNotFound, got %v", err)
	}
}
