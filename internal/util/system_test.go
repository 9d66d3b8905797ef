package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLogicalCores(t *testing.T) {
	cores := LogicalCores()
	if cores <= 0 {
		t.Errorf("LogicalCores() = %d, want > 0", cores)
	}
	if cores != runtime.NumCPU() {
		t.Errorf("LogicalCores() = %d, want %d (runtime.NumCPU())", cores, runtime.NumCPU())
	}
}

func TestDefaultWorkers(t *testing.T) {
	w := DefaultWorkers()
	if w < 1 || w > 2 {
		t.Errorf("DefaultWorkers() = %d, want 1 or 2", w)
	}
}

func TestGetSystemInfo(t *testing.T) {
	info := GetSystemInfo()
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("unexpected platform %s/%s", info.OS, info.Arch)
	}
	if info.NumCPU <= 0 {
		t.Errorf("NumCPU = %d, want > 0", info.NumCPU)
	}
}

func TestIsTransformCandidate(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		want bool
	}{
		{"clip.mp4", true},
		{"CLIP.MOV", true},
		{"clip.mkv", false},
		{"notes.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
				t.Fatal(err)
			}
			if got := IsTransformCandidate(path); got != tt.want {
				t.Errorf("IsTransformCandidate(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if IsTransformCandidate(filepath.Join(dir, "missing.mp4")) {
		t.Error("missing file should not be a candidate")
	}
}

func TestRandomOutputPath(t *testing.T) {
	dir := t.TempDir()
	path, err := RandomOutputPath(dir, 8, "mp4")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("expected path in %s, got %s", dir, path)
	}
	base := filepath.Base(path)
	if len(base) != len("abcdefgh.mp4") || filepath.Ext(base) != ".mp4" {
		t.Errorf("unexpected name %s", base)
	}
}

func TestListFilesAndRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.mp4"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := files["a.mp4"]; !ok || len(files) != 1 {
		t.Errorf("unexpected listing %v", files)
	}

	if err := RemoveIfExists(filepath.Join(dir, "a.mp4")); err != nil {
		t.Errorf("RemoveIfExists: %v", err)
	}
	if err := RemoveIfExists(filepath.Join(dir, "a.mp4")); err != nil {
		t.Errorf("second RemoveIfExists should be a no-op: %v", err)
	}
}
