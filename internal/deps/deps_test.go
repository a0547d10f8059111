package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestResolveFFmpegFromPath(t *testing.T) {
	binDir := t.TempDir()
	ffmpegPath := filepath.Join(binDir, executableName("ffmpeg"))
	if err := os.WriteFile(ffmpegPath, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	status := ResolveFFmpeg()
	if !status.Available {
		t.Fatalf("expected ffmpeg to be available, got detail %q", status.Detail)
	}
	if status.Command != ffmpegPath {
		t.Fatalf("expected ffmpeg command %q, got %q", ffmpegPath, status.Command)
	}
	if status.Detail != "" {
		t.Fatalf("unexpected detail for PATH hit: %q", status.Detail)
	}
}

func TestResolveFFmpegFallbackLocation(t *testing.T) {
	tmp := t.TempDir()
	fallback := filepath.Join(tmp, "homebrew", "ffmpeg")
	if err := os.MkdirAll(filepath.Dir(fallback), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fallback, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	notExecutable := filepath.Join(tmp, "ffmpeg-data")
	if err := os.WriteFile(notExecutable, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	original := ffmpegFallbacks
	ffmpegFallbacks = []string{filepath.Join(tmp, "missing"), notExecutable, fallback}
	t.Cleanup(func() { ffmpegFallbacks = original })
	t.Setenv("PATH", "")

	status := ResolveFFmpeg()
	if !status.Available || status.Command != fallback {
		t.Fatalf("expected fallback %q, got %#v", fallback, status)
	}
	if status.Detail != "not in PATH" {
		t.Fatalf("unexpected detail %q", status.Detail)
	}
}

func TestResolveFFmpegNotFound(t *testing.T) {
	original := ffmpegFallbacks
	ffmpegFallbacks = nil
	t.Cleanup(func() { ffmpegFallbacks = original })
	t.Setenv("PATH", "")

	status := ResolveFFmpeg()
	if status.Available {
		t.Fatal("expected ffmpeg resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when ffmpeg is unavailable")
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
