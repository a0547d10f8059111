package whisperx

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

func fakeWhisperX(t *testing.T, body string, calls *[][]string) CommandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))
		outputDir := args[slices.Index(args, "--output_dir")+1]
		source := args[slices.Index(args, "whisperx")+1]
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		if err := os.WriteFile(filepath.Join(outputDir, base+".json"), []byte(body), 0o644); err != nil {
			t.Fatalf("write fake output: %v", err)
		}
		return []byte("done"), nil
	}
}

func TestTranscribeFileParsesSegments(t *testing.T) {
	var calls [][]string
	svc := NewService(Config{Model: "small"})
	svc.WithCommandRunner(fakeWhisperX(t,
		`{"language":"en","segments":[{"text":" Morning thoughts. ","start":0,"end":2.5},{"text":"","start":2.5,"end":3},{"text":"Buy seeds.","start":3,"end":4}]}`,
		&calls))

	out := t.TempDir()
	result, err := svc.TranscribeFile(context.Background(), "/recordings/20240301 081500.m4a", out)
	if err != nil {
		t.Fatalf("TranscribeFile returned error: %v", err)
	}
	if result.Text != "Morning thoughts. Buy seeds." {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if result.Language != "en" || len(result.Segments) != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.JSONPath != filepath.Join(out, "20240301 081500.json") {
		t.Fatalf("unexpected json path %q", result.JSONPath)
	}
	if len(calls) != 1 || calls[0][0] != UVXCommand {
		t.Fatalf("expected one uvx call, got %v", calls)
	}
	args := strings.Join(calls[0], " ")
	for _, want := range []string{"--model small", "--output_format json", "--device cpu"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
	if strings.Contains(args, "--language") {
		t.Fatalf("language should be auto-detected when unset: %q", args)
	}
}

func TestBuildArgsCUDAAndLanguage(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, Language: "EN-us"})
	args := strings.Join(svc.buildArgs("/a.m4a", "/out"), " ")
	for _, want := range []string{"--extra-index-url", "--device cuda", "--language en", "--model " + DefaultModel} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestTranscribeFileCommandFailure(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("line1\nCUDA out of memory"), errors.New("exit status 1")
	})
	_, err := svc.TranscribeFile(context.Background(), "/a.m4a", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected command output in error, got %v", err)
	}
}

func TestTranscribeFileMissingOutput(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, nil
	})
	if _, err := svc.TranscribeFile(context.Background(), "/a.m4a", t.TempDir()); err == nil {
		t.Fatal("expected error when WhisperX produced no JSON")
	}
}

func TestWithOverridesModelAndLanguage(t *testing.T) {
	base := NewService(Config{Model: "small"})
	derived := base.With("medium", "EN-gb")
	if derived.Model() != "medium" {
		t.Fatalf("derived model = %q", derived.Model())
	}
	if base.Model() != "small" {
		t.Fatalf("base model mutated to %q", base.Model())
	}
	args := strings.Join(derived.buildArgs("/a.m4a", "/out"), " ")
	if !strings.Contains(args, "--language en") {
		t.Fatalf("expected language override in %q", args)
	}
	if same := base.With("", ""); same.Model() != "small" {
		t.Fatalf("empty overrides should keep model, got %q", same.Model())
	}
}
