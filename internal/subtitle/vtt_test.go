package subtitle_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustream/server/internal/subtitle"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Hello, world.

2
00:00:05,500 --> 00:00:07,000
Second line
continues here.
`

func TestToVTT_HeaderAndTimecodeFormat(t *testing.T) {
	vtt := subtitle.ToVTT(sampleSRT)

	if !strings.HasPrefix(vtt, "WEBVTT\n\n") {
		t.Fatalf("expected a WEBVTT header, got:\n%s", vtt)
	}
	if !strings.Contains(vtt, "00:00:01.000-->00:00:04.000") {
		t.Errorf("expected a period-separated, tightened timecode, got:\n%s", vtt)
	}
	if strings.Contains(vtt, ",000") {
		t.Error("expected no comma timecode separators to remain")
	}
}

func TestToVTT_DropsSequenceNumbers(t *testing.T) {
	vtt := subtitle.ToVTT(sampleSRT)
	lines := strings.Split(vtt, "\n")
	for _, line := range lines {
		if line == "1" || line == "2" {
			t.Errorf("expected cue index lines to be dropped, found %q", line)
		}
	}
}

func TestToVTT_PreservesMultilineText(t *testing.T) {
	vtt := subtitle.ToVTT(sampleSRT)
	if !strings.Contains(vtt, "Second line\ncontinues here.") {
		t.Errorf("expected multiline cue text preserved, got:\n%s", vtt)
	}
}

func TestEnsureVTT_PrefersExistingVTT(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "movie.mp4")
	vttPath := filepath.Join(dir, "movie.vtt")
	os.WriteFile(vttPath, []byte("WEBVTT\n\nalready here\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "movie.srt"), []byte(sampleSRT), 0o644)

	got, ok, err := subtitle.EnsureVTT(media)
	if err != nil {
		t.Fatalf("EnsureVTT failed: %v", err)
	}
	if !ok || got != vttPath {
		t.Errorf("expected the existing vtt to win, got (%q, %v)", got, ok)
	}
}

func TestEnsureVTT_TranscodesSRTWhenNoVTT(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "movie.mp4")
	os.WriteFile(filepath.Join(dir, "movie.srt"), []byte(sampleSRT), 0o644)

	got, ok, err := subtitle.EnsureVTT(media)
	if err != nil {
		t.Fatalf("EnsureVTT failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a transcoded vtt to be available")
	}
	contents, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("failed to read transcoded vtt: %v", err)
	}
	if !strings.HasPrefix(string(contents), "WEBVTT") {
		t.Errorf("expected transcoded file to start with WEBVTT, got:\n%s", contents)
	}
}

func TestEnsureVTT_NoSidecarAvailable(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "movie.mp4")

	_, ok, err := subtitle.EnsureVTT(media)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no sidecar to be found")
	}
}
