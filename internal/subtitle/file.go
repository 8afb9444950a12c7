package subtitle

import (
	"os"
	"strings"
)

// VTTSidecarPath returns the sibling .vtt path for a media file path (the
// same basename with the media extension replaced by .vtt).
func VTTSidecarPath(mediaPath string) string {
	idx := strings.LastIndex(mediaPath, ".")
	if idx == -1 {
		return mediaPath + ".vtt"
	}
	return mediaPath[:idx] + ".vtt"
}

// srtSidecarPath is VTTSidecarPath's .srt counterpart.
func srtSidecarPath(mediaPath string) string {
	idx := strings.LastIndex(mediaPath, ".")
	if idx == -1 {
		return mediaPath + ".srt"
	}
	return mediaPath[:idx] + ".srt"
}

// EnsureVTT returns the path to a readable VTT sidecar for mediaPath, if
// one is available: the existing .vtt is preferred; otherwise, if a sibling
// .srt exists, it is transcoded once and the new .vtt path is returned.
// Returns ("", false) if neither sidecar exists.
func EnsureVTT(mediaPath string) (string, bool, error) {
	vttPath := VTTSidecarPath(mediaPath)
	if _, err := os.Stat(vttPath); err == nil {
		return vttPath, true, nil
	}

	srtPath := srtSidecarPath(mediaPath)
	srtBytes, err := os.ReadFile(srtPath)
	if err != nil {
		return "", false, nil
	}

	vtt := ToVTT(string(srtBytes))
	if err := os.WriteFile(vttPath, []byte(vtt), 0o644); err != nil {
		return "", false, err
	}
	return vttPath, true, nil
}
