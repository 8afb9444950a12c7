// Package subtitle converts SRT subtitle files to WebVTT.
package subtitle

import (
	"strings"
)

// ToVTT converts SRT content to WebVTT, following spec.md §4.6: swap the
// comma timecode separator for a period, tighten " --> " to "-->", prefix
// with the WEBVTT header, and re-emit each cue block (sequence number
// dropped, timecode line kept, text lines kept) separated by a blank line.
func ToVTT(srt string) string {
	var out strings.Builder
	out.WriteString("WEBVTT\n\n")

	for _, block := range splitBlocks(srt) {
		lines := strings.Split(block, "\n")
		lines = trimTrailingEmpty(lines)
		if len(lines) == 0 {
			continue
		}

		// SRT blocks are "<index>\n<timecode>\n<text...>"; the index line
		// is redundant under WebVTT and dropped.
		start := 0
		if len(lines) > 0 && isCueIndex(lines[0]) {
			start = 1
		}
		if start >= len(lines) {
			continue
		}

		timecode := convertTimecode(lines[start])
		out.WriteString(timecode)
		out.WriteString("\n")
		for _, text := range lines[start+1:] {
			out.WriteString(text)
			out.WriteString("\n")
		}
		out.WriteString("\n")
	}

	return out.String()
}

func splitBlocks(srt string) []string {
	normalized := strings.ReplaceAll(srt, "\r\n", "\n")
	return strings.Split(strings.TrimSpace(normalized), "\n\n")
}

func trimTrailingEmpty(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isCueIndex(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func convertTimecode(line string) string {
	line = strings.ReplaceAll(line, ",", ".")
	line = strings.ReplaceAll(line, " --> ", "-->")
	return line
}
