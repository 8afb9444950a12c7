package content

import "strings"

// Entry is one row in a ContentPayload list: a file or directory the
// client can navigate to or stream.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Font string `json:"font"`
}

// Payload is the three-list shape spec.md §3 names for a directory or
// root listing.
type Payload struct {
	Files              []Entry `json:"files"`
	Directories        []Entry `json:"directories"`
	SecuredDirectories []Entry `json:"secured_directories"`
}

// Iter is the sibling-navigation result for a single file.
type Iter struct {
	Previous *string `json:"previous,omitempty"`
	Next     *string `json:"next,omitempty"`
}

var imageExtensions = map[string]struct{}{
	"jpeg": {}, "jpg": {}, "png": {}, "gif": {}, "bmp": {}, "svg": {}, "webp": {},
}

// isImageExtension reports whether ext (lowercased, no leading dot) is an
// image format for font-icon selection purposes.
func isImageExtension(ext string) bool {
	_, ok := imageExtensions[strings.ToLower(ext)]
	return ok
}

// IsImageExtension is isImageExtension exported for callers outside the
// package, e.g. the stream handler choosing between the image landing
// page and the video landing page.
func IsImageExtension(ext string) bool {
	return isImageExtension(ext)
}

// fileFont picks the presentation-layer icon class for a file by
// extension.
func fileFont(name string) string {
	ext := extensionOf(name)
	if isImageExtension(ext) {
		return "fa-file-image"
	}
	return "fa-file-video"
}

// dirFont picks the icon class for a directory entry.
func dirFont(depth int, secured bool) string {
	if secured {
		return "fa-lock"
	}
	if depth > 1 {
		return "fa-folder-tree"
	}
	return "fa-folder"
}

func extensionOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx == -1 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// isSkipped reports whether basename should be excluded from every listing
// per spec.md §4.5's classification rule.
func isSkipped(basename string) bool {
	if basename == "__" {
		return true
	}
	if strings.HasPrefix(basename, "_") || strings.HasPrefix(basename, ".") {
		return true
	}
	return false
}

// isAllowedFile reports whether basename qualifies as a streamable file
// given the configured extension set.
func isAllowedFile(basename string, formats map[string]struct{}) bool {
	if isSkipped(basename) {
		return false
	}
	_, ok := formats[extensionOf(basename)]
	return ok
}
