package content

import "testing"

func TestNaturalLess_GroupsNumericRuns(t *testing.T) {
	cases := []struct {
		a, b string
		less bool
	}{
		{"file2", "file10", true},
		{"file10", "file2", false},
		{"file2", "file2", false},
		{"a", "b", true},
		{"episode1", "episode1.5", true},
	}
	for _, c := range cases {
		if got := naturalLess(c.a, c.b); got != c.less {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", c.a, c.b, got, c.less)
		}
	}
}

func TestIsAllowedFile(t *testing.T) {
	formats := map[string]struct{}{"mp4": {}, "jpg": {}}
	cases := map[string]bool{
		"movie.mp4":  true,
		"movie.MP4":  true,
		"photo.jpg":  true,
		"photo.png":  false,
		".hidden.mp4": false,
		"_skip.mp4":   false,
		"__":          false,
	}
	for name, want := range cases {
		if got := isAllowedFile(name, formats); got != want {
			t.Errorf("isAllowedFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFileFont(t *testing.T) {
	if fileFont("a.jpg") != "fa-file-image" {
		t.Error("expected image font for .jpg")
	}
	if fileFont("a.mp4") != "fa-file-video" {
		t.Error("expected video font for .mp4")
	}
}
