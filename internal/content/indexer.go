package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rustream/server/internal/config"
)

// Walker recursively indexes media_source the way spec.md §4.5 describes.
// It mirrors the teacher's repository-over-a-datastore shape, but over the
// filesystem instead of Postgres.
type Walker struct {
	root        string
	fileFormats map[string]struct{}
}

func NewWalker(root string, fileFormats map[string]struct{}) *Walker {
	return &Walker{root: root, fileFormats: fileFormats}
}

// GetAllStreamContent implements get_all_stream_content: a full recursive
// walk of media_source, producing the root-level listing scoped to
// username's visibility of secure directories.
func (w *Walker) GetAllStreamContent(username string) (Payload, error) {
	var payload Payload
	seenDirs := make(map[string]struct{})
	seenSecured := make(map[string]struct{})

	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == w.root {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !isAllowedFile(d.Name(), w.fileFormats) {
			return nil
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		components := strings.Split(filepath.ToSlash(rel), "/")

		if len(components) == 1 {
			payload.Files = append(payload.Files, Entry{
				Name: d.Name(),
				Path: "stream/" + d.Name(),
				Font: fileFont(d.Name()),
			})
			return nil
		}

		dirChain := components[:len(components)-1]
		topDir := dirChain[0]

		secureOwner, isSecure := firstSecureComponent(dirChain)
		if isSecure {
			if secureOwner != config.SecureIndexName(username) {
				return nil // another user's space: skip entirely
			}
			if _, ok := seenSecured[topDir]; !ok {
				seenSecured[topDir] = struct{}{}
				payload.SecuredDirectories = append(payload.SecuredDirectories, Entry{
					Name: topDir,
					Path: "stream/" + topDir,
					Font: dirFont(1, true),
				})
			}
			return nil
		}

		if _, ok := seenDirs[topDir]; !ok {
			seenDirs[topDir] = struct{}{}
			payload.Directories = append(payload.Directories, Entry{
				Name: topDir,
				Path: "stream/" + topDir,
				Font: dirFont(len(dirChain), false),
			})
		}
		return nil
	})
	if err != nil {
		return Payload{}, err
	}

	sortEntries(payload.Files)
	sortEntries(payload.Directories)
	sortEntries(payload.SecuredDirectories)
	return payload, nil
}

// firstSecureComponent returns the first path component ending in the
// secure-index suffix, if any.
func firstSecureComponent(components []string) (string, bool) {
	for _, c := range components {
		if strings.HasSuffix(c, config.SecureIndexSuffix) {
			return c, true
		}
	}
	return "", false
}

// GetDirStreamContent implements get_dir_stream_content: a single-level
// listing of absoluteParent, with paths rooted at relativeParent's last
// component.
func (w *Walker) GetDirStreamContent(absoluteParent, relativeParent string) (Payload, error) {
	entries, err := os.ReadDir(absoluteParent)
	if err != nil {
		return Payload{}, err
	}

	prefix := filepath.Base(relativeParent)
	var payload Payload
	for _, e := range entries {
		if isSkipped(e.Name()) {
			continue
		}
		if e.IsDir() {
			secured := strings.HasSuffix(e.Name(), config.SecureIndexSuffix)
			entry := Entry{
				Name: e.Name(),
				Path: prefix + "/" + e.Name(),
				Font: dirFont(2, secured),
			}
			if secured {
				payload.SecuredDirectories = append(payload.SecuredDirectories, entry)
			} else {
				payload.Directories = append(payload.Directories, entry)
			}
			continue
		}
		if !isAllowedFile(e.Name(), w.fileFormats) {
			continue
		}
		payload.Files = append(payload.Files, Entry{
			Name: e.Name(),
			Path: prefix + "/" + e.Name(),
			Font: fileFont(e.Name()),
		})
	}

	sortEntries(payload.Files)
	sortEntries(payload.Directories)
	sortEntries(payload.SecuredDirectories)
	return payload, nil
}

// GetIter implements get_iter: sibling navigation within filePath's parent
// directory, restricted to allowed extensions and sorted naturally.
func (w *Walker) GetIter(filePath string) (Iter, error) {
	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Iter{}, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isAllowedFile(e.Name(), w.fileFormats) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })

	idx := -1
	for i, n := range names {
		if n == base {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Iter{}, nil
	}

	var it Iter
	if idx > 0 {
		it.Previous = &names[idx-1]
	}
	if idx < len(names)-1 {
		it.Next = &names[idx+1]
	}
	return it, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return naturalLess(entries[i].Name, entries[j].Name)
	})
}
