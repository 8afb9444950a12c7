package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rustream/server/internal/auth"
	"github.com/rustream/server/internal/config"
	"github.com/rustream/server/internal/content"
	"github.com/rustream/server/internal/middleware"
	"github.com/rustream/server/internal/subtitle"
)

type homeData struct {
	Username string
	Payload  content.Payload
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	ac, _ := middleware.GetAuthContext(r.Context())
	payload, err := s.allStreamContent(ac.Username)
	if err != nil {
		renderInternal(w, err.Error())
		return
	}
	render(w, http.StatusOK, "home", homeData{Username: ac.Username, Payload: payload})
}

func (s *Server) allStreamContent(username string) (content.Payload, error) {
	key := username + ":"
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}
	payload, err := s.walker.GetAllStreamContent(username)
	if err != nil {
		return content.Payload{}, err
	}
	if s.cache != nil {
		s.cache.Set(key, payload)
	}
	return payload, nil
}

type profileData struct {
	Username      string
	TimeLeftSecs  int64
	LastStreamed  string
	MaxUploadSize string
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	ac, _ := middleware.GetAuthContext(r.Context())

	value := ""
	if cookie, err := r.Cookie("session_token"); err == nil {
		value = cookie.Value
	}
	result := s.authn.VerifyToken(value)

	render(w, http.StatusOK, "profile", profileData{
		Username:      ac.Username,
		TimeLeftSecs:  result.TimeLeftSecs,
		LastStreamed:  s.store.LastStreamed(hostKey(r)),
		MaxUploadSize: humanize.Bytes(uint64(s.cfg.MaxPayloadSize)),
	})
}

type streamDirData struct {
	Title   string
	Payload content.Payload
}

type streamImageData struct {
	Name        string
	EncodedPath string
}

type streamVideoData struct {
	Name        string
	EncodedPath string
	TrackPath   string
	Previous    string
	Next        string
}

func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	ac, _ := middleware.GetAuthContext(r.Context())
	relPath := r.PathValue("path")

	absPath, ok := resolveUnderRoot(s.cfg.MediaSource, relPath)
	if !ok {
		renderNotFound(w, "the requested path does not exist")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil {
		renderNotFound(w, "the requested path does not exist")
		return
	}
	if !auth.VerifySecureIndex(relPath, ac.Username) {
		renderForbidden(w, "this path belongs to another user's secure directory")
		return
	}

	if info.IsDir() {
		s.renderDirectory(w, ac.Username, absPath, relPath)
		return
	}

	name := filepath.Base(relPath)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if content.IsImageExtension(ext) {
		render(w, http.StatusOK, "stream_image", streamImageData{
			Name:        name,
			EncodedPath: url.QueryEscape(relPath),
		})
		return
	}

	iter, err := s.walker.GetIter(absPath)
	if err != nil {
		s.logger.WarnContext(r.Context(), "failed to compute sibling navigation", slog.String("error", err.Error()))
	}

	var trackPath string
	if _, ok, err := subtitle.EnsureVTT(absPath); err != nil {
		s.logger.WarnContext(r.Context(), "subtitle transcode failed", slog.String("path", relPath), slog.String("error", err.Error()))
	} else if ok {
		trackPath = url.QueryEscape(relPath)
	}

	render(w, http.StatusOK, "stream_video", streamVideoData{
		Name:        name,
		EncodedPath: url.QueryEscape(relPath),
		TrackPath:   trackPath,
		Previous:    siblingPath(relPath, iter.Previous),
		Next:        siblingPath(relPath, iter.Next),
	})
}

func (s *Server) renderDirectory(w http.ResponseWriter, username, absPath, relPath string) {
	key := username + ":" + relPath
	var payload content.Payload
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			payload = cached
		}
	}
	if payload.Files == nil && payload.Directories == nil && payload.SecuredDirectories == nil {
		p, err := s.walker.GetDirStreamContent(absPath, relPath)
		if err != nil {
			renderInternal(w, err.Error())
			return
		}
		payload = p
		if s.cache != nil {
			s.cache.Set(key, payload)
		}
	}

	title := filepath.Base(relPath)
	if strings.HasSuffix(title, config.SecureIndexSuffix) {
		title = "\U0001F512 " + title
	}
	render(w, http.StatusOK, "stream_dir", streamDirData{Title: title, Payload: payload})
}

func siblingPath(relPath string, name *string) string {
	if name == nil {
		return ""
	}
	return filepath.ToSlash(filepath.Join(filepath.Dir(relPath), *name))
}

func (s *Server) mediaHandler(w http.ResponseWriter, r *http.Request) {
	ac, _ := middleware.GetAuthContext(r.Context())
	relPath := r.URL.Query().Get("file")
	if relPath == "" {
		renderNotFound(w, "missing file parameter")
		return
	}

	absPath, ok := resolveUnderRoot(s.cfg.MediaSource, relPath)
	if !ok {
		renderNotFound(w, "file not found")
		return
	}
	if !auth.VerifySecureIndex(relPath, ac.Username) {
		renderForbidden(w, "this file belongs to another user's secure directory")
		return
	}

	f, err := os.Open(absPath)
	if err != nil {
		renderNotFound(w, "file not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		renderNotFound(w, "file not found")
		return
	}

	host := hostKey(r)
	if s.store.SetStreaming(host, relPath) {
		s.logger.InfoContext(r.Context(), "Streaming "+relPath, slog.String("username", ac.Username))
	}

	w.Header().Set("Accept-Ranges", "bytes")
	counted := &countingReadSeeker{ReadSeeker: io.ReadSeeker(f), onRead: func(n int) {
		s.store.AddBytesSent(host, int64(n))
		if s.metricsC != nil {
			s.metricsC.AddBytesStreamed(ac.Username, int64(n))
		}
	}}
	http.ServeContent(w, r, filepath.Base(relPath), info.ModTime(), counted)
}

func (s *Server) trackHandler(w http.ResponseWriter, r *http.Request) {
	ac, _ := middleware.GetAuthContext(r.Context())
	relPath := r.URL.Query().Get("file")
	if relPath == "" {
		renderNotFound(w, "missing file parameter")
		return
	}

	absPath, ok := resolveUnderRoot(s.cfg.MediaSource, relPath)
	if !ok {
		renderNotFound(w, "no subtitle track available")
		return
	}
	if !auth.VerifySecureIndex(relPath, ac.Username) {
		renderForbidden(w, "this file belongs to another user's secure directory")
		return
	}

	vttPath, ok, err := subtitle.EnsureVTT(absPath)
	if err != nil || !ok {
		renderNotFound(w, "no subtitle track available")
		return
	}
	data, err := os.ReadFile(vttPath)
	if err != nil {
		renderNotFound(w, "no subtitle track available")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// resolveUnderRoot joins rel onto root after forcing it into a rooted,
// dot-dot-free form, so a "../" component in a query or path parameter
// can never escape media_source.
func resolveUnderRoot(root, rel string) (string, bool) {
	cleanRel := filepath.Clean(string(filepath.Separator) + rel)
	abs := filepath.Join(root, cleanRel)
	cleanRoot := filepath.Clean(root)
	if abs != cleanRoot && !strings.HasPrefix(abs, cleanRoot+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

// countingReadSeeker wraps an io.ReadSeeker to feed byte-count telemetry,
// grounded on the altmount stream handler's MonitoredFile pattern.
type countingReadSeeker struct {
	io.ReadSeeker
	onRead func(n int)
}

func (c *countingReadSeeker) Read(p []byte) (int, error) {
	n, err := c.ReadSeeker.Read(p)
	if n > 0 && c.onRead != nil {
		c.onRead(n)
	}
	return n, err
}
