package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustream/server/internal/audit"
	"github.com/rustream/server/internal/auth"
	"github.com/rustream/server/internal/middleware"
)

type editRequest struct {
	URLLocator  string `json:"url_locator"`
	PathLocator string `json:"path_locator"`
	NewName     string `json:"new_name,omitempty"`
}

// editHandler implements POST /edit: delete or rename a path resolved
// from the client's url_locator/path_locator pair, per spec.md §4.7.
func (s *Server) editHandler(w http.ResponseWriter, r *http.Request) {
	ac, _ := middleware.GetAuthContext(r.Context())

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		textError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.URLLocator == "" || req.PathLocator == "" {
		textError(w, http.StatusBadRequest, "url_locator and path_locator are both required")
		return
	}

	relPath, absPath, ok := s.resolveEditTarget(req)
	if !ok {
		textError(w, http.StatusBadRequest, "could not resolve an existing path from url_locator/path_locator")
		return
	}
	if !auth.VerifySecureIndex(relPath, ac.Username) {
		renderForbidden(w, "this path belongs to another user's secure directory")
		return
	}

	switch r.Header.Get("edit-action") {
	case "delete":
		s.handleDelete(w, r, ac.Username, absPath, relPath)
	case "rename":
		s.handleRename(w, r, ac.Username, absPath, relPath, req.NewName)
	default:
		textError(w, http.StatusBadRequest, "edit-action header must be 'delete' or 'rename'")
	}
}

// resolveEditTarget takes the substring after the first "stream" segment
// of each locator, prepends media_source, and returns the first candidate
// that exists on disk.
func (s *Server) resolveEditTarget(req editRequest) (relPath, absPath string, ok bool) {
	var candidates []string
	if rel, found := afterStreamSegment(req.URLLocator); found {
		candidates = append(candidates, rel)
	}
	if rel, found := afterStreamSegment(req.PathLocator); found {
		candidates = append(candidates, rel)
	}

	for _, c := range candidates {
		abs, within := resolveUnderRoot(s.cfg.MediaSource, c)
		if !within {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			return c, abs, true
		}
	}
	return "", "", false
}

func afterStreamSegment(locator string) (string, bool) {
	parts := strings.Split(locator, "/")
	for i, p := range parts {
		if p == "stream" {
			return strings.Join(parts[i+1:], "/"), true
		}
	}
	return "", false
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, username, absPath, relPath string) {
	info, err := os.Stat(absPath)
	if err != nil {
		textError(w, http.StatusBadRequest, "path no longer exists")
		return
	}

	if info.IsDir() {
		err = os.RemoveAll(absPath)
	} else {
		err = os.Remove(absPath)
	}
	if err != nil {
		s.auditEdit(r, username, audit.ActionDelete, relPath, audit.ResultFailure, err.Error())
		textError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cache != nil {
		s.cache.Purge()
	}
	s.auditEdit(r, username, audit.ActionDelete, relPath, audit.ResultSuccess, "")
	jsonSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request, username, absPath, relPath, newName string) {
	info, err := os.Stat(absPath)
	if err != nil {
		textError(w, http.StatusBadRequest, "path no longer exists")
		return
	}
	if info.IsDir() {
		textError(w, http.StatusBadRequest, "rename is only supported for files")
		return
	}

	oldName := filepath.Base(absPath)
	if err := validateNewName(oldName, newName); err != nil {
		textError(w, http.StatusBadRequest, err.Error())
		return
	}

	newAbs := filepath.Join(filepath.Dir(absPath), newName)
	if err := os.Rename(absPath, newAbs); err != nil {
		s.auditEdit(r, username, audit.ActionEdit, relPath, audit.ResultFailure, err.Error())
		textError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.cache != nil {
		s.cache.Purge()
	}
	s.auditEdit(r, username, audit.ActionEdit, relPath, audit.ResultSuccess, "")
	jsonSuccess(w, http.StatusOK, map[string]string{"status": "renamed", "new_name": newName})
}

// validateNewName enforces spec.md §4.7's rename rules: different from
// the old name, no leading/trailing '.' or '_', same extension, and at
// least one character before the extension.
func validateNewName(oldName, newName string) error {
	if newName == "" {
		return errors.New("new_name is required")
	}
	if newName == oldName {
		return errors.New("new name must differ from the current name")
	}
	if strings.HasPrefix(newName, ".") || strings.HasSuffix(newName, ".") ||
		strings.HasPrefix(newName, "_") || strings.HasSuffix(newName, "_") {
		return errors.New("new name must not start or end with '.' or '_'")
	}

	oldExt := strings.TrimPrefix(filepath.Ext(oldName), ".")
	newExt := strings.TrimPrefix(filepath.Ext(newName), ".")
	if newExt != oldExt {
		return errors.New("new name must keep the same file extension")
	}

	base := strings.TrimSuffix(newName, filepath.Ext(newName))
	if base == "" {
		return errors.New("new name must have at least one character before the extension")
	}
	return nil
}

func (s *Server) auditEdit(r *http.Request, username, action, targetPath, result, reason string) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.WriteEvent(r.Context(), audit.Event{
		Actor:      username,
		Action:     action,
		TargetPath: targetPath,
		Result:     result,
		ReasonCode: reason,
		ClientIP:   clientIPOf(r),
	})
}
