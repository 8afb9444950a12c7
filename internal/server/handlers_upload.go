package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rustream/server/internal/apperr"
	"github.com/rustream/server/internal/audit"
	"github.com/rustream/server/internal/config"
	"github.com/rustream/server/internal/middleware"
)

type uploadPageData struct {
	MaxUploadSize string
}

func (s *Server) uploadPageHandler(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "upload", uploadPageData{MaxUploadSize: humanize.Bytes(uint64(s.cfg.MaxPayloadSize))})
}

// uploadHandler streams each "file" field of a multipart request straight
// to disk, per spec.md §4.7: a client abort mid-field is a chunk-read
// error reported 422, any other field error is 400, a body over
// max_payload_size is 413, and a fully drained request is 200.
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	ac, _ := middleware.GetAuthContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxPayloadSize)
	mr, err := r.MultipartReader()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "expected a multipart/form-data request")
		return
	}

	dir := s.cfg.MediaSource
	if r.Header.Get("secure-flag") == "true" {
		dir = filepath.Join(s.cfg.MediaSource, config.SecureIndexName(ac.Username))
	}

	uploaded := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if isPayloadTooLarge(err) {
				jsonError(w, apperr.StatusCode(apperr.KindPayloadTooLarge), "upload exceeds max_payload_size")
				return
			}
			jsonError(w, http.StatusBadRequest, "malformed multipart body")
			return
		}

		if part.FormName() != "file" {
			part.Close()
			continue
		}

		filename := part.FileName()
		if filename == "" {
			part.Close()
			jsonError(w, http.StatusBadRequest, "missing filename in Content-Disposition")
			return
		}

		dest := filepath.Join(dir, filepath.Base(filename))
		out, err := os.Create(dest)
		if err != nil {
			part.Close()
			s.auditUpload(r, ac.Username, filename, audit.ResultFailure, err.Error())
			jsonError(w, http.StatusBadRequest, "could not create destination file")
			return
		}

		n, copyErr := io.Copy(out, part)
		out.Close()
		part.Close()

		if copyErr != nil {
			os.Remove(dest)
			s.auditUpload(r, ac.Username, filename, audit.ResultFailure, copyErr.Error())
			if isPayloadTooLarge(copyErr) {
				jsonError(w, apperr.StatusCode(apperr.KindPayloadTooLarge), "upload exceeds max_payload_size")
				return
			}
			jsonError(w, http.StatusUnprocessableEntity, "upload aborted: "+copyErr.Error())
			return
		}

		uploaded++
		if s.metricsC != nil {
			s.metricsC.RecordUpload(ac.Username)
		}
		s.logger.InfoContext(r.Context(), "upload stored", slog.String("username", ac.Username),
			slog.String("filename", filename), slog.Int64("bytes", n))
		s.auditUpload(r, ac.Username, filename, audit.ResultSuccess, "")
	}

	if uploaded > 0 && s.cache != nil {
		s.cache.Purge()
	}
	jsonSuccess(w, http.StatusOK, map[string]int{"uploaded": uploaded})
}

// isPayloadTooLarge reports whether err was caused by the http.MaxBytesReader
// wrapping r.Body in uploadHandler hitting max_payload_size.
func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func (s *Server) auditUpload(r *http.Request, username, filename, result, reason string) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.WriteEvent(r.Context(), audit.Event{
		Actor:      username,
		Action:     audit.ActionUpload,
		TargetPath: filename,
		Result:     result,
		ReasonCode: reason,
		ClientIP:   clientIPOf(r),
	})
}
