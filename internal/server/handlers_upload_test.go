package server_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newMultipartUpload(t *testing.T, fieldName, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadHandler_Success(t *testing.T) {
	h := newHarness(t)
	cookie := h.loginAs("alice", "password123")

	body, contentType := newMultipartUpload(t, "file", "clip.mp4", "video bytes")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.AddCookie(cookie)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d body %s", rec.Code, rec.Body.String())
	}
	var result map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["uploaded"] != 1 {
		t.Errorf("got uploaded=%d, want 1", result["uploaded"])
	}

	dest := filepath.Join(h.mediaRoot, "clip.mp4")
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("expected uploaded file at %s: %v", dest, err)
	}
}

func TestUploadHandler_SecureFlagWritesToUserDir(t *testing.T) {
	h := newHarness(t)
	cookie := h.loginAs("alice", "password123")

	body, contentType := newMultipartUpload(t, "file", "private.mp4", "shh")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.AddCookie(cookie)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("secure-flag", "true")

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d body %s", rec.Code, rec.Body.String())
	}

	dest := filepath.Join(h.mediaRoot, "alice_SECURE_INDEX", "private.mp4")
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("expected uploaded file in secure index at %s: %v", dest, err)
	}
}

func TestUploadHandler_MalformedBody(t *testing.T) {
	h := newHarness(t)
	cookie := h.loginAs("alice", "password123")

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("not multipart"))
	req.AddCookie(cookie)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=missing")

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
}

func TestUploadHandler_OversizedBodyReturns413(t *testing.T) {
	h := newHarness(t)
	cookie := h.loginAs("alice", "password123")

	oversized := bytes.Repeat([]byte("x"), 11<<20)
	body, contentType := newMultipartUpload(t, "file", "huge.mp4", string(oversized))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.AddCookie(cookie)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want 413", rec.Code)
	}
}

func TestUploadPageHandler_RendersMaxSize(t *testing.T) {
	h := newHarness(t)
	cookie := h.loginAs("alice", "password123")

	req := h.authedRequest(http.MethodGet, "/upload", cookie)
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
}
