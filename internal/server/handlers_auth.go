package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rustream/server/internal/audit"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonSuccess(w, http.StatusOK, "Healthy")
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "index", nil)
}

type loginResponse struct {
	RedirectURL string `json:"redirect_url"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	result, err := s.authn.VerifyLogin(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		if s.metricsC != nil {
			s.metricsC.RecordAuthOutcome("failure")
		}
		detail := "Incorrect username or password"
		if appErr, ok := asAppError(err); ok {
			detail = appErr.Detail
		}
		s.auditLogin(r, "", audit.ResultFailure, detail)
		jsonError(w, http.StatusUnauthorized, detail)
		return
	}

	token, err := s.authn.MintCookie(result)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to mint session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.cfg.SessionDuration),
		Expires:  time.Now().Add(time.Duration(s.cfg.SessionDuration) * time.Second),
		Secure:   s.cfg.SecureSession,
	})

	if s.metricsC != nil {
		s.metricsC.RecordAuthOutcome("success")
	}
	s.auditLogin(r, result.Username, audit.ResultSuccess, "")
	jsonSuccess(w, http.StatusOK, loginResponse{RedirectURL: "/home"})
}

func (s *Server) auditLogin(r *http.Request, username, result, reason string) {
	if s.auditSvc == nil {
		return
	}
	actor := username
	if actor == "" {
		actor = "anonymous"
	}
	evt := audit.Event{
		Actor:      actor,
		Action:     audit.ActionLogin,
		Result:     result,
		ReasonCode: reason,
		ClientIP:   clientIPOf(r),
	}
	if err := s.auditSvc.WriteEvent(r.Context(), evt); err != nil {
		s.logger.WarnContext(r.Context(), "failed to write login audit event", slog.String("error", err.Error()))
	}
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_token")
	value := ""
	if err == nil {
		value = cookie.Value
	}
	result := s.authn.VerifyToken(value)
	if !result.OK {
		render(w, http.StatusOK, "logout_anonymous", nil)
		return
	}

	host := hostKey(r)
	if !s.store.ClearTracker(host) {
		s.logger.WarnContext(r.Context(), "logout with no tracker entry", slog.String("host", host))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Secure:   s.cfg.SecureSession,
	})

	if s.auditSvc != nil {
		_ = s.auditSvc.WriteEvent(r.Context(), audit.Event{
			Actor:    result.Username,
			Action:   audit.ActionLogout,
			Result:   audit.ResultSuccess,
			ClientIP: clientIPOf(r),
		})
	}

	render(w, http.StatusOK, "logout_done", nil)
}

func clientIPOf(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return hostKey(r)
}
