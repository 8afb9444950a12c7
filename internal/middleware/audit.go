package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rustream/server/internal/audit"
)

// AuditLog wraps mutating and auth requests in an audit.Event, capturing
// actor, outcome, and latency after the handler returns.
func AuditLog(service *audit.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if service == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			isMutating := r.Method == http.MethodPost || r.Method == http.MethodPut ||
				r.Method == http.MethodPatch || r.Method == http.MethodDelete
			isAuth := strings.HasPrefix(r.URL.Path, "/login") || strings.HasPrefix(r.URL.Path, "/logout")
			if !isMutating && !isAuth {
				return
			}

			evt := audit.Event{
				Actor:      "anonymous",
				Action:     fmt.Sprintf("http.%s", strings.ToLower(r.Method)),
				TargetPath: r.URL.Path,
				Result:     audit.ResultSuccess,
				RequestID:  w.Header().Get("X-Request-ID"),
				ClientIP:   clientIP(r),
				CreatedAt:  time.Now(),
			}
			if rw.status >= 400 {
				evt.Result = audit.ResultFailure
				evt.ReasonCode = fmt.Sprintf("http_%d", rw.status)
			}
			if ac, ok := GetAuthContext(r.Context()); ok {
				evt.Actor = ac.Username
			}
			meta, _ := json.Marshal(map[string]int64{"latency_ms": time.Since(start).Milliseconds()})
			evt.Metadata = meta

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				service.WriteEvent(ctx, evt)
			}()
		})
	}
}
