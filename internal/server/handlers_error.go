package server

import "net/http"

// errorPageHandler renders the InvalidSession landing page. The short-
// lived "detail" cookie, set by middleware.SessionAuth.Require, carries
// the specific verify_token failure reason; absent it, this renders a
// generic unauthorized page (spec.md §4.7).
func (s *Server) errorPageHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("detail")
	detail := "You are not authorized to view this page."
	if err == nil && cookie.Value != "" {
		detail = cookie.Value
	}
	render(w, http.StatusOK, "error", errorPageData{
		Title:      "Session expired",
		Detail:     detail,
		OfferLogin: true,
	})
}
