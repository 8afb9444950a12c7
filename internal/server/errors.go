package server

import (
	"net/http"

	"github.com/rustream/server/internal/apperr"
)

func asAppError(err error) (*apperr.Error, bool) {
	return apperr.As(err)
}

// errorPageData backs the "error" template shared by 403/404/expired-
// session rendering.
type errorPageData struct {
	Title      string
	Detail     string
	OfferLogin bool
}

func renderNotFound(w http.ResponseWriter, detail string) {
	render(w, http.StatusNotFound, "error", errorPageData{Title: "Not found", Detail: detail})
}

func renderForbidden(w http.ResponseWriter, detail string) {
	render(w, http.StatusForbidden, "error", errorPageData{Title: "Forbidden", Detail: detail})
}

func renderInternal(w http.ResponseWriter, detail string) {
	textError(w, http.StatusInternalServerError, detail)
}
