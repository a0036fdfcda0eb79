// Package weberror renders error responses for web modules.
package weberror

import (
	"net/http"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/warehouse/internal/services/web/platform/errors"
	webi18n "github.com/louisbranch/warehouse/internal/services/web/platform/i18n"
	"github.com/louisbranch/warehouse/internal/services/web/platform/pagerender"
	"github.com/louisbranch/warehouse/internal/services/web/templates"
)

// ShouldRenderPage reports whether status gets a full error page rather than
// a plain-text body.
func ShouldRenderPage(status int) bool {
	return status == http.StatusNotFound || status >= http.StatusInternalServerError
}

// Write renders err. Client errors other than 404 get a plain-text body: the
// localized copy of the error's key, or the generic status text, so internal
// messages never reach the browser.
func Write(w http.ResponseWriter, r *http.Request, rd pagerender.Renderer, err error) {
	if w == nil {
		return
	}
	status := apperrors.HTTPStatus(err)
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	if !ShouldRenderPage(status) {
		message := http.StatusText(status)
		if key := apperrors.LocalizationKey(err); key != "" {
			loc, _ := webi18n.ResolveLocalizer(w, r)
			message = templates.T(loc, key)
		}
		http.Error(w, message, status)
		return
	}
	renderErr := rd.Write(w, r, pagerender.Page{
		TitleKey:   "error.title",
		StatusCode: status,
		Body: func(loc templates.Localizer) templ.Component {
			return templates.ErrorState(status, loc)
		},
	})
	if renderErr != nil {
		http.Error(w, http.StatusText(status), status)
	}
}

// NotFound returns a handler that renders the not-found page.
func NotFound(rd pagerender.Renderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Write(w, r, rd, apperrors.E(apperrors.KindNotFound, "not found"))
	})
}
