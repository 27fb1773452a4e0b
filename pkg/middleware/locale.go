package middleware

import (
	"net/http"

	"github.com/platinummonkey/authgate/pkg/i18n"
)

// LocaleMiddleware stores the best supported match for Accept-Language in
// the request context and echoes it as Content-Language.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := i18n.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", tag.String())
		next.ServeHTTP(w, r.WithContext(i18n.WithLocale(r.Context(), tag)))
	})
}
