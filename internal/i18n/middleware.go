package i18n

import "net/http"

// Middleware negotiates the request language from the lang query parameter
// and the Accept-Language header, falling back to lang, and injects the
// matching localizer into the request context.
func Middleware(lang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			chosen := Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), lang)
			ctx := WithLocalizer(r.Context(), NewLocalizer(chosen))
			ctx = WithLang(ctx, chosen)
			w.Header().Set("Content-Language", chosen)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
