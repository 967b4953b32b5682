package middleware

import "net/http"

// Stack composes middleware into a single wrapper. The first middleware in
// the list is the outermost: it runs first on the request and last on the
// response.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
