package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the marketing site origins to POST JSON to the API.  With
// no origins configured every cross-origin request is refused; go-chi/cors
// would read an empty list as "*", so that case gets a deny-all func.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return cors.Handler(opts)
}
