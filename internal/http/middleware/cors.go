package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// Browser callers are the project dashboard triggering a queue pass and
// producers enqueueing notifications. Both authenticate with a bearer
// token; the Supabase-style client also sends apikey and x-client-info.
var (
	corsMethods = []string{http.MethodGet, http.MethodPost}
	corsHeaders = []string{"Authorization", "Content-Type", "apikey", "x-client-info"}
)

// preflight results are cached by the browser for this many seconds
const corsMaxAge = 600

// CORS admits cross-origin calls from allowedOrigins, which may contain
// wildcard subdomains such as "https://*.siteplan.app".
func CORS(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: allowCredentials,
		MaxAge:           corsMaxAge,
	})
}
