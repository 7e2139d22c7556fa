package chi

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows cross-origin calls from allowedOrigins ("*" for any origin)
// with any method and header.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions, http.MethodHead},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler
}
