package transport

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures CORS for the HTTP transport.
type CORSConfig struct {
	// AllowOrigins lists accepted origins. "*" accepts any origin.
	AllowOrigins []string

	// AllowMethods defaults to POST, GET, OPTIONS.
	AllowMethods []string

	// AllowHeaders defaults to Content-Type, Authorization.
	AllowHeaders []string

	// AllowCredentials sets Access-Control-Allow-Credentials.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Default: 600.
	MaxAge int
}

// CORSHandler wraps next with CORS headers. Preflight requests from an
// accepted origin are answered with 204 and never reach next.
func CORSHandler(config CORSConfig, next http.Handler) http.Handler {
	if len(config.AllowMethods) == 0 {
		config.AllowMethods = []string{http.MethodPost, http.MethodGet, http.MethodOptions}
	}
	if len(config.AllowHeaders) == 0 {
		config.AllowHeaders = []string{"Content-Type", "Authorization"}
	}
	if config.MaxAge == 0 {
		config.MaxAge = 600
	}

	allowed := make(map[string]bool, len(config.AllowOrigins))
	for _, origin := range config.AllowOrigins {
		allowed[origin] = true
	}
	methods := strings.Join(config.AllowMethods, ", ")
	headers := strings.Join(config.AllowHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !(allowed["*"] || allowed[origin]) {
			next.ServeHTTP(w, r)
			return
		}

		if allowed["*"] && !config.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		if config.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WithCORS enables CORS on the HTTP transport.
func WithCORS(config CORSConfig) HTTPOption {
	return func(h *HTTP) {
		h.corsConfig = &config
	}
}

// WithAllowedOrigins enables CORS for the given origins with default
// methods and headers. An empty list leaves CORS disabled.
func WithAllowedOrigins(origins []string) HTTPOption {
	return func(h *HTTP) {
		if len(origins) == 0 {
			return
		}
		h.corsConfig = &CORSConfig{AllowOrigins: origins}
	}
}
