package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sweepgoat/backend/internal/subdomain"
)

// CORS returns a middleware that sets CORS headers for cross-origin requests.
// allowedOrigins can be "*" or a comma-separated list. An entry may put a "*" in place of the
// leftmost host label (e.g. "https://*.sweepgoat.com") to admit every tenant subdomain.
func CORS(allowedOrigins string) gin.HandlerFunc {
	exact, wildcards := parseOrigins(allowedOrigins)
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowOrigin := ""
		if len(exact) == 0 && len(wildcards) == 0 || exact["*"] {
			allowOrigin = "*"
		} else if origin != "" && (exact[origin] || matchesWildcard(origin, wildcards)) {
			allowOrigin = origin
			c.Header("Vary", "Origin")
		}
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+subdomain.HeaderOverride+", "+HeaderRequestID)
			c.Header("Access-Control-Expose-Headers", HeaderRequestID)
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

type wildcardOrigin struct {
	scheme string // "https://"
	suffix string // ".sweepgoat.com" plus any port
}

func parseOrigins(s string) (map[string]bool, []wildcardOrigin) {
	exact := make(map[string]bool)
	var wildcards []wildcardOrigin
	for _, o := range strings.Split(strings.TrimSpace(s), ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if i := strings.Index(o, "://*."); i >= 0 {
			wildcards = append(wildcards, wildcardOrigin{scheme: o[:i+3], suffix: o[i+4:]})
			continue
		}
		exact[o] = true
	}
	return exact, wildcards
}

func matchesWildcard(origin string, patterns []wildcardOrigin) bool {
	for _, p := range patterns {
		if !strings.HasPrefix(origin, p.scheme) || !strings.HasSuffix(origin, p.suffix) {
			continue
		}
		label := strings.TrimSuffix(strings.TrimPrefix(origin, p.scheme), p.suffix)
		if label != "" && !strings.ContainsAny(label, "./:") {
			return true
		}
	}
	return false
}
