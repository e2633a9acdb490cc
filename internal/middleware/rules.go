package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/response"
)

// Access is the requirement a route places on the caller.
type Access int

const (
	Public Access = iota
	Authenticated
	HostOnly
	UserOnly
)

// AccessRule applies Access to every path under Prefix.
type AccessRule struct {
	Prefix string
	Access Access
}

// DefaultAccessRules is the route table for the API.
func DefaultAccessRules() []AccessRule {
	return []AccessRule{
		{Prefix: "/api/auth/", Access: Public},
		{Prefix: "/api/public/", Access: Public},
		{Prefix: "/api/host/", Access: HostOnly},
		{Prefix: "/api/user/", Access: UserOnly},
		{Prefix: "/api/", Access: Authenticated},
	}
}

// Resolve returns the access required for path. The longest matching prefix wins and
// paths no rule covers are public.
func Resolve(rules []AccessRule, path string) Access {
	best, access := -1, Public
	for _, r := range rules {
		if strings.HasPrefix(path, r.Prefix) && len(r.Prefix) > best {
			best, access = len(r.Prefix), r.Access
		}
	}
	return access
}

// Authorize enforces rules against the identity TokenGate attached.
func Authorize(rules []AccessRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		access := Resolve(rules, c.Request.URL.Path)
		if access == Public {
			c.Next()
			return
		}
		rc := reqctx.From(c)
		if rc.Identity == nil {
			if rc.TokenRejected {
				response.Forbidden(c, "Invalid or expired token")
				return
			}
			response.Unauthorized(c, "Authentication required")
			return
		}
		if (access == HostOnly && rc.Identity.UserType != models.UserTypeHost) ||
			(access == UserOnly && rc.Identity.UserType != models.UserTypeUser) {
			response.Forbidden(c, "Access denied")
			return
		}
		c.Next()
	}
}
