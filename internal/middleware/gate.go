package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/auth"
	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/metrics"
	"github.com/sweepgoat/backend/pkg/response"
)

// Gate rejection messages.
const (
	MsgSiteUnreachable   = "This site cannot be reached"
	MsgUnavailable       = "Service temporarily unavailable"
	MsgSubdomainMismatch = "Your authentication token does not match the requested subdomain"
)

// TenantValidator resolves a subdomain to a reachable host, nil when unreachable.
type TenantValidator interface {
	Validate(ctx context.Context, subdomain string) (*models.Host, error)
}

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// DefaultWhitelist lists the paths the subdomain gate never checks.
func DefaultWhitelist() []string {
	return []string{
		"/",
		"/health",
		"/metrics",
		"/api/auth/host/register",
		"/api/auth/host/login",
		"/api/auth/host/verify-email",
		"/api/auth/host/resend-verification",
		"/api/public/subdomain/validate",
		"/api/public/subdomain/branding",
	}
}

// SubdomainGate rejects requests for tenant subdomains that do not exist or are not verified.
// The 404 does not say which of the two applies.
func SubdomainGate(tenants TenantValidator, whitelist []string, m *metrics.Metrics) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(whitelist))
	for _, p := range whitelist {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		rc := reqctx.From(c)
		if !rc.Resolution.IsSubdomain() {
			c.Next()
			return
		}
		host, err := tenants.Validate(c.Request.Context(), rc.Resolution.Subdomain)
		if err != nil {
			LoggerFrom(c).Error("subdomain validation failed",
				zap.String("subdomain", rc.Resolution.Subdomain), zap.Error(err))
			m.GateRejected("subdomain", "unavailable")
			response.ServiceUnavailable(c, MsgUnavailable)
			return
		}
		if host == nil {
			m.GateRejected("subdomain", "unreachable")
			response.NotFound(c, MsgSiteUnreachable)
			return
		}
		rc.Tenant = host
		c.Next()
	}
}

// TokenGate authenticates bearer tokens and binds them to the request's tenant.
// A request without a token passes through unauthenticated; Authorize decides whether that is allowed.
func TokenGate(tokens TokenParser, tenants TenantValidator, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		rc := reqctx.From(c)
		claims, err := tokens.Parse(raw)
		if err != nil {
			rc.TokenRejected = true
			c.Next()
			return
		}
		identity := &reqctx.Identity{
			Email:    claims.Subject,
			UserType: claims.UserType,
			HostID:   claims.HostID,
			UserID:   claims.UserID,
		}
		if skipsBinding(c.Request.URL.Path, rc) {
			rc.Identity = identity
			c.Next()
			return
		}

		log := LoggerFrom(c)
		sub := rc.Resolution.Subdomain
		tenant := rc.Tenant
		if tenant == nil {
			tenant, err = tenants.Validate(c.Request.Context(), sub)
			if err != nil {
				log.Error("subdomain validation failed", zap.String("subdomain", sub), zap.Error(err))
				m.GateRejected("token", "unavailable")
				response.ServiceUnavailable(c, MsgUnavailable)
				return
			}
		}
		if tenant == nil {
			log.Warn("token presented on invalid subdomain",
				zap.String("subdomain", sub), zap.String("email", claims.Subject), zap.Int64("token_host_id", claims.HostID))
			m.GateRejected("token", "invalid_subdomain")
			response.Forbidden(c, MsgSubdomainMismatch)
			return
		}
		if tenant.ID != claims.HostID {
			log.Warn("subdomain/token mismatch",
				zap.String("subdomain", sub), zap.Int64("subdomain_host_id", tenant.ID),
				zap.String("email", claims.Subject), zap.Int64("token_host_id", claims.HostID))
			m.GateRejected("token", "mismatch")
			response.Forbidden(c, MsgSubdomainMismatch)
			return
		}
		rc.Tenant = tenant
		identity.Subdomain = tenant.Subdomain
		rc.Identity = identity
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// skipsBinding reports whether a valid token is accepted without comparing its host to the subdomain.
func skipsBinding(path string, rc *reqctx.Context) bool {
	switch {
	case strings.HasPrefix(path, "/api/auth/"), strings.HasPrefix(path, "/api/public/"):
		return true
	case path == "/" || path == "/health":
		return true
	default:
		return !rc.Resolution.IsSubdomain()
	}
}
