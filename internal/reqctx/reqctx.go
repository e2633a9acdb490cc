// Package reqctx carries the per-request tenant and identity that the gates establish.
package reqctx

import (
	"github.com/gin-gonic/gin"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/subdomain"
)

const key = "sweepgoat.reqctx"

// Identity is the authenticated principal bound to this request.
type Identity struct {
	Email    string
	UserType models.UserType
	HostID   int64
	// UserID is set for USER tokens only.
	UserID *int64
	// Subdomain is the tenant the identity was bound to, empty on the main domain.
	Subdomain string
}

// Context is the typed request state shared by middleware and handlers.
type Context struct {
	Resolution subdomain.Result
	// Tenant is set once the subdomain gate has validated the host.
	Tenant   *models.Host
	Identity *Identity
	// TokenRejected records that a bearer token was presented but failed validation.
	TokenRejected bool
}

// From returns the request state, creating it on first use.
func From(c *gin.Context) *Context {
	if v, ok := c.Get(key); ok {
		if rc, ok := v.(*Context); ok {
			return rc
		}
	}
	rc := &Context{Resolution: subdomain.FromRequest(c.Request)}
	c.Set(key, rc)
	return rc
}

// Tenant returns the validated tenant or nil.
func Tenant(c *gin.Context) *models.Host {
	return From(c).Tenant
}

// HostID returns the authenticated identity's host.
func HostID(c *gin.Context) (int64, bool) {
	id := From(c).Identity
	if id == nil {
		return 0, false
	}
	return id.HostID, true
}

// UserID returns the authenticated USER's id.
func UserID(c *gin.Context) (int64, bool) {
	id := From(c).Identity
	if id == nil || id.UserType != models.UserTypeUser || id.UserID == nil {
		return 0, false
	}
	return *id.UserID, true
}
