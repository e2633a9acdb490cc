package reqctx

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sweepgoat/backend/internal/models"
)

func newContext(host string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Host = host
	return c
}

func TestFromResolvesOnce(t *testing.T) {
	c := newContext("acme.sweepgoat.com")
	rc := From(c)
	assert.Equal(t, "acme", rc.Resolution.Subdomain)
	assert.Same(t, rc, From(c))
}

func TestIdentityAccessors(t *testing.T) {
	c := newContext("acme.sweepgoat.com")
	_, ok := HostID(c)
	assert.False(t, ok)

	uid := int64(9)
	From(c).Identity = &Identity{UserType: models.UserTypeUser, HostID: 3, UserID: &uid}
	hostID, ok := HostID(c)
	assert.True(t, ok)
	assert.Equal(t, int64(3), hostID)
	userID, ok := UserID(c)
	assert.True(t, ok)
	assert.Equal(t, int64(9), userID)

	From(c).Identity = &Identity{UserType: models.UserTypeHost, HostID: 3}
	_, ok = UserID(c)
	assert.False(t, ok)
}
