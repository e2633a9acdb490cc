package auth

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sweepgoat/backend/pkg/validator"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validator.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
