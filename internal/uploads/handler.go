package uploads

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/response"
	"github.com/sweepgoat/backend/pkg/storage"
)

// multipart headers on top of the file itself
const formOverhead = 1 << 20

// Handler serves POST /api/host/upload-image.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an upload handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Upload handles POST /api/host/upload-image (multipart field "file").
func (h *Handler) Upload(c *gin.Context) {
	hostID, ok := reqctx.HostID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	if !h.svc.Configured() {
		response.ServiceUnavailable(c, MsgNotConfigured)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImageSize+formOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(c, MsgTooLarge)
			return
		}
		response.BadRequest(c, MsgNoFile)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, MsgNoFile)
		return
	}
	defer f.Close()

	url, err := h.svc.Upload(c.Request.Context(), hostID, File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"imageUrl": url})
}
