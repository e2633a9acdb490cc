package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	cloudflareAPI         = "https://api.cloudflare.com/client/v4"
	defaultCloudflareWait = 10 * time.Second
)

// CloudflareImages uploads to the Cloudflare Images v1 API.
type CloudflareImages struct {
	accountID string
	token     string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

// NewCloudflareImages creates a client whose requests give up after timeout.
func NewCloudflareImages(accountID, token string, timeout time.Duration, logger *zap.Logger) *CloudflareImages {
	if timeout <= 0 {
		timeout = defaultCloudflareWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudflareImages{
		accountID: accountID,
		token:     token,
		baseURL:   cloudflareAPI,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type cloudflareResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result struct {
		ID       string   `json:"id"`
		Variants []string `json:"variants"`
	} `json:"result"`
}

// UploadImage posts the image as multipart field "file" and returns its delivery URL.
func (c *CloudflareImages) UploadImage(ctx context.Context, hostID int64, filename, contentType string, body io.Reader, _ int64) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/images/v1", c.baseURL, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudflare request: %w", err)
	}
	defer resp.Body.Close()

	var out cloudflareResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode cloudflare response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		msg := "unknown error"
		if len(out.Errors) > 0 {
			msg = out.Errors[0].Message
		}
		return "", fmt.Errorf("cloudflare: %s", msg)
	}
	imageURL := pickVariant(out.Result.Variants)
	if imageURL == "" {
		return "", errors.New("cloudflare: no variants returned")
	}
	c.logger.Info("image uploaded to Cloudflare", zap.Int64("host_id", hostID), zap.String("image_id", out.Result.ID))
	return imageURL, nil
}

// pickVariant prefers the variant ending in /public, else the first.
func pickVariant(variants []string) string {
	for _, v := range variants {
		if strings.HasSuffix(v, "/public") {
			return v
		}
	}
	if len(variants) > 0 {
		return variants[0]
	}
	return ""
}
