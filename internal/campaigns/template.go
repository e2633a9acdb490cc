package campaigns

import (
	"strings"

	"github.com/sweepgoat/backend/internal/models"
)

// Render substitutes the recipient and host placeholders in text.
// Supported: {{firstName}} {{lastName}} {{hostCompanyName}} {{subdomain}}.
func Render(text string, u *models.User, h *models.Host) string {
	if text == "" {
		return ""
	}
	var first, last, company, sub string
	if u != nil {
		first, last = u.FirstName, u.LastName
	}
	if h != nil {
		company, sub = h.CompanyName, h.Subdomain
	}
	return strings.NewReplacer(
		"{{firstName}}", first,
		"{{lastName}}", last,
		"{{hostCompanyName}}", company,
		"{{subdomain}}", sub,
	).Replace(text)
}
