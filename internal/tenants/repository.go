package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/database"
)

const hostColumns = `id, subdomain, company_name, email, password_hash, logo_url, primary_color,
	email_verified, verification_code, verification_code_expires_at, is_active, created_at, updated_at`

// Messages for duplicate host registrations.
const (
	MsgEmailTaken     = "A host with this email already exists"
	MsgSubdomainTaken = "This subdomain is already taken"
)

// Repository is the tenant directory over the hosts table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a hosts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanHost(row pgx.Row) (*models.Host, error) {
	var h models.Host
	err := row.Scan(&h.ID, &h.Subdomain, &h.CompanyName, &h.Email, &h.PasswordHash, &h.LogoURL, &h.PrimaryColor,
		&h.EmailVerified, &h.VerificationCode, &h.VerificationCodeExpiresAt, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// FindBySubdomain returns the host owning subdomain, or nil.
func (r *Repository) FindBySubdomain(ctx context.Context, subdomain string) (*models.Host, error) {
	q := `SELECT ` + hostColumns + ` FROM hosts WHERE subdomain = $1`
	h, err := scanHost(r.pool.QueryRow(ctx, q, normalize(subdomain)))
	if err != nil {
		return nil, fmt.Errorf("find host by subdomain: %w", err)
	}
	return h, nil
}

// FindByEmail returns the host registered with email, or nil.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Host, error) {
	q := `SELECT ` + hostColumns + ` FROM hosts WHERE email = $1`
	h, err := scanHost(r.pool.QueryRow(ctx, q, normalize(email)))
	if err != nil {
		return nil, fmt.Errorf("find host by email: %w", err)
	}
	return h, nil
}

// FindByID returns a host by ID, or nil.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Host, error) {
	q := `SELECT ` + hostColumns + ` FROM hosts WHERE id = $1`
	h, err := scanHost(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("find host by id: %w", err)
	}
	return h, nil
}

// ExistsBySubdomain reports whether any host owns subdomain.
func (r *Repository) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM hosts WHERE subdomain = $1)`, normalize(subdomain)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("host subdomain exists: %w", err)
	}
	return exists, nil
}

// ExistsByEmail reports whether any host uses email.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM hosts WHERE email = $1)`, normalize(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("host email exists: %w", err)
	}
	return exists, nil
}

// Create inserts an unverified host and fills its generated fields.
func (r *Repository) Create(ctx context.Context, h *models.Host) error {
	const q = `INSERT INTO hosts (subdomain, company_name, email, password_hash, email_verified,
		verification_code, verification_code_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, created_at, updated_at`
	h.Subdomain = normalize(h.Subdomain)
	h.Email = normalize(h.Email)
	err := r.pool.QueryRow(ctx, q, h.Subdomain, h.CompanyName, h.Email, h.PasswordHash, h.EmailVerified,
		h.VerificationCode, h.VerificationCodeExpiresAt).
		Scan(&h.ID, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	switch {
	case database.IsUniqueViolation(err, "hosts_email_key"):
		return apperror.Duplicate(MsgEmailTaken)
	case database.IsUniqueViolation(err, "hosts_subdomain_key"):
		return apperror.Duplicate(MsgSubdomainTaken)
	case err != nil:
		return fmt.Errorf("insert host: %w", err)
	}
	return nil
}

// SetVerificationCode stores a new code and its expiry.
func (r *Repository) SetVerificationCode(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	const q = `UPDATE hosts SET verification_code = $2, verification_code_expires_at = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, code, expiresAt); err != nil {
		return fmt.Errorf("set host verification code: %w", err)
	}
	return nil
}

// MarkVerified sets email_verified and clears the code.
func (r *Repository) MarkVerified(ctx context.Context, id int64) error {
	const q = `UPDATE hosts SET email_verified = TRUE, verification_code = NULL,
		verification_code_expires_at = NULL, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("mark host verified: %w", err)
	}
	return nil
}

// BrandingUpdate holds the optional branding fields; nil leaves a column unchanged.
type BrandingUpdate struct {
	CompanyName  *string
	LogoURL      *string
	PrimaryColor *string
}

// UpdateBranding applies the non-nil fields and returns the updated host.
func (r *Repository) UpdateBranding(ctx context.Context, id int64, u BrandingUpdate) (*models.Host, error) {
	q := `UPDATE hosts SET
		company_name = COALESCE($2, company_name),
		logo_url = COALESCE($3, logo_url),
		primary_color = COALESCE($4, primary_color),
		updated_at = NOW()
		WHERE id = $1 RETURNING ` + hostColumns
	h, err := scanHost(r.pool.QueryRow(ctx, q, id, u.CompanyName, u.LogoURL, u.PrimaryColor))
	if err != nil {
		return nil, fmt.Errorf("update host branding: %w", err)
	}
	return h, nil
}

// UpdatePassword replaces the password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE hosts SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, hash); err != nil {
		return fmt.Errorf("update host password: %w", err)
	}
	return nil
}

// Delete removes a host and everything it owns in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		stmts := []string{
			`DELETE FROM campaign_logs WHERE campaign_id IN (SELECT id FROM campaigns WHERE host_id = $1)`,
			`DELETE FROM campaigns WHERE host_id = $1`,
			`DELETE FROM giveaway_entries WHERE giveaway_id IN (SELECT id FROM giveaways WHERE host_id = $1)`,
			`DELETE FROM giveaways WHERE host_id = $1`,
			`DELETE FROM users WHERE host_id = $1`,
			`DELETE FROM hosts WHERE id = $1`,
		}
		for _, s := range stmts {
			if _, err := tx.Exec(ctx, s, id); err != nil {
				return fmt.Errorf("delete host %d: %w", id, err)
			}
		}
		return nil
	})
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
