package users

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

// MsgEmailTaken is returned when the email is already registered on the subdomain.
const MsgEmailTaken = "A user with this email already exists on this subdomain"

const userColumns = `u.id, u.host_id, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''),
	COALESCE(u.phone_number,''), u.password_hash, u.email_opt_in, u.sms_opt_in, u.email_verified,
	u.verification_code, u.verification_code_expires_at, u.last_login_at, u.is_active, u.created_at, u.updated_at`

// Repository handles participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.HostID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.PasswordHash,
		&u.EmailOptIn, &u.SMSOptIn, &u.EmailVerified, &u.VerificationCode, &u.VerificationCodeExpiresAt,
		&u.LastLoginAt, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and fills its generated fields.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (host_id, email, first_name, last_name, phone_number, password_hash,
		email_opt_in, sms_opt_in, email_verified, verification_code, verification_code_expires_at)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6, $7, $8, $9, $10, $11)
		RETURNING id, is_active, created_at, updated_at`
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.pool.QueryRow(ctx, q, u.HostID, u.Email, u.FirstName, u.LastName, u.PhoneNumber, u.PasswordHash,
		u.EmailOptIn, u.SMSOptIn, u.EmailVerified, u.VerificationCode, u.VerificationCodeExpiresAt).
		Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if database.IsUniqueViolation(err, "") {
		return apperror.Duplicate(MsgEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByID returns a user by ID, or nil.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByEmailAndHost returns the user registered with email on hostID, or nil.
func (r *Repository) FindByEmailAndHost(ctx context.Context, email string, hostID int64) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 AND u.host_id = $2`
	u, err := scanUser(r.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email)), hostID))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// ExistsByEmailAndHost reports whether email is registered on hostID.
func (r *Repository) ExistsByEmailAndHost(ctx context.Context, email string, hostID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND host_id = $2)`,
		strings.ToLower(strings.TrimSpace(email)), hostID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user email exists: %w", err)
	}
	return exists, nil
}

// SetVerificationCode stores a new code and its expiry.
func (r *Repository) SetVerificationCode(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	const q = `UPDATE users SET verification_code = $2, verification_code_expires_at = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, code, expiresAt); err != nil {
		return fmt.Errorf("set user verification code: %w", err)
	}
	return nil
}

// MarkVerified sets email_verified and clears the code.
func (r *Repository) MarkVerified(ctx context.Context, id int64) error {
	const q = `UPDATE users SET email_verified = TRUE, verification_code = NULL,
		verification_code_expires_at = NULL, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, hash); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

// Delete removes a user with their entries and campaign logs.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		stmts := []string{
			`DELETE FROM giveaway_entries WHERE user_id = $1`,
			`DELETE FROM campaign_logs WHERE user_id = $1`,
			`UPDATE giveaways SET winner_id = NULL WHERE winner_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		}
		for _, s := range stmts {
			if _, err := tx.Exec(ctx, s, id); err != nil {
				return fmt.Errorf("delete user %d: %w", id, err)
			}
		}
		return nil
	})
}

// List returns one page of a host's users and the total match count.
func (r *Repository) List(ctx context.Context, hostID int64, f Filter, s Sort, p models.PageRequest) ([]models.User, int64, error) {
	where, args := f.where(hostID)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, p.Size, p.Offset())
	q := fmt.Sprintf(`SELECT %s FROM users u%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		userColumns, where, s.orderBy(), len(args)-1, len(args))
	list, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListRecipients returns every matching user without paging.
func (r *Repository) ListRecipients(ctx context.Context, hostID int64, f Filter, s Sort) ([]models.User, error) {
	where, args := f.where(hostID)
	q := fmt.Sprintf(`SELECT %s FROM users u%s ORDER BY %s`, userColumns, where, s.orderBy())
	return r.query(ctx, q, args...)
}

func (r *Repository) query(ctx context.Context, q string, args ...interface{}) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	var list []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}
