package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweepgoat/backend/internal/models"
)

const campaignColumns = `id, host_id, name, type, subject, message, status, target_type, giveaway_id,
	filters_json, total_recipients, total_sent, total_failed, scheduled_at, sent_at, created_at, updated_at`

// Repository persists campaigns and their delivery logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a campaigns repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.HostID, &c.Name, &c.Type, &c.Subject, &c.Message, &c.Status, &c.TargetType,
		&c.GiveawayID, &c.FiltersJSON, &c.TotalRecipients, &c.TotalSent, &c.TotalFailed, &c.ScheduledAt,
		&c.SentAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts c and fills its ID and timestamps.
func (r *Repository) Create(ctx context.Context, c *models.Campaign) error {
	const q = `INSERT INTO campaigns (host_id, name, type, subject, message, status, target_type, giveaway_id,
		filters_json, total_recipients)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.HostID, c.Name, c.Type, c.Subject, c.Message, c.Status, c.TargetType,
		c.GiveawayID, c.FiltersJSON, c.TotalRecipients).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// InsertLogs bulk-copies delivery log rows.
func (r *Repository) InsertLogs(ctx context.Context, logs []models.CampaignLog) error {
	if len(logs) == 0 {
		return nil
	}
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"campaign_logs"},
		[]string{"campaign_id", "user_id", "type", "status", "sent_at", "error_message", "external_id"},
		pgx.CopyFromSlice(len(logs), func(i int) ([]any, error) {
			l := logs[i]
			return []any{l.CampaignID, l.UserID, l.Type, l.Status, l.SentAt, l.ErrorMessage, l.ExternalID}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert campaign logs: %w", err)
	}
	return nil
}

// Finalize records the delivery totals and the closing status (SENT or FAILED).
func (r *Repository) Finalize(ctx context.Context, id int64, status string, sent, failed int, sentAt time.Time) error {
	const q = `UPDATE campaigns SET total_sent = $2, total_failed = $3, sent_at = $4, status = $5,
		updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, sent, failed, sentAt, status); err != nil {
		return fmt.Errorf("finalize campaign %d: %w", id, err)
	}
	return nil
}

// ListByHost returns the host's campaigns, most recently sent first.
func (r *Repository) ListByHost(ctx context.Context, hostID int64) ([]models.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE host_id = $1
		ORDER BY sent_at DESC NULLS LAST, id DESC`
	rows, err := r.pool.Query(ctx, q, hostID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()
	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// FindByIDAndHost returns the campaign when hostID owns it, or nil.
func (r *Repository) FindByIDAndHost(ctx context.Context, id, hostID int64) (*models.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 AND host_id = $2`
	c, err := scanCampaign(r.pool.QueryRow(ctx, q, id, hostID))
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	return c, nil
}

// Recipients returns the campaign's log rows joined with their users.
func (r *Repository) Recipients(ctx context.Context, campaignID int64) ([]models.CampaignRecipient, error) {
	const q = `SELECT u.id, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''), l.type, l.status, l.sent_at, l.error_message
		FROM campaign_logs l JOIN users u ON u.id = l.user_id
		WHERE l.campaign_id = $1 ORDER BY l.id`
	rows, err := r.pool.Query(ctx, q, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list campaign recipients: %w", err)
	}
	defer rows.Close()
	var out []models.CampaignRecipient
	for rows.Next() {
		var rc models.CampaignRecipient
		if err := rows.Scan(&rc.UserID, &rc.Email, &rc.FirstName, &rc.LastName, &rc.Type, &rc.Status,
			&rc.SentAt, &rc.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan campaign recipient: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
