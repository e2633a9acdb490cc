package giveaways

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/database"
)

// ErrActiveExists is returned by CreateActive when the host already runs an ACTIVE giveaway.
var ErrActiveExists = errors.New("host already has an active giveaway")

const activePerHostIndex = "uq_giveaways_one_active_per_host"

const giveawayColumns = `g.id, g.host_id, g.title, COALESCE(g.description,''), g.image_url, g.start_date,
	g.end_date, g.status, g.winner_id, g.winner_selected_at, g.created_at, g.updated_at`

const summaryColumns = `g.id, g.title, COALESCE(g.description,''), g.image_url, g.start_date, g.end_date,
	g.status, (SELECT COUNT(*) FROM giveaway_entries e WHERE e.giveaway_id = g.id), g.created_at`

// Repository handles giveaway persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a giveaways repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanGiveaway(row pgx.Row) (*models.Giveaway, error) {
	var g models.Giveaway
	err := row.Scan(&g.ID, &g.HostID, &g.Title, &g.Description, &g.ImageURL, &g.StartDate, &g.EndDate,
		&g.Status, &g.WinnerID, &g.WinnerSelectedAt, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// FindByID returns a giveaway by ID, or nil.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Giveaway, error) {
	g, err := scanGiveaway(r.pool.QueryRow(ctx, `SELECT `+giveawayColumns+` FROM giveaways g WHERE g.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("find giveaway: %w", err)
	}
	return g, nil
}

// CreateActive inserts an ACTIVE giveaway. The host row is locked so concurrent creates for one
// host serialize; the partial unique index backs the check.
func (r *Repository) CreateActive(ctx context.Context, g *models.Giveaway) error {
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var hostID int64
		if err := tx.QueryRow(ctx, `SELECT id FROM hosts WHERE id = $1 FOR UPDATE`, g.HostID).Scan(&hostID); err != nil {
			return fmt.Errorf("lock host: %w", err)
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM giveaways WHERE host_id = $1 AND status = 'ACTIVE')`, g.HostID).
			Scan(&exists); err != nil {
			return fmt.Errorf("check active giveaway: %w", err)
		}
		if exists {
			return ErrActiveExists
		}
		const q = `INSERT INTO giveaways (host_id, title, description, image_url, start_date, end_date, status)
			VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, 'ACTIVE')
			RETURNING id, status, created_at, updated_at`
		return tx.QueryRow(ctx, q, g.HostID, g.Title, g.Description, g.ImageURL, g.StartDate, g.EndDate).
			Scan(&g.ID, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	})
	if database.IsUniqueViolation(err, activePerHostIndex) {
		return ErrActiveExists
	}
	if err != nil && !errors.Is(err, ErrActiveExists) {
		return fmt.Errorf("create giveaway: %w", err)
	}
	return err
}

// List returns a page of the host's giveaways, newest first. A nil status lists all.
func (r *Repository) List(ctx context.Context, hostID int64, status *models.GiveawayStatus, p models.PageRequest) ([]models.GiveawaySummary, int64, error) {
	where := `g.host_id = $1`
	args := []interface{}{hostID}
	if status != nil {
		where += ` AND g.status = $2`
		args = append(args, string(*status))
	}
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM giveaways g WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count giveaways: %w", err)
	}
	args = append(args, p.Size, p.Offset())
	q := fmt.Sprintf(`SELECT %s FROM giveaways g WHERE %s ORDER BY g.created_at DESC, g.id DESC LIMIT $%d OFFSET $%d`,
		summaryColumns, where, len(args)-1, len(args))
	list, err := r.summaries(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByStatus returns all of the host's giveaways in status.
func (r *Repository) ListByStatus(ctx context.Context, hostID int64, status models.GiveawayStatus) ([]models.GiveawaySummary, error) {
	return r.summaries(ctx, `SELECT `+summaryColumns+` FROM giveaways g
		WHERE g.host_id = $1 AND g.status = $2 ORDER BY g.end_date ASC, g.id`, hostID, string(status))
}

// ListAll returns every giveaway of the host, newest first.
func (r *Repository) ListAll(ctx context.Context, hostID int64) ([]models.GiveawaySummary, error) {
	return r.summaries(ctx, `SELECT `+summaryColumns+` FROM giveaways g
		WHERE g.host_id = $1 ORDER BY g.created_at DESC, g.id DESC`, hostID)
}

func (r *Repository) summaries(ctx context.Context, q string, args ...interface{}) ([]models.GiveawaySummary, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list giveaways: %w", err)
	}
	defer rows.Close()
	var list []models.GiveawaySummary
	for rows.Next() {
		var s models.GiveawaySummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.ImageURL, &s.StartDate, &s.EndDate,
			&s.Status, &s.TotalEntries, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan giveaway: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Stats aggregates the giveaway's entries.
func (r *Repository) Stats(ctx context.Context, id int64) (entries, points, users int64, err error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(points),0), COUNT(DISTINCT user_id)
		FROM giveaway_entries WHERE giveaway_id = $1`
	if err = r.pool.QueryRow(ctx, q, id).Scan(&entries, &points, &users); err != nil {
		err = fmt.Errorf("giveaway stats: %w", err)
	}
	return
}

// CountEntries returns the number of entries in the giveaway.
func (r *Repository) CountEntries(ctx context.Context, id int64) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM giveaway_entries WHERE giveaway_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Leaderboard returns the giveaway's entries by points, highest first.
func (r *Repository) Leaderboard(ctx context.Context, id int64) ([]models.LeaderboardEntry, error) {
	const q = `SELECT e.id, u.id, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''),
			e.points, e.free_entry_claimed, e.created_at
		FROM giveaway_entries e JOIN users u ON u.id = e.user_id
		WHERE e.giveaway_id = $1
		ORDER BY e.points DESC, e.created_at ASC`
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()
	var list []models.LeaderboardEntry
	for rows.Next() {
		var l models.LeaderboardEntry
		if err := rows.Scan(&l.EntryID, &l.UserID, &l.Email, &l.FirstName, &l.LastName, &l.Points,
			&l.FreeEntryClaimed, &l.EnteredAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Candidates returns the users holding points in the giveaway.
func (r *Repository) Candidates(ctx context.Context, id int64) ([]Candidate, error) {
	const q = `SELECT u.id, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''),
			COALESCE(u.phone_number,''), e.points
		FROM giveaway_entries e JOIN users u ON u.id = e.user_id
		WHERE e.giveaway_id = $1 AND e.points > 0
		ORDER BY e.id`
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("winner candidates: %w", err)
	}
	defer rows.Close()
	var list []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.UserID, &c.Email, &c.FirstName, &c.LastName, &c.PhoneNumber, &c.Points); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// SetWinner records the drawn winner.
func (r *Repository) SetWinner(ctx context.Context, id, userID int64, at time.Time) error {
	const q = `UPDATE giveaways SET winner_id = $2, winner_selected_at = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, id, userID, at); err != nil {
		return fmt.Errorf("set winner: %w", err)
	}
	return nil
}

// Delete removes the giveaway and its entries.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM giveaway_entries WHERE giveaway_id = $1`, id); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM giveaways WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete giveaway: %w", err)
		}
		return nil
	})
}

// ListExpiredActive returns ACTIVE giveaways whose end date is before now.
func (r *Repository) ListExpiredActive(ctx context.Context, now time.Time) ([]models.Giveaway, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+giveawayColumns+` FROM giveaways g
		WHERE g.status = 'ACTIVE' AND g.end_date < $1 ORDER BY g.end_date`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired giveaways: %w", err)
	}
	defer rows.Close()
	var list []models.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, fmt.Errorf("scan giveaway: %w", err)
		}
		list = append(list, *g)
	}
	return list, rows.Err()
}

// EndIfActive flips one giveaway to ENDED. It reports false when the row was no longer ACTIVE.
func (r *Repository) EndIfActive(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE giveaways SET status = 'ENDED', updated_at = NOW() WHERE id = $1 AND status = 'ACTIVE'`, id)
	if err != nil {
		return false, fmt.Errorf("end giveaway: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
