package entries

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/database"
)

// ErrAlreadyClaimed is returned when the user's free entry for the giveaway was used before.
var ErrAlreadyClaimed = errors.New("free entry already claimed")

// ErrPointsOverflow is returned when adding points would push the entry past the points column range.
var ErrPointsOverflow = errors.New("entry points out of range")

const entryReturning = `RETURNING id, user_id, giveaway_id, points, free_entry_claimed, created_at, updated_at, (xmax = 0)`

// Repository handles entry persistence. Both writes are single upserts on (user_id, giveaway_id),
// so concurrent claims cannot create a second row or claim the free entry twice.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an entries repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUpsert(row pgx.Row) (*models.GiveawayEntry, bool, error) {
	var e models.GiveawayEntry
	var inserted bool
	err := row.Scan(&e.ID, &e.UserID, &e.GiveawayID, &e.Points, &e.FreeEntryClaimed, &e.CreatedAt, &e.UpdatedAt, &inserted)
	if err != nil {
		return nil, false, err
	}
	return &e, inserted, nil
}

// ClaimFree adds the one free point. inserted reports whether a new entry row was created.
func (r *Repository) ClaimFree(ctx context.Context, userID, giveawayID int64) (*models.GiveawayEntry, bool, error) {
	q := `INSERT INTO giveaway_entries (user_id, giveaway_id, points, free_entry_claimed)
		VALUES ($1, $2, 1, TRUE)
		ON CONFLICT (user_id, giveaway_id) DO UPDATE
			SET points = giveaway_entries.points + 1, free_entry_claimed = TRUE, updated_at = NOW()
			WHERE giveaway_entries.free_entry_claimed = FALSE
		` + entryReturning
	e, inserted, err := scanUpsert(r.pool.QueryRow(ctx, q, userID, giveawayID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, ErrAlreadyClaimed
	}
	if err != nil {
		return nil, false, fmt.Errorf("claim free entry: %w", err)
	}
	return e, inserted, nil
}

// AddPoints adds points without touching the free entry flag.
func (r *Repository) AddPoints(ctx context.Context, userID, giveawayID int64, points int) (*models.GiveawayEntry, bool, error) {
	q := `INSERT INTO giveaway_entries (user_id, giveaway_id, points, free_entry_claimed)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (user_id, giveaway_id) DO UPDATE
			SET points = giveaway_entries.points + EXCLUDED.points, updated_at = NOW()
		` + entryReturning
	e, inserted, err := scanUpsert(r.pool.QueryRow(ctx, q, userID, giveawayID, points))
	if database.IsOutOfRange(err) {
		return nil, false, ErrPointsOverflow
	}
	if err != nil {
		return nil, false, fmt.Errorf("add entry points: %w", err)
	}
	return e, inserted, nil
}

// ListByUser returns all of the user's entries, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.UserEntry, error) {
	const q = `SELECT e.id, e.points, e.free_entry_claimed, e.created_at,
			g.id, g.title, g.image_url, g.end_date, g.status
		FROM giveaway_entries e JOIN giveaways g ON g.id = e.giveaway_id
		WHERE e.user_id = $1
		ORDER BY e.created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list user entries: %w", err)
	}
	defer rows.Close()
	var list []models.UserEntry
	for rows.Next() {
		var u models.UserEntry
		if err := rows.Scan(&u.EntryID, &u.Points, &u.FreeEntryClaimed, &u.EnteredAt,
			&u.GiveawayID, &u.GiveawayTitle, &u.ImageURL, &u.EndDate, &u.GiveawayStatus); err != nil {
			return nil, fmt.Errorf("scan user entry: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// History returns a page of the user's giveaways ordered by end date, latest first.
func (r *Repository) History(ctx context.Context, userID int64, p models.PageRequest) ([]models.UserGiveawayEntry, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM giveaway_entries WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user entries: %w", err)
	}
	const q = `SELECT g.id, g.title, g.image_url, g.end_date, g.status, g.winner_id,
			e.points, e.free_entry_claimed, e.created_at
		FROM giveaway_entries e JOIN giveaways g ON g.id = e.giveaway_id
		WHERE e.user_id = $1
		ORDER BY g.end_date DESC, g.id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, userID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("user entry history: %w", err)
	}
	defer rows.Close()
	var list []models.UserGiveawayEntry
	for rows.Next() {
		var (
			h        models.UserGiveawayEntry
			status   models.GiveawayStatus
			winnerID *int64
		)
		if err := rows.Scan(&h.GiveawayID, &h.GiveawayTitle, &h.ImageURL, &h.EndDate, &status, &winnerID,
			&h.Points, &h.FreeEntryClaimed, &h.EnteredAt); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		h.Status = models.ParticipationStatus(status, winnerID, userID)
		list = append(list, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
