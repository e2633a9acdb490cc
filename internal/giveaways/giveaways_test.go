package giveaways

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/apperror"
)

type memStore struct {
	mu         sync.Mutex
	giveaways  map[int64]*models.Giveaway
	entries    map[int64]int64
	candidates map[int64][]Candidate
	winners    map[int64]int64
	nextID     int64
}

func newMemStore() *memStore {
	return &memStore{
		giveaways:  map[int64]*models.Giveaway{},
		entries:    map[int64]int64{},
		candidates: map[int64][]Candidate{},
		winners:    map[int64]int64{},
		nextID:     1,
	}
}

func (m *memStore) put(g models.Giveaway) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.giveaways[g.ID] = &g
}

func (m *memStore) FindByID(_ context.Context, id int64) (*models.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.giveaways[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *memStore) CreateActive(_ context.Context, g *models.Giveaway) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.giveaways {
		if existing.HostID == g.HostID && existing.Status == models.GiveawayActive {
			return ErrActiveExists
		}
	}
	m.nextID++
	g.ID = m.nextID
	g.Status = models.GiveawayActive
	cp := *g
	m.giveaways[g.ID] = &cp
	return nil
}

func (m *memStore) summaries(hostID int64, keep func(*models.Giveaway) bool) []models.GiveawaySummary {
	var out []models.GiveawaySummary
	for _, g := range m.giveaways {
		if g.HostID == hostID && keep(g) {
			out = append(out, models.GiveawaySummary{ID: g.ID, Title: g.Title, Status: g.Status,
				EndDate: g.EndDate, TotalEntries: m.entries[g.ID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) List(_ context.Context, hostID int64, status *models.GiveawayStatus, p models.PageRequest) ([]models.GiveawaySummary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.summaries(hostID, func(g *models.Giveaway) bool { return status == nil || g.Status == *status })
	total := int64(len(all))
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *memStore) ListByStatus(_ context.Context, hostID int64, status models.GiveawayStatus) ([]models.GiveawaySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaries(hostID, func(g *models.Giveaway) bool { return g.Status == status }), nil
}

func (m *memStore) ListAll(_ context.Context, hostID int64) ([]models.GiveawaySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaries(hostID, func(*models.Giveaway) bool { return true }), nil
}

func (m *memStore) Stats(_ context.Context, id int64) (int64, int64, int64, error) {
	var points int64
	for _, c := range m.candidates[id] {
		points += int64(c.Points)
	}
	return m.entries[id], points, int64(len(m.candidates[id])), nil
}

func (m *memStore) CountEntries(_ context.Context, id int64) (int64, error) { return m.entries[id], nil }

func (m *memStore) Leaderboard(context.Context, int64) ([]models.LeaderboardEntry, error) {
	return nil, nil
}

func (m *memStore) Candidates(_ context.Context, id int64) ([]Candidate, error) {
	return m.candidates[id], nil
}

func (m *memStore) SetWinner(_ context.Context, id, userID int64, at time.Time) error {
	m.winners[id] = userID
	m.giveaways[id].WinnerID = &userID
	m.giveaways[id].WinnerSelectedAt = &at
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	delete(m.giveaways, id)
	delete(m.entries, id)
	return nil
}

func (m *memStore) ListExpiredActive(_ context.Context, now time.Time) ([]models.Giveaway, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Giveaway
	for _, g := range m.giveaways {
		if g.Status == models.GiveawayActive && g.EndDate.Before(now) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memStore) EndIfActive(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.giveaways[id]
	if !ok || g.Status != models.GiveawayActive {
		return false, nil
	}
	g.Status = models.GiveawayEnded
	return true, nil
}

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *memStore) *Service {
	s := NewService(store, nil)
	s.now = func() time.Time { return now }
	return s
}

func TestCreateSecondActiveConflicts(t *testing.T) {
	store := newMemStore()
	s := newTestService(store)
	ctx := context.Background()

	d, err := s.Create(ctx, 1, CreateInput{Title: "Spring", EndDate: now.Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayActive, d.Status)
	assert.Equal(t, now, d.StartDate)

	_, err = s.Create(ctx, 1, CreateInput{Title: "Summer", EndDate: now.Add(72 * time.Hour)})
	require.Error(t, err)
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperror.KindDuplicate, ae.Kind)
	assert.Equal(t, MsgActiveExists, ae.Message)

	// another host is unaffected
	_, err = s.Create(ctx, 2, CreateInput{Title: "Other", EndDate: now.Add(time.Hour)})
	assert.NoError(t, err)
}

func TestCreateRejectsPastEndDate(t *testing.T) {
	s := newTestService(newMemStore())
	_, err := s.Create(context.Background(), 1, CreateInput{Title: "Old", EndDate: now.Add(-time.Minute)})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	_, err = s.Create(context.Background(), 1, CreateInput{Title: "Now", EndDate: now})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestOwnershipIsNotFound(t *testing.T) {
	store := newMemStore()
	store.put(models.Giveaway{ID: 10, HostID: 1, Title: "Acme", Status: models.GiveawayActive})
	s := newTestService(store)
	ctx := context.Background()

	_, err := s.PublicDetails(ctx, 2, 10)
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperror.KindNotFound, ae.Kind)
	assert.Equal(t, MsgNotFoundOnSubdomain, ae.Message)

	_, err = s.Details(ctx, 2, 10)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(s.Delete(ctx, 2, 10)))
	_, err = s.SelectWinner(ctx, 2, 10)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	d, err := s.Details(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Acme", d.Title)
}

func TestSelectWinner(t *testing.T) {
	store := newMemStore()
	store.put(models.Giveaway{ID: 10, HostID: 1, Title: "Active", Status: models.GiveawayActive})
	store.put(models.Giveaway{ID: 11, HostID: 1, Title: "Empty", Status: models.GiveawayEnded})
	store.put(models.Giveaway{ID: 12, HostID: 1, Title: "Done", Status: models.GiveawayEnded})
	store.candidates[12] = []Candidate{{UserID: 7, Email: "a@x.com", Points: 2}, {UserID: 8, Email: "b@x.com", Points: 3}}
	store.entries[12] = 2
	s := newTestService(store)
	ctx := context.Background()

	_, err := s.SelectWinner(ctx, 1, 10)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	_, err = s.SelectWinner(ctx, 1, 11)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	s.rnd = func(n int64) (int64, error) {
		assert.Equal(t, int64(5), n)
		return 4, nil
	}
	w, err := s.SelectWinner(ctx, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(8), w.WinnerID)
	assert.Equal(t, 3, w.WinnerPoints)
	assert.Equal(t, int64(2), w.TotalEntries)
	assert.Equal(t, int64(8), store.winners[12])

	// reselection replaces the winner
	s.rnd = func(int64) (int64, error) { return 0, nil }
	w, err = s.SelectWinner(ctx, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.WinnerID)
}

func TestDrawIsPointsWeighted(t *testing.T) {
	cands := []Candidate{{UserID: 1, Points: 1}, {UserID: 2, Points: 0}, {UserID: 3, Points: 3}}
	got := map[int64]int{}
	for ticket := int64(0); ticket < 4; ticket++ {
		tk := ticket
		c, err := Draw(cands, func(n int64) (int64, error) { return tk, nil })
		require.NoError(t, err)
		got[c.UserID]++
	}
	assert.Equal(t, map[int64]int{1: 1, 3: 3}, got)

	_, err := Draw([]Candidate{{UserID: 1}}, CryptoRandInt)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = Draw(cands, func(int64) (int64, error) { return 0, errors.New("entropy") })
	assert.EqualError(t, err, "entropy")

	c, err := Draw(cands, CryptoRandInt)
	require.NoError(t, err)
	assert.NotEqual(t, int64(2), c.UserID)
}

func TestExpiredGiveawayStaysActiveUntilSweep(t *testing.T) {
	store := newMemStore()
	store.put(models.Giveaway{ID: 10, HostID: 1, Title: "Old", Status: models.GiveawayActive, EndDate: now.Add(-time.Hour)})
	store.put(models.Giveaway{ID: 11, HostID: 1, Title: "Ended", Status: models.GiveawayEnded, EndDate: now.Add(-time.Hour)})
	s := newTestService(store)
	ctx := context.Background()

	active, err := s.Active(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(10), active[0].ID)

	sw := NewSweeper(store, time.Minute, nil, nil)
	sw.now = func() time.Time { return now }
	assert.Equal(t, 1, sw.Sweep(ctx))
	assert.Equal(t, 0, sw.Sweep(ctx))

	active, err = s.Active(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.NotNil(t, active)
}

func TestSweeperStartStop(t *testing.T) {
	store := newMemStore()
	store.put(models.Giveaway{ID: 10, HostID: 1, Status: models.GiveawayActive, EndDate: time.Now().Add(-time.Minute)})
	sw := NewSweeper(store, time.Hour, nil, nil)

	sw.Start()
	sw.Start()
	require.Eventually(t, func() bool {
		g, _ := store.FindByID(context.Background(), 10)
		return g.Status == models.GiveawayEnded
	}, time.Second, 10*time.Millisecond)
	sw.Stop()
	sw.Stop()
}

func TestPublicListPaging(t *testing.T) {
	store := newMemStore()
	for i := int64(1); i <= 7; i++ {
		store.put(models.Giveaway{ID: i, HostID: 1, Status: models.GiveawayEnded})
	}
	s := newTestService(store)

	page, err := s.PublicList(context.Background(), 1, nil, models.PageRequest{Page: 1, Size: 5})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(7), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasPrevious)
	assert.False(t, page.HasNext)
}
