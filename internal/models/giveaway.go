package models

import "time"

// GiveawayStatus is the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayActive    GiveawayStatus = "ACTIVE"
	GiveawayEnded     GiveawayStatus = "ENDED"
	GiveawayCancelled GiveawayStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s GiveawayStatus) Valid() bool {
	switch s {
	case GiveawayActive, GiveawayEnded, GiveawayCancelled:
		return true
	}
	return false
}

// Giveaway is a sweepstakes run by a host.
type Giveaway struct {
	ID               int64          `json:"id"`
	HostID           int64          `json:"hostId"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	ImageURL         *string        `json:"imageUrl"`
	StartDate        time.Time      `json:"startDate"`
	EndDate          time.Time      `json:"endDate"`
	Status           GiveawayStatus `json:"status"`
	WinnerID         *int64         `json:"winnerId"`
	WinnerSelectedAt *time.Time     `json:"winnerSelectedAt"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// EndedAt reports whether the end date has passed at now.
// Status is only moved to ENDED by the sweeper, so this can be true while Status is still ACTIVE.
func (g *Giveaway) EndedAt(now time.Time) bool {
	return now.After(g.EndDate)
}

// GiveawaySummary is a list row with the entry count.
type GiveawaySummary struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	ImageURL     *string        `json:"imageUrl"`
	StartDate    time.Time      `json:"startDate"`
	EndDate      time.Time      `json:"endDate"`
	Status       GiveawayStatus `json:"status"`
	TotalEntries int64          `json:"totalEntries"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// GiveawayDetails is a single giveaway with aggregate entry data.
type GiveawayDetails struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	ImageURL         *string        `json:"imageUrl"`
	StartDate        time.Time      `json:"startDate"`
	EndDate          time.Time      `json:"endDate"`
	Status           GiveawayStatus `json:"status"`
	TotalEntries     int64          `json:"totalEntries"`
	WinnerID         *int64         `json:"winnerId"`
	WinnerSelectedAt *time.Time     `json:"winnerSelectedAt"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// GiveawayStats aggregates entries for one giveaway.
type GiveawayStats struct {
	GiveawayID   int64  `json:"giveawayId"`
	Title        string `json:"title"`
	TotalEntries int64  `json:"totalEntries"`
	TotalPoints  int64  `json:"totalPoints"`
	UniqueUsers  int64  `json:"uniqueUsers"`
}

// LeaderboardEntry is one row of a giveaway's entries ordered by points.
type LeaderboardEntry struct {
	EntryID          int64     `json:"entryId"`
	UserID           int64     `json:"userId"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Points           int       `json:"points"`
	FreeEntryClaimed bool      `json:"freeEntryClaimed"`
	EnteredAt        time.Time `json:"enteredAt"`
}

// WinnerSelection is the result of a draw.
type WinnerSelection struct {
	GiveawayID        int64     `json:"giveawayId"`
	GiveawayTitle     string    `json:"giveawayTitle"`
	WinnerID          int64     `json:"winnerId"`
	WinnerEmail       string    `json:"winnerEmail"`
	WinnerFirstName   string    `json:"winnerFirstName"`
	WinnerLastName    string    `json:"winnerLastName"`
	WinnerPhoneNumber string    `json:"winnerPhoneNumber"`
	WinnerPoints      int       `json:"winnerPoints"`
	SelectedAt        time.Time `json:"selectedAt"`
	TotalEntries      int64     `json:"totalEntries"`
}
