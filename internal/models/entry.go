package models

import "time"

// GiveawayEntry is a user's accumulated points in one giveaway.
type GiveawayEntry struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	GiveawayID       int64     `json:"giveawayId"`
	Points           int       `json:"points"`
	FreeEntryClaimed bool      `json:"freeEntryClaimed"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// EntryView is an entry joined with its giveaway title.
type EntryView struct {
	EntryID          int64     `json:"entryId"`
	Points           int       `json:"points"`
	FreeEntryClaimed bool      `json:"freeEntryClaimed"`
	GiveawayID       int64     `json:"giveawayId"`
	GiveawayTitle    string    `json:"giveawayTitle"`
	EnteredAt        time.Time `json:"enteredAt"`
}

// EntryResult answers an entry claim.
type EntryResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Entry   EntryView `json:"entry"`
}

// Participation status shown in a user's history.
const (
	ParticipationActive = "ACTIVE"
	ParticipationWon    = "WON"
	ParticipationEnded  = "ENDED"
)

// UserGiveawayEntry is one row of a user's giveaway history.
type UserGiveawayEntry struct {
	GiveawayID       int64     `json:"giveawayId"`
	GiveawayTitle    string    `json:"giveawayTitle"`
	ImageURL         *string   `json:"imageUrl"`
	EndDate          time.Time `json:"endDate"`
	Points           int       `json:"points"`
	FreeEntryClaimed bool      `json:"freeEntryClaimed"`
	Status           string    `json:"status"`
	EnteredAt        time.Time `json:"enteredAt"`
}

// UserEntry is one of a user's entries with its giveaway.
type UserEntry struct {
	EntryID          int64          `json:"entryId"`
	Points           int            `json:"points"`
	FreeEntryClaimed bool           `json:"freeEntryClaimed"`
	EnteredAt        time.Time      `json:"enteredAt"`
	GiveawayID       int64          `json:"giveawayId"`
	GiveawayTitle    string         `json:"giveawayTitle"`
	ImageURL         *string        `json:"imageUrl"`
	EndDate          time.Time      `json:"endDate"`
	GiveawayStatus   GiveawayStatus `json:"giveawayStatus"`
}

// ParticipationStatus is how a giveaway looks from one entrant's side.
func ParticipationStatus(status GiveawayStatus, winnerID *int64, userID int64) string {
	if status == GiveawayActive {
		return ParticipationActive
	}
	if winnerID != nil && *winnerID == userID {
		return ParticipationWon
	}
	return ParticipationEnded
}
