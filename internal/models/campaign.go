package models

import "time"

// Campaign channel types.
const (
	CampaignEmail = "EMAIL"
	CampaignSMS   = "SMS"
	CampaignBoth  = "BOTH"
)

// Campaign statuses.
const (
	CampaignDraft     = "DRAFT"
	CampaignScheduled = "SCHEDULED"
	CampaignSending   = "SENDING"
	CampaignSent      = "SENT"
	CampaignCancelled = "CANCELLED"
	CampaignFailed    = "FAILED"
)

// Campaign target types.
const (
	TargetAllUsers         = "ALL_USERS"
	TargetSpecificGiveaway = "SPECIFIC_GIVEAWAY"
)

// Campaign log statuses.
const (
	LogPending = "PENDING"
	LogSent    = "SENT"
	LogFailed  = "FAILED"
)

// Campaign is a marketing blast to a host's users.
type Campaign struct {
	ID              int64      `json:"id"`
	HostID          int64      `json:"hostId"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Subject         *string    `json:"subject"`
	Message         string     `json:"message"`
	Status          string     `json:"status"`
	TargetType      string     `json:"targetType"`
	GiveawayID      *int64     `json:"giveawayId"`
	FiltersJSON     *string    `json:"filtersJson"`
	TotalRecipients int        `json:"totalRecipients"`
	TotalSent       int        `json:"totalSent"`
	TotalFailed     int        `json:"totalFailed"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	SentAt          *time.Time `json:"sentAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CampaignLog records one delivery attempt on one channel.
type CampaignLog struct {
	ID           int64      `json:"id"`
	CampaignID   int64      `json:"campaignId"`
	UserID       int64      `json:"userId"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	SentAt       *time.Time `json:"sentAt"`
	ErrorMessage *string    `json:"errorMessage"`
	ExternalID   *string    `json:"externalId"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// CampaignRecipient is a log row joined with its user.
type CampaignRecipient struct {
	UserID       int64      `json:"userId"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	SentAt       *time.Time `json:"sentAt"`
	ErrorMessage *string    `json:"errorMessage"`
}
