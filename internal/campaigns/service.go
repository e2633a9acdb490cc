package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/users"
	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/email"
	"github.com/sweepgoat/backend/pkg/metrics"
)

// Campaign messages.
const (
	MsgSubjectRequired = "Subject is required for email campaigns"
	MsgInvalidType     = "Campaign type must be EMAIL, SMS or BOTH"
	MsgNotFound        = "Campaign not found"
	MsgNotRecorded     = "Campaign delivered to %d users but its results could not be fully recorded"
)

// recordTimeout bounds the writes that close out a send once deliveries are done.
const recordTimeout = 10 * time.Second

var errNoPhone = errors.New("no phone number")

// Store persists campaigns.
type Store interface {
	Create(ctx context.Context, c *models.Campaign) error
	InsertLogs(ctx context.Context, logs []models.CampaignLog) error
	Finalize(ctx context.Context, id int64, status string, sent, failed int, sentAt time.Time) error
	ListByHost(ctx context.Context, hostID int64) ([]models.Campaign, error)
	FindByIDAndHost(ctx context.Context, id, hostID int64) (*models.Campaign, error)
	Recipients(ctx context.Context, campaignID int64) ([]models.CampaignRecipient, error)
}

// RecipientSource resolves the users a campaign targets.
type RecipientSource interface {
	Recipients(ctx context.Context, hostID int64, f users.Filter, s users.Sort) ([]models.User, error)
}

// HostFinder loads the sending host for template values.
type HostFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Host, error)
}

// SendInput is a campaign to send now.
type SendInput struct {
	Name      string
	Type      string
	Subject   string
	Message   string
	Filter    users.Filter
	SortBy    string
	SortOrder string
}

// SendResult summarizes a finished send.
type SendResult struct {
	CampaignID      int64     `json:"campaignId"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	TotalRecipients int       `json:"totalRecipients"`
	TotalSent       int       `json:"totalSent"`
	TotalFailed     int       `json:"totalFailed"`
	SentAt          time.Time `json:"sentAt"`
	Status          string    `json:"status"`
	Message         string    `json:"message"`
}

// Detail is a campaign with its per-channel recipients.
type Detail struct {
	models.Campaign
	Recipients []models.CampaignRecipient `json:"recipients"`
}

// Service sends and reports on marketing campaigns.
type Service struct {
	store   Store
	users   RecipientSource
	hosts   HostFinder
	mailer  email.Sender
	sms     email.SMSSender
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a campaigns service.
func NewService(store Store, recipients RecipientSource, hosts HostFinder, mailer email.Sender, sms email.SMSSender, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store: store, users: recipients, hosts: hosts, mailer: mailer, sms: sms,
		metrics: m, logger: logger, now: time.Now,
	}
}

// Send resolves recipients, delivers on each requested channel and records every attempt.
// Per-recipient failures are counted, not returned.
func (s *Service) Send(ctx context.Context, hostID int64, in SendInput) (*SendResult, error) {
	kind := strings.ToUpper(strings.TrimSpace(in.Type))
	switch kind {
	case models.CampaignEmail, models.CampaignSMS, models.CampaignBoth:
	default:
		return nil, apperror.Validation(MsgInvalidType)
	}
	if kind != models.CampaignSMS && strings.TrimSpace(in.Subject) == "" {
		return nil, apperror.Validation(MsgSubjectRequired)
	}

	host, err := s.hosts.FindByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if host == nil {
		return nil, apperror.NotFound("Host not found")
	}
	recipients, err := s.users.Recipients(ctx, hostID, in.Filter, users.ParseSort(in.SortBy, in.SortOrder))
	if err != nil {
		return nil, err
	}

	c := &models.Campaign{
		HostID:          hostID,
		Name:            in.Name,
		Type:            kind,
		Message:         in.Message,
		Status:          models.CampaignSending,
		TargetType:      models.TargetAllUsers,
		GiveawayID:      in.Filter.GiveawayID,
		FiltersJSON:     filtersJSON(in),
		TotalRecipients: len(recipients),
	}
	if in.Subject != "" {
		subject := in.Subject
		c.Subject = &subject
	}
	if in.Filter.GiveawayID != nil {
		c.TargetType = models.TargetSpecificGiveaway
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	var sent, failed int
	logs := make([]models.CampaignLog, 0, len(recipients))
	for i := range recipients {
		u := &recipients[i]
		attempts := s.deliver(ctx, c, host, u)
		ok := false
		for _, l := range attempts {
			if l.Status == models.LogSent {
				ok = true
			}
		}
		if ok {
			sent++
		} else {
			failed++
		}
		logs = append(logs, attempts...)
	}

	// Deliveries have gone out, so the bookkeeping must not fail with the request.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	status := models.CampaignSent
	if err := s.store.InsertLogs(recordCtx, logs); err != nil {
		s.logger.Error("record campaign logs", zap.Int64("campaign_id", c.ID), zap.Error(err))
		status = models.CampaignFailed
	}

	sentAt := s.now()
	if err := s.store.Finalize(recordCtx, c.ID, status, sent, failed, sentAt); err != nil {
		s.logger.Error("finalize campaign", zap.Int64("campaign_id", c.ID), zap.String("status", status), zap.Error(err))
		status = models.CampaignSending
	}
	s.logger.Info("campaign sent", zap.Int64("campaign_id", c.ID), zap.Int64("host_id", hostID), zap.String("status", status),
		zap.String("type", kind), zap.Int("recipients", len(recipients)), zap.Int("sent", sent), zap.Int("failed", failed))

	msg := fmt.Sprintf("Campaign sent successfully to %d users", sent)
	if status != models.CampaignSent {
		msg = fmt.Sprintf(MsgNotRecorded, sent)
	}

	return &SendResult{
		CampaignID:      c.ID,
		Name:            c.Name,
		Type:            kind,
		TotalRecipients: len(recipients),
		TotalSent:       sent,
		TotalFailed:     failed,
		SentAt:          sentAt,
		Status:          status,
		Message:         msg,
	}, nil
}

// deliver sends c to one user on each of its channels and returns one log row per channel.
func (s *Service) deliver(ctx context.Context, c *models.Campaign, host *models.Host, u *models.User) []models.CampaignLog {
	body := Render(c.Message, u, host)
	var out []models.CampaignLog

	if c.Type == models.CampaignEmail || c.Type == models.CampaignBoth {
		var subject string
		if c.Subject != nil {
			subject = Render(*c.Subject, u, host)
		}
		ref, err := s.mailer.Send(ctx, email.Message{
			To:         u.Email,
			Subject:    subject,
			HTML:       email.TextToHTML(body),
			Kind:       "campaign",
			CampaignID: c.ID,
		})
		out = append(out, s.logAttempt(c.ID, u, models.CampaignEmail, ref, err))
	}

	if c.Type == models.CampaignSMS || c.Type == models.CampaignBoth {
		phone := strings.TrimSpace(u.PhoneNumber)
		if phone == "" {
			out = append(out, s.logAttempt(c.ID, u, models.CampaignSMS, "", errNoPhone))
		} else {
			ref, err := s.sms.SendSMS(ctx, phone, body)
			out = append(out, s.logAttempt(c.ID, u, models.CampaignSMS, ref, err))
		}
	}
	return out
}

func (s *Service) logAttempt(campaignID int64, u *models.User, channel, ref string, err error) models.CampaignLog {
	l := models.CampaignLog{CampaignID: campaignID, UserID: u.ID, Type: channel}
	if err != nil {
		msg := err.Error()
		l.Status = models.LogFailed
		l.ErrorMessage = &msg
		s.logger.Warn("campaign delivery failed", zap.Int64("campaign_id", campaignID),
			zap.Int64("user_id", u.ID), zap.String("channel", channel), zap.Error(err))
	} else {
		now := s.now()
		l.Status = models.LogSent
		l.SentAt = &now
		if ref != "" {
			l.ExternalID = &ref
		}
	}
	s.metrics.CampaignDelivery(channel, l.Status)
	return l
}

// List returns the host's campaigns.
func (s *Service) List(ctx context.Context, hostID int64) ([]models.Campaign, error) {
	list, err := s.store.ListByHost(ctx, hostID)
	if list == nil {
		list = []models.Campaign{}
	}
	return list, err
}

// Details returns one of the host's campaigns with its recipients.
func (s *Service) Details(ctx context.Context, hostID, id int64) (*Detail, error) {
	c, err := s.store.FindByIDAndHost(ctx, id, hostID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NotFound(MsgNotFound)
	}
	recipients, err := s.store.Recipients(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipients == nil {
		recipients = []models.CampaignRecipient{}
	}
	return &Detail{Campaign: *c, Recipients: recipients}, nil
}

type storedFilters struct {
	GiveawayID    *int64 `json:"giveawayId,omitempty"`
	EmailVerified *bool  `json:"emailVerified,omitempty"`
	EmailOptIn    *bool  `json:"emailOptIn,omitempty"`
	SMSOptIn      *bool  `json:"smsOptIn,omitempty"`
	SortBy        string `json:"sortBy,omitempty"`
	SortOrder     string `json:"sortOrder,omitempty"`
}

func filtersJSON(in SendInput) *string {
	b, err := json.Marshal(storedFilters{
		GiveawayID:    in.Filter.GiveawayID,
		EmailVerified: in.Filter.EmailVerified,
		EmailOptIn:    in.Filter.EmailOptIn,
		SMSOptIn:      in.Filter.SMSOptIn,
		SortBy:        in.SortBy,
		SortOrder:     in.SortOrder,
	})
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
