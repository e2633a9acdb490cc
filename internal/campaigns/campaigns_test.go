package campaigns

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/internal/users"
	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/email"
)

type memStore struct {
	campaigns   []*models.Campaign
	logs        []models.CampaignLog
	logsErr     error
	finalizeErr error
}

func (m *memStore) Create(_ context.Context, c *models.Campaign) error {
	c.ID = int64(len(m.campaigns) + 1)
	m.campaigns = append(m.campaigns, c)
	return nil
}

func (m *memStore) InsertLogs(ctx context.Context, logs []models.CampaignLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.logsErr != nil {
		return m.logsErr
	}
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *memStore) Finalize(ctx context.Context, id int64, status string, sent, failed int, sentAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	c := m.campaigns[id-1]
	c.TotalSent, c.TotalFailed, c.SentAt, c.Status = sent, failed, &sentAt, status
	return nil
}

func (m *memStore) ListByHost(_ context.Context, hostID int64) ([]models.Campaign, error) {
	var out []models.Campaign
	for _, c := range m.campaigns {
		if c.HostID == hostID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) FindByIDAndHost(_ context.Context, id, hostID int64) (*models.Campaign, error) {
	for _, c := range m.campaigns {
		if c.ID == id && c.HostID == hostID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Recipients(_ context.Context, campaignID int64) ([]models.CampaignRecipient, error) {
	var out []models.CampaignRecipient
	for _, l := range m.logs {
		if l.CampaignID == campaignID {
			out = append(out, models.CampaignRecipient{UserID: l.UserID, Type: l.Type, Status: l.Status, ErrorMessage: l.ErrorMessage})
		}
	}
	return out, nil
}

type recipients struct {
	list       []models.User
	lastFilter users.Filter
}

func (r *recipients) Recipients(_ context.Context, hostID int64, f users.Filter, _ users.Sort) ([]models.User, error) {
	r.lastFilter = f
	if f.GiveawayID != nil && *f.GiveawayID == 404 {
		return nil, apperror.NotFound("Giveaway not found")
	}
	return r.list, nil
}

type hosts map[int64]*models.Host

func (h hosts) FindByID(_ context.Context, id int64) (*models.Host, error) { return h[id], nil }

type mailer struct {
	sent   []email.Message
	failTo string
	// onSend runs after each delivery attempt.
	onSend func()
}

func (m *mailer) Send(_ context.Context, msg email.Message) (string, error) {
	if m.onSend != nil {
		defer m.onSend()
	}
	if msg.To == m.failTo {
		return "", errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return "msg-1", nil
}

type texter struct{ sent []string }

func (t *texter) SendSMS(_ context.Context, to, body string) (string, error) {
	t.sent = append(t.sent, to+":"+body)
	return "", nil
}

func fixture() (*Service, *memStore, *mailer, *texter, *recipients) {
	store := &memStore{}
	m := &mailer{}
	sms := &texter{}
	r := &recipients{list: []models.User{
		{ID: 1, Email: "ann@example.com", FirstName: "Ann", PhoneNumber: "+15550001"},
		{ID: 2, Email: "bob@example.com", FirstName: "Bob"},
	}}
	h := hosts{7: {ID: 7, Subdomain: "acme", CompanyName: "Acme"}}
	return NewService(store, r, h, m, sms, nil, nil), store, m, sms, r
}

func TestRender(t *testing.T) {
	u := &models.User{FirstName: "Ann", LastName: "Lee"}
	h := &models.Host{CompanyName: "Acme", Subdomain: "acme"}
	got := Render("Hi {{firstName}} {{lastName}}, visit {{subdomain}} from {{hostCompanyName}} {{unknown}}", u, h)
	assert.Equal(t, "Hi Ann Lee, visit acme from Acme {{unknown}}", got)
	assert.Equal(t, "", Render("", u, h))
	assert.Equal(t, "Hi ", Render("Hi {{firstName}}", nil, nil))
}

func TestSendEmailRequiresSubject(t *testing.T) {
	s, _, _, _, _ := fixture()
	_, err := s.Send(context.Background(), 7, SendInput{Name: "n", Type: "EMAIL", Message: "m"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = s.Send(context.Background(), 7, SendInput{Name: "n", Type: "FAX", Message: "m"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestSendEmailCountsFailures(t *testing.T) {
	s, store, m, _, _ := fixture()
	m.failTo = "bob@example.com"

	res, err := s.Send(context.Background(), 7, SendInput{
		Name: "Spring", Type: "email", Subject: "Hey {{firstName}}", Message: "Win at {{hostCompanyName}}",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRecipients)
	assert.Equal(t, 1, res.TotalSent)
	assert.Equal(t, 1, res.TotalFailed)
	assert.Equal(t, models.CampaignSent, res.Status)
	assert.Equal(t, "Campaign sent successfully to 1 users", res.Message)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "Hey Ann", m.sent[0].Subject)
	assert.Contains(t, m.sent[0].HTML, "Win at Acme")
	assert.Equal(t, "campaign", m.sent[0].Kind)

	require.Len(t, store.logs, 2)
	assert.Equal(t, models.LogSent, store.logs[0].Status)
	assert.NotNil(t, store.logs[0].SentAt)
	assert.Equal(t, models.LogFailed, store.logs[1].Status)
	require.NotNil(t, store.logs[1].ErrorMessage)
	assert.Equal(t, "mailbox unavailable", *store.logs[1].ErrorMessage)

	c := store.campaigns[0]
	assert.Equal(t, models.TargetAllUsers, c.TargetType)
	assert.Equal(t, 1, c.TotalFailed)
}

func TestSendBothLogsEachChannel(t *testing.T) {
	s, store, m, sms, r := fixture()
	gid := int64(3)
	optIn := true

	res, err := s.Send(context.Background(), 7, SendInput{
		Name: "Both", Type: "BOTH", Subject: "s", Message: "Hi {{firstName}}",
		Filter: users.Filter{GiveawayID: &gid, SMSOptIn: &optIn}, SortBy: "email",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalSent)
	assert.Equal(t, 0, res.TotalFailed)
	assert.Len(t, m.sent, 2)
	assert.Equal(t, []string{"+15550001:Hi Ann"}, sms.sent)
	assert.Equal(t, &gid, r.lastFilter.GiveawayID)

	require.Len(t, store.logs, 4)
	var smsFailed int
	for _, l := range store.logs {
		if l.Type == models.CampaignSMS && l.Status == models.LogFailed {
			smsFailed++
			assert.Equal(t, "no phone number", *l.ErrorMessage)
		}
	}
	assert.Equal(t, 1, smsFailed)

	c := store.campaigns[0]
	assert.Equal(t, models.TargetSpecificGiveaway, c.TargetType)
	require.NotNil(t, c.FiltersJSON)
	assert.JSONEq(t, `{"giveawayId":3,"smsOptIn":true,"sortBy":"email"}`, *c.FiltersJSON)
}

func TestSendSMSWithoutPhoneFails(t *testing.T) {
	s, _, _, _, _ := fixture()
	res, err := s.Send(context.Background(), 7, SendInput{Name: "Text", Type: "SMS", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalSent)
	assert.Equal(t, 1, res.TotalFailed)
}

func TestSendSurvivesClientCancel(t *testing.T) {
	s, store, m, _, _ := fixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.onSend = cancel

	res, err := s.Send(ctx, 7, SendInput{Name: "promo", Type: "EMAIL", Subject: "Hi", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignSent, res.Status)
	assert.Len(t, store.logs, 2)
	assert.Equal(t, models.CampaignSent, store.campaigns[0].Status)
}

func TestSendMarksFailedWhenLogsAreLost(t *testing.T) {
	s, store, m, _, _ := fixture()
	store.logsErr = errors.New("copy failed")

	res, err := s.Send(context.Background(), 7, SendInput{Name: "promo", Type: "EMAIL", Subject: "Hi", Message: "m"})
	require.NoError(t, err)
	assert.Len(t, m.sent, 2)
	assert.Equal(t, models.CampaignFailed, res.Status)
	assert.Equal(t, 2, res.TotalSent)
	assert.Equal(t, "Campaign delivered to 2 users but its results could not be fully recorded", res.Message)
	assert.Equal(t, models.CampaignFailed, store.campaigns[0].Status)
	assert.Equal(t, 2, store.campaigns[0].TotalSent)
}

func TestSendReportsUnfinalizedCampaign(t *testing.T) {
	s, store, m, _, _ := fixture()
	store.finalizeErr = errors.New("connection reset")

	res, err := s.Send(context.Background(), 7, SendInput{Name: "promo", Type: "EMAIL", Subject: "Hi", Message: "m"})
	require.NoError(t, err)
	assert.Len(t, m.sent, 2)
	assert.Equal(t, models.CampaignSending, res.Status)
	assert.Equal(t, 2, res.TotalSent)
	assert.Contains(t, res.Message, "could not be fully recorded")
	assert.Len(t, store.logs, 2)
}

func TestSendForeignGiveawayIsNotFound(t *testing.T) {
	s, store, _, _, _ := fixture()
	gid := int64(404)
	_, err := s.Send(context.Background(), 7, SendInput{Name: "n", Type: "SMS", Message: "m", Filter: users.Filter{GiveawayID: &gid}})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Empty(t, store.campaigns)
}

func TestDetailsOwnership(t *testing.T) {
	s, _, _, _, _ := fixture()
	res, err := s.Send(context.Background(), 7, SendInput{Name: "n", Type: "SMS", Message: "m"})
	require.NoError(t, err)

	d, err := s.Details(context.Background(), 7, res.CampaignID)
	require.NoError(t, err)
	assert.Len(t, d.Recipients, 2)

	_, err = s.Details(context.Background(), 8, res.CampaignID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestHandlerSend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, _, _, _, _ := fixture()
	h := NewHandler(s, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		reqctx.From(c).Identity = &reqctx.Identity{UserType: models.UserTypeHost, HostID: 7}
	})
	r.POST("/api/host/campaigns/send", h.Send)
	r.GET("/api/host/campaigns/:id", h.Get)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/host/campaigns/send", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := send(`{"name":"n","type":"EMAIL","subject":"s","message":"m"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalSent":2`)

	assert.Equal(t, http.StatusBadRequest, send(`{"name":"n","type":"EMAIL","message":"m"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(`{"name":"n","type":"PIGEON","message":"m"}`).Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/host/campaigns/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
