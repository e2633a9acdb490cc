package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/email"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Check(p, h string) bool       { return h == "h:"+p }

type recordingMailer struct{ sent []email.Message }

func (m *recordingMailer) Send(_ context.Context, msg email.Message) (string, error) {
	m.sent = append(m.sent, msg)
	return "id", nil
}

type recordingCache struct{ invalidated []string }

func (c *recordingCache) Invalidate(_ context.Context, sub string) {
	c.invalidated = append(c.invalidated, sub)
}

type fakeHosts struct {
	byID   map[int64]*models.Host
	nextID int64
}

func newFakeHosts(hosts ...*models.Host) *fakeHosts {
	f := &fakeHosts{byID: map[int64]*models.Host{}, nextID: 100}
	for _, h := range hosts {
		f.byID[h.ID] = h
	}
	return f
}

func (f *fakeHosts) FindByEmail(_ context.Context, e string) (*models.Host, error) {
	for _, h := range f.byID {
		if h.Email == e {
			return h.Clone(), nil
		}
	}
	return nil, nil
}

func (f *fakeHosts) FindByID(_ context.Context, id int64) (*models.Host, error) {
	return f.byID[id].Clone(), nil
}

func (f *fakeHosts) ExistsByEmail(ctx context.Context, e string) (bool, error) {
	h, _ := f.FindByEmail(ctx, e)
	return h != nil, nil
}

func (f *fakeHosts) ExistsBySubdomain(_ context.Context, s string) (bool, error) {
	for _, h := range f.byID {
		if h.Subdomain == s {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeHosts) Create(_ context.Context, h *models.Host) error {
	f.nextID++
	h.ID = f.nextID
	h.IsActive = true
	f.byID[h.ID] = h.Clone()
	return nil
}

func (f *fakeHosts) SetVerificationCode(_ context.Context, id int64, code string, exp time.Time) error {
	f.byID[id].VerificationCode = &code
	f.byID[id].VerificationCodeExpiresAt = &exp
	return nil
}

func (f *fakeHosts) MarkVerified(_ context.Context, id int64) error {
	f.byID[id].EmailVerified = true
	f.byID[id].VerificationCode = nil
	f.byID[id].VerificationCodeExpiresAt = nil
	return nil
}

func (f *fakeHosts) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.byID[id].PasswordHash = hash
	return nil
}

func (f *fakeHosts) Delete(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func acmeHost() *models.Host {
	return &models.Host{
		ID: 1, Subdomain: "acme", CompanyName: "Acme", Email: "owner@acme.com",
		PasswordHash: "h:secret123", EmailVerified: true, IsActive: true,
	}
}

func newTestHostService(hosts *fakeHosts) (*HostService, *recordingMailer, *recordingCache) {
	mailer := &recordingMailer{}
	cache := &recordingCache{}
	s := NewHostService(hosts, NewTokenService("secret", 24), plainHasher{}, mailer, cache, nil,
		Options{BaseDomain: "sweepgoat.com"}, nil)
	s.newCode = func() (string, error) { return "123456", nil }
	s.now = func() time.Time { return fixedNow }
	return s, mailer, cache
}

func TestHostRegisterOnlyOnMainDomain(t *testing.T) {
	s, _, _ := newTestHostService(newFakeHosts())
	_, err := s.Register(context.Background(), RegisterHostInput{
		Email: "a@b.com", Password: "password1", Subdomain: "acme", CompanyName: "Acme",
	}, false)
	assert.Equal(t, apperror.KindInvalidDomain, apperror.KindOf(err))
}

func TestHostRegisterCreatesUnverifiedAndSendsCode(t *testing.T) {
	hosts := newFakeHosts()
	s, mailer, _ := newTestHostService(hosts)

	msg, err := s.Register(context.Background(), RegisterHostInput{
		Email: "  Owner@Acme.com ", Password: "password1", Subdomain: "Acme", CompanyName: "Acme",
	}, true)
	require.NoError(t, err)
	assert.Equal(t, MsgRegistered, msg)

	h, _ := hosts.FindByEmail(context.Background(), "owner@acme.com")
	require.NotNil(t, h)
	assert.Equal(t, "acme", h.Subdomain)
	assert.False(t, h.EmailVerified)
	assert.Equal(t, "123456", *h.VerificationCode)
	assert.Equal(t, fixedNow.Add(24*time.Hour), *h.VerificationCodeExpiresAt)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].HTML, "123456")
}

func TestHostRegisterRejectsDuplicatesAndBadSubdomains(t *testing.T) {
	s, _, _ := newTestHostService(newFakeHosts(acmeHost()))
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterHostInput{Email: "owner@acme.com", Password: "p", Subdomain: "other"}, true)
	assert.Equal(t, apperror.KindDuplicate, apperror.KindOf(err))

	_, err = s.Register(ctx, RegisterHostInput{Email: "new@acme.com", Password: "p", Subdomain: "acme"}, true)
	assert.Equal(t, apperror.KindDuplicate, apperror.KindOf(err))

	_, err = s.Register(ctx, RegisterHostInput{Email: "new@acme.com", Password: "p", Subdomain: "www"}, true)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestHostLoginOutcomes(t *testing.T) {
	inactive := acmeHost()
	inactive.ID, inactive.Email, inactive.Subdomain, inactive.IsActive = 2, "gone@x.com", "gone", false
	unverified := acmeHost()
	unverified.ID, unverified.Email, unverified.Subdomain, unverified.EmailVerified = 3, "new@x.com", "fresh", false
	s, _, _ := newTestHostService(newFakeHosts(acmeHost(), inactive, unverified))
	ctx := context.Background()

	out, err := s.Login(ctx, "nobody@x.com", "secret123", "")
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidCredentials, out.(*LoginFailed).Reason)

	out, _ = s.Login(ctx, "owner@acme.com", "wrong", "")
	assert.Equal(t, MsgInvalidCredentials, out.(*LoginFailed).Message)

	out, _ = s.Login(ctx, "gone@x.com", "secret123", "")
	assert.Equal(t, ReasonDeactivated, out.(*LoginFailed).Reason)

	out, _ = s.Login(ctx, "new@x.com", "secret123", "")
	assert.Equal(t, "new@x.com", out.(*LoginEmailUnverified).Email)

	out, _ = s.Login(ctx, "owner@acme.com", "secret123", "globex")
	failed := out.(*LoginFailed)
	assert.Equal(t, ReasonSubdomainMismatch, failed.Reason)
	assert.Equal(t, "Cannot log in from subdomain 'globex'. Please log in from 'acme.sweepgoat.com' or the main domain.", failed.Message)

	for _, sub := range []string{"", "acme", "ACME"} {
		out, err = s.Login(ctx, "Owner@Acme.com", "secret123", sub)
		require.NoError(t, err)
		ok := out.(*LoginSuccess)
		assert.Equal(t, int64(1), ok.HostID)
		assert.Equal(t, models.UserTypeHost, ok.UserType)
		claims, err := s.tokens.Parse(ok.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), claims.HostID)
	}
}

func TestHostVerifyEmailInvalidatesCacheAndIsIdempotent(t *testing.T) {
	h := acmeHost()
	h.EmailVerified = false
	h.VerificationCode = strPtr("654321")
	exp := fixedNow.Add(time.Hour)
	h.VerificationCodeExpiresAt = &exp
	hosts := newFakeHosts(h)
	s, _, cache := newTestHostService(hosts)
	ctx := context.Background()

	_, err := s.VerifyEmail(ctx, "owner@acme.com", "000000")
	assert.Equal(t, apperror.KindInvalidVerificationCode, apperror.KindOf(err))
	assert.Empty(t, cache.invalidated)

	msg, err := s.VerifyEmail(ctx, "owner@acme.com", "654321")
	require.NoError(t, err)
	assert.Equal(t, MsgVerified, msg)
	assert.Equal(t, []string{"acme"}, cache.invalidated)
	assert.True(t, hosts.byID[1].EmailVerified)

	msg, err = s.VerifyEmail(ctx, "owner@acme.com", "654321")
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyVerified, msg)
	assert.Len(t, cache.invalidated, 1)

	_, err = s.VerifyEmail(ctx, "missing@acme.com", "654321")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestHostVerifyEmailExpired(t *testing.T) {
	h := acmeHost()
	h.EmailVerified = false
	h.VerificationCode = strPtr("654321")
	exp := fixedNow.Add(-time.Minute)
	h.VerificationCodeExpiresAt = &exp
	s, _, _ := newTestHostService(newFakeHosts(h))

	_, err := s.VerifyEmail(context.Background(), "owner@acme.com", "654321")
	require.Error(t, err)
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, MsgCodeExpired, ae.Message)
}

func TestHostResendVerification(t *testing.T) {
	h := acmeHost()
	h.EmailVerified = false
	hosts := newFakeHosts(h)
	s, mailer, _ := newTestHostService(hosts)

	msg, err := s.ResendVerification(context.Background(), "owner@acme.com")
	require.NoError(t, err)
	assert.Equal(t, MsgCodeSent, msg)
	assert.Equal(t, "123456", *hosts.byID[1].VerificationCode)
	assert.Len(t, mailer.sent, 1)
}

func TestHostChangePassword(t *testing.T) {
	hosts := newFakeHosts(acmeHost())
	s, _, _ := newTestHostService(hosts)
	ctx := context.Background()

	_, err := s.ChangePassword(ctx, 1, "wrong", "newpassword")
	assert.Equal(t, apperror.KindInvalidCredentials, apperror.KindOf(err))

	_, err = s.ChangePassword(ctx, 1, "secret123", "secret123")
	assert.Equal(t, apperror.KindInvalidCredentials, apperror.KindOf(err))

	msg, err := s.ChangePassword(ctx, 1, "secret123", "newpassword")
	require.NoError(t, err)
	assert.Equal(t, MsgPasswordChanged, msg)
	assert.Equal(t, "h:newpassword", hosts.byID[1].PasswordHash)
}

func TestHostDeleteAccountInvalidatesCache(t *testing.T) {
	hosts := newFakeHosts(acmeHost())
	s, _, cache := newTestHostService(hosts)

	require.NoError(t, s.DeleteAccount(context.Background(), 1))
	assert.Empty(t, hosts.byID)
	assert.Equal(t, []string{"acme"}, cache.invalidated)

	err := s.DeleteAccount(context.Background(), 1)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

type fakeUsers struct {
	byID    map[int64]*models.User
	nextID  int64
	touched map[int64]time.Time
	deleted []int64
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]*models.User{}, nextID: 10, touched: map[int64]time.Time{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.nextID++
	u.ID = f.nextID
	u.IsActive = true
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmailAndHost(_ context.Context, e string, hostID int64) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == e && u.HostID == hostID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) ExistsByEmailAndHost(ctx context.Context, e string, hostID int64) (bool, error) {
	u, _ := f.FindByEmailAndHost(ctx, e, hostID)
	return u != nil, nil
}

func (f *fakeUsers) SetVerificationCode(_ context.Context, id int64, code string, exp time.Time) error {
	f.byID[id].VerificationCode = &code
	f.byID[id].VerificationCodeExpiresAt = &exp
	return nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id int64) error {
	f.byID[id].EmailVerified = true
	return nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	f.touched[id] = at
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.byID[id].PasswordHash = hash
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

func newTestUserService(users *fakeUsers, autoVerify bool) (*UserService, *recordingMailer) {
	mailer := &recordingMailer{}
	s := NewUserService(users, NewTokenService("secret", 24), plainHasher{}, mailer, nil,
		Options{AutoVerifyUsers: autoVerify}, nil)
	s.newCode = func() (string, error) { return "222333", nil }
	s.now = func() time.Time { return fixedNow }
	return s, mailer
}

func TestUserRegister(t *testing.T) {
	ctx := context.Background()
	in := RegisterUserInput{Email: "Fan@Mail.com", Password: "password1", FirstName: "Fan", EmailOptIn: true}

	t.Run("sends code", func(t *testing.T) {
		users := newFakeUsers()
		s, mailer := newTestUserService(users, false)
		msg, err := s.Register(ctx, acmeHost(), in)
		require.NoError(t, err)
		assert.Equal(t, MsgRegistered, msg)
		u, _ := users.FindByEmailAndHost(ctx, "fan@mail.com", 1)
		require.NotNil(t, u)
		assert.False(t, u.EmailVerified)
		assert.True(t, u.EmailOptIn)
		assert.Len(t, mailer.sent, 1)

		_, err = s.Register(ctx, acmeHost(), in)
		assert.Equal(t, apperror.KindDuplicate, apperror.KindOf(err))
	})

	t.Run("auto verify", func(t *testing.T) {
		users := newFakeUsers()
		s, mailer := newTestUserService(users, true)
		msg, err := s.Register(ctx, acmeHost(), in)
		require.NoError(t, err)
		assert.Equal(t, MsgRegisteredAutoVerified, msg)
		u, _ := users.FindByEmailAndHost(ctx, "fan@mail.com", 1)
		assert.True(t, u.EmailVerified)
		assert.Nil(t, u.VerificationCode)
		assert.Empty(t, mailer.sent)
	})

	t.Run("host email on own subdomain", func(t *testing.T) {
		s, _ := newTestUserService(newFakeUsers(), false)
		_, err := s.Register(ctx, acmeHost(), RegisterUserInput{Email: "OWNER@acme.com", Password: "password1"})
		assert.Equal(t, apperror.KindDuplicate, apperror.KindOf(err))
	})
}

func TestUserLoginIsScopedToTenant(t *testing.T) {
	fan := &models.User{ID: 5, HostID: 1, Email: "fan@mail.com", FirstName: "Fan", PasswordHash: "h:password1",
		EmailVerified: true, IsActive: true}
	users := newFakeUsers(fan)
	s, _ := newTestUserService(users, false)
	ctx := context.Background()

	other := acmeHost()
	other.ID, other.Subdomain = 2, "globex"
	out, err := s.Login(ctx, other, "fan@mail.com", "password1")
	require.NoError(t, err)
	assert.IsType(t, &LoginFailed{}, out)
	assert.Empty(t, users.touched)

	out, err = s.Login(ctx, acmeHost(), "fan@mail.com", "password1")
	require.NoError(t, err)
	ok := out.(*LoginSuccess)
	require.NotNil(t, ok.UserID)
	assert.Equal(t, int64(5), *ok.UserID)
	assert.Equal(t, "acme", ok.Subdomain)
	assert.Equal(t, fixedNow, users.touched[5])

	claims, err := s.tokens.Parse(ok.Token)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeUser, claims.UserType)
	assert.Equal(t, int64(1), claims.HostID)
}

func TestUserVerifyAndResend(t *testing.T) {
	exp := fixedNow.Add(time.Hour)
	fan := &models.User{ID: 5, HostID: 1, Email: "fan@mail.com", PasswordHash: "h:p", IsActive: true,
		VerificationCode: strPtr("222333"), VerificationCodeExpiresAt: &exp}
	users := newFakeUsers(fan)
	s, mailer := newTestUserService(users, false)
	ctx := context.Background()

	msg, err := s.ResendVerification(ctx, acmeHost(), "fan@mail.com")
	require.NoError(t, err)
	assert.Equal(t, MsgUserCodeSent, msg)
	assert.Len(t, mailer.sent, 1)

	msg, err = s.VerifyEmail(ctx, acmeHost(), "fan@mail.com", "222333")
	require.NoError(t, err)
	assert.Equal(t, MsgVerified, msg)

	msg, err = s.VerifyEmail(ctx, acmeHost(), "fan@mail.com", "999999")
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyVerified, msg)

	_, err = s.VerifyEmail(ctx, acmeHost(), "ghost@mail.com", "222333")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUserDeleteAccount(t *testing.T) {
	users := newFakeUsers(&models.User{ID: 5, HostID: 1, Email: "fan@mail.com"})
	s, _ := newTestUserService(users, false)

	require.NoError(t, s.DeleteAccount(context.Background(), 5))
	assert.Equal(t, []int64{5}, users.deleted)
}
