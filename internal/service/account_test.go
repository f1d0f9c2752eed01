package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"note-board/internal/core/auth"
	"note-board/internal/domain"
	"note-board/pkg/utils"
)

type stubUserRepo struct {
	byEmail map[string]*domain.User
	roles   map[string][]string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*domain.User{}, roles: map[string][]string{}}
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[domain.Normalize(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User, password string) error {
	if err := utils.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	h, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	u.ID = "id-" + u.Email
	u.PasswordHash = h
	if u.UserName == "" {
		u.UserName = u.Email
	}
	cp := *u
	r.byEmail[domain.Normalize(u.Email)] = &cp
	return nil
}

func (r *stubUserRepo) AddToRole(_ context.Context, u *domain.User, role string) error {
	r.roles[u.ID] = append(r.roles[u.ID], role)
	return nil
}

func (r *stubUserRepo) RoleNames(_ context.Context, id string) ([]string, error) {
	return r.roles[id], nil
}

func (r *stubUserRepo) ConfirmEmail(_ context.Context, id string) error {
	for _, u := range r.byEmail {
		if u.ID == id {
			u.EmailConfirmed = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stubUserRepo) List(context.Context, int, int, string, bool) ([]domain.User, int64, error) {
	return nil, 0, nil
}

func (r *stubUserRepo) SoftDelete(context.Context, string) error { return nil }

type recordingMailer struct {
	to, link string
	err      error
}

func (m *recordingMailer) SendConfirmEmail(_ context.Context, to, link string) error {
	m.to, m.link = to, link
	return m.err
}

func newAccountService(repo *stubUserRepo, m *recordingMailer) *AccountService {
	j := &auth.JWTer{Secret: []byte("secret"), Issuer: "test", TTL: time.Hour}
	return NewAccountService(repo, j, m, "http://localhost:8080/", zap.NewNop())
}

func confirmToken(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestRegister_ConfirmThenLogin(t *testing.T) {
	repo, m := newStubUserRepo(), &recordingMailer{}
	svc := newAccountService(repo, m)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "bob@a.com", Password: "Pa$$w0rd", Address: "Busan"})
	require.NoError(t, err)
	assert.False(t, u.EmailConfirmed)
	assert.Equal(t, []string{domain.RoleUsers}, u.Roles)
	assert.Equal(t, "bob@a.com", m.to)
	assert.True(t, strings.HasPrefix(m.link, "http://localhost:8080/api/v1/auth/confirm?token="))

	_, _, err = svc.Login(ctx, "bob@a.com", "Pa$$w0rd")
	assert.ErrorIs(t, err, domain.ErrEmailNotConfirmed)

	require.NoError(t, svc.ConfirmEmail(ctx, confirmToken(t, m.link)))

	tok, got, err := svc.Login(ctx, "bob@a.com", "Pa$$w0rd")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, []string{domain.RoleUsers}, got.Roles)

	me, err := svc.Me(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Busan", me.Address)
}

func TestRegister_Duplicate(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), &recordingMailer{})
	_, err := svc.Register(context.Background(), RegisterInput{Email: "bob@a.com", Password: "Pa$$w0rd"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), RegisterInput{Email: "BOB@a.com", Password: "Pa$$w0rd"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), &recordingMailer{})
	_, err := svc.Register(context.Background(), RegisterInput{Email: "bob@a.com", Password: "123"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAccountService(repo, &recordingMailer{err: errors.New("smtp down")})
	u, err := svc.Register(context.Background(), RegisterInput{Email: "bob@a.com", Password: "Pa$$w0rd"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), &recordingMailer{})
	_, _, err := svc.Login(context.Background(), "ghost@a.com", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "bob@a.com", Password: "Pa$$w0rd"})
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "bob@a.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestConfirmEmail_BadToken(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), &recordingMailer{})
	assert.ErrorIs(t, svc.ConfirmEmail(context.Background(), "garbage"), domain.ErrValidation)
}

func TestMe_NotFound(t *testing.T) {
	svc := newAccountService(newStubUserRepo(), &recordingMailer{})
	_, err := svc.Me(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
