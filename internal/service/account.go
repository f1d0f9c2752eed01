package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"note-board/internal/core/auth"
	"note-board/internal/domain"
	"note-board/internal/mail"
	"note-board/pkg/utils"
)

type AccountService struct {
	users   domain.UserRepository
	jwt     *auth.JWTer
	mailer  mail.Sender
	baseURL string
	log     *zap.Logger
}

func NewAccountService(users domain.UserRepository, j *auth.JWTer, m mail.Sender, baseURL string, l *zap.Logger) *AccountService {
	return &AccountService{
		users:   users,
		jwt:     j,
		mailer:  m,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     l.Named("account"),
	}
}

type RegisterInput struct {
	Email    string
	Password string
	UserName string
	Address  string
}

// Register 新账号默认加入 Users 角色，需确认邮箱后才能登录
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	u := &domain.User{
		UserName: strings.TrimSpace(in.UserName),
		Email:    email,
		Address:  strings.TrimSpace(in.Address),
	}
	if err := s.users.Create(ctx, u, in.Password); err != nil {
		return nil, err
	}
	if err := s.users.AddToRole(ctx, u, domain.RoleUsers); err != nil {
		return nil, err
	}
	u.Roles = []string{domain.RoleUsers}

	tok, err := s.jwt.IssueConfirm(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue confirm token: %w", err)
	}
	link := s.baseURL + "/api/v1/auth/confirm?token=" + url.QueryEscape(tok)
	if err := s.mailer.SendConfirmEmail(ctx, u.Email, link); err != nil {
		// 账号已创建，邮件失败不回滚
		s.log.Error("send confirm email failed", zap.String("email", u.Email), zap.Error(err))
	}
	s.log.Info("account registered", zap.String("id", u.ID), zap.String("email", u.Email))
	return u, nil
}

func (s *AccountService) ConfirmEmail(ctx context.Context, token string) error {
	c, err := s.jwt.ParseConfirm(token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return s.users.ConfirmEmail(ctx, c.UID)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !u.EmailConfirmed {
		return "", nil, domain.ErrEmailNotConfirmed
	}
	roles, err := s.users.RoleNames(ctx, u.ID)
	if err != nil {
		return "", nil, err
	}
	u.Roles = roles
	tok, err := s.jwt.Issue(u.ID, roles)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return tok, u, nil
}

func (s *AccountService) Me(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	if u.Roles, err = s.users.RoleNames(ctx, uid); err != nil {
		return nil, err
	}
	return u, nil
}
