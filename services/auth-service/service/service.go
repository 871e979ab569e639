// Package service implements the identity provider: accounts, sessions and
// logout.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"village-registry-system/pkg/middleware"
	"village-registry-system/pkg/sentinel"
	"village-registry-system/services/auth-service/models"
	"village-registry-system/services/auth-service/utils"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,Revoker

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByID(ctx context.Context, id string) (*models.User, error)
}

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotAdmin           = errors.New("account is not an administrator")
)

// InputError is a rejected request field.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	minAdminPassword = 6
	minPassword      = 8
	maxPassword      = 100
)

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	NIK      string `json:"nik"`
	Phone    string `json:"phone"`
}

// Session is a signed-in user and the token proving it.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type Service struct {
	users       UserStore
	issuer      *utils.Issuer
	revoker     Revoker
	adminDomain string
	log         *zap.Logger
	now         func() time.Time
}

func New(users UserStore, issuer *utils.Issuer, revoker Revoker, adminDomain string, log *zap.Logger) *Service {
	return &Service{
		users:       users,
		issuer:      issuer,
		revoker:     revoker,
		adminDomain: strings.TrimPrefix(adminDomain, "@"),
		log:         log,
		now:         time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, &InputError{"Email, Password, and Name are required"}
	}
	if !emailRegex.MatchString(in.Email) {
		return nil, &InputError{"Invalid email format"}
	}
	if len(in.Password) < minPassword {
		return nil, &InputError{fmt.Sprintf("Password must be at least %d characters", minPassword)}
	}
	if len(in.Password) > maxPassword {
		return nil, &InputError{"Password too long"}
	}
	if len(in.Name) < 3 {
		return nil, &InputError{"Name must be at least 3 characters"}
	}
	if in.NIK != "" && !validNIK(in.NIK) {
		return nil, &InputError{"NIK must be 16 digits"}
	}

	if _, err := s.users.ByEmail(ctx, in.Email); err == nil {
		s.log.Warn("[WARN] registration attempt with existing email")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &models.User{
		Email:    in.Email,
		Password: hash,
		Name:     in.Name,
		Phone:    in.Phone,
		Role:     models.RoleCitizen,
	}
	if in.NIK != "" {
		nik := in.NIK
		u.NIK = &nik
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.log.Info("[OK] user registered", zap.String("user_id", u.ID))
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, &InputError{"Email and Password are required"}
	}
	u, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.log.Warn("[WARN] failed login attempt")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		s.log.Warn("[WARN] invalid password attempt", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}
	s.log.Info("[OK] user logged in", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return s.session(u)
}

// AdminLogin signs in an administrator by username. The username maps to
// the account <username>@<admin domain>.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (*Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, &InputError{"Username is required"}
	}
	if len(password) < minAdminPassword {
		return nil, &InputError{fmt.Sprintf("Password must be at least %d characters", minAdminPassword)}
	}
	sess, err := s.Login(ctx, s.AdminEmail(username), password)
	if err != nil {
		return nil, err
	}
	if sess.User.Role != models.RoleAdmin {
		return nil, ErrNotAdmin
	}
	return sess, nil
}

func (s *Service) AdminEmail(username string) string {
	return strings.ToLower(strings.TrimSpace(username)) + "@" + s.adminDomain
}

// Logout revokes the token described by claims until it would expire.
func (s *Service) Logout(ctx context.Context, claims *middleware.UserClaims) error {
	if claims.ID == "" {
		return nil
	}
	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	s.log.Info("[OK] user logged out", zap.String("user_id", claims.UserID))
	return nil
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.users.ByID(ctx, userID)
}

// EnsureAdmin creates the administrator account for username when it does
// not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if len(password) < minAdminPassword {
		return &InputError{fmt.Sprintf("admin password must be at least %d characters", minAdminPassword)}
	}
	email := s.AdminEmail(username)
	_, err := s.users.ByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u := &models.User{Email: email, Password: hash, Name: username, Role: models.RoleAdmin}
	if err := s.users.Create(ctx, u); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return err
	}
	s.log.Info("[OK] admin account created", zap.String("email", email))
	return nil
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, claims, err := s.issuer.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

func validNIK(nik string) bool {
	if len(nik) != 16 {
		return false
	}
	for _, c := range nik {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
