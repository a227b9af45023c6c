package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/libertyblog/api/config"
	"github.com/libertyblog/api/internal/domain/entity"
	repo "github.com/libertyblog/api/internal/domain/repository"
	"github.com/libertyblog/api/pkg/helpers"
	"github.com/libertyblog/api/pkg/mailer"
	tpl "github.com/libertyblog/api/pkg/mailer/templates"
)

// Publisher enqueues email jobs; satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// UserService implements the account lifecycle: registration with email
// confirmation, login with token issuance, password change and reset.
type UserService struct {
	Repo      repo.UserRepository
	Tokens    repo.TokenStore
	JWT       *helpers.JWTManager
	Redis     *redis.Client
	Pub       Publisher
	Logger    *logrus.Logger
	Cfg       *config.Config
	GCS       *storage.Client
	GCSBucket string
}

func NewUserService(r repo.UserRepository, tokens repo.TokenStore, jwt *helpers.JWTManager,
	rdb *redis.Client, pub Publisher, logger *logrus.Logger, cfg *config.Config,
	gcs *storage.Client, gcsBucket string) *UserService {
	return &UserService{
		Repo:      r,
		Tokens:    tokens,
		JWT:       jwt,
		Redis:     rdb,
		Pub:       pub,
		Logger:    logger,
		Cfg:       cfg,
		GCS:       gcs,
		GCSBucket: gcsBucket,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RegisterResult reports the created account and whether the confirmation
// email made it onto the queue. Registration succeeds either way; a
// failed enqueue is recoverable through ResendConfirmation.
type RegisterResult struct {
	User      *entity.User
	EmailSent bool
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates an Unverified-Active account and runs the
// post-creation steps in order: profile row, confirmation token,
// confirmation email.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := helpers.ValidatePasswordStrength(in.Password, in.Email, in.FirstName, in.LastName); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err)
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Email:      in.Email,
		Password:   hash,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		IsVerified: false,
		IsActive:   true,
	}
	if err := s.Repo.Create(u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.Repo.CreateProfile(&entity.UserProfile{UserID: u.ID}); err != nil {
		return nil, err
	}

	emailSent := true
	if err := s.sendConfirmation(ctx, u); err != nil {
		emailSent = false
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("confirmation email not enqueued")
	}
	return &RegisterResult{User: u, EmailSent: emailSent}, nil
}

func (s *UserService) sendConfirmation(ctx context.Context, u *entity.User) error {
	token, err := helpers.GenToken(32)
	if err != nil {
		return err
	}
	if err := s.Tokens.Save(ctx, repo.TokenConfirmEmail, token, u.ID, s.Cfg.ConfirmTokenTTL); err != nil {
		return err
	}
	if s.Pub == nil || !s.Cfg.MailSendEnabled {
		return errors.New("email sending disabled")
	}
	link := fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.Cfg.ConfirmEmailURL, "/"), u.ID, token)
	job := mailer.EmailJob{
		To:       u.Email,
		Template: tpl.ConfirmEmail,
		Data: map[string]any{
			"SiteName":    s.Cfg.SiteName,
			"FirstName":   u.FirstName,
			"ConfirmLink": link,
			"ExpiresIn":   s.Cfg.ConfirmTokenTTL.String(),
		},
	}
	return s.Pub.PublishJSON(ctx, job)
}

// ResendConfirmation issues a fresh confirmation token for an unverified
// account. It reports nothing about unknown emails so the endpoint cannot
// be used for enumeration.
func (s *UserService) ResendConfirmation(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(email)
	if err != nil || u == nil || u.IsVerified {
		return nil
	}
	if err := s.sendConfirmation(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("confirmation email not enqueued")
	}
	return nil
}

// ConfirmEmail redeems a confirmation token. The token is single use and
// must resolve to the uid in the link; on success verified and active are
// flipped together in one statement.
func (s *UserService) ConfirmEmail(ctx context.Context, uid, token string) error {
	stored, err := s.Tokens.Peek(ctx, repo.TokenConfirmEmail, token)
	if err != nil || stored != uid {
		return ErrInvalidToken
	}
	if _, err := s.Tokens.Consume(ctx, repo.TokenConfirmEmail, token); err != nil {
		// lost the race with a concurrent redeem
		return ErrInvalidToken
	}
	if err := s.Repo.Confirm(uid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Authenticate validates email/password and rejects unverified accounts.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, ErrEmailNotVerified
	}
	return u, nil
}

// IssueTokens generates an access/refresh pair and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.FullName(),
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

type LoginResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    bool   `json:"is_active"`
	IsVerified  bool   `json:"is_verified"`
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	resp := &LoginResponse{
		UserID:      u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
	}
	return resp, pair, nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	// Current session id must match the token's sid
	if s.Redis != nil {
		key := sessionKey(u.ID)
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	// Rotate session id and tokens
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		_, _ = pipe.Exec(ctx)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

// ChangePassword requires the current credential; the new password must
// differ and satisfy the strength policy. Any failure leaves the stored
// hash untouched.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.Repo.GetByID(userID)
	if err != nil || u == nil {
		return ErrNotFound
	}
	if !helpers.CompareHashAndPassword(u.Password, oldPassword) {
		return ErrWrongPassword
	}
	if oldPassword == newPassword {
		return ErrSamePassword
	}
	if err := helpers.ValidatePasswordStrength(newPassword, u.Email, u.FirstName, u.LastName); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err)
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(u.ID, hash)
}

// ResetInit issues a reset token and mails the link. Unknown emails are a
// silent no-op so the endpoint cannot be used for enumeration.
func (s *UserService) ResetInit(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(email)
	if err != nil || u == nil {
		return nil
	}
	token, err := helpers.GenToken(32)
	if err != nil {
		return err
	}
	if err := s.Tokens.Save(ctx, repo.TokenResetPwd, token, u.ID, s.Cfg.ResetTokenTTL); err != nil {
		return err
	}
	if s.Pub == nil || !s.Cfg.MailSendEnabled {
		return nil
	}
	link := s.Cfg.ResetPasswordURL + "?token=" + token
	job := mailer.EmailJob{
		To:       u.Email,
		Template: tpl.ResetPassword,
		Data: map[string]any{
			"SiteName":  s.Cfg.SiteName,
			"FirstName": u.FirstName,
			"Email":     u.Email,
			"ResetLink": link,
			"ExpiresIn": s.Cfg.ResetTokenTTL.String(),
		},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("reset email not enqueued")
	}
	return nil
}

// ResetConfirm redeems a reset token and sets the new password.
func (s *UserService) ResetConfirm(ctx context.Context, token, newPassword string) error {
	uid, err := s.Tokens.Consume(ctx, repo.TokenResetPwd, token)
	if err != nil {
		return ErrInvalidToken
	}
	u, err := s.Repo.GetByID(uid)
	if err != nil || u == nil {
		return ErrNotFound
	}
	if err := helpers.ValidatePasswordStrength(newPassword, u.Email, u.FirstName, u.LastName); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err)
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(u.ID, hash)
}

func (s *UserService) GetUser(userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *UserService) ListUsers(limit, offset int) ([]*entity.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(limit, offset)
}

func (s *UserService) GetProfile(userID string) (*entity.UserProfile, error) {
	p, err := s.Repo.GetProfile(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

type UpdateProfileInput struct {
	Bio    string
	Gender string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.UserProfile, error) {
	p, err := s.Repo.GetProfile(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	if in.Bio != "" {
		p.Bio = in.Bio
	}
	if in.Gender != "" {
		p.Gender = in.Gender
	}
	if err := s.Repo.UpdateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

// UploadAvatar stores the image in GCS and records the public URL on the
// profile.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	p, err := s.Repo.GetProfile(userID)
	if err != nil {
		return "", ErrNotFound
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, id+ext))
	url, err := helpers.UploadImageToGCS(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	p.AvatarURL = url
	if err := s.Repo.UpdateProfile(p); err != nil {
		return "", err
	}
	return url, nil
}
