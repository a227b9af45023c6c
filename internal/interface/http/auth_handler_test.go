package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libertyblog/api/config"
	"github.com/libertyblog/api/internal/application"
	"github.com/libertyblog/api/internal/domain/entity"
	repo "github.com/libertyblog/api/internal/domain/repository"
	"github.com/libertyblog/api/pkg/helpers"
	"github.com/libertyblog/api/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type memUserRepo struct {
	mu       sync.Mutex
	users    map[string]*entity.User
	profiles map[string]*entity.UserProfile
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}, profiles: map[string]*entity.UserProfile{}}
}

func (m *memUserRepo) Create(u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.users {
		if ex.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserRepo) GetByID(id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByEmail(email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUserRepo) Update(u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserRepo) UpdatePassword(id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (m *memUserRepo) Confirm(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.IsVerified = true
	u.IsActive = true
	return nil
}

func (m *memUserRepo) List(limit, offset int) ([]*entity.User, error) { return nil, nil }

func (m *memUserRepo) CreateProfile(p *entity.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memUserRepo) GetProfile(userID string) (*entity.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memUserRepo) UpdateProfile(p *entity.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memUserRepo) AddPublishedPosts(userID string, delta int) error { return nil }

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemTokenStore() *memTokenStore { return &memTokenStore{tokens: map[string]string{}} }

func (m *memTokenStore) Save(ctx context.Context, kind, token, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[kind+token] = userID
	return nil
}

func (m *memTokenStore) Peek(ctx context.Context, kind, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.tokens[kind+token]
	if !ok {
		return "", errors.New("not found")
	}
	return uid, nil
}

func (m *memTokenStore) Consume(ctx context.Context, kind, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.tokens[kind+token]
	if !ok {
		return "", errors.New("not found")
	}
	delete(m.tokens, kind+token)
	return uid, nil
}

func (m *memTokenStore) lastToken(kind string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.tokens {
		if len(k) > len(kind) && k[:len(kind)] == kind {
			return k[len(kind):]
		}
	}
	return ""
}

type dropPublisher struct{}

func (dropPublisher) PublishJSON(ctx context.Context, body any) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *memUserRepo, *memTokenStore) {
	t.Helper()
	users := newMemUserRepo()
	tokens := newMemTokenStore()
	cfg := &config.Config{
		SiteName:         "Liberty Blog",
		ConfirmEmailURL:  "http://localhost/confirm-email",
		ResetPasswordURL: "http://localhost/reset-password",
		ConfirmTokenTTL:  24 * time.Hour,
		ResetTokenTTL:    30 * time.Minute,
		MailSendEnabled:  true,
		CookieDomain:     "localhost",
	}
	jwt := helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
	svc := application.NewUserService(users, tokens, jwt, nil, dropPublisher{}, logrus.New(), cfg, nil, "")
	h := NewAuthHandler(svc, logrus.New(), cfg, nil)

	r := gin.New()
	r.POST("/api/register", h.Register)
	r.POST("/api/login", h.Login)
	r.POST("/api/confirm_email/:uid/:token", h.ConfirmEmail)
	r.POST("/api/password_reset", h.ResetInit)
	r.POST("/api/password_reset/confirm", h.ResetConfirm)
	return r, users, tokens
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRegisterEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
		"email":      "maya@example.com",
		"password":   "orchid-lantern-42",
		"first_name": "Maya",
		"last_name":  "Reed",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "maya@example.com", data["email"])
	assert.Equal(t, false, data["is_verified"])
	assert.Equal(t, true, data["is_active"])
	assert.Equal(t, true, data["email_sent"])
}

func TestRegisterValidation(t *testing.T) {
	r, _, _ := newTestRouter(t)

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/register", gin.H{"email": "maya@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad email", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
			"email":      "not-an-email",
			"password":   "orchid-lantern-42",
			"first_name": "Maya",
			"last_name":  "Reed",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		payload := gin.H{
			"email":      "dupe@example.com",
			"password":   "orchid-lantern-42",
			"first_name": "Maya",
			"last_name":  "Reed",
		}
		w := doJSON(t, r, http.MethodPost, "/api/register", payload)
		require.Equal(t, http.StatusCreated, w.Code)
		w = doJSON(t, r, http.MethodPost, "/api/register", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginRequiresConfirmedEmail(t *testing.T) {
	r, _, tokens := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
		"email":      "maya@example.com",
		"password":   "orchid-lantern-42",
		"first_name": "Maya",
		"last_name":  "Reed",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	uid := data["id"].(string)

	login := gin.H{"email": "maya@example.com", "password": "orchid-lantern-42"}

	w = doJSON(t, r, http.MethodPost, "/api/login", login)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "unverified account cannot log in")

	token := tokens.lastToken(repo.TokenConfirmEmail)
	require.NotEmpty(t, token)
	w = doJSON(t, r, http.MethodPost, "/api/confirm_email/"+uid+"/"+token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/login", login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	loginData := body["data"].(map[string]any)
	assert.NotEmpty(t, loginData["access"])
	assert.NotEmpty(t, loginData["refresh"])

	cookies := w.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "access_token")
	assert.Contains(t, names, "refresh_token")
}

func TestConfirmEmailEndpointRejectsBadToken(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/confirm_email/"+uuid.NewString()+"/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	r, _, tokens := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
		"email":      "maya@example.com",
		"password":   "orchid-lantern-42",
		"first_name": "Maya",
		"last_name":  "Reed",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// init always answers 200, known address or not
	w = doJSON(t, r, http.MethodPost, "/api/password_reset", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/password_reset", gin.H{"email": "maya@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	token := tokens.lastToken(repo.TokenResetPwd)
	require.NotEmpty(t, token)

	w = doJSON(t, r, http.MethodPost, "/api/password_reset/confirm", gin.H{
		"token":        token,
		"new_password": "velvet-compass-77",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/password_reset/confirm", gin.H{
		"token":        token,
		"new_password": "another-phrase-81",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "token is single use")
}
