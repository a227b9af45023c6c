package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/libertyblog/api/config"
	"github.com/libertyblog/api/internal/application"
	"github.com/libertyblog/api/pkg/helpers"
	"github.com/libertyblog/api/pkg/response"
	"github.com/libertyblog/api/pkg/validation"
)

// AuthHandler serves registration, email confirmation, login/refresh and
// the password flows.
type AuthHandler struct {
	Svc     *application.UserService
	Logger  *logrus.Logger
	Cfg     *config.Config
	DB      *pgxpool.Pool
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.UserService, logger *logrus.Logger, cfg *config.Config, db *pgxpool.Pool) *AuthHandler {
	return &AuthHandler{
		Svc:     svc,
		Logger:  logger,
		Cfg:     cfg,
		DB:      db,
		Cookies: helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
	}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// audit records an auth event; failures are ignored, the request must not
// depend on the audit trail.
func (h *AuthHandler) audit(c *gin.Context, userID, email, action string, metadata map[string]any) {
	if h.DB == nil {
		return
	}
	md, _ := json.Marshal(metadata)
	_, _ = h.DB.Exec(context.Background(), `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata)
		VALUES (NULLIF($1, '')::uuid, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`, userID, email, action, clientIP(c), c.GetHeader("User-Agent"), md)
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
}

// Register POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, res.User.ID, res.User.Email, "register", map[string]any{"email_sent": res.EmailSent})
	response.Success(c, http.StatusCreated, gin.H{
		"id":          res.User.ID,
		"email":       res.User.Email,
		"first_name":  res.User.FirstName,
		"last_name":   res.User.LastName,
		"is_verified": res.User.IsVerified,
		"is_active":   res.User.IsActive,
		"email_sent":  res.EmailSent,
	}, "registration successful", nil)
}

// ConfirmEmail POST /api/confirm_email/:uid/:token
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	uid := c.Param("uid")
	token := c.Param("token")
	if err := h.Svc.ConfirmEmail(c.Request.Context(), uid, token); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, uid, "", "confirm_email", nil)
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email confirmation successful", nil)
}

type resendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendConfirmation POST /api/confirm_email/resend
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResendConfirmation(c.Request.Context(), req.Email); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "resend failed", nil)
		return
	}
	h.audit(c, "", req.Email, "resend_confirmation", nil)
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "confirmation email sent if the account exists", nil)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.audit(c, "", req.Email, "login_failed", nil)
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, res.UserID, res.Email, "login", nil)
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"user":    res,
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	}, "login successful", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh POST /api/token/refresh — token from body or cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.Refresh
	if token == "" {
		token, _ = c.Cookie("refresh_token")
	}
	if token == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, uid, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.audit(c, uid, "", "token_refresh", nil)
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	}, "token refreshed", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Logout POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

// ChangePassword PUT /api/change_password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	uid := c.GetString("userID")
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, uid, "", "change_password", nil)
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password changed successfully", nil)
}

// ResetInit POST /api/password_reset
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetInit(c.Request.Context(), req.Email); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "reset failed", nil)
		return
	}
	h.audit(c, "", req.Email, "reset_init", nil)
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "reset email sent if the account exists", nil)
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

// ResetConfirm POST /api/password_reset/confirm
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetConfirm(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.audit(c, "", "", "reset_confirm", map[string]any{"token": "redacted"})
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
