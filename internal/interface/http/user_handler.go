package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/libertyblog/api/internal/application"
	"github.com/libertyblog/api/internal/domain/entity"
	"github.com/libertyblog/api/pkg/response"
	"github.com/libertyblog/api/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

func userJSON(u *entity.User) gin.H {
	return gin.H{
		"id":          u.ID,
		"email":       u.Email,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"is_staff":    u.IsStaff,
		"is_active":   u.IsActive,
		"is_verified": u.IsVerified,
		"created_at":  u.CreatedAt,
	}
}

func profileJSON(p *entity.UserProfile) gin.H {
	return gin.H{
		"bio":             p.Bio,
		"gender":          p.Gender,
		"avatar_url":      p.AvatarURL,
		"published_posts": p.PublishedPosts,
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	if v := c.Query(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// List GET /api/users — staff only, excludes staff/superuser accounts.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.ListUsers(intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to list users", nil)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	response.Success(c, http.StatusOK, out, "users", gin.H{"limit": intQuery(c, "limit", 20), "offset": intQuery(c, "offset", 0)})
}

// Get GET /api/users/:id — user with embedded profile.
func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.GetUser(c.Param("id"))
	if err != nil {
		response.Error[any](c, statusFor(err), "user not found", nil)
		return
	}
	data := userJSON(u)
	if p, err := h.Svc.GetProfile(u.ID); err == nil {
		data["user_profile"] = profileJSON(p)
	} else {
		data["user_profile"] = nil
	}
	response.Success(c, http.StatusOK, data, "user", nil)
}

// GetProfile GET /api/profile — the actor's own record and profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetUser(uid)
	if err != nil {
		response.Error[any](c, statusFor(err), "user not found", nil)
		return
	}
	data := userJSON(u)
	if p, err := h.Svc.GetProfile(uid); err == nil {
		data["user_profile"] = profileJSON(p)
	}
	response.Success(c, http.StatusOK, data, "profile", nil)
}

type updateProfileRequest struct {
	Bio    string `json:"bio" binding:"max=500"`
	Gender string `json:"gender" binding:"omitempty,oneof=male female"`
}

// UpdateProfile PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{Bio: req.Bio, Gender: req.Gender})
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to update profile", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(p), "profile updated", nil)
}

// UploadAvatar POST /api/profile/avatar — multipart form field "avatar".
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString("userID")
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		response.Error[any](c, statusFor(err), "avatar upload failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar uploaded", nil)
}
