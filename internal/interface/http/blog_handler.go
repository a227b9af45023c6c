package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/libertyblog/api/internal/application"
	"github.com/libertyblog/api/internal/domain/entity"
	"github.com/libertyblog/api/internal/domain/repository"
	"github.com/libertyblog/api/pkg/response"
	"github.com/libertyblog/api/pkg/validation"
)

type BlogHandler struct {
	Svc    *application.BlogService
	Logger *logrus.Logger
}

func NewBlogHandler(svc *application.BlogService, logger *logrus.Logger) *BlogHandler {
	return &BlogHandler{Svc: svc, Logger: logger}
}

func blogJSON(b *entity.Blog) gin.H {
	return gin.H{
		"id":         b.ID,
		"title":      b.Title,
		"content":    b.Content,
		"author":     b.AuthorID,
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}
}

type blogRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required"`
}

type blogPatchRequest struct {
	Title   string `json:"title" binding:"omitempty,max=200"`
	Content string `json:"content"`
}

// List GET /api/blogs?order=title|created_at|updated_at&dir=asc|desc
func (h *BlogHandler) List(c *gin.Context) {
	uid := c.GetString("userID")
	opts := repository.BlogListOptions{
		OrderBy:    c.DefaultQuery("order", "created_at"),
		Descending: c.DefaultQuery("dir", "asc") == "desc",
		Limit:      intQuery(c, "limit", 20),
		Offset:     intQuery(c, "offset", 0),
	}
	blogs, err := h.Svc.List(c.Request.Context(), uid, opts)
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to list blogs", nil)
		return
	}
	out := make([]gin.H, 0, len(blogs))
	for _, b := range blogs {
		out = append(out, blogJSON(b))
	}
	response.Success(c, http.StatusOK, out, "blogs", gin.H{"limit": opts.Limit, "offset": opts.Offset})
}

// Get GET /api/blogs/:id
func (h *BlogHandler) Get(c *gin.Context) {
	uid := c.GetString("userID")
	b, err := h.Svc.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, blogJSON(b), "blog", nil)
}

// Create POST /api/blogs — author is always the authenticated actor.
func (h *BlogHandler) Create(c *gin.Context) {
	uid := c.GetString("userID")
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	b, err := h.Svc.Create(c.Request.Context(), uid, application.BlogInput{Title: req.Title, Content: req.Content})
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to create blog", nil)
		return
	}
	response.Success(c, http.StatusCreated, blogJSON(b), "blog created", nil)
}

// Update PUT/PATCH /api/blogs/:id — owner only (staff override).
func (h *BlogHandler) Update(c *gin.Context) {
	uid := c.GetString("userID")
	var req blogPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	b, err := h.Svc.Update(c.Request.Context(), uid, c.Param("id"), application.BlogInput{Title: req.Title, Content: req.Content})
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, blogJSON(b), "blog updated", nil)
}

// Delete DELETE /api/blogs/:id
func (h *BlogHandler) Delete(c *gin.Context) {
	uid := c.GetString("userID")
	if err := h.Svc.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "blog deleted", nil)
}

type shareRequest struct {
	Blog       string `json:"blog" binding:"required,uuid"`
	SharedWith string `json:"shared_with" binding:"required,uuid"`
	// An owner field in the body is accepted and ignored; the owner is
	// always the authenticated actor.
	Owner string `json:"owner"`
}

// Share POST /api/share
func (h *BlogHandler) Share(c *gin.Context) {
	uid := c.GetString("userID")
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	g, err := h.Svc.Share(c.Request.Context(), uid, req.Blog, req.SharedWith)
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"id":          g.ID,
		"owner":       g.OwnerID,
		"shared_with": g.SharedWith,
		"blog":        g.BlogID,
	}, "blog shared", nil)
}

// SharedWithMe GET /api/shared-blogs
func (h *BlogHandler) SharedWithMe(c *gin.Context) {
	uid := c.GetString("userID")
	shared, err := h.Svc.SharedWithMe(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to list shared blogs", nil)
		return
	}
	out := make([]gin.H, 0, len(shared))
	for _, sb := range shared {
		out = append(out, gin.H{
			"owner":       sb.Sharing.OwnerID,
			"shared_with": sb.Sharing.SharedWith,
			"blog":        blogJSON(&sb.Blog),
		})
	}
	response.Success(c, http.StatusOK, out, "shared blogs", nil)
}

// AuthorsWithAccess GET /api/authors-with-access
func (h *BlogHandler) AuthorsWithAccess(c *gin.Context) {
	uid := c.GetString("userID")
	grantees, err := h.Svc.AuthorsWithAccess(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to list grantees", nil)
		return
	}
	out := make([]gin.H, 0, len(grantees))
	for _, g := range grantees {
		out = append(out, gin.H{
			"email":      g.Email,
			"first_name": g.FirstName,
			"last_name":  g.LastName,
			"blog":       g.BlogID,
			"blog_title": g.BlogTitle,
		})
	}
	response.Success(c, http.StatusOK, out, "authors with access", nil)
}

// Search GET /api/blogs/search?q=
func (h *BlogHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	hits, err := h.Svc.Search(c.Request.Context(), q, intQuery(c, "size", 10))
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}
