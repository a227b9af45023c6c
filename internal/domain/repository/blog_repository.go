package repository

import "github.com/libertyblog/api/internal/domain/entity"

// BlogListOptions controls filtering, ordering and paging of blog lists.
// OrderBy must be one of "title", "created_at", "updated_at"; anything
// else falls back to created_at.
type BlogListOptions struct {
	ActiveAuthorsOnly bool
	OrderBy           string
	Descending        bool
	Limit             int
	Offset            int
}

// SharedBlog is a grant joined with the blog it covers, for the
// "shared with me" listing.
type SharedBlog struct {
	Sharing entity.BlogSharing
	Blog    entity.Blog
}

// GranteeAccess exposes who can read one of the owner's blogs.
type GranteeAccess struct {
	Email     string
	FirstName string
	LastName  string
	BlogID    string
	BlogTitle string
}

// BlogRepository defines persistence for blogs and the sharing ledger.
type BlogRepository interface {
	Create(b *entity.Blog) error
	GetByID(id string) (*entity.Blog, error)
	Update(b *entity.Blog) error
	Delete(id string) error
	List(opts BlogListOptions) ([]*entity.Blog, error)

	CreateSharing(g *entity.BlogSharing) error
	HasGrant(blogID, userID string) (bool, error)
	ListSharedWith(userID string) ([]SharedBlog, error)
	ListGrantees(ownerID string) ([]GranteeAccess, error)
}
