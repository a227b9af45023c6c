package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libertyblog/api/internal/domain/entity"
	"github.com/libertyblog/api/internal/domain/repository"
)

type BlogRepository struct {
	pool *pgxpool.Pool
}

func NewBlogRepository(pool *pgxpool.Pool) *BlogRepository {
	return &BlogRepository{pool: pool}
}

func (r *BlogRepository) Create(b *entity.Blog) error {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO blogs (title, content, author_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, b.Title, b.Content, b.AuthorID)
	return row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BlogRepository) GetByID(id string) (*entity.Blog, error) {
	b := &entity.Blog{}
	err := r.pool.QueryRow(context.Background(), `
		SELECT id, title, content, author_id, created_at, updated_at
		FROM blogs WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BlogRepository) Update(b *entity.Blog) error {
	b.UpdatedAt = time.Now()
	res, err := r.pool.Exec(context.Background(), `
		UPDATE blogs SET title = $1, content = $2, updated_at = $3 WHERE id = $4
	`, b.Title, b.Content, b.UpdatedAt, b.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *BlogRepository) Delete(id string) error {
	res, err := r.pool.Exec(context.Background(), `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// orderColumn whitelists client-selectable sort columns.
func orderColumn(name string) string {
	switch name {
	case "title", "created_at", "updated_at":
		return name
	}
	return "created_at"
}

func (r *BlogRepository) List(opts repository.BlogListOptions) ([]*entity.Blog, error) {
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT b.id, b.title, b.content, b.author_id, b.created_at, b.updated_at
		FROM blogs b
		JOIN users u ON u.id = b.author_id`
	if opts.ActiveAuthorsOnly {
		q += `
		WHERE u.is_active = true`
	}
	q += `
		ORDER BY b.` + orderColumn(opts.OrderBy) + ` ` + dir + `
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(context.Background(), q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Blog
	for rows.Next() {
		b := &entity.Blog{}
		if err := rows.Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BlogRepository) CreateSharing(g *entity.BlogSharing) error {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO blog_sharing (owner_id, shared_with_id, blog_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, g.OwnerID, g.SharedWith, g.BlogID)
	return row.Scan(&g.ID, &g.CreatedAt)
}

func (r *BlogRepository) HasGrant(blogID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(context.Background(), `
		SELECT EXISTS (
			SELECT 1 FROM blog_sharing WHERE blog_id = $1 AND shared_with_id = $2
		)
	`, blogID, userID).Scan(&exists)
	return exists, err
}

func (r *BlogRepository) ListSharedWith(userID string) ([]repository.SharedBlog, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT s.id, s.owner_id, s.shared_with_id, s.blog_id, s.created_at,
			b.id, b.title, b.content, b.author_id, b.created_at, b.updated_at
		FROM blog_sharing s
		JOIN blogs b ON b.id = s.blog_id
		WHERE s.shared_with_id = $1
		ORDER BY s.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.SharedBlog
	for rows.Next() {
		var sb repository.SharedBlog
		if err := rows.Scan(&sb.Sharing.ID, &sb.Sharing.OwnerID, &sb.Sharing.SharedWith,
			&sb.Sharing.BlogID, &sb.Sharing.CreatedAt,
			&sb.Blog.ID, &sb.Blog.Title, &sb.Blog.Content, &sb.Blog.AuthorID,
			&sb.Blog.CreatedAt, &sb.Blog.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sb)
	}
	return out, rows.Err()
}

func (r *BlogRepository) ListGrantees(ownerID string) ([]repository.GranteeAccess, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT u.email, u.first_name, u.last_name, b.id, b.title
		FROM blog_sharing s
		JOIN users u ON u.id = s.shared_with_id
		JOIN blogs b ON b.id = s.blog_id
		WHERE b.author_id = $1
		ORDER BY s.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.GranteeAccess
	for rows.Next() {
		var g repository.GranteeAccess
		if err := rows.Scan(&g.Email, &g.FirstName, &g.LastName, &g.BlogID, &g.BlogTitle); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

var _ repository.BlogRepository = (*BlogRepository)(nil)
