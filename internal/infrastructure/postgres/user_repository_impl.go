package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/libertyblog/api/internal/domain/entity"
	"github.com/libertyblog/api/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, password, first_name, last_name,
	is_verified, is_active, is_staff, is_superuser, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.IsVerified, &u.IsActive, &u.IsStaff, &u.IsSuperuser,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(u *entity.User) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password, first_name, last_name,
			is_verified, is_active, is_staff, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.FirstName, u.LastName,
		u.IsVerified, u.IsActive, u.IsStaff, u.IsSuperuser)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(id string) (*entity.User, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) Update(u *entity.User) error {
	ctx := context.Background()
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3,
			is_verified = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`, u.Email, u.FirstName, u.LastName, u.IsVerified, u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(id, passwordHash string) error {
	res, err := r.pool.Exec(context.Background(), `
		UPDATE users SET password = $1, updated_at = now() WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Confirm flips both flags in one UPDATE; the row is never visible
// half-confirmed.
func (r *UserRepository) Confirm(id string) error {
	res, err := r.pool.Exec(context.Background(), `
		UPDATE users SET is_verified = true, is_active = true, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(limit, offset int) ([]*entity.User, error) {
	rows, err := r.pool.Query(context.Background(), `
		SELECT `+userColumns+` FROM users
		WHERE is_staff = false AND is_superuser = false
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) CreateProfile(p *entity.UserProfile) error {
	_, err := r.pool.Exec(context.Background(), `
		INSERT INTO user_profiles (user_id, bio, gender, avatar_url, published_posts)
		VALUES ($1, $2, $3, $4, $5)
	`, p.UserID, p.Bio, p.Gender, p.AvatarURL, p.PublishedPosts)
	return err
}

func (r *UserRepository) GetProfile(userID string) (*entity.UserProfile, error) {
	p := &entity.UserProfile{}
	err := r.pool.QueryRow(context.Background(), `
		SELECT user_id, bio, gender, avatar_url, published_posts
		FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Bio, &p.Gender, &p.AvatarURL, &p.PublishedPosts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *UserRepository) UpdateProfile(p *entity.UserProfile) error {
	res, err := r.pool.Exec(context.Background(), `
		UPDATE user_profiles SET bio = $1, gender = $2, avatar_url = $3
		WHERE user_id = $4
	`, p.Bio, p.Gender, p.AvatarURL, p.UserID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddPublishedPosts(userID string, delta int) error {
	_, err := r.pool.Exec(context.Background(), `
		UPDATE user_profiles
		SET published_posts = greatest(published_posts + $1, 0)
		WHERE user_id = $2
	`, delta, userID)
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
