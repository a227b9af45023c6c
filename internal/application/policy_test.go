package application

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libertyblog/api/internal/domain/entity"
	repo "github.com/libertyblog/api/internal/domain/repository"
)

type fakeBlogRepo struct {
	mu       sync.Mutex
	blogs    map[string]*entity.Blog
	grants   []entity.BlogSharing
	lastOpts repo.BlogListOptions
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{blogs: map[string]*entity.Blog{}}
}

func (f *fakeBlogRepo) Create(b *entity.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	f.blogs[b.ID] = &cp
	return nil
}

func (f *fakeBlogRepo) GetByID(id string) (*entity.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blogs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBlogRepo) Update(b *entity.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blogs[b.ID]; !ok {
		return repo.ErrNotFound
	}
	b.UpdatedAt = time.Now()
	cp := *b
	f.blogs[b.ID] = &cp
	return nil
}

func (f *fakeBlogRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blogs[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.blogs, id)
	return nil
}

func (f *fakeBlogRepo) List(opts repo.BlogListOptions) ([]*entity.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts
	var out []*entity.Blog
	for _, b := range f.blogs {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeBlogRepo) CreateSharing(g *entity.BlogSharing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt = time.Now()
	f.grants = append(f.grants, *g)
	return nil
}

func (f *fakeBlogRepo) HasGrant(blogID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grants {
		if g.BlogID == blogID && g.SharedWith == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlogRepo) ListSharedWith(userID string) ([]repo.SharedBlog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repo.SharedBlog
	for _, g := range f.grants {
		if g.SharedWith != userID {
			continue
		}
		if b, ok := f.blogs[g.BlogID]; ok {
			out = append(out, repo.SharedBlog{Sharing: g, Blog: *b})
		}
	}
	return out, nil
}

func (f *fakeBlogRepo) ListGrantees(ownerID string) ([]repo.GranteeAccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repo.GranteeAccess
	for _, g := range f.grants {
		if g.OwnerID != ownerID {
			continue
		}
		title := ""
		if b, ok := f.blogs[g.BlogID]; ok {
			title = b.Title
		}
		out = append(out, repo.GranteeAccess{BlogID: g.BlogID, BlogTitle: title})
	}
	return out, nil
}

func seedUser(t *testing.T, users *fakeUserRepo, mutate func(*entity.User)) *entity.User {
	t.Helper()
	u := &entity.User{
		Email:      uuid.NewString() + "@example.com",
		IsVerified: true,
		IsActive:   true,
	}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, users.Create(u))
	require.NoError(t, users.CreateProfile(&entity.UserProfile{UserID: u.ID}))
	return u
}

func seedBlog(t *testing.T, blogs *fakeBlogRepo, author *entity.User) *entity.Blog {
	t.Helper()
	b := &entity.Blog{Title: "field notes", Content: "on rivers", AuthorID: author.ID}
	require.NoError(t, blogs.Create(b))
	return b
}

func TestPolicyRead(t *testing.T) {
	users := newFakeUserRepo()
	blogs := newFakeBlogRepo()
	policy := NewPolicy(users, blogs)

	author := seedUser(t, users, nil)
	reader := seedUser(t, users, nil)
	staff := seedUser(t, users, func(u *entity.User) { u.IsStaff = true })
	blog := seedBlog(t, blogs, author)

	t.Run("anyone reads an active author", func(t *testing.T) {
		ok, err := policy.Can(reader, blog, ActionRead)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("author always reads own blog", func(t *testing.T) {
		ok, err := policy.Can(author, blog, ActionRead)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("inactive author hides the blog", func(t *testing.T) {
		author.IsActive = false
		require.NoError(t, users.Update(author))
		defer func() {
			author.IsActive = true
			require.NoError(t, users.Update(author))
		}()

		ok, err := policy.Can(reader, blog, ActionRead)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = policy.Can(staff, blog, ActionRead)
		require.NoError(t, err)
		assert.True(t, ok, "staff bypass the active-author filter")

		ok, err = policy.Can(author, blog, ActionRead)
		require.NoError(t, err)
		assert.True(t, ok, "the author still sees their own blog")
	})

	t.Run("grant restores access to a hidden blog", func(t *testing.T) {
		author.IsActive = false
		require.NoError(t, users.Update(author))
		defer func() {
			author.IsActive = true
			require.NoError(t, users.Update(author))
		}()
		require.NoError(t, blogs.CreateSharing(&entity.BlogSharing{
			OwnerID: author.ID, SharedWith: reader.ID, BlogID: blog.ID,
		}))

		ok, err := policy.Can(reader, blog, ActionRead)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestPolicyWriteAndDelete(t *testing.T) {
	users := newFakeUserRepo()
	blogs := newFakeBlogRepo()
	policy := NewPolicy(users, blogs)

	author := seedUser(t, users, nil)
	stranger := seedUser(t, users, nil)
	super := seedUser(t, users, func(u *entity.User) { u.IsSuperuser = true })
	blog := seedBlog(t, blogs, author)

	for _, action := range []Action{ActionWrite, ActionDelete} {
		ok, err := policy.Can(author, blog, action)
		require.NoError(t, err)
		assert.True(t, ok, "author can %s", action)

		ok, err = policy.Can(stranger, blog, action)
		require.NoError(t, err)
		assert.False(t, ok, "stranger cannot %s", action)

		ok, err = policy.Can(super, blog, action)
		require.NoError(t, err)
		assert.True(t, ok, "superuser override on %s", action)
	}
}

func TestPolicyShareIsOwnerOnly(t *testing.T) {
	users := newFakeUserRepo()
	blogs := newFakeBlogRepo()
	policy := NewPolicy(users, blogs)

	author := seedUser(t, users, nil)
	staff := seedUser(t, users, func(u *entity.User) { u.IsStaff = true })
	blog := seedBlog(t, blogs, author)

	ok, err := policy.Can(author, blog, ActionShare)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = policy.Can(staff, blog, ActionShare)
	require.NoError(t, err)
	assert.False(t, ok, "no admin override on sharing")
}

func TestPolicyDeniesUnknownAction(t *testing.T) {
	users := newFakeUserRepo()
	blogs := newFakeBlogRepo()
	policy := NewPolicy(users, blogs)

	author := seedUser(t, users, nil)
	blog := seedBlog(t, blogs, author)

	ok, err := policy.Can(author, blog, Action("publish"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPolicyGrantDoesNotAllowWriting(t *testing.T) {
	users := newFakeUserRepo()
	blogs := newFakeBlogRepo()
	policy := NewPolicy(users, blogs)

	author := seedUser(t, users, nil)
	grantee := seedUser(t, users, nil)
	blog := seedBlog(t, blogs, author)
	require.NoError(t, blogs.CreateSharing(&entity.BlogSharing{
		OwnerID: author.ID, SharedWith: grantee.ID, BlogID: blog.ID,
	}))

	ok, err := policy.Can(grantee, blog, ActionWrite)
	require.NoError(t, err)
	assert.False(t, ok, "a read grant never implies write")
}
