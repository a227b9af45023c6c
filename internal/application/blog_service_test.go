package application

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libertyblog/api/internal/domain/entity"
	repo "github.com/libertyblog/api/internal/domain/repository"
)

func newTestBlogService() (*BlogService, *fakeUserRepo, *fakeBlogRepo) {
	users := newFakeUserRepo()
	blogs := newFakeBlogRepo()
	policy := NewPolicy(users, blogs)
	svc := NewBlogService(blogs, users, policy, logrus.New(), nil, "")
	return svc, users, blogs
}

func TestBlogCreateSetsActorAsAuthor(t *testing.T) {
	svc, users, _ := newTestBlogService()
	author := seedUser(t, users, nil)

	b, err := svc.Create(context.Background(), author.ID, BlogInput{Title: "tides", Content: "spring tides"})
	require.NoError(t, err)
	assert.Equal(t, author.ID, b.AuthorID)
	assert.NotEmpty(t, b.ID)

	p, err := users.GetProfile(author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.PublishedPosts)
}

func TestBlogCreateRejectsUnknownActor(t *testing.T) {
	svc, _, _ := newTestBlogService()
	_, err := svc.Create(context.Background(), "missing", BlogInput{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogGetAccess(t *testing.T) {
	svc, users, blogs := newTestBlogService()
	author := seedUser(t, users, nil)
	reader := seedUser(t, users, nil)
	blog := seedBlog(t, blogs, author)

	got, err := svc.Get(context.Background(), reader.ID, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, blog.ID, got.ID)

	author.IsActive = false
	require.NoError(t, users.Update(author))

	_, err = svc.Get(context.Background(), reader.ID, blog.ID)
	assert.ErrorIs(t, err, ErrForbidden, "inactive author hides the blog")

	_, err = svc.Get(context.Background(), reader.ID, "no-such-blog")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogUpdateIsOwnerOnly(t *testing.T) {
	svc, users, blogs := newTestBlogService()
	author := seedUser(t, users, nil)
	stranger := seedUser(t, users, nil)
	staff := seedUser(t, users, func(u *entity.User) { u.IsStaff = true })
	blog := seedBlog(t, blogs, author)

	_, err := svc.Update(context.Background(), stranger.ID, blog.ID, BlogInput{Title: "hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Update(context.Background(), author.ID, blog.ID, BlogInput{Title: "revised"})
	require.NoError(t, err)
	assert.Equal(t, "revised", got.Title)
	assert.Equal(t, blog.Content, got.Content, "empty fields keep their value")

	got, err = svc.Update(context.Background(), staff.ID, blog.ID, BlogInput{Content: "moderated"})
	require.NoError(t, err)
	assert.Equal(t, "moderated", got.Content)
}

func TestBlogDelete(t *testing.T) {
	svc, users, blogs := newTestBlogService()
	author := seedUser(t, users, nil)
	stranger := seedUser(t, users, nil)

	b, err := svc.Create(context.Background(), author.ID, BlogInput{Title: "tides", Content: "x"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), stranger.ID, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), author.ID, b.ID))

	_, err = blogs.GetByID(b.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	p, err := users.GetProfile(author.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PublishedPosts, "delete decrements the published count")

	err = svc.Delete(context.Background(), author.ID, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogListFiltersForRegularUsers(t *testing.T) {
	svc, users, blogs := newTestBlogService()
	reader := seedUser(t, users, nil)
	staff := seedUser(t, users, func(u *entity.User) { u.IsStaff = true })

	opts := repo.BlogListOptions{OrderBy: "title"}
	_, err := svc.List(context.Background(), reader.ID, opts)
	require.NoError(t, err)
	assert.True(t, blogs.lastOpts.ActiveAuthorsOnly, "regular users only see active authors")

	_, err = svc.List(context.Background(), staff.ID, opts)
	require.NoError(t, err)
	assert.False(t, blogs.lastOpts.ActiveAuthorsOnly, "staff see everything")
}

func TestBlogShare(t *testing.T) {
	svc, users, blogs := newTestBlogService()
	author := seedUser(t, users, nil)
	grantee := seedUser(t, users, nil)
	stranger := seedUser(t, users, nil)
	blog := seedBlog(t, blogs, author)

	t.Run("only the author shares", func(t *testing.T) {
		_, err := svc.Share(context.Background(), stranger.ID, blog.ID, grantee.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("grantee must exist", func(t *testing.T) {
		_, err := svc.Share(context.Background(), author.ID, blog.ID, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("owner is always the actor", func(t *testing.T) {
		g, err := svc.Share(context.Background(), author.ID, blog.ID, grantee.ID)
		require.NoError(t, err)
		assert.Equal(t, author.ID, g.OwnerID)
		assert.Equal(t, grantee.ID, g.SharedWith)
		assert.Equal(t, blog.ID, g.BlogID)

		has, err := blogs.HasGrant(blog.ID, grantee.ID)
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestSharedWithMe(t *testing.T) {
	svc, users, blogs := newTestBlogService()
	author := seedUser(t, users, nil)
	grantee := seedUser(t, users, nil)
	other := seedUser(t, users, nil)
	blog := seedBlog(t, blogs, author)

	_, err := svc.Share(context.Background(), author.ID, blog.ID, grantee.ID)
	require.NoError(t, err)

	shared, err := svc.SharedWithMe(context.Background(), grantee.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, blog.ID, shared[0].Blog.ID)
	assert.Equal(t, author.ID, shared[0].Sharing.OwnerID)

	none, err := svc.SharedWithMe(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAuthorsWithAccess(t *testing.T) {
	svc, users, blogs := newTestBlogService()
	author := seedUser(t, users, nil)
	grantee := seedUser(t, users, nil)
	blog := seedBlog(t, blogs, author)

	_, err := svc.Share(context.Background(), author.ID, blog.ID, grantee.ID)
	require.NoError(t, err)

	grants, err := svc.AuthorsWithAccess(context.Background(), author.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, blog.ID, grants[0].BlogID)
	assert.Equal(t, blog.Title, grants[0].BlogTitle)
}

func TestSearchWithoutElasticsearchReturnsEmpty(t *testing.T) {
	svc, _, _ := newTestBlogService()
	hits, err := svc.Search(context.Background(), "tides", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
