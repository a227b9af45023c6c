package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/libertyblog/api/internal/domain/entity"
	repo "github.com/libertyblog/api/internal/domain/repository"
)

// BlogService implements blog CRUD, the sharing ledger, and free-text
// search. Every operation resolves the actor and asks the policy before
// touching anything.
type BlogService struct {
	Repo    repo.BlogRepository
	Users   repo.UserRepository
	Policy  *Policy
	Logger  *logrus.Logger
	ES      *elasticsearch.Client
	ESIndex string
}

func NewBlogService(r repo.BlogRepository, users repo.UserRepository, policy *Policy,
	logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *BlogService {
	return &BlogService{Repo: r, Users: users, Policy: policy, Logger: logger, ES: es, ESIndex: esIndex}
}

func (s *BlogService) actor(userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(userID)
	if err != nil || u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

type BlogInput struct {
	Title   string
	Content string
}

// Create makes the actor the author regardless of anything in the request.
func (s *BlogService) Create(ctx context.Context, actorID string, in BlogInput) (*entity.Blog, error) {
	actor, err := s.actor(actorID)
	if err != nil {
		return nil, err
	}
	b := &entity.Blog{Title: in.Title, Content: in.Content, AuthorID: actor.ID}
	if err := s.Repo.Create(b); err != nil {
		return nil, err
	}
	if err := s.Users.AddPublishedPosts(actor.ID, 1); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", actor.ID).Warn("published_posts increment failed")
	}
	s.indexBlog(ctx, b, actor)
	return b, nil
}

func (s *BlogService) Get(ctx context.Context, actorID, blogID string) (*entity.Blog, error) {
	actor, err := s.actor(actorID)
	if err != nil {
		return nil, err
	}
	b, err := s.Repo.GetByID(blogID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ok, err := s.Policy.Can(actor, b, ActionRead)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return b, nil
}

// List returns blogs of active authors; staff and superusers see all.
func (s *BlogService) List(ctx context.Context, actorID string, opts repo.BlogListOptions) ([]*entity.Blog, error) {
	actor, err := s.actor(actorID)
	if err != nil {
		return nil, err
	}
	opts.ActiveAuthorsOnly = !actor.IsAdmin()
	return s.Repo.List(opts)
}

func (s *BlogService) Update(ctx context.Context, actorID, blogID string, in BlogInput) (*entity.Blog, error) {
	actor, err := s.actor(actorID)
	if err != nil {
		return nil, err
	}
	b, err := s.Repo.GetByID(blogID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ok, err := s.Policy.Can(actor, b, ActionWrite)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	if in.Title != "" {
		b.Title = in.Title
	}
	if in.Content != "" {
		b.Content = in.Content
	}
	if err := s.Repo.Update(b); err != nil {
		return nil, err
	}
	s.indexBlog(ctx, b, nil)
	return b, nil
}

func (s *BlogService) Delete(ctx context.Context, actorID, blogID string) error {
	actor, err := s.actor(actorID)
	if err != nil {
		return err
	}
	b, err := s.Repo.GetByID(blogID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	ok, err := s.Policy.Can(actor, b, ActionDelete)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	if err := s.Repo.Delete(b.ID); err != nil {
		return err
	}
	if err := s.Users.AddPublishedPosts(b.AuthorID, -1); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", b.AuthorID).Warn("published_posts decrement failed")
	}
	s.deleteFromIndex(ctx, b.ID)
	return nil
}

// Share records a grant. The owner is always the authenticated actor and
// the actor must be the blog's author; a client-supplied owner is ignored.
func (s *BlogService) Share(ctx context.Context, actorID, blogID, sharedWithID string) (*entity.BlogSharing, error) {
	actor, err := s.actor(actorID)
	if err != nil {
		return nil, err
	}
	b, err := s.Repo.GetByID(blogID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ok, err := s.Policy.Can(actor, b, ActionShare)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	if _, err := s.Users.GetByID(sharedWithID); err != nil {
		return nil, ErrNotFound
	}
	g := &entity.BlogSharing{OwnerID: actor.ID, SharedWith: sharedWithID, BlogID: b.ID}
	if err := s.Repo.CreateSharing(g); err != nil {
		return nil, err
	}
	return g, nil
}

// SharedWithMe lists blogs other authors have granted to the actor.
func (s *BlogService) SharedWithMe(ctx context.Context, actorID string) ([]repo.SharedBlog, error) {
	if _, err := s.actor(actorID); err != nil {
		return nil, err
	}
	return s.Repo.ListSharedWith(actorID)
}

// AuthorsWithAccess lists who can read the actor's shared blogs.
func (s *BlogService) AuthorsWithAccess(ctx context.Context, actorID string) ([]repo.GranteeAccess, error) {
	if _, err := s.actor(actorID); err != nil {
		return nil, err
	}
	return s.Repo.ListGrantees(actorID)
}

func (s *BlogService) indexBlog(ctx context.Context, b *entity.Blog, author *entity.User) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	authorName := ""
	if author == nil {
		if a, err := s.Users.GetByID(b.AuthorID); err == nil && a != nil {
			authorName = a.FullName()
		}
	} else {
		authorName = author.FullName()
	}
	doc := map[string]any{
		"id":          b.ID,
		"title":       b.Title,
		"content":     b.Content,
		"author_id":   b.AuthorID,
		"author_name": authorName,
		"created_at":  b.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  b.UpdatedAt.Format(time.RFC3339Nano),
	}
	body, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: b.ID, Body: strings.NewReader(string(body)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("blog_id", b.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("blog_id", b.ID).Warn("es index response error")
	}
}

func (s *BlogService) deleteFromIndex(ctx context.Context, blogID string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: blogID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("blog_id", blogID).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match over title, content and author name.
func (s *BlogService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "content", "author_name"},
			},
		},
		"size": size,
	}
	body, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
