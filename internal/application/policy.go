package application

import (
	"errors"

	"github.com/libertyblog/api/internal/domain/entity"
	"github.com/libertyblog/api/internal/domain/repository"
)

// Action is a request against a blog, as seen by the access policy.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
)

// GrantChecker answers whether a sharing grant exists for (blog, user).
type GrantChecker interface {
	HasGrant(blogID, userID string) (bool, error)
}

// AuthorLookup resolves a blog's author record.
type AuthorLookup interface {
	GetByID(id string) (*entity.User, error)
}

// Policy decides, for an (actor, blog, action) triple, whether the action
// is permitted:
//
//	read:         author is active, or actor is staff/superuser, or actor
//	              is the author, or actor holds a grant for the blog
//	write/delete: actor is the author, or staff/superuser override
//	share:        actor is the author, no override
type Policy struct {
	Users  AuthorLookup
	Grants GrantChecker

	rules map[Action]func(p *Policy, actor *entity.User, blog *entity.Blog) (bool, error)
}

func NewPolicy(users AuthorLookup, grants GrantChecker) *Policy {
	p := &Policy{Users: users, Grants: grants}
	p.rules = map[Action]func(*Policy, *entity.User, *entity.Blog) (bool, error){
		ActionRead:   (*Policy).canRead,
		ActionWrite:  (*Policy).canMutate,
		ActionDelete: (*Policy).canMutate,
		ActionShare:  (*Policy).canShare,
	}
	return p
}

// Can evaluates the policy. Unknown actions are denied.
func (p *Policy) Can(actor *entity.User, blog *entity.Blog, action Action) (bool, error) {
	rule, ok := p.rules[action]
	if !ok {
		return false, nil
	}
	return rule(p, actor, blog)
}

func (p *Policy) canRead(actor *entity.User, blog *entity.Blog) (bool, error) {
	if actor.IsAdmin() || actor.ID == blog.AuthorID {
		return true, nil
	}
	author, err := p.Users.GetByID(blog.AuthorID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if author != nil && author.IsActive {
		return true, nil
	}
	return p.Grants.HasGrant(blog.ID, actor.ID)
}

func (p *Policy) canMutate(actor *entity.User, blog *entity.Blog) (bool, error) {
	return actor.ID == blog.AuthorID || actor.IsAdmin(), nil
}

func (p *Policy) canShare(actor *entity.User, blog *entity.Blog) (bool, error) {
	return actor.ID == blog.AuthorID, nil
}

var _ GrantChecker = (repository.BlogRepository)(nil)
