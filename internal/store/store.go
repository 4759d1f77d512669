package store

import (
	"context"
	"errors"

	"github.com/alphabot-ai/socialfeed/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrAlreadyLiked   = errors.New("already liked")
	ErrNotLiked       = errors.New("not liked")
	// ErrInvalidID is returned when a backend cannot represent an id at all,
	// such as a non-hex user id on the mongo backend.
	ErrInvalidID = errors.New("invalid id")
)

// Store persists users and posts. Backends live in the sqlite, mongo and
// postgres subpackages.
type Store interface {
	UserStore
	PostStore
	Ping(ctx context.Context) error
	Close() error
}

type UserStore interface {
	// CreateUser persists user and fills in its ID and CreatedAt.
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// UpdateUserCredentials replaces the password hash and/or email of a
	// user in one write. Empty arguments leave the field unchanged.
	UpdateUserCredentials(ctx context.Context, id, passwordHash, email string) error
}

type PostStore interface {
	// CreatePost persists post and fills in its ID and CreatedAt.
	CreatePost(ctx context.Context, post *model.Post) error
	ListPosts(ctx context.Context) ([]model.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error)
	ListPostsByCID(ctx context.Context, postCID string) ([]model.Post, error)
	// LikePost adds userID to the post's likers and increments its like
	// count as one atomic operation. It returns ErrAlreadyLiked without
	// modifying the post if userID already liked it.
	LikePost(ctx context.Context, postID, userID string) (model.Post, error)
	// UnlikePost is the inverse of LikePost and returns ErrNotLiked if
	// userID has not liked the post.
	UnlikePost(ctx context.Context, postID, userID string) (model.Post, error)
}
