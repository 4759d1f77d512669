// Package postgres implements store.Store on PostgreSQL through a pgx
// connection pool. Likers are kept in a text[] column next to the counter so
// that a like is a single conditional UPDATE.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping")
	}
	if err := applySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	author_id TEXT NOT NULL,
	post_cid TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	post_image_url TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
	liked_by TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_posts_post_cid ON posts(post_cid);
`,
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return errors.Wrap(err, "create schema_version")
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return errors.Wrap(err, "read schema version")
	}

	for i := current; i < len(migrations); i++ {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return errors.Wrap(err, "begin migration")
		}
		if _, err := tx.Exec(ctx, migrations[i]); err != nil {
			_ = tx.Rollback(ctx)
			return errors.Wrapf(err, "migration %d failed", i+1)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, i+1); err != nil {
			_ = tx.Rollback(ctx)
			return errors.Wrapf(err, "record migration %d", i+1)
		}
		if err := tx.Commit(ctx); err != nil {
			return errors.Wrapf(err, "commit migration %d", i+1)
		}
	}
	return nil
}

const userColumns = `id, email, full_name, password_hash, image, role, created_at`

const postColumns = `id, author_id, post_cid, title, post_image_url, description, likes, liked_by, created_at`

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id := uuid.NewString()
	var created time.Time
	err := s.pool.QueryRow(ctx, `
INSERT INTO users (id, email, full_name, password_hash, image, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`, id, user.Email, user.FullName, user.PasswordHash, user.Image, user.Role).Scan(&created)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return errors.Wrap(err, "insert user")
	}
	user.ID = id
	user.CreatedAt = created
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *Store) queryUser(ctx context.Context, query string, arg string) (model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, store.ErrNotFound
	}
	if err != nil {
		return model.User{}, errors.Wrap(err, "query user")
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserCredentials(ctx context.Context, id, passwordHash, email string) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE users
SET password_hash = COALESCE(NULLIF($2, ''), password_hash),
    email = COALESCE(NULLIF($3, ''), email)
WHERE id = $1`, id, passwordHash, email)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return errors.Wrap(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	p, err := scanPost(s.pool.QueryRow(ctx, `
INSERT INTO posts (id, author_id, post_cid, title, post_image_url, description)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+postColumns,
		uuid.NewString(), post.AuthorID, post.PostCID, post.Title, post.PostImageURL, post.Description))
	if err != nil {
		return errors.Wrap(err, "insert post")
	}
	*post = p
	return nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created_at, id`)
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE author_id = $1 ORDER BY created_at, id`, authorID)
}

func (s *Store) ListPostsByCID(ctx context.Context, postCID string) ([]model.Post, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE post_cid = $1 ORDER BY created_at, id`, postCID)
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query posts")
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan post")
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// The membership test and the counter update are one statement, so
// concurrent likes by the same user serialize on the row lock.
const (
	likeQuery = `
UPDATE posts
SET likes = likes + 1, liked_by = array_append(liked_by, $2::text)
WHERE id = $1 AND NOT ($2::text = ANY(liked_by))
RETURNING ` + postColumns

	unlikeQuery = `
UPDATE posts
SET likes = likes - 1, liked_by = array_remove(liked_by, $2::text)
WHERE id = $1 AND $2::text = ANY(liked_by)
RETURNING ` + postColumns
)

func (s *Store) LikePost(ctx context.Context, postID, userID string) (model.Post, error) {
	return s.updateLikes(ctx, likeQuery, postID, userID, store.ErrAlreadyLiked)
}

func (s *Store) UnlikePost(ctx context.Context, postID, userID string) (model.Post, error) {
	return s.updateLikes(ctx, unlikeQuery, postID, userID, store.ErrNotLiked)
}

// updateLikes runs a conditional UPDATE. When no row comes back it tells a
// missing post apart from a failed membership condition.
func (s *Store) updateLikes(ctx context.Context, query, postID, userID string, unmatched error) (model.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, query, postID, userID))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, errors.Wrap(err, "update likes")
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return model.Post{}, errors.Wrap(err, "check post")
	}
	if !exists {
		return model.Post{}, store.ErrNotFound
	}
	return model.Post{}, unmatched
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Image, &u.Role, &u.CreatedAt)
	return u, err
}

func scanPost(row pgx.Row) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.PostCID, &p.Title, &p.PostImageURL, &p.Description, &p.Likes, &p.LikedBy, &p.CreatedAt)
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
