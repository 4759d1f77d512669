package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// All access goes through one connection so that like/unlike
	// transactions are serialized.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 3000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	image TEXT,
	role TEXT,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	author_id TEXT NOT NULL,
	post_cid TEXT NOT NULL,
	title TEXT NOT NULL,
	post_image_url TEXT,
	description TEXT,
	likes INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_posts_post_cid ON posts(post_cid);

CREATE TABLE IF NOT EXISTS post_likes (
	post_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (post_id, user_id),
	FOREIGN KEY(post_id) REFERENCES posts(id)
);
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id := uuid.NewString()
	created := time.Now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, email, full_name, password_hash, image, role, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, id, user.Email, user.FullName, user.PasswordHash, nullIfEmpty(user.Image), nullIfEmpty(user.Role), created.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	user.ID = id
	user.CreatedAt = time.UnixMilli(created.UnixMilli())
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, email, full_name, password_hash, image, role, created_at
FROM users
WHERE id = ?
`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, email, full_name, password_hash, image, role, created_at
FROM users
WHERE email = ?
`, email)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, email, full_name, password_hash, image, role, created_at
FROM users
ORDER BY created_at ASC, rowid ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserCredentials(ctx context.Context, id, passwordHash, email string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE users
SET password_hash = COALESCE(NULLIF(?, ''), password_hash),
	email = COALESCE(NULLIF(?, ''), email)
WHERE id = ?
`, passwordHash, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

const postColumns = `p.id, p.author_id, p.post_cid, p.title, p.post_image_url, p.description, p.likes, p.created_at,
	(SELECT json_group_array(l.user_id) FROM post_likes l WHERE l.post_id = p.id)`

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	id := uuid.NewString()
	created := time.Now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, author_id, post_cid, title, post_image_url, description, likes, created_at)
VALUES (?, ?, ?, ?, ?, ?, 0, ?)
`, id, post.AuthorID, post.PostCID, post.Title, nullIfEmpty(post.PostImageURL), nullIfEmpty(post.Description), created.UnixMilli())
	if err != nil {
		return err
	}
	post.ID = id
	post.Likes = 0
	post.LikedBy = []string{}
	post.CreatedAt = time.UnixMilli(created.UnixMilli())
	return nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	return s.listPosts(ctx, `SELECT `+postColumns+` FROM posts p ORDER BY p.created_at ASC, p.rowid ASC`)
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	return s.listPosts(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.author_id = ? ORDER BY p.created_at ASC, p.rowid ASC`, authorID)
}

func (s *Store) ListPostsByCID(ctx context.Context, postCID string) ([]model.Post, error) {
	return s.listPosts(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.post_cid = ? ORDER BY p.created_at ASC, p.rowid ASC`, postCID)
}

func (s *Store) listPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) LikePost(ctx context.Context, postID, userID string) (model.Post, error) {
	var post model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, ?)
`, postID, userID, time.Now().UnixMilli()); err != nil {
			if isUniqueViolation(err) {
				return store.ErrAlreadyLiked
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET likes = likes + 1 WHERE id = ?`, postID); err != nil {
			return err
		}
		var err error
		post, err = scanPost(tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, postID))
		return err
	})
	if err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *Store) UnlikePost(ctx context.Context, postID, userID string) (model.Post, error) {
	var post model.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotLiked
		}
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET likes = likes - 1 WHERE id = ?`, postID); err != nil {
			return err
		}
		post, err = scanPost(tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, postID))
		return err
	})
	if err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func postExists(ctx context.Context, tx *sql.Tx, postID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (model.User, error) {
	var u model.User
	var image sql.NullString
	var role sql.NullString
	var created int64
	if err := scanner.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &image, &role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	if image.Valid {
		u.Image = image.String
	}
	if role.Valid {
		u.Role = role.String
	}
	u.CreatedAt = time.UnixMilli(created)
	return u, nil
}

func scanPost(scanner interface{ Scan(dest ...any) error }) (model.Post, error) {
	var p model.Post
	var imageURL sql.NullString
	var description sql.NullString
	var created int64
	var likedByRaw sql.NullString
	if err := scanner.Scan(&p.ID, &p.AuthorID, &p.PostCID, &p.Title, &imageURL, &description, &p.Likes, &created, &likedByRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	if imageURL.Valid {
		p.PostImageURL = imageURL.String
	}
	if description.Valid {
		p.Description = description.String
	}
	if likedByRaw.Valid && likedByRaw.String != "" {
		if err := json.Unmarshal([]byte(likedByRaw.String), &p.LikedBy); err != nil {
			return model.Post{}, fmt.Errorf("decode liked_by: %w", err)
		}
	}
	if p.LikedBy == nil {
		p.LikedBy = []string{}
	}
	p.CreatedAt = time.UnixMilli(created)
	return p, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
