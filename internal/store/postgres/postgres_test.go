package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("SOCIALFEED_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("SOCIALFEED_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	st, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := st.pool.Exec(ctx, `TRUNCATE users, posts`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestUserLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := model.User{Email: "a@x.com", FullName: "Alice", PasswordHash: "h1"}
	if err := st.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at, got %+v", u)
	}

	dup := model.User{Email: "a@x.com", FullName: "Other", PasswordHash: "h"}
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := st.UpdateUserCredentials(ctx, u.ID, "", "b@x.com"); err != nil {
		t.Fatalf("update email: %v", err)
	}
	got, err := st.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != "b@x.com" || got.PasswordHash != "h1" {
		t.Fatalf("expected only email to change, got %+v", got)
	}

	if err := st.UpdateUserCredentials(ctx, "missing", "h", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.FindUserByEmail(ctx, "nobody@x.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLikeOnce(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := model.Post{AuthorID: "author", PostCID: "cid", Title: "t"}
	if err := st.CreatePost(ctx, &p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	if p.LikedBy == nil || p.Likes != 0 {
		t.Fatalf("unexpected new post: %+v", p)
	}

	if _, err := st.LikePost(ctx, p.ID, "u1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := st.LikePost(ctx, p.ID, "u1"); !errors.Is(err, store.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
	if _, err := st.LikePost(ctx, "missing", "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	unliked, err := st.UnlikePost(ctx, p.ID, "u1")
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if unliked.Likes != 0 || len(unliked.LikedBy) != 0 {
		t.Fatalf("unexpected post after unlike: %+v", unliked)
	}
	if _, err := st.UnlikePost(ctx, p.ID, "u1"); !errors.Is(err, store.ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked, got %v", err)
	}
}

func TestConcurrentLikes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := model.Post{AuthorID: "author", PostCID: "cid"}
	if err := st.CreatePost(ctx, &p); err != nil {
		t.Fatalf("create post: %v", err)
	}

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.LikePost(ctx, p.ID, "same-user"); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, store.ErrAlreadyLiked) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok.Load() != 1 {
		t.Fatalf("expected exactly one successful like, got %d", ok.Load())
	}
	got, err := st.ListPostsByCID(ctx, p.PostCID)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(got) != 1 || got[0].Likes != 1 || len(got[0].LikedBy) != 1 {
		t.Fatalf("likes and likedBy out of sync: %+v", got)
	}
}
