package sqlite

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func createUser(t *testing.T, st *Store, email, name string) model.User {
	t.Helper()
	u := model.User{Email: email, FullName: name, PasswordHash: "hash"}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createPost(t *testing.T, st *Store, authorID, cid string) model.Post {
	t.Helper()
	p := model.Post{AuthorID: authorID, PostCID: cid, Title: "Title " + cid}
	if err := st.CreatePost(context.Background(), &p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func postByID(t *testing.T, st *Store, id string) model.Post {
	t.Helper()
	posts, err := st.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	for _, p := range posts {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("post %s not found", id)
	return model.Post{}
}

func TestUserLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	u := model.User{Email: "a@x.com", FullName: "Alice", PasswordHash: "h1", Role: "admin"}
	if err := st.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected id")
	}

	got, err := st.FindUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if got.ID != u.ID || got.FullName != "Alice" || got.Role != "admin" || got.Image != "" {
		t.Fatalf("unexpected user: %+v", got)
	}

	dup := model.User{Email: "a@x.com", FullName: "Other", PasswordHash: "h"}
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := st.UpdateUserCredentials(ctx, u.ID, "h2", ""); err != nil {
		t.Fatalf("update hash: %v", err)
	}
	got, _ = st.GetUser(ctx, u.ID)
	if got.PasswordHash != "h2" || got.Email != "a@x.com" {
		t.Fatalf("expected only hash to change, got %+v", got)
	}

	if err := st.UpdateUserCredentials(ctx, u.ID, "", "new@x.com"); err != nil {
		t.Fatalf("update email: %v", err)
	}
	got, _ = st.GetUser(ctx, u.ID)
	if got.PasswordHash != "h2" || got.Email != "new@x.com" {
		t.Fatalf("expected only email to change, got %+v", got)
	}

	if err := st.UpdateUserCredentials(ctx, "missing", "h", ""); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.GetUser(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users, err := st.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}

func TestPostQueries(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	p1 := createPost(t, st, "author-1", "cid-a")
	createPost(t, st, "author-2", "cid-a")
	createPost(t, st, "author-1", "cid-b")

	if p1.Likes != 0 || p1.LikedBy == nil || len(p1.LikedBy) != 0 {
		t.Fatalf("expected empty likes on new post, got %+v", p1)
	}

	all, err := st.ListPosts(ctx)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(all))
	}
	if all[0].ID != p1.ID {
		t.Fatalf("expected creation order")
	}

	byAuthor, err := st.ListPostsByAuthor(ctx, "author-1")
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(byAuthor) != 2 {
		t.Fatalf("expected 2 posts by author-1, got %d", len(byAuthor))
	}

	byCID, err := st.ListPostsByCID(ctx, "cid-a")
	if err != nil {
		t.Fatalf("list by cid: %v", err)
	}
	if len(byCID) != 2 {
		t.Fatalf("expected 2 posts for cid-a, got %d", len(byCID))
	}

	none, err := st.ListPostsByCID(ctx, "cid-none")
	if err != nil {
		t.Fatalf("list by missing cid: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", none)
	}
}

func TestLikeOnce(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	u := createUser(t, st, "b@x.com", "Bob")
	p := createPost(t, st, u.ID, "cid")

	liked, err := st.LikePost(ctx, p.ID, u.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if liked.Likes != 1 || len(liked.LikedBy) != 1 || liked.LikedBy[0] != u.ID {
		t.Fatalf("unexpected post after like: %+v", liked)
	}

	if _, err := st.LikePost(ctx, p.ID, u.ID); !errors.Is(err, store.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
	got := postByID(t, st, p.ID)
	if got.Likes != 1 || len(got.LikedBy) != 1 {
		t.Fatalf("second like changed state: %+v", got)
	}

	if _, err := st.LikePost(ctx, "missing", u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	unliked, err := st.UnlikePost(ctx, p.ID, u.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if unliked.Likes != 0 || len(unliked.LikedBy) != 0 {
		t.Fatalf("unexpected post after unlike: %+v", unliked)
	}
	if _, err := st.UnlikePost(ctx, p.ID, u.ID); !errors.Is(err, store.ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked, got %v", err)
	}
}

func TestConcurrentLikes(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	p := createPost(t, st, "author", "cid")

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.LikePost(ctx, p.ID, "same-user")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, store.ErrAlreadyLiked):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != workers-1 {
		t.Fatalf("expected exactly one successful like, got ok=%d dup=%d", ok, dup)
	}

	got := postByID(t, st, p.ID)
	if got.Likes != 1 || len(got.LikedBy) != 1 {
		t.Fatalf("likes and likedBy out of sync: %+v", got)
	}
}

func TestDistinctUsersLike(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	p := createPost(t, st, "author", "cid")
	for i := 0; i < 3; i++ {
		if _, err := st.LikePost(ctx, p.ID, fmt.Sprintf("user-%d", i)); err != nil {
			t.Fatalf("like %d: %v", i, err)
		}
	}
	got := postByID(t, st, p.ID)
	if got.Likes != 3 || len(got.LikedBy) != 3 {
		t.Fatalf("expected 3 likes, got %+v", got)
	}
	for i := 0; i < 3; i++ {
		if !slices.Contains(got.LikedBy, fmt.Sprintf("user-%d", i)) {
			t.Fatalf("missing user-%d in likedBy", i)
		}
	}
}
