package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"
)

// newTestStore opens a throwaway database on the server named by
// SOCIALFEED_TEST_MONGO_URI and drops it when the test ends.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("SOCIALFEED_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SOCIALFEED_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("socialfeed_test_%d", time.Now().UnixNano())
	st, err := Open(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.client.Database(dbName).Drop(context.Background())
		_ = st.Close()
	})
	return st
}

func TestUserLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := model.User{Email: "a@x.com", FullName: "Alice", PasswordHash: "h1"}
	if err := st.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := bson.ObjectIDFromHex(u.ID); err != nil {
		t.Fatalf("expected object id, got %q", u.ID)
	}

	dup := model.User{Email: "a@x.com", FullName: "Other", PasswordHash: "h"}
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := st.UpdateUserCredentials(ctx, u.ID, "h2", "b@x.com"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.FindUserByEmail(ctx, "b@x.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if got.PasswordHash != "h2" {
		t.Fatalf("expected updated hash, got %+v", got)
	}

	if _, err := st.GetUser(ctx, "not-an-object-id"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if _, err := st.GetUser(ctx, bson.NewObjectID().Hex()); !errors.Is(err, store.ErrNotFound) {
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

	user := bson.NewObjectID().Hex()
	liked, err := st.LikePost(ctx, p.ID, user)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if liked.Likes != 1 || len(liked.LikedBy) != 1 || liked.LikedBy[0] != user {
		t.Fatalf("unexpected post after like: %+v", liked)
	}
	if _, err := st.LikePost(ctx, p.ID, user); !errors.Is(err, store.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
	if _, err := st.LikePost(ctx, bson.NewObjectID().Hex(), user); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	unliked, err := st.UnlikePost(ctx, p.ID, user)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if unliked.Likes != 0 || len(unliked.LikedBy) != 0 {
		t.Fatalf("unexpected post after unlike: %+v", unliked)
	}
	if _, err := st.UnlikePost(ctx, p.ID, user); !errors.Is(err, store.ErrNotLiked) {
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

	user := bson.NewObjectID().Hex()
	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.LikePost(ctx, p.ID, user)
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrAlreadyLiked) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok != 1 {
		t.Fatalf("expected exactly one successful like, got %d", ok)
	}

	got, err := st.ListPostsByCID(ctx, p.PostCID)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(got) != 1 || got[0].Likes != 1 || len(got[0].LikedBy) != 1 {
		t.Fatalf("likes and likedBy out of sync: %+v", got)
	}
}

func TestPostQueries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, p := range []model.Post{
		{AuthorID: "a1", PostCID: "x"},
		{AuthorID: "a2", PostCID: "x"},
		{AuthorID: "a1", PostCID: "y"},
	} {
		if err := st.CreatePost(ctx, &p); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	byAuthor, err := st.ListPostsByAuthor(ctx, "a1")
	if err != nil || len(byAuthor) != 2 {
		t.Fatalf("expected 2 posts by a1, got %d (%v)", len(byAuthor), err)
	}
	byCID, err := st.ListPostsByCID(ctx, "x")
	if err != nil || len(byCID) != 2 {
		t.Fatalf("expected 2 posts for x, got %d (%v)", len(byCID), err)
	}
	none, err := st.ListPostsByCID(ctx, "missing")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v (%v)", none, err)
	}
}
