package httpapp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/alphabot-ai/socialfeed/internal/auth"
	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"
)

type postRequest struct {
	AuthorID     string `json:"authorId"`
	Title        string `json:"title"`
	PostCID      string `json:"postCid"`
	PostImageURL string `json:"postImageUrl"`
	Description  string `json:"description"`
}

// handleCreatePost godoc
//
//	@Summary		Create a post
//	@Description	The author is the authenticated user; a different authorId is rejected.
//	@Tags			Posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			post	body		postRequest	true	"Post"
//	@Success		200		{object}	model.Post
//	@Failure		401		{object}	messageResponse	"Unauthorized"
//	@Failure		403		{object}	messageResponse	"authorId is not the caller"
//	@Failure		500		{object}	messageResponse	"Store failure"
//	@Router			/api/posts [post]
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	var req postRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post body")
		return
	}
	if a := strings.TrimSpace(req.AuthorID); a != "" && a != callerID {
		writeError(w, http.StatusForbidden, "authorId must match the authenticated user")
		return
	}

	post := model.Post{
		AuthorID:     callerID,
		Title:        req.Title,
		PostCID:      strings.TrimSpace(req.PostCID),
		PostImageURL: req.PostImageURL,
		Description:  req.Description,
	}
	if err := s.store.CreatePost(r.Context(), &post); err != nil {
		logFrom(r).Error().Err(err).Msg("create post")
		writeError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// handleLikePost godoc
//
//	@Summary		Like a post
//	@Description	Add the caller to likedBy and increment likes, once per user
//	@Tags			Likes
//	@Produce		json
//	@Security		BearerAuth
//	@Param			postId	path		string	true	"Post ID"
//	@Param			userId	path		string	true	"Caller's user ID"
//	@Success		200		{object}	model.Post
//	@Failure		400		{object}	messageResponse	"Already liked or invalid user id"
//	@Failure		401		{object}	messageResponse	"Unauthorized"
//	@Failure		403		{object}	messageResponse	"userId is not the caller"
//	@Failure		404		{object}	messageResponse	"Post not found"
//	@Failure		500		{object}	messageResponse	"Store failure"
//	@Router			/api/posts/{postId}/like/{userId} [put]
func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request) {
	s.changeLike(w, r, s.store.LikePost)
}

// handleUnlikePost godoc
//
//	@Summary		Unlike a post
//	@Description	Remove the caller from likedBy and decrement likes
//	@Tags			Likes
//	@Produce		json
//	@Security		BearerAuth
//	@Param			postId	path		string	true	"Post ID"
//	@Param			userId	path		string	true	"Caller's user ID"
//	@Success		200		{object}	model.Post
//	@Failure		400		{object}	messageResponse	"Not liked or invalid user id"
//	@Failure		401		{object}	messageResponse	"Unauthorized"
//	@Failure		403		{object}	messageResponse	"userId is not the caller"
//	@Failure		404		{object}	messageResponse	"Post not found"
//	@Failure		500		{object}	messageResponse	"Store failure"
//	@Router			/api/posts/{postId}/like/{userId} [delete]
func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request) {
	s.changeLike(w, r, s.store.UnlikePost)
}

// changeLike applies a like or unlike for the caller. The path userId must be
// the caller: nobody likes on behalf of someone else.
func (s *Server) changeLike(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, postID, userID string) (model.Post, error)) {
	callerID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	vars := mux.Vars(r)
	postID, userID := vars["postId"], vars["userId"]
	if userID != callerID {
		writeError(w, http.StatusForbidden, "Cannot change likes on behalf of another user")
		return
	}

	post, err := apply(r.Context(), postID, userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, post)
	case errors.Is(err, store.ErrAlreadyLiked):
		writeError(w, http.StatusBadRequest, "You have already liked this post")
	case errors.Is(err, store.ErrNotLiked):
		writeError(w, http.StatusBadRequest, "You have not liked this post")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid user id")
	default:
		logFrom(r).Error().Err(err).Str("post_id", postID).Msg("update likes")
		writeError(w, http.StatusInternalServerError, "Failed to update likes")
	}
}

// handleListPosts godoc
//
//	@Summary	List posts
//	@Tags		Posts
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		model.Post
//	@Failure	401	{object}	messageResponse	"Unauthorized"
//	@Failure	500	{object}	messageResponse	"Store failure"
//	@Router		/api/posts [get]
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		logFrom(r).Error().Err(err).Msg("list posts")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// handleListPostsByAuthor godoc
//
//	@Summary	List posts by author
//	@Tags		Posts
//	@Produce	json
//	@Security	BearerAuth
//	@Param		authorId	path		string	true	"Author user ID"
//	@Success	200			{array}		model.Post
//	@Failure	401			{object}	messageResponse	"Unauthorized"
//	@Failure	500			{object}	messageResponse	"Store failure"
//	@Router		/api/posts/author/{authorId} [get]
func (s *Server) handleListPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPostsByAuthor(r.Context(), mux.Vars(r)["authorId"])
	if err != nil {
		logFrom(r).Error().Err(err).Msg("list posts by author")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// handlePostsByCID godoc
//
//	@Summary		Posts by content id
//	@Description	Posts sharing a content id, each with its author's full name
//	@Tags			Posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			postCid	path		string	true	"Content ID"
//	@Success		200		{array}		model.AuthoredPost
//	@Failure		401		{object}	messageResponse	"Unauthorized"
//	@Failure		404		{object}	messageResponse	"No posts with that postCid"
//	@Failure		500		{object}	messageResponse	"Store failure"
//	@Router			/api/posts/{postCid} [get]
func (s *Server) handlePostsByCID(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPostsByCID(r.Context(), mux.Vars(r)["postCid"])
	if err != nil {
		logFrom(r).Error().Err(err).Msg("list posts by cid")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve posts")
		return
	}
	if len(posts) == 0 {
		writeError(w, http.StatusNotFound, "No posts found with that postCid")
		return
	}

	authored, err := s.withAuthors(r, posts)
	if err != nil {
		logFrom(r).Error().Err(err).Msg("resolve post authors")
		writeError(w, http.StatusInternalServerError, "Failed to resolve post authors")
		return
	}
	writeJSON(w, http.StatusOK, authored)
}

// withAuthors resolves the author name of every post, looking up each
// distinct author once and concurrently. Authors that no longer exist leave
// AuthorName empty; any other store error fails the whole join.
func (s *Server) withAuthors(r *http.Request, posts []model.Post) ([]model.AuthoredPost, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			ids = append(ids, p.AuthorID)
		}
	}

	names := make([]string, len(ids))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(authorLookupLimit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			user, err := s.store.GetUser(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				logFrom(r).Warn().Str("author_id", id).Msg("post author not found")
				return nil
			}
			if err != nil {
				return err
			}
			names[i] = user.FullName
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]string, len(ids))
	for i, id := range ids {
		byID[id] = names[i]
	}
	out := make([]model.AuthoredPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, model.AuthoredPost{Post: p, AuthorName: byID[p.AuthorID]})
	}
	return out, nil
}
