// Package mongo implements store.Store on a MongoDB database. Users and posts
// live in the "users" and "posts" collections with the same field names the
// API serializes. likedBy holds user ObjectIDs, matching documents written by
// earlier deployments of the service.
package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"
)

type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	posts  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

type userDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	FullName  string        `bson:"fullName"`
	Password  string        `bson:"password"`
	Image     string        `bson:"image,omitempty"`
	Role      string        `bson:"role,omitempty"`
	CreatedAt time.Time     `bson:"createdAt"`
}

type postDoc struct {
	ID           bson.ObjectID   `bson:"_id,omitempty"`
	AuthorID     string          `bson:"authorId"`
	PostCID      string          `bson:"postCid"`
	Title        string          `bson:"title"`
	PostImageURL string          `bson:"postImageUrl"`
	Description  string          `bson:"description"`
	Likes        int             `bson:"likes"`
	LikedBy      []bson.ObjectID `bson:"likedBy"`
	CreatedAt    time.Time       `bson:"createdAt"`
}

// Open connects to uri, verifies the connection and ensures the indexes the
// store relies on (unique email, author and postCid lookups).
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping")
	}
	db := client.Database(database)
	s := &Store{
		client: client,
		users:  db.Collection("users"),
		posts:  db.Collection("posts"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return errors.Wrap(err, "create users.email index")
	}
	if _, err := s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
		{Keys: bson.D{{Key: "postCid", Value: 1}}},
	}); err != nil {
		return errors.Wrap(err, "create posts indexes")
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	doc := userDoc{
		ID:        bson.NewObjectID(),
		Email:     user.Email,
		FullName:  user.FullName,
		Password:  user.PasswordHash,
		Image:     user.Image,
		Role:      user.Role,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return errors.Wrap(err, "insert user")
	}
	user.ID = doc.ID.Hex()
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.User{}, store.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, errors.Wrap(err, "find user")
	}
	return doc.toModel(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}
	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}

func (s *Store) UpdateUserCredentials(ctx context.Context, id, passwordHash, email string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	set := bson.M{}
	if passwordHash != "" {
		set["password"] = passwordHash
	}
	if email != "" {
		set["email"] = email
	}
	if len(set) == 0 {
		return nil
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return errors.Wrap(err, "update user")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	doc := postDoc{
		ID:           bson.NewObjectID(),
		AuthorID:     post.AuthorID,
		PostCID:      post.PostCID,
		Title:        post.Title,
		PostImageURL: post.PostImageURL,
		Description:  post.Description,
		Likes:        0,
		LikedBy:      []bson.ObjectID{},
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert post")
	}
	*post = doc.toModel()
	return nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	return s.findPosts(ctx, bson.M{})
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	return s.findPosts(ctx, bson.M{"authorId": authorID})
}

func (s *Store) ListPostsByCID(ctx context.Context, postCID string) ([]model.Post, error) {
	return s.findPosts(ctx, bson.M{"postCid": postCID})
}

func (s *Store) findPosts(ctx context.Context, filter bson.M) ([]model.Post, error) {
	cur, err := s.posts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find posts")
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode posts")
	}
	posts := make([]model.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toModel())
	}
	return posts, nil
}

// LikePost matches only when userID is absent from likedBy, so the
// membership check and the $inc/$push happen in one document update.
func (s *Store) LikePost(ctx context.Context, postID, userID string) (model.Post, error) {
	uid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return model.Post{}, store.ErrInvalidID
	}
	cond, update := likeUpdate(uid)
	return s.updateLikes(ctx, postID, cond, update, store.ErrAlreadyLiked)
}

func (s *Store) UnlikePost(ctx context.Context, postID, userID string) (model.Post, error) {
	uid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return model.Post{}, store.ErrInvalidID
	}
	cond, update := unlikeUpdate(uid)
	return s.updateLikes(ctx, postID, cond, update, store.ErrNotLiked)
}

func likeUpdate(uid bson.ObjectID) (cond, update bson.M) {
	return bson.M{"likedBy": bson.M{"$ne": uid}},
		bson.M{"$inc": bson.M{"likes": 1}, "$push": bson.M{"likedBy": uid}}
}

func unlikeUpdate(uid bson.ObjectID) (cond, update bson.M) {
	return bson.M{"likedBy": uid},
		bson.M{"$inc": bson.M{"likes": -1}, "$pull": bson.M{"likedBy": uid}}
}

func (s *Store) updateLikes(ctx context.Context, postID string, cond, update bson.M, unmatched error) (model.Post, error) {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return model.Post{}, store.ErrNotFound
	}
	filter := bson.M{"_id": oid}
	for k, v := range cond {
		filter[k] = v
	}

	var doc postDoc
	err = s.posts.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toModel(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, errors.Wrap(err, "update post likes")
	}

	n, err := s.posts.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return model.Post{}, errors.Wrap(err, "count post")
	}
	if n == 0 {
		return model.Post{}, store.ErrNotFound
	}
	return model.Post{}, unmatched
}

func (d userDoc) toModel() model.User {
	return model.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		FullName:     d.FullName,
		PasswordHash: d.Password,
		Image:        d.Image,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
	}
}

func (d postDoc) toModel() model.Post {
	likedBy := make([]string, 0, len(d.LikedBy))
	for _, id := range d.LikedBy {
		likedBy = append(likedBy, id.Hex())
	}
	return model.Post{
		ID:           d.ID.Hex(),
		AuthorID:     d.AuthorID,
		PostCID:      d.PostCID,
		Title:        d.Title,
		PostImageURL: d.PostImageURL,
		Description:  d.Description,
		Likes:        d.Likes,
		LikedBy:      likedBy,
		CreatedAt:    d.CreatedAt,
	}
}
