package model

import "time"

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	Image        string    `json:"image,omitempty"`
	Role         string    `json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Post is a piece of content grouped by PostCID. Likes always equals
// len(LikedBy).
type Post struct {
	ID           string    `json:"_id"`
	AuthorID     string    `json:"authorId"`
	PostCID      string    `json:"postCid"`
	Title        string    `json:"title"`
	PostImageURL string    `json:"postImageUrl"`
	Description  string    `json:"description"`
	Likes        int       `json:"likes"`
	LikedBy      []string  `json:"likedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthoredPost is a Post annotated with its author's full name.
type AuthoredPost struct {
	Post
	AuthorName string `json:"authorName,omitempty"`
}
