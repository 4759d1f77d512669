// Package client provides a Go client for the socialfeed API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alphabot-ai/socialfeed/internal/model"
)

// Client is a socialfeed API client. Register and Login store the returned
// token on the client for later calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// APIError is a non-2xx response. Message is the server's "message" field,
// or the raw body when it is not the standard envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type RegisterInput struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Image    string `json:"image,omitempty"`
	Role     string `json:"role,omitempty"`
}

type EditInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword,omitempty"`
	Email           string `json:"email,omitempty"`
}

type PostInput struct {
	AuthorID     string `json:"authorId,omitempty"`
	Title        string `json:"title"`
	PostCID      string `json:"postCid"`
	PostImageURL string `json:"postImageUrl,omitempty"`
	Description  string `json:"description,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *Client) Register(in RegisterInput) error {
	var out tokenResponse
	if err := c.do(http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return err
	}
	c.Token = out.Token
	return nil
}

func (c *Client) Login(email, password string) error {
	var out tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return err
	}
	c.Token = out.Token
	return nil
}

func (c *Client) Me() (*model.User, error) {
	var u model.User
	if err := c.do(http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) EditMe(in EditInput) error {
	return c.do(http.MethodPut, "/api/me/edit", in, nil)
}

func (c *Client) ListUsers() ([]model.User, error) {
	var users []model.User
	if err := c.do(http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(id string) (*model.User, error) {
	var u model.User
	if err := c.do(http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreatePost(in PostInput) (*model.Post, error) {
	var p model.Post
	if err := c.do(http.MethodPost, "/api/posts", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) LikePost(postID, userID string) (*model.Post, error) {
	return c.like(http.MethodPut, postID, userID)
}

func (c *Client) UnlikePost(postID, userID string) (*model.Post, error) {
	return c.like(http.MethodDelete, postID, userID)
}

func (c *Client) like(method, postID, userID string) (*model.Post, error) {
	var p model.Post
	path := "/api/posts/" + url.PathEscape(postID) + "/like/" + url.PathEscape(userID)
	if err := c.do(method, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListPosts() ([]model.Post, error) {
	var posts []model.Post
	if err := c.do(http.MethodGet, "/api/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) ListPostsByAuthor(authorID string) ([]model.Post, error) {
	var posts []model.Post
	if err := c.do(http.MethodGet, "/api/posts/author/"+url.PathEscape(authorID), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// PostsByCID returns the posts sharing postCID, each with its author's name.
func (c *Client) PostsByCID(postCID string) ([]model.AuthoredPost, error) {
	var posts []model.AuthoredPost
	if err := c.do(http.MethodGet, "/api/posts/"+url.PathEscape(postCID), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) Health() error {
	return c.do(http.MethodGet, "/health", nil, nil)
}

// do sends a JSON request and decodes a 2xx response into out when out is
// non-nil. Other statuses become *APIError.
func (c *Client) do(method, path string, body, out any) error {
	resp, err := c.doRequest(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Message != "" {
			msg = envelope.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTPClient.Do(req)
}

// TestHelper provides utilities for creating authenticated clients in tests.
type TestHelper struct {
	BaseURL string
}

func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// TestPassword is the password of every user created by TestHelper.
const TestPassword = "correct horse battery staple"

// CreateAuthenticatedClient registers name@example.test, logging in instead
// if it already exists, and returns the client with the user's profile.
func (h *TestHelper) CreateAuthenticatedClient(name string) (*Client, *model.User, error) {
	c := New(h.BaseURL)
	email := strings.ToLower(name) + "@example.test"
	err := c.Register(RegisterInput{Email: email, FullName: name, Password: TestPassword})
	if err != nil {
		if !IsStatus(err, http.StatusBadRequest) {
			return nil, nil, fmt.Errorf("register: %w", err)
		}
		if err := c.Login(email, TestPassword); err != nil {
			return nil, nil, fmt.Errorf("login: %w", err)
		}
	}
	me, err := c.Me()
	if err != nil {
		return nil, nil, fmt.Errorf("me: %w", err)
	}
	return c, me, nil
}
