package httpapp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/alphabot-ai/socialfeed/internal/auth"
	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"
)

const (
	msgRegisterFields    = "Please provide an email, full name, and password"
	msgLoginFields       = "Please provide an email and password"
	msgEditFields        = "Please provide the current password and either the new password or email"
	msgInvalidCreds      = "Invalid credentials"
	msgInvalidCurrentPwd = "Invalid current password"
	msgPasswordTooLong   = "Password must be at most 72 bytes"
	msgUserNotFound      = "User not found"
	msgUnauthorized      = "Unauthorized"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Image    string `json:"image"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type editRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	Email           string `json:"email"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// handleRegister godoc
//
//	@Summary		Register
//	@Description	Create an account and receive a bearer token. Unknown body fields are ignored.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			user	body		registerRequest	true	"New account"
//	@Success		201		{object}	tokenResponse
//	@Failure		400		{object}	messageResponse	"Missing fields or user could not be created"
//	@Router			/api/auth/register [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgRegisterFields)
		return
	}
	email := normalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || fullName == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgRegisterFields)
		return
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			writeError(w, http.StatusBadRequest, msgPasswordTooLong)
			return
		}
		logFrom(r).Error().Err(err).Msg("hash password")
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := model.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Image:        strings.TrimSpace(req.Image),
		Role:         strings.TrimSpace(req.Role),
	}
	if err := s.store.CreateUser(r.Context(), &user); err != nil {
		logFrom(r).Warn().Err(err).Msg("create user")
		writeError(w, http.StatusBadRequest, "Failed to create user")
		return
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		logFrom(r).Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	logFrom(r).Info().Str("user_id", user.ID).Msg("user registered")
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// handleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchange email and password for a bearer token
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		loginRequest	true	"Credentials"
//	@Success		200			{object}	tokenResponse
//	@Failure		400			{object}	messageResponse	"Missing fields or invalid credentials"
//	@Failure		500			{object}	messageResponse	"Store failure"
//	@Router			/api/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgLoginFields)
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgLoginFields)
		return
	}

	user, err := s.store.FindUserByEmail(r.Context(), email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		_ = auth.CheckPassword(s.dummyHash, req.Password)
		writeError(w, http.StatusBadRequest, msgInvalidCreds)
		return
	case err != nil:
		logFrom(r).Error().Err(err).Msg("find user by email")
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			logFrom(r).Error().Err(err).Str("user_id", user.ID).Msg("compare password")
		}
		writeError(w, http.StatusBadRequest, msgInvalidCreds)
		return
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		logFrom(r).Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// handleMe godoc
//
//	@Summary	Current user
//	@Tags		Users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	model.User
//	@Failure	400	{object}	messageResponse	"User not found"
//	@Failure	401	{object}	messageResponse	"Unauthorized"
//	@Failure	500	{object}	messageResponse	"Store failure"
//	@Router		/api/me [get]
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, msgUserNotFound)
			return
		}
		logFrom(r).Error().Err(err).Msg("get current user")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleEditMe godoc
//
// Both changes are persisted in one store write.
//
//	@Summary		Edit current user
//	@Description	Change the password and/or email after re-checking the current password
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			changes	body		editRequest		true	"Changes"
//	@Success		200		{object}	messageResponse	"Success message"
//	@Failure		400		{object}	messageResponse	"Missing fields, wrong current password or user not found"
//	@Failure		401		{object}	messageResponse	"Unauthorized"
//	@Failure		500		{object}	messageResponse	"Store failure"
//	@Router			/api/me/edit [put]
func (s *Server) handleEditMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	var req editRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgEditFields)
		return
	}
	email := normalizeEmail(req.Email)
	if req.CurrentPassword == "" || (req.NewPassword == "" && email == "") {
		writeError(w, http.StatusBadRequest, msgEditFields)
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, msgUserNotFound)
			return
		}
		logFrom(r).Error().Err(err).Msg("get current user")
		writeError(w, http.StatusInternalServerError, "Failed to change password and/or email")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidCurrentPwd)
		return
	}

	var newHash string
	if req.NewPassword != "" {
		newHash, err = auth.HashPassword(req.NewPassword, s.cfg.BcryptCost)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooLong) {
				writeError(w, http.StatusBadRequest, msgPasswordTooLong)
				return
			}
			logFrom(r).Error().Err(err).Msg("hash password")
			writeError(w, http.StatusInternalServerError, "Failed to change password and/or email")
			return
		}
	}

	if err := s.store.UpdateUserCredentials(r.Context(), userID, newHash, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, msgUserNotFound)
			return
		}
		logFrom(r).Error().Err(err).Msg("update credentials")
		writeError(w, http.StatusInternalServerError, "Failed to change password and/or email")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password and/or email changed successfully"})
}

// handleListUsers godoc
//
//	@Summary	List users
//	@Tags		Users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		model.User
//	@Failure	400	{object}	messageResponse	"Store failure"
//	@Failure	401	{object}	messageResponse	"Unauthorized"
//	@Router		/api/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		logFrom(r).Error().Err(err).Msg("list users")
		writeError(w, http.StatusBadRequest, "Failed to retrieve users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleGetUser godoc
//
//	@Summary	Get a user
//	@Tags		Users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	model.User
//	@Failure	401	{object}	messageResponse	"Unauthorized"
//	@Failure	404	{object}	messageResponse	"User not found"
//	@Failure	500	{object}	messageResponse	"Store failure"
//	@Router		/api/users/{id} [get]
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		logFrom(r).Error().Err(err).Msg("get user")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
