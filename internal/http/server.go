package httpapp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"

	_ "github.com/alphabot-ai/socialfeed/docs" // swagger docs
	"github.com/alphabot-ai/socialfeed/internal/auth"
	"github.com/alphabot-ai/socialfeed/internal/config"
	"github.com/alphabot-ai/socialfeed/internal/store"
)

// authorLookupLimit bounds the concurrent user lookups of one author join.
const authorLookupLimit = 8

type Server struct {
	store   store.Store
	tokens  *auth.TokenService
	cfg     config.Config
	handler http.Handler

	// dummyHash is compared against on logins for unknown emails so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

func NewServer(st store.Store, tokens *auth.TokenService, cfg config.Config) (*Server, error) {
	dummy, err := auth.HashPassword("socialfeed-dummy-password", cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	s := &Server{store: st, tokens: tokens, cfg: cfg, dummyHash: dummy}
	s.handler = withRequestID(withAccessLog(withRecover(withCORS(cfg.CORSOrigin, s.routes()))))
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/openapi.json", s.serveOpenAPIJSON).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)

	r.Handle("/api/users", s.requireAuth(s.handleListUsers)).Methods(http.MethodGet)
	r.Handle("/api/users/{id}", s.requireAuth(s.handleGetUser)).Methods(http.MethodGet)
	r.Handle("/api/me", s.requireAuth(s.handleMe)).Methods(http.MethodGet)
	r.Handle("/api/me/edit", s.requireAuth(s.handleEditMe)).Methods(http.MethodPut)

	r.Handle("/api/posts", s.requireAuth(s.handleCreatePost)).Methods(http.MethodPost)
	r.Handle("/api/posts", s.requireAuth(s.handleListPosts)).Methods(http.MethodGet)
	r.Handle("/api/posts/{postId}/like/{userId}", s.requireAuth(s.handleLikePost)).Methods(http.MethodPut)
	r.Handle("/api/posts/{postId}/like/{userId}", s.requireAuth(s.handleUnlikePost)).Methods(http.MethodDelete)
	r.Handle("/api/posts/author/{authorId}", s.requireAuth(s.handleListPostsByAuthor)).Methods(http.MethodGet)
	r.Handle("/api/posts/{postCid}", s.requireAuth(s.handlePostsByCID)).Methods(http.MethodGet)

	return r
}

// handleHealth godoc
//
//	@Summary		Liveness check
//	@Description	Pings the store
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		503	{object}	messageResponse	"Store unavailable"
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		logFrom(r).Error().Err(err).Msg("store ping failed")
		writeError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		logFrom(r).Error().Err(err).Msg("read openapi doc")
		writeError(w, http.StatusInternalServerError, "OpenAPI document unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(doc))
}

var errEmptyBody = errors.New("empty request body")

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	// Unknown keys are ignored; clients often send extras like confirmPassword.
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
