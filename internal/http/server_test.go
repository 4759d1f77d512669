package httpapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/socialfeed/internal/model"
	"github.com/alphabot-ai/socialfeed/internal/store"
	"github.com/alphabot-ai/socialfeed/internal/store/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := sqlite.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	cfg := testConfig()
	server, err := NewServer(st, newTokenService(t, cfg.Token), cfg)
	require.NoError(t, err)
	return server
}

func serve(server http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)
	resp := serve(server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

type unhealthyStore struct {
	*sqlite.Store
}

func (unhealthyStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthStoreDown(t *testing.T) {
	st, err := sqlite.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	defer st.Close()
	cfg := testConfig()
	server, err := NewServer(unhealthyStore{st}, newTokenService(t, cfg.Token), cfg)
	require.NoError(t, err)

	resp := serve(server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.JSONEq(t, `{"message":"Store unavailable"}`, resp.Body.String())
}

// opaqueIDStore rejects every user id the way an ObjectID backend rejects
// non-hex ids.
type opaqueIDStore struct {
	*sqlite.Store
}

func (opaqueIDStore) LikePost(context.Context, string, string) (model.Post, error) {
	return model.Post{}, store.ErrInvalidID
}

func TestLikeWithUnrepresentableUserID(t *testing.T) {
	st, err := sqlite.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	defer st.Close()
	cfg := testConfig()
	tokens := newTokenService(t, cfg.Token)
	server, err := NewServer(opaqueIDStore{st}, tokens, cfg)
	require.NoError(t, err)

	token, _, err := tokens.Issue("not-hex")
	require.NoError(t, err)
	resp := serve(server, http.MethodPut, "/api/posts/p1/like/not-hex", map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"message":"Invalid user id"}`, resp.Body.String())
}

func TestOpenAPIDocument(t *testing.T) {
	server := newTestServer(t)

	resp := serve(server, http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths               map[string]map[string]any `json:"paths"`
		SecurityDefinitions map[string]any            `json:"securityDefinitions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	assert.Equal(t, "socialfeed API", doc.Info.Title)
	assert.Contains(t, doc.SecurityDefinitions, "BearerAuth")
	for path, method := range map[string]string{
		"/api/auth/register":                "post",
		"/api/auth/login":                   "post",
		"/api/me/edit":                      "put",
		"/api/posts/{postCid}":              "get",
		"/api/posts/{postId}/like/{userId}": "delete",
	} {
		assert.Contains(t, doc.Paths[path], method, path)
	}

	resp = serve(server, http.MethodGet, "/swagger/index.html", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "swagger")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	server := newTestServer(t)

	resp := serve(server, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"message":"Not found"}`, resp.Body.String())
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

	resp = serve(server, http.MethodGet, "/api/auth/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	assert.JSONEq(t, `{"message":"Method not allowed"}`, resp.Body.String())
}

func TestCORS(t *testing.T) {
	server := newTestServer(t)

	resp := serve(server, http.MethodOptions, "/api/posts/p1/like/u1", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodPut,
	})
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	resp = serve(server, http.MethodGet, "/health", nil)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	server := newTestServer(t)

	resp := serve(server, http.MethodGet, "/health", nil)
	generated := resp.Header().Get(requestIDHeader)
	assert.Len(t, generated, 36)

	resp = serve(server, http.MethodGet, "/health", map[string]string{requestIDHeader: "req-42"})
	assert.Equal(t, "req-42", resp.Header().Get(requestIDHeader))
}

func TestAccessLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	server := newTestServer(t)
	serve(server, http.MethodGet, "/nope", map[string]string{requestIDHeader: "trace-me"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "trace-me", entry["request_id"])
	assert.Equal(t, "/nope", entry["path"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
}

func TestRecoverPanics(t *testing.T) {
	handler := withRequestID(withRecover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	resp := serve(handler, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, resp.Body.String())
}
