package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/devlog/internal/commentservice"
	"github.com/sushihentaime/devlog/internal/common"
	"github.com/sushihentaime/devlog/internal/likeservice"
	"github.com/sushihentaime/devlog/internal/mediaservice"
	"github.com/sushihentaime/devlog/internal/postservice"
	"github.com/sushihentaime/devlog/internal/userservice"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "s3cret-pass"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func testConfig() *Config {
	return &Config{
		Environment:       "testing",
		Version:           "test",
		TrustedOrigins:    []string{"http://example.com"},
		AdminUser:         testAdminUser,
		AdminPassword:     testAdminPassword,
		AdminEmail:        "admin@example.com",
		JWTSecret:         "test-jwt-secret",
		SessionTTL:        time.Hour,
		CommentBcryptCost: bcrypt.MinCost,
		S3PublicBaseURL:   "https://cdn.example.com",
	}
}

// newTestApplication wires every service against a fresh postgres container.
// The broker is replaced by a producer mock and the blob store by a store mock.
func newTestApplication(t *testing.T) (*application, *sql.DB, *mediaservice.MockObjectStore) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewMemoryCache(5*time.Minute, 10*time.Minute)
	logger := zerolog.Nop()
	cfg := testConfig()

	producer := new(commentservice.MockMessageProducer)
	producer.On("Publish", mock.Anything, mock.Anything, common.CommentCreatedKey, common.CommentExchange).Return(nil)

	store := new(mediaservice.MockObjectStore)

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		userService: userservice.NewUserService(db, cache, userservice.Config{
			AdminUser:     cfg.AdminUser,
			AdminPassword: cfg.AdminPassword,
			AdminEmail:    cfg.AdminEmail,
			JWTSecret:     cfg.JWTSecret,
			SessionTTL:    cfg.SessionTTL,
		}, logger),
		postService:    postservice.NewPostService(db, cache, logger),
		commentService: commentservice.NewCommentService(db, producer, cfg.CommentBcryptCost, logger),
		likeService:    likeservice.NewLikeService(db, logger),
		mediaService:   mediaservice.NewMediaService(store, cfg.S3PublicBaseURL, logger),
		done:           make(chan struct{}),
	}
	t.Cleanup(func() { close(app.done) })

	return app, db, store
}

func truncateAll(t *testing.T, db *sql.DB) {
	_, err := db.Exec("TRUNCATE users, sessions, posts, tags, comments, likes RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

func (ts *testServer) do(t *testing.T, method, path string, payload any, token string, headers map[string]string) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, nil, token, nil)
}

func (ts *testServer) post(t *testing.T, path string, payload any, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, payload, token, nil)
}

func (ts *testServer) put(t *testing.T, path string, payload any, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, payload, token, nil)
}

func (ts *testServer) delete(t *testing.T, path string, payload any, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, payload, token, nil)
}

// login signs in with the configured admin credentials and returns the bearer token.
func (ts *testServer) login(t *testing.T) string {
	status, _, body := ts.post(t, "/v1/auth/login", map[string]string{"username": testAdminUser, "password": testAdminPassword}, "")
	require.Equal(t, http.StatusOK, status)

	session, ok := body["session"].(map[string]any)
	require.True(t, ok)

	token, ok := session["token"].(string)
	require.True(t, ok)

	return token
}

// createPost creates a post as the admin and returns its id.
func (ts *testServer) createPost(t *testing.T, token, title string, tags ...string) int {
	status, _, body := ts.post(t, "/v1/posts", map[string]any{"title": title, "content": "<p>body</p>", "tags": tags}, token)
	require.Equal(t, http.StatusCreated, status)

	post := body["post"].(map[string]any)
	return int(post["id"].(float64))
}

func tagCounts(t *testing.T, db *sql.DB) map[string]int {
	rows, err := db.Query("SELECT name, count FROM tags")
	require.NoError(t, err)
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var name string
		var count int
		require.NoError(t, rows.Scan(&name, &count))
		counts[name] = count
	}
	require.NoError(t, rows.Err())

	return counts
}
