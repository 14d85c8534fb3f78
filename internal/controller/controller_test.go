package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/postboard"
	"github.com/klass-lk/postboard/internal/model"
	"github.com/klass-lk/postboard/internal/service"
	"github.com/klass-lk/postboard/internal/store"
)

func newTestServer(t *testing.T) (*postboard.Server, *store.FileStore) {
	gin.SetMode(gin.TestMode)

	s := store.NewFileStore(filepath.Join(t.TempDir(), "blog_posts.json"))
	require.NoError(t, s.Initialize(context.Background()))

	server := postboard.New()
	require.NoError(t, Register(server, service.NewPostService(s)))
	return server, s
}

func serve(server *postboard.Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, req)
	return w
}

func serveJSON(server *postboard.Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, req)
	return w
}

func loadPosts(t *testing.T, s store.Store) []model.Post {
	posts, err := s.Load(context.Background())
	require.NoError(t, err)
	return posts
}

func TestPostController_Index(t *testing.T) {
	server, _ := newTestServer(t)

	w := serve(server, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "First Post")
	assert.Contains(t, w.Body.String(), "Jane Doe")
	assert.Contains(t, w.Body.String(), `href="/update/2"`)
	assert.NotEmpty(t, w.Header().Get(postboard.RequestIDHeader))
}

func TestPostController_IndexEmpty(t *testing.T) {
	server, s := newTestServer(t)
	require.NoError(t, s.Save(context.Background(), []model.Post{}))

	w := serve(server, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No posts yet.")
}

func TestPostController_IndexCorruptStore(t *testing.T) {
	server, s := newTestServer(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	w := serve(server, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPostController_AddForm(t *testing.T) {
	server, _ := newTestServer(t)

	w := serve(server, http.MethodGet, "/add", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/add"`)
}

func TestPostController_Add(t *testing.T) {
	server, s := newTestServer(t)

	w := serve(server, http.MethodPost, "/add", url.Values{
		"author":  {"A"},
		"title":   {"T"},
		"content": {"C"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	posts := loadPosts(t, s)
	require.Len(t, posts, 3)
	assert.Equal(t, model.Post{ID: 3, Author: "A", Title: "T", Content: "C"}, posts[2])
}

func TestPostController_AddMissingFields(t *testing.T) {
	server, s := newTestServer(t)

	w := serve(server, http.MethodPost, "/add", url.Values{"title": {"Only title"}})

	assert.Equal(t, http.StatusFound, w.Code)
	posts := loadPosts(t, s)
	require.Len(t, posts, 3)
	assert.Equal(t, model.Post{ID: 3, Title: "Only title"}, posts[2])
}

func TestPostController_Delete(t *testing.T) {
	server, s := newTestServer(t)

	w := serve(server, http.MethodGet, "/delete/1", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, []model.Post{
		{ID: 1, Author: "Jane Doe", Title: "Second Post", Content: "This is another post."},
	}, loadPosts(t, s))
}

func TestPostController_DeleteUnknown(t *testing.T) {
	server, s := newTestServer(t)

	w := serve(server, http.MethodGet, "/delete/42", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, model.SeedPosts(), loadPosts(t, s))
}

func TestPostController_UpdateForm(t *testing.T) {
	server, _ := newTestServer(t)

	w := serve(server, http.MethodGet, "/update/1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/update/1"`)
	assert.Contains(t, w.Body.String(), `value="John Doe"`)
	assert.Contains(t, w.Body.String(), "This is my first post.")
}

func TestPostController_UpdateFormNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []string{"/update/99", "/update/abc"}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			w := serve(server, http.MethodGet, target, nil)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Contains(t, w.Body.String(), "Post not found")
		})
	}
}

func TestPostController_Update(t *testing.T) {
	server, s := newTestServer(t)

	w := serve(server, http.MethodPost, "/update/2", url.Values{
		"author":  {"X"},
		"title":   {"Y"},
		"content": {"Z"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	posts := loadPosts(t, s)
	assert.Equal(t, model.SeedPosts()[0], posts[0])
	assert.Equal(t, model.Post{ID: 2, Author: "X", Title: "Y", Content: "Z"}, posts[1])
}

func TestPostController_UpdateNotFound(t *testing.T) {
	server, s := newTestServer(t)

	w := serve(server, http.MethodPost, "/update/7", url.Values{"author": {"X"}})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Post not found")
	assert.Equal(t, model.SeedPosts(), loadPosts(t, s))
}

func TestPostController_NonIntegerId(t *testing.T) {
	tests := []struct {
		method string
		target string
		form   url.Values
	}{
		{method: http.MethodGet, target: "/delete/first"},
		{method: http.MethodGet, target: "/delete/+1"},
		{method: http.MethodGet, target: "/delete/-1"},
		{method: http.MethodGet, target: "/update/-1"},
		{method: http.MethodGet, target: "/update/+2"},
		{method: http.MethodPost, target: "/update/+2", form: url.Values{"author": {"X"}}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			server, s := newTestServer(t)

			w := serve(server, tt.method, tt.target, tt.form)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Contains(t, w.Body.String(), "Post not found")
			assert.Equal(t, model.SeedPosts(), loadPosts(t, s))
		})
	}
}

func TestApiController_SignedId(t *testing.T) {
	server, s := newTestServer(t)

	w := serve(server, http.MethodDelete, "/api/posts/+1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, model.SeedPosts(), loadPosts(t, s))
}

func TestApiController_GetPosts(t *testing.T) {
	server, _ := newTestServer(t)

	w := serve(server, http.MethodGet, "/api/posts", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var posts []model.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	assert.Equal(t, model.SeedPosts(), posts)
}

func TestApiController_GetPost(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("found", func(t *testing.T) {
		w := serve(server, http.MethodGet, "/api/posts/2", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var post model.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		assert.Equal(t, model.SeedPosts()[1], post)
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(server, http.MethodGet, "/api/posts/5", nil)

		require.Equal(t, http.StatusNotFound, w.Code)
		var resp postboard.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "POST_NOT_FOUND", resp.ErrorCode)
		assert.Equal(t, "post 5 not found", resp.Message)
	})
}

func TestApiController_CreatePost(t *testing.T) {
	server, s := newTestServer(t)

	w := serveJSON(server, http.MethodPost, "/api/posts", `{"author":"A","title":"T","content":"C"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var post model.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, model.Post{ID: 3, Author: "A", Title: "T", Content: "C"}, post)
	assert.Len(t, loadPosts(t, s), 3)
}

func TestApiController_CreatePostBadBody(t *testing.T) {
	server, s := newTestServer(t)

	w := serveJSON(server, http.MethodPost, "/api/posts", `{"author":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.SeedPosts(), loadPosts(t, s))
}

func TestApiController_UpdatePost(t *testing.T) {
	server, s := newTestServer(t)

	w := serveJSON(server, http.MethodPut, "/api/posts/1", `{"author":"X","title":"Y","content":"Z"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Post{ID: 1, Author: "X", Title: "Y", Content: "Z"}, loadPosts(t, s)[0])

	w = serveJSON(server, http.MethodPut, "/api/posts/9", `{"author":"X"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApiController_DeletePost(t *testing.T) {
	server, s := newTestServer(t)

	w := serve(server, http.MethodDelete, "/api/posts/1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	posts := loadPosts(t, s)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].ID)
	assert.Equal(t, "Jane Doe", posts[0].Author)
}

func TestHealthController(t *testing.T) {
	server, _ := newTestServer(t)

	w := serve(server, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
