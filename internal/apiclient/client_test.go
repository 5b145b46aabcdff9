package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"snapfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Options{
		BaseURL: srv.URL + "/api/",
		Timeout: 2 * time.Second,
		Tokens:  TokenFunc(func() string { return token }),
	})
	return c, srv
}

func TestClient_SendsHeadersAndQuery(t *testing.T) {
	var got *http.Request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"data":[]}`))
	}, "tok-1")

	raw, err := c.Get(context.Background(), "/feed", map[string][]string{"page": {"2"}, "limit": {"10"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(raw))

	require.NotNil(t, got)
	assert.Equal(t, "/api/feed", got.URL.Path)
	assert.Equal(t, "2", got.URL.Query().Get("page"))
	assert.Equal(t, "Bearer tok-1", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	var auth atomic.Value
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}, "")

	raw, err := c.Delete(context.Background(), "/posts/:id/like", "5")
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Equal(t, "", auth.Load())
}

func TestClient_JSONBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/posts/9/comments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nice", body["content"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":1,"content":"nice"}}`))
	}, "t")

	_, err := c.Post(context.Background(), "/posts/:id/comments", map[string]string{"content": "nice"}, "9")
	require.NoError(t, err)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{"message field", 400, `{"message":"Invalid email or password"}`, models.CodeValidation, "Invalid email or password"},
		{"error field", 404, `{"error":"Post not found"}`, models.CodeNotFound, "Post not found"},
		{"nested error", 403, `{"error":{"message":"Not yours"}}`, models.CodeForbidden, "Not yours"},
		{"no body", 500, ``, models.CodeServer, "Server error"},
		{"html body", 502, `<html>bad gateway</html>`, models.CodeServer, "Server error"},
		{"conflict", 409, `{"message":"Already following"}`, models.CodeRequestFailed, "Already following"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, "")
			_, err := c.Get(context.Background(), "/feed", nil)
			appErr, ok := models.AsAppError(err)
			require.True(t, ok, "expected AppError, got %T", err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, tt.status, appErr.Status)
		})
	}
}

func TestClient_UnauthorizedHook(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token expired"}`))
	}, "stale")

	var fired atomic.Int32
	c.SetOnUnauthorized(func() { fired.Add(1) })

	_, err := c.Get(context.Background(), "/me", nil)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), fired.Load())
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(Options{BaseURL: srv.URL})

	_, err := c.Get(context.Background(), "/feed", nil)
	assert.True(t, models.HasCode(err, models.CodeNetwork))
}

func TestClient_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "/users/search", nil)
	assert.True(t, IsCanceled(err))
}

func TestClient_NonJSONSuccess(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}, "")
	_, err := c.Get(context.Background(), "/feed", nil)
	assert.True(t, models.HasCode(err, models.CodeDecode))
}

func TestClient_Upload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "sunset", r.FormValue("caption"))
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "a.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		b, _ := io.ReadAll(f)
		assert.Equal(t, "PNGDATA", string(b))
		_, _ = w.Write([]byte(`{"data":{"id":3}}`))
	}, "t")

	form := NewForm().
		File("image", "a.png", "image/png", strings.NewReader("PNGDATA")).
		Field("caption", "sunset")
	raw, err := c.Upload(context.Background(), http.MethodPost, "/posts", form)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":3}}`, string(raw))
}

func TestBuildPath(t *testing.T) {
	p, err := BuildPath("/users/:username/posts", "jane doe")
	require.NoError(t, err)
	assert.Equal(t, "/users/jane%20doe/posts", p)

	_, err = BuildPath("/posts/:id")
	assert.Error(t, err)
	_, err = BuildPath("/posts/:id", "")
	assert.Error(t, err)
	_, err = BuildPath("/feed", "extra")
	assert.Error(t, err)
}
