package sandbox

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSandbox(t *testing.T, seedUsers int) *Server {
	t.Helper()
	s, err := New(Config{JWTSecret: "test-secret-key", SeedUsers: seedUsers, Seed: 42})
	require.NoError(t, err)
	return s
}

func call(t *testing.T, s *Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, s, req)
}

func send(t *testing.T, s *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func register(t *testing.T, s *Server, username string) string {
	t.Helper()
	status, body := call(t, s, fiber.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     strings.ToUpper(username[:1]) + username[1:],
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	return dig(body, "data", "token").(string)
}

func imageUpload(t *testing.T, path, token, caption, contentType string, size int) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if caption != "" {
		require.NoError(t, w.WriteField("caption", caption))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func createPost(t *testing.T, s *Server, token, caption string) float64 {
	t.Helper()
	status, body := send(t, s, imageUpload(t, "/api/posts", token, caption, "image/png", 64))
	require.Equal(t, fiber.StatusCreated, status, body)
	return dig(body, "data", "id").(float64)
}

// dig walks nested JSON objects by key.
func dig(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	s := newSandbox(t, 0)
	register(t, s, "ann")

	status, body := call(t, s, fiber.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ann Two", "username": "ann2", "email": "ANN@example.com", "password": "password123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email already exists", body["message"])

	status, body = call(t, s, fiber.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "B", "username": "bo", "email": "bo@example.com", "password": "123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, body = call(t, s, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, dig(body, "data", "token"))
	assert.Equal(t, "ann", dig(body, "data", "user", "username"))

	status, body = call(t, s, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestAuth_Middleware(t *testing.T) {
	s := newSandbox(t, 0)

	status, body := call(t, s, fiber.MethodGet, "/api/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Missing authorization header", body["error"])

	status, _ = call(t, s, fiber.MethodGet, "/api/me", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	other, err := New(Config{JWTSecret: "other-secret"})
	require.NoError(t, err)
	forged, err := other.IssueToken(1)
	require.NoError(t, err)
	register(t, s, "ann")
	status, _ = call(t, s, fiber.MethodGet, "/api/me", forged, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuth_ExpiredToken(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s, err := New(Config{JWTSecret: "k", TokenTTL: time.Minute, Now: clock})
	require.NoError(t, err)
	token := register(t, s, "ann")

	status, _ := call(t, s, fiber.MethodGet, "/api/me", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	now = now.Add(2 * time.Minute)
	status, _ = call(t, s, fiber.MethodGet, "/api/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestPosts_CreateFeedExplore(t *testing.T) {
	s := newSandbox(t, 0)
	ann := register(t, s, "ann")
	bo := register(t, s, "bob")

	first := createPost(t, s, ann, "first")
	second := createPost(t, s, ann, "  second  ")
	createPost(t, s, bo, "")

	status, body := call(t, s, fiber.MethodGet, "/api/feed?page=1&limit=10", ann, nil)
	require.Equal(t, fiber.StatusOK, status)
	items := dig(body, "data", "items").([]any)
	require.Len(t, items, 2, "feed holds only ann's posts until she follows bob")
	assert.Equal(t, second, dig(items[0], "id"))
	assert.Equal(t, "second", dig(items[0], "caption"))
	assert.Equal(t, first, dig(items[1], "id"))
	assert.Equal(t, "ann", dig(items[0], "author", "username"))
	assert.Equal(t, float64(1), dig(body, "data", "pagination", "totalPages"))

	status, _ = call(t, s, fiber.MethodPost, "/api/follow/bob", ann, nil)
	require.Equal(t, fiber.StatusOK, status)
	_, body = call(t, s, fiber.MethodGet, "/api/feed", ann, nil)
	assert.Len(t, dig(body, "data", "items"), 3)

	_, body = call(t, s, fiber.MethodGet, "/api/posts?page=1&limit=2", "", nil)
	posts := dig(body, "data", "posts").([]any)
	require.Len(t, posts, 2)
	assert.Nil(t, dig(posts[0], "caption"), "bob posted without a caption")
	assert.Equal(t, "bob", dig(posts[0], "user", "username"))
	assert.Equal(t, float64(2), dig(body, "data", "pagination", "totalPages"))

	_, body = call(t, s, fiber.MethodGet, "/api/posts?page=2&limit=2", "", nil)
	posts = dig(body, "data", "posts").([]any)
	require.Len(t, posts, 1)
	assert.Equal(t, first, dig(posts[0], "id"))
	assert.Equal(t, float64(0), dig(posts[0], "likesCount"))
}

func TestPosts_CreateRejectsBadImages(t *testing.T) {
	s := newSandbox(t, 0)
	ann := register(t, s, "ann")

	status, body := send(t, s, imageUpload(t, "/api/posts", ann, "x", "text/plain", 10))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, _ = send(t, s, imageUpload(t, "/api/posts", ann, "x", "image/jpeg", 5<<20+1))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = call(t, s, fiber.MethodPost, "/api/posts", ann, map[string]string{"caption": "no image"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Image is required", body["message"])
}

func TestPosts_GetAndDelete(t *testing.T) {
	s := newSandbox(t, 0)
	ann := register(t, s, "ann")
	bo := register(t, s, "bob")
	id := createPost(t, s, ann, "mine")
	path := "/api/posts/" + jsonID(id)

	status, body := call(t, s, fiber.MethodGet, path, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "mine", dig(body, "data", "post", "caption"))

	status, _ = call(t, s, fiber.MethodDelete, path, bo, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, s, fiber.MethodDelete, path, ann, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = call(t, s, fiber.MethodGet, path, "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Post not found", body["message"])

	status, _ = call(t, s, fiber.MethodGet, "/api/posts/abc", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestSocial_LikeSaveComment(t *testing.T) {
	s := newSandbox(t, 0)
	ann := register(t, s, "ann")
	bo := register(t, s, "bob")
	id := createPost(t, s, ann, "pic")
	path := "/api/posts/" + jsonID(id)

	for i := 0; i < 2; i++ {
		status, body := call(t, s, fiber.MethodPost, path+"/like", bo, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, float64(1), dig(body, "data", "likeCount"), "likes are idempotent")
	}
	_, body := call(t, s, fiber.MethodGet, path, bo, nil)
	assert.Equal(t, true, dig(body, "data", "post", "likedByMe"))
	assert.Equal(t, float64(1), dig(body, "data", "post", "likeCount"))

	_, body = call(t, s, fiber.MethodGet, path+"/likes", "", nil)
	users := dig(body, "data", "users").([]any)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", dig(users[0], "username"))

	_, body = call(t, s, fiber.MethodGet, "/api/me/likes", bo, nil)
	assert.Len(t, dig(body, "data", "items"), 1)
	assert.Equal(t, float64(1), dig(body, "data", "pagination", "totalItems"))

	status, _ := call(t, s, fiber.MethodDelete, path+"/like", bo, nil)
	require.Equal(t, fiber.StatusOK, status)
	_, body = call(t, s, fiber.MethodGet, path, bo, nil)
	assert.Equal(t, float64(0), dig(body, "data", "post", "likeCount"))

	status, _ = call(t, s, fiber.MethodPost, path+"/save", bo, nil)
	require.Equal(t, fiber.StatusOK, status)
	_, body = call(t, s, fiber.MethodGet, "/api/me/saved", bo, nil)
	saved := dig(body, "data", "items").([]any)
	require.Len(t, saved, 1)
	assert.Equal(t, true, dig(saved[0], "isSaved"))

	status, body = call(t, s, fiber.MethodPost, path+"/comments", bo, map[string]string{"content": "   "})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = call(t, s, fiber.MethodPost, path+"/comments", bo, map[string]string{"content": " nice "})
	require.Equal(t, fiber.StatusCreated, status)
	commentID := dig(body, "data", "id").(float64)
	assert.Equal(t, "nice", dig(body, "data", "content"))

	_, body = call(t, s, fiber.MethodGet, path+"/comments", "", nil)
	assert.Len(t, dig(body, "data", "comments"), 1)

	// The post author may remove comments on their post.
	status, _ = call(t, s, fiber.MethodDelete, "/api/comments/"+jsonID(commentID), ann, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = call(t, s, fiber.MethodDelete, "/api/comments/"+jsonID(commentID), ann, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSocial_FollowAndProfiles(t *testing.T) {
	s := newSandbox(t, 0)
	ann := register(t, s, "ann")
	register(t, s, "bob")
	createPost(t, s, ann, "one")

	status, body := call(t, s, fiber.MethodPost, "/api/follow/ann", ann, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "You cannot follow yourself", body["message"])

	status, _ = call(t, s, fiber.MethodPost, "/api/follow/nobody", ann, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = call(t, s, fiber.MethodPost, "/api/follow/bob", ann, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), dig(body, "data", "followersCount"))

	_, body = call(t, s, fiber.MethodGet, "/api/users/bob", ann, nil)
	assert.Equal(t, true, dig(body, "data", "profile", "isFollowing"))
	assert.Equal(t, float64(1), dig(body, "data", "profile", "stats", "followers"))

	_, body = call(t, s, fiber.MethodGet, "/api/users/bob/followers", "", nil)
	followers := body["data"].([]any)
	require.Len(t, followers, 1)
	assert.Equal(t, "ann", dig(followers[0], "username"))

	_, body = call(t, s, fiber.MethodGet, "/api/users/ann/following", "", nil)
	assert.Len(t, body["following"], 1)

	_, body = call(t, s, fiber.MethodGet, "/api/me", ann, nil)
	assert.Equal(t, "ann", dig(body, "data", "profile", "username"))
	assert.Equal(t, float64(1), dig(body, "data", "stats", "postsCount"))
	assert.Equal(t, float64(1), dig(body, "data", "stats", "followingCount"))

	_, body = call(t, s, fiber.MethodGet, "/api/users/ann/posts?limit=1", "", nil)
	assert.Len(t, dig(body, "data", "items"), 1)
	assert.Equal(t, float64(1), dig(body, "data", "pagination", "currentPage"))

	status, _ = call(t, s, fiber.MethodGet, "/api/users/nobody", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUsers_Search(t *testing.T) {
	s := newSandbox(t, 0)
	register(t, s, "annabel")
	register(t, s, "hannah")
	register(t, s, "bob")

	_, body := call(t, s, fiber.MethodGet, "/api/users/search?q=ANN", "", nil)
	users := dig(body, "data", "users").([]any)
	require.Len(t, users, 2)
	assert.Equal(t, "annabel", dig(users[0], "username"))

	_, body = call(t, s, fiber.MethodGet, "/api/users/search?q=%20", "", nil)
	assert.Empty(t, dig(body, "data", "users"))
}

func TestUsers_UpdateMe(t *testing.T) {
	s := newSandbox(t, 0)
	ann := register(t, s, "ann")
	register(t, s, "bob")

	patch := func(fields map[string]string) (int, map[string]any) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range fields {
			require.NoError(t, w.WriteField(k, v))
		}
		require.NoError(t, w.Close())
		req := httptest.NewRequest(fiber.MethodPatch, "/api/me", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+ann)
		return send(t, s, req)
	}

	status, body := patch(map[string]string{"username": "bob"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Username already taken", body["message"])

	status, body = patch(map[string]string{"bio": strings.Repeat("x", 161)})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = patch(map[string]string{"name": "Ann Lee", "username": "annlee", "bio": "hello", "numberPhone": ""})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "annlee", dig(body, "data", "username"))
	assert.Equal(t, "hello", dig(body, "data", "bio"))
	assert.Equal(t, float64(0), dig(body, "data", "postsCount"))

	status, _ = call(t, s, fiber.MethodGet, "/api/users/annlee", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, s, fiber.MethodGet, "/api/users/ann", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call(t, s, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "password123",
	})
	assert.Equal(t, fiber.StatusOK, status, "email is unchanged")
}

func TestFailNext(t *testing.T) {
	s := newSandbox(t, 0)
	ann := register(t, s, "ann")
	id := createPost(t, s, ann, "pic")
	path := "/api/posts/" + jsonID(id) + "/like"

	s.FailNext("POST /posts/:id/like")
	status, body := call(t, s, fiber.MethodPost, path, ann, nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Injected failure", body["message"])

	status, _ = call(t, s, fiber.MethodPost, path, ann, nil)
	assert.Equal(t, fiber.StatusOK, status, "faults are consumed")
}

func TestSeed(t *testing.T) {
	s := newSandbox(t, 5)
	names := s.Usernames()
	require.Len(t, names, 5)

	status, body := call(t, s, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": names[0] + "@example.com", "password": SeedPassword,
	})
	require.Equal(t, fiber.StatusOK, status)
	token := dig(body, "data", "token").(string)

	_, body = call(t, s, fiber.MethodGet, "/api/posts?limit=50", token, nil)
	assert.NotEmpty(t, dig(body, "data", "posts"))

	again := newSandbox(t, 5)
	assert.Equal(t, names, again.Usernames(), "a fixed seed reproduces the dataset")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newSandbox(t, 0)
	call(t, s, fiber.MethodGet, "/api/posts", "", nil)

	resp, err := s.App().Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "requests_total")
}

func TestSwaggerDocCoversEveryRoute(t *testing.T) {
	s := newSandbox(t, 0)
	resp, err := s.App().Test(httptest.NewRequest(fiber.MethodGet, "/api/swagger/doc.json", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]map[string]json.RawMessage
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "snapfeed sandbox API", doc.Info.Title)

	for _, r := range s.App().GetRoutes(true) {
		if !strings.HasPrefix(r.Path, "/api/") || strings.HasPrefix(r.Path, "/api/swagger") || r.Method == fiber.MethodHead {
			continue
		}
		path := strings.TrimPrefix(r.Path, "/api")
		for _, param := range []string{"id", "username"} {
			path = strings.ReplaceAll(path, ":"+param, "{"+param+"}")
		}
		_, ok := doc.Paths[path][strings.ToLower(r.Method)]
		assert.True(t, ok, "%s %s is documented", r.Method, path)
	}
}

func jsonID(id float64) string {
	return strconv.FormatInt(int64(id), 10)
}
