package store

import (
	"context"
	"sync"

	"snapfeed/internal/models"
	"snapfeed/internal/service"
	"snapfeed/internal/session"
)

type stubAuth struct {
	login    func(ctx context.Context, email, password string) (models.User, string, error)
	register func(ctx context.Context, in service.RegisterInput) (models.User, string, error)
	me       func(ctx context.Context) (models.User, error)
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (models.User, string, error) {
	return s.login(ctx, email, password)
}

func (s *stubAuth) Register(ctx context.Context, in service.RegisterInput) (models.User, string, error) {
	return s.register(ctx, in)
}

func (s *stubAuth) Me(ctx context.Context) (models.User, error) {
	return s.me(ctx)
}

type stubFeed struct {
	feed    func(ctx context.Context, page, limit int) (models.Page[models.Post], error)
	explore func(ctx context.Context, page, limit int) (models.Page[models.Post], error)
}

func (s *stubFeed) Feed(ctx context.Context, page, limit int) (models.Page[models.Post], error) {
	return s.feed(ctx, page, limit)
}

func (s *stubFeed) Explore(ctx context.Context, page, limit int) (models.Page[models.Post], error) {
	return s.explore(ctx, page, limit)
}

type stubPosts struct {
	create     func(ctx context.Context, image service.Image, caption string) (models.Post, error)
	get        func(ctx context.Context, id models.ID) (models.Post, error)
	delete     func(ctx context.Context, id models.ID) error
	userPosts  func(ctx context.Context, username string, page, limit int) (models.Page[models.Post], error)
	savedPosts func(ctx context.Context, page, limit int) (models.Page[models.Post], error)
}

func (s *stubPosts) Create(ctx context.Context, image service.Image, caption string) (models.Post, error) {
	return s.create(ctx, image, caption)
}

func (s *stubPosts) Get(ctx context.Context, id models.ID) (models.Post, error) {
	return s.get(ctx, id)
}

func (s *stubPosts) Delete(ctx context.Context, id models.ID) error {
	return s.delete(ctx, id)
}

func (s *stubPosts) UserPosts(ctx context.Context, username string, page, limit int) (models.Page[models.Post], error) {
	return s.userPosts(ctx, username, page, limit)
}

func (s *stubPosts) SavedPosts(ctx context.Context, page, limit int) (models.Page[models.Post], error) {
	return s.savedPosts(ctx, page, limit)
}

// stubToggle records calls and answers with err.
type stubToggle struct {
	mu    sync.Mutex
	calls []string
	err   error
	// gate, when set, blocks each call until it receives.
	gate chan struct{}
}

func (s *stubToggle) call(name string) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	return s.err
}

func (s *stubToggle) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubToggle) Like(context.Context, models.ID) error { return s.call("like") }
func (s *stubToggle) Unlike(context.Context, models.ID) error { return s.call("unlike") }
func (s *stubToggle) Save(context.Context, models.ID) error { return s.call("save") }
func (s *stubToggle) Unsave(context.Context, models.ID) error { return s.call("unsave") }
func (s *stubToggle) Follow(context.Context, string) error { return s.call("follow") }
func (s *stubToggle) Unfollow(context.Context, string) error { return s.call("unfollow") }

type stubComments struct {
	list   func(ctx context.Context, postID models.ID, page, limit int) (models.Page[models.Comment], error)
	add    func(ctx context.Context, postID models.ID, content string) (models.Comment, error)
	delete func(ctx context.Context, commentID models.ID) error
}

func (s *stubComments) List(ctx context.Context, postID models.ID, page, limit int) (models.Page[models.Comment], error) {
	return s.list(ctx, postID, page, limit)
}

func (s *stubComments) Add(ctx context.Context, postID models.ID, content string) (models.Comment, error) {
	return s.add(ctx, postID, content)
}

func (s *stubComments) Delete(ctx context.Context, commentID models.ID) error {
	return s.delete(ctx, commentID)
}

type stubProfile struct {
	mine       func(ctx context.Context) (models.Profile, error)
	update     func(ctx context.Context, in service.ProfileUpdate) (models.Profile, error)
	byUsername func(ctx context.Context, username string) (models.Profile, error)

	mu        sync.Mutex
	forgotten []string
}

func (s *stubProfile) Mine(ctx context.Context) (models.Profile, error) {
	return s.mine(ctx)
}

func (s *stubProfile) Update(ctx context.Context, in service.ProfileUpdate) (models.Profile, error) {
	return s.update(ctx, in)
}

func (s *stubProfile) ByUsername(ctx context.Context, username string) (models.Profile, error) {
	return s.byUsername(ctx, username)
}

func (s *stubProfile) Forget(_ context.Context, usernames ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgotten = append(s.forgotten, usernames...)
}

type fixture struct {
	store    *Store
	session  *session.MemoryStore
	auth     *stubAuth
	feed     *stubFeed
	posts    *stubPosts
	toggles  *stubToggle
	comments *stubComments
	profile  *stubProfile
}

func newFixture() *fixture {
	f := &fixture{
		session:  session.NewMemoryStore(),
		auth:     &stubAuth{},
		feed:     &stubFeed{},
		posts:    &stubPosts{},
		toggles:  &stubToggle{},
		comments: &stubComments{},
		profile:  &stubProfile{},
	}
	f.store = New(Deps{
		Auth:     f.auth,
		Feed:     f.feed,
		Posts:    f.posts,
		Likes:    f.toggles,
		Saves:    f.toggles,
		Follows:  f.toggles,
		Comments: f.comments,
		Profile:  f.profile,
	}, f.session, Options{FeedPageSize: 3, ExplorePageSize: 3})
	return f
}

func posts(ids ...models.ID) []models.Post {
	out := make([]models.Post, len(ids))
	for i, id := range ids {
		out[i] = models.Post{ID: id, LikeCount: int(id)}
	}
	return out
}

func ids(list []models.Post) []models.ID {
	out := make([]models.ID, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}

func pageOf(items []models.Post, hasMore bool) models.Page[models.Post] {
	return models.Page[models.Post]{Items: items, HasMore: hasMore}
}
