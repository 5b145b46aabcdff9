// Package store holds the client's application state: the signed-in session,
// post lists, profiles and the open post. Every mutation goes through a Store
// method and is announced to subscribers.
//
// Network calls never run under the state lock. Optimistic updates are applied
// first and reverted if the request fails.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"
	"snapfeed/internal/service"
	"snapfeed/internal/session"

	"golang.org/x/sync/singleflight"
)

// ErrToggleInFlight is returned when the same like, save or follow toggle is already waiting on the API.
var ErrToggleInFlight = errors.New("toggle already in flight")

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (models.User, string, error)
	Register(ctx context.Context, in service.RegisterInput) (models.User, string, error)
	Me(ctx context.Context) (models.User, error)
}

type FeedAPI interface {
	Feed(ctx context.Context, page, limit int) (models.Page[models.Post], error)
	Explore(ctx context.Context, page, limit int) (models.Page[models.Post], error)
}

type PostAPI interface {
	Create(ctx context.Context, image service.Image, caption string) (models.Post, error)
	Get(ctx context.Context, id models.ID) (models.Post, error)
	Delete(ctx context.Context, id models.ID) error
	UserPosts(ctx context.Context, username string, page, limit int) (models.Page[models.Post], error)
	SavedPosts(ctx context.Context, page, limit int) (models.Page[models.Post], error)
}

type LikeAPI interface {
	Like(ctx context.Context, postID models.ID) error
	Unlike(ctx context.Context, postID models.ID) error
}

type SaveAPI interface {
	Save(ctx context.Context, postID models.ID) error
	Unsave(ctx context.Context, postID models.ID) error
}

type FollowAPI interface {
	Follow(ctx context.Context, username string) error
	Unfollow(ctx context.Context, username string) error
}

type CommentAPI interface {
	List(ctx context.Context, postID models.ID, page, limit int) (models.Page[models.Comment], error)
	Add(ctx context.Context, postID models.ID, content string) (models.Comment, error)
	Delete(ctx context.Context, commentID models.ID) error
}

type ProfileAPI interface {
	Mine(ctx context.Context) (models.Profile, error)
	Update(ctx context.Context, in service.ProfileUpdate) (models.Profile, error)
	ByUsername(ctx context.Context, username string) (models.Profile, error)
	Forget(ctx context.Context, usernames ...string)
}

// Deps are the API operations the store drives.
type Deps struct {
	Auth     AuthAPI
	Feed     FeedAPI
	Posts    PostAPI
	Likes    LikeAPI
	Saves    SaveAPI
	Follows  FollowAPI
	Comments CommentAPI
	Profile  ProfileAPI
}

// FromServices adapts a service bundle.
func FromServices(s *service.Services) Deps {
	return Deps{
		Auth:     s.Auth,
		Feed:     s.Feed,
		Posts:    s.Posts,
		Likes:    s.Likes,
		Saves:    s.Saves,
		Follows:  s.Follows,
		Comments: s.Comments,
		Profile:  s.Profile,
	}
}

// Options tunes page sizes. Zero values take the defaults.
type Options struct {
	FeedPageSize     int
	ExplorePageSize  int
	ProfilePageSize  int
	CommentsPageSize int
	// Now is the clock used for token expiry checks.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FeedPageSize <= 0 {
		o.FeedPageSize = service.DefaultFeedLimit
	}
	if o.ExplorePageSize <= 0 {
		o.ExplorePageSize = service.DefaultExploreLimit
	}
	if o.ProfilePageSize <= 0 {
		o.ProfilePageSize = service.DefaultProfileLimit
	}
	if o.CommentsPageSize <= 0 {
		o.CommentsPageSize = service.DefaultCommentsLimit
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Slice names the part of the state an Event concerns.
type Slice string

const (
	SliceAuth    Slice = "auth"
	SlicePosts   Slice = "posts"
	SliceProfile Slice = "profile"
	SliceDetail  Slice = "detail"
)

// Event announces that a slice changed.
type Event struct {
	Slice  Slice
	Action string
}

// Store is safe for concurrent use.
type Store struct {
	deps    Deps
	session session.Store
	opts    Options

	mu       sync.Mutex
	auth     AuthState
	feed     postList
	explore  postList
	postsErr string
	profile  ProfileState
	viewGen  uint64
	detail   DetailState
	postGen  uint64
	inFlight map[string]struct{}

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int

	more singleflight.Group

	authLog    *observability.StoreLogger
	postsLog   *observability.StoreLogger
	profileLog *observability.StoreLogger
	detailLog  *observability.StoreLogger
}

// New returns an empty, signed-out store.
func New(deps Deps, sess session.Store, opts Options) *Store {
	if sess == nil {
		sess = session.NewMemoryStore()
	}
	return &Store{
		deps:       deps,
		session:    sess,
		opts:       opts.withDefaults(),
		feed:       newPostList("feed"),
		explore:    newPostList("explore"),
		inFlight:   make(map[string]struct{}),
		subs:       make(map[int]chan Event),
		authLog:    observability.NewStoreLogger(string(SliceAuth)),
		postsLog:   observability.NewStoreLogger(string(SlicePosts)),
		profileLog: observability.NewStoreLogger(string(SliceProfile)),
		detailLog:  observability.NewStoreLogger(string(SliceDetail)),
	}
}

// Subscribe returns a channel of change events and a function that ends the subscription.
// Delivery is best effort: a subscriber that falls behind misses events, never blocks the store.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notify(slice Slice, action string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- Event{Slice: slice, Action: action}:
		default:
		}
	}
}

// beginToggle claims key; the caller must endToggle when it returns true.
func (s *Store) beginToggle(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Store) endToggle(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

// eachPost applies fn to every copy of post id held in state. Callers hold s.mu.
func (s *Store) eachPost(id models.ID, fn func(*models.Post)) {
	for _, list := range [][]models.Post{s.feed.items, s.explore.items, s.profile.ViewedPosts, s.profile.SavedPosts} {
		for i := range list {
			if list[i].ID == id {
				fn(&list[i])
			}
		}
	}
	if s.detail.Post != nil && s.detail.Post.ID == id {
		fn(s.detail.Post)
	}
}

// findPost returns the first copy of post id in state. Callers hold s.mu.
func (s *Store) findPost(id models.ID) (models.Post, bool) {
	var found *models.Post
	s.eachPost(id, func(p *models.Post) {
		if found == nil {
			found = p
		}
	})
	if found == nil {
		return models.Post{}, false
	}
	return *found, true
}

func removePost(list []models.Post, id models.ID) []models.Post {
	out := list[:0]
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func clonePosts(list []models.Post) []models.Post {
	out := make([]models.Post, len(list))
	copy(out, list)
	return out
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func fields(kv ...any) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}
