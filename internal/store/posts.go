package store

import (
	"context"
	"strconv"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"
	"snapfeed/internal/service"
)

// PostsState holds the feed and explore timelines.
type PostsState struct {
	Feed           []models.Post
	Explore        []models.Post
	FeedPage       int
	ExplorePage    int
	FeedHasMore    bool
	ExploreHasMore bool
	FeedLoading    bool
	ExploreLoading bool
	Error          string
}

// postList is one paginated timeline. gen changes whenever the list restarts, so
// responses issued before the restart can be recognised and dropped. restarting is set
// while a page-1 fetch is in flight; later pages are refused until it lands.
type postList struct {
	name       string
	items      []models.Post
	page       int
	hasMore    bool
	loading    bool
	restarting bool
	gen        uint64
}

func newPostList(name string) postList {
	return postList{name: name, items: []models.Post{}, page: 1, hasMore: true}
}

func (l *postList) reset() {
	l.items = []models.Post{}
	l.page = 1
	l.hasMore = true
	l.loading = false
	l.restarting = false
	l.gen++
}

// merge applies a fetched page: page 1 replaces, later pages append unseen ids.
func (l *postList) merge(page int, items []models.Post) {
	if page <= 1 {
		l.items = dedupe(nil, items)
		return
	}
	l.items = dedupe(l.items, items)
}

func dedupe(list, incoming []models.Post) []models.Post {
	seen := make(map[models.ID]struct{}, len(list)+len(incoming))
	out := make([]models.Post, 0, len(list)+len(incoming))
	for _, p := range list {
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range incoming {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Posts returns a snapshot of the posts slice.
func (s *Store) Posts() PostsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PostsState{
		Feed:           clonePosts(s.feed.items),
		Explore:        clonePosts(s.explore.items),
		FeedPage:       s.feed.page,
		ExplorePage:    s.explore.page,
		FeedHasMore:    s.feed.hasMore,
		ExploreHasMore: s.explore.hasMore,
		FeedLoading:    s.feed.loading,
		ExploreLoading: s.explore.loading,
		Error:          s.postsErr,
	}
}

type pageFetcher func(ctx context.Context, page, limit int) (models.Page[models.Post], error)

// FetchFeed loads one page of the home feed. A full page means more may follow.
func (s *Store) FetchFeed(ctx context.Context, page int) error {
	size := s.opts.FeedPageSize
	return s.fetchList(ctx, &s.feed, page, size, s.deps.Feed.Feed, "Failed to fetch feed",
		func(p models.Page[models.Post]) bool { return len(p.Items) >= size })
}

// FetchExplore loads one page of the explore timeline; hasMore comes from the API.
func (s *Store) FetchExplore(ctx context.Context, page int) error {
	return s.fetchList(ctx, &s.explore, page, s.opts.ExplorePageSize, s.deps.Feed.Explore, "Failed to fetch explore",
		func(p models.Page[models.Post]) bool { return p.HasMore })
}

func (s *Store) fetchList(ctx context.Context, l *postList, page, limit int, fetch pageFetcher, fallback string,
	hasMore func(models.Page[models.Post]) bool) error {
	action := "fetch_" + l.name
	span, ctx := observability.TraceStoreAction(ctx, string(SlicePosts), action)
	defer span.End()
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	if page > 1 && l.restarting {
		s.mu.Unlock()
		s.postsLog.LogAction(ctx, action+"/skipped", fields("page", page, "reason", "page 1 loading"))
		return nil
	}
	if page == 1 {
		l.gen++
		l.restarting = true
	}
	gen := l.gen
	l.loading = true
	s.postsErr = ""
	s.mu.Unlock()
	s.notify(SlicePosts, action+"/pending")

	result, err := fetch(ctx, page, limit)

	s.mu.Lock()
	if gen != l.gen {
		s.mu.Unlock()
		observability.StaleResponsesDropped.WithLabelValues(l.name).Inc()
		s.postsLog.LogAction(ctx, action+"/stale", fields("page", page))
		return nil
	}
	l.loading = false
	l.restarting = false
	if err != nil {
		if !isCanceled(err) {
			s.postsErr = models.ServerMessage(err, fallback)
		}
		s.mu.Unlock()
		span.SetError(err)
		s.postsLog.LogError(ctx, action, err)
		s.notify(SlicePosts, action+"/rejected")
		return err
	}
	l.merge(page, result.Items)
	l.page = page
	l.hasMore = hasMore(result)
	count := len(l.items)
	s.mu.Unlock()

	s.postsLog.LogAction(ctx, action, fields("page", page, "received", len(result.Items), "total", count))
	s.notify(SlicePosts, action+"/fulfilled")
	return nil
}

// FetchMoreFeed loads the next feed page unless one is loading or the feed is exhausted.
func (s *Store) FetchMoreFeed(ctx context.Context) error {
	return s.fetchMore(ctx, &s.feed, s.FetchFeed)
}

// FetchMoreExplore is FetchMoreFeed for the explore timeline.
func (s *Store) FetchMoreExplore(ctx context.Context) error {
	return s.fetchMore(ctx, &s.explore, s.FetchExplore)
}

func (s *Store) fetchMore(ctx context.Context, l *postList, fetch func(context.Context, int) error) error {
	s.mu.Lock()
	if l.loading || !l.hasMore {
		s.mu.Unlock()
		return nil
	}
	next := l.page + 1
	gen := l.gen
	s.mu.Unlock()

	key := l.name + ":" + strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(next)
	_, err, _ := s.more.Do(key, func() (any, error) {
		return nil, fetch(ctx, next)
	})
	return err
}

// ClearFeed empties the feed and resets pagination; in-flight responses are discarded.
func (s *Store) ClearFeed() {
	s.mu.Lock()
	s.feed.reset()
	s.mu.Unlock()
	s.notify(SlicePosts, "clear_feed")
}

// ClearExplore is ClearFeed for the explore timeline.
func (s *Store) ClearExplore() {
	s.mu.Lock()
	s.explore.reset()
	s.mu.Unlock()
	s.notify(SlicePosts, "clear_explore")
}

// UpsertPost replaces every held copy of post with the given version.
func (s *Store) UpsertPost(post models.Post) {
	s.mu.Lock()
	s.eachPost(post.ID, func(p *models.Post) { *p = post })
	s.mu.Unlock()
	s.notify(SlicePosts, "upsert")
}

// CreatePost uploads a post and puts it at the top of the feed.
func (s *Store) CreatePost(ctx context.Context, image service.Image, caption string) (models.Post, error) {
	span, ctx := observability.TraceStoreAction(ctx, string(SlicePosts), "create")
	defer span.End()

	post, err := s.deps.Posts.Create(ctx, image, caption)
	if err != nil {
		span.SetError(err)
		s.postsLog.LogError(ctx, "create", err)
		return models.Post{}, err
	}

	s.mu.Lock()
	if post.Author.ID == 0 && s.auth.User != nil {
		post.Author = s.auth.User.Author()
	}
	s.feed.items = dedupe([]models.Post{post}, s.feed.items)
	if me := s.profile.Mine; me != nil {
		me.Stats.Posts++
		if v := s.profile.Viewed; v != nil && v.ID == me.ID {
			v.Stats.Posts++
			s.profile.ViewedPosts = dedupe([]models.Post{post}, s.profile.ViewedPosts)
		}
	}
	s.mu.Unlock()

	s.postsLog.LogAction(ctx, "create", fields("post_id", post.ID))
	s.notify(SlicePosts, "create")
	return post, nil
}

// DeletePost removes a post from the API and from every list.
func (s *Store) DeletePost(ctx context.Context, id models.ID) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SlicePosts), "delete")
	defer span.End()

	if err := s.deps.Posts.Delete(ctx, id); err != nil {
		span.SetError(err)
		s.postsLog.LogError(ctx, "delete", err)
		return err
	}

	s.mu.Lock()
	s.feed.items = removePost(s.feed.items, id)
	s.explore.items = removePost(s.explore.items, id)
	before := len(s.profile.ViewedPosts)
	s.profile.ViewedPosts = removePost(s.profile.ViewedPosts, id)
	s.profile.SavedPosts = removePost(s.profile.SavedPosts, id)
	if before != len(s.profile.ViewedPosts) && s.profile.Viewed != nil {
		s.profile.Viewed.Stats.Posts = max(0, s.profile.Viewed.Stats.Posts-1)
	}
	if me := s.profile.Mine; me != nil {
		me.Stats.Posts = max(0, me.Stats.Posts-1)
	}
	if s.detail.Post != nil && s.detail.Post.ID == id {
		s.detail = DetailState{}
		s.postGen++
	}
	s.mu.Unlock()

	s.postsLog.LogAction(ctx, "delete", fields("post_id", id))
	s.notify(SlicePosts, "delete")
	return nil
}
