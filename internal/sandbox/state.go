package sandbox

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type account struct {
	ID           int64
	Username     string
	Name         string
	Email        string
	Phone        string
	Bio          string
	AvatarURL    string
	PasswordHash []byte
	CreatedAt    time.Time
}

type post struct {
	ID        int64
	UserID    int64
	ImageURL  string
	Caption   string
	CreatedAt time.Time
}

type comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}

// state is the sandbox's whole dataset. Every field is guarded by mu.
type state struct {
	mu sync.RWMutex

	nextAccount int64
	nextPost    int64
	nextComment int64

	accounts   map[int64]*account
	byUsername map[string]int64
	byEmail    map[string]int64
	posts      map[int64]*post
	comments   map[int64]*comment

	// likes and saves map post id to user id to the time of the action.
	likes map[int64]map[int64]time.Time
	saves map[int64]map[int64]time.Time
	// follows maps follower id to followee ids.
	follows map[int64]map[int64]struct{}

	now func() time.Time
}

func newState(now func() time.Time) *state {
	if now == nil {
		now = time.Now
	}
	return &state{
		accounts:   make(map[int64]*account),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		posts:      make(map[int64]*post),
		comments:   make(map[int64]*comment),
		likes:      make(map[int64]map[int64]time.Time),
		saves:      make(map[int64]map[int64]time.Time),
		follows:    make(map[int64]map[int64]struct{}),
		now:        now,
	}
}

// The helpers below expect mu to be held by the caller.

func (s *state) addAccount(a *account) *account {
	s.nextAccount++
	a.ID = s.nextAccount
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.accounts[a.ID] = a
	s.byUsername[strings.ToLower(a.Username)] = a.ID
	s.byEmail[strings.ToLower(a.Email)] = a.ID
	return a
}

func (s *state) rename(a *account, username, email string) {
	delete(s.byUsername, strings.ToLower(a.Username))
	delete(s.byEmail, strings.ToLower(a.Email))
	a.Username, a.Email = username, email
	s.byUsername[strings.ToLower(username)] = a.ID
	s.byEmail[strings.ToLower(email)] = a.ID
}

func (s *state) accountByUsername(username string) *account {
	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil
	}
	return s.accounts[id]
}

func (s *state) accountByEmail(email string) *account {
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil
	}
	return s.accounts[id]
}

func (s *state) addPost(p *post) *post {
	s.nextPost++
	p.ID = s.nextPost
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.posts[p.ID] = p
	return p
}

func (s *state) deletePost(id int64) {
	delete(s.posts, id)
	delete(s.likes, id)
	delete(s.saves, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
}

func (s *state) addComment(c *comment) *comment {
	s.nextComment++
	c.ID = s.nextComment
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.comments[c.ID] = c
	return c
}

func mark(set map[int64]map[int64]time.Time, postID, userID int64, at time.Time) {
	if set[postID] == nil {
		set[postID] = make(map[int64]time.Time)
	}
	if _, done := set[postID][userID]; !done {
		set[postID][userID] = at
	}
}

func unmark(set map[int64]map[int64]time.Time, postID, userID int64) {
	delete(set[postID], userID)
}

func marked(set map[int64]map[int64]time.Time, postID, userID int64) bool {
	_, ok := set[postID][userID]
	return ok
}

func (s *state) follow(follower, followee int64) {
	if s.follows[follower] == nil {
		s.follows[follower] = make(map[int64]struct{})
	}
	s.follows[follower][followee] = struct{}{}
}

func (s *state) unfollow(follower, followee int64) {
	delete(s.follows[follower], followee)
}

func (s *state) isFollowing(follower, followee int64) bool {
	_, ok := s.follows[follower][followee]
	return ok
}

func (s *state) followerIDs(userID int64) []int64 {
	var ids []int64
	for follower, set := range s.follows {
		if _, ok := set[userID]; ok {
			ids = append(ids, follower)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *state) followingIDs(userID int64) []int64 {
	ids := make([]int64, 0, len(s.follows[userID]))
	for id := range s.follows[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *state) postCount(userID int64) int {
	n := 0
	for _, p := range s.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n
}

func (s *state) commentCount(postID int64) int {
	n := 0
	for _, c := range s.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// newestPosts returns the posts matching keep, newest first.
func (s *state) newestPosts(keep func(*post) bool) []*post {
	var out []*post
	for _, p := range s.posts {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// postsMarkedBy returns posts in set marked by userID, most recently marked first.
func (s *state) postsMarkedBy(set map[int64]map[int64]time.Time, userID int64) []*post {
	type hit struct {
		p  *post
		at time.Time
	}
	var hits []hit
	for postID, users := range set {
		at, ok := users[userID]
		if !ok {
			continue
		}
		if p, exists := s.posts[postID]; exists {
			hits = append(hits, hit{p, at})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].at.Equal(hits[j].at) {
			return hits[i].p.ID > hits[j].p.ID
		}
		return hits[i].at.After(hits[j].at)
	})
	out := make([]*post, len(hits))
	for i, h := range hits {
		out[i] = h.p
	}
	return out
}

func (s *state) postComments(postID int64) []*comment {
	var out []*comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// paginate returns the bounds of page within n items.
func paginate(n, page, limit int) (start, end int) {
	start = (page - 1) * limit
	if start > n {
		start = n
	}
	end = start + limit
	if end > n {
		end = n
	}
	return start, end
}

func totalPages(n, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (n + limit - 1) / limit
}
