package store

import (
	"context"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"
)

// ToggleLike flips the viewer's like on a post held in state. The flag and count change
// immediately everywhere the post appears and are restored if the API call fails.
func (s *Store) ToggleLike(ctx context.Context, postID models.ID) error {
	key := "like:" + postID.String()
	if !s.beginToggle(key) {
		return ErrToggleInFlight
	}
	defer s.endToggle(key)
	span, ctx := observability.TraceStoreAction(ctx, string(SlicePosts), "toggle_like")
	defer span.End()

	s.mu.Lock()
	prev, ok := s.findPost(postID)
	if !ok {
		s.mu.Unlock()
		return models.NewNotFoundError("Post", postID)
	}
	s.eachPost(postID, func(p *models.Post) {
		p.LikedByMe = !prev.LikedByMe
		if prev.LikedByMe {
			p.LikeCount = max(0, p.LikeCount-1)
		} else {
			p.LikeCount++
		}
	})
	s.mu.Unlock()
	s.notify(SlicePosts, "toggle_like/pending")

	var err error
	if prev.LikedByMe {
		err = s.deps.Likes.Unlike(ctx, postID)
	} else {
		err = s.deps.Likes.Like(ctx, postID)
	}
	if err != nil {
		// Undo the step on each copy still showing it; copies refreshed meanwhile hold server values.
		s.mu.Lock()
		s.eachPost(postID, func(p *models.Post) {
			if p.LikedByMe == prev.LikedByMe {
				return
			}
			p.LikedByMe = prev.LikedByMe
			if prev.LikedByMe {
				p.LikeCount++
			} else {
				p.LikeCount = max(0, p.LikeCount-1)
			}
		})
		s.mu.Unlock()
		s.rolledBack(ctx, span, s.postsLog, SlicePosts, "toggle_like", err, fields("post_id", postID))
		return err
	}
	s.postsLog.LogAction(ctx, "toggle_like", fields("post_id", postID, "liked", !prev.LikedByMe))
	s.notify(SlicePosts, "toggle_like/fulfilled")
	return nil
}

// ToggleSave flips the viewer's bookmark on a post held in state, reverting on failure.
func (s *Store) ToggleSave(ctx context.Context, postID models.ID) error {
	key := "save:" + postID.String()
	if !s.beginToggle(key) {
		return ErrToggleInFlight
	}
	defer s.endToggle(key)
	span, ctx := observability.TraceStoreAction(ctx, string(SlicePosts), "toggle_save")
	defer span.End()

	s.mu.Lock()
	prev, ok := s.findPost(postID)
	if !ok {
		s.mu.Unlock()
		return models.NewNotFoundError("Post", postID)
	}
	s.eachPost(postID, func(p *models.Post) { p.SavedByMe = !prev.SavedByMe })
	s.mu.Unlock()
	s.notify(SlicePosts, "toggle_save/pending")

	var err error
	if prev.SavedByMe {
		err = s.deps.Saves.Unsave(ctx, postID)
	} else {
		err = s.deps.Saves.Save(ctx, postID)
	}
	if err != nil {
		s.mu.Lock()
		s.eachPost(postID, func(p *models.Post) { p.SavedByMe = prev.SavedByMe })
		s.mu.Unlock()
		s.rolledBack(ctx, span, s.postsLog, SlicePosts, "toggle_save", err, fields("post_id", postID))
		return err
	}
	s.postsLog.LogAction(ctx, "toggle_save", fields("post_id", postID, "saved", !prev.SavedByMe))
	s.notify(SlicePosts, "toggle_save/fulfilled")
	return nil
}

// ToggleFollow follows or unfollows the profile being viewed. Its follower count, and the
// viewer's own following count, move immediately and are restored on failure.
func (s *Store) ToggleFollow(ctx context.Context, username string) error {
	key := "follow:" + strings.ToLower(username)
	if !s.beginToggle(key) {
		return ErrToggleInFlight
	}
	defer s.endToggle(key)
	span, ctx := observability.TraceStoreAction(ctx, string(SliceProfile), "toggle_follow")
	defer span.End()

	s.mu.Lock()
	viewed := s.profile.Viewed
	if viewed == nil || !strings.EqualFold(viewed.Username, username) {
		s.mu.Unlock()
		return models.NewNotFoundError("Profile", username)
	}
	wasFollowing := viewed.IsFollowing
	prevFollowers := viewed.Stats.Followers
	var self string
	switch {
	case s.auth.User != nil:
		self = s.auth.User.Username
	case s.profile.Mine != nil:
		self = s.profile.Mine.Username
	}
	var prevFollowing int
	if me := s.profile.Mine; me != nil {
		prevFollowing = me.Stats.Following
	}
	delta := 1
	if wasFollowing {
		delta = -1
	}
	viewed.IsFollowing = !wasFollowing
	viewed.Stats.Followers = max(0, viewed.Stats.Followers+delta)
	if me := s.profile.Mine; me != nil && me.ID != viewed.ID {
		me.Stats.Following = max(0, me.Stats.Following+delta)
	}
	s.mu.Unlock()
	s.notify(SliceProfile, "toggle_follow/pending")

	var err error
	if wasFollowing {
		err = s.deps.Follows.Unfollow(ctx, username)
	} else {
		err = s.deps.Follows.Follow(ctx, username)
	}
	if err != nil {
		s.mu.Lock()
		if v := s.profile.Viewed; v != nil && strings.EqualFold(v.Username, username) {
			v.IsFollowing = wasFollowing
			v.Stats.Followers = prevFollowers
		}
		if me := s.profile.Mine; me != nil {
			me.Stats.Following = prevFollowing
		}
		s.mu.Unlock()
		s.rolledBack(ctx, span, s.profileLog, SliceProfile, "toggle_follow", err, fields("username", username))
		return err
	}
	// Both accounts' counts changed.
	s.deps.Profile.Forget(ctx, username, self)
	s.profileLog.LogAction(ctx, "toggle_follow", fields("username", username, "following", !wasFollowing))
	s.notify(SliceProfile, "toggle_follow/fulfilled")
	return nil
}

func (s *Store) rolledBack(ctx context.Context, span *observability.Span, log *observability.StoreLogger,
	slice Slice, action string, err error, f map[string]interface{}) {
	span.SetError(err)
	observability.OptimisticRollbacks.WithLabelValues(action).Inc()
	log.LogRollback(ctx, action, err, f)
	s.notify(slice, action+"/rejected")
}
