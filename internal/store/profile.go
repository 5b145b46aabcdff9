package store

import (
	"context"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"
	"snapfeed/internal/service"
	"snapfeed/internal/session"

	"golang.org/x/sync/errgroup"
)

// ProfileState holds the viewer's own profile and the one being looked at.
type ProfileState struct {
	Mine        *models.Profile
	Viewed      *models.Profile
	ViewedPosts []models.Post
	SavedPosts  []models.Post
	IsLoading   bool
	Error       string
}

// Profile returns a snapshot of the profile slice.
func (s *Store) Profile() ProfileState {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile
	p.Mine = cloneProfile(p.Mine)
	p.Viewed = cloneProfile(p.Viewed)
	p.ViewedPosts = clonePosts(p.ViewedPosts)
	p.SavedPosts = clonePosts(p.SavedPosts)
	return p
}

func cloneProfile(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (s *Store) profilePending(action string) {
	s.mu.Lock()
	s.profile.IsLoading = true
	s.profile.Error = ""
	s.mu.Unlock()
	s.notify(SliceProfile, action+"/pending")
}

func (s *Store) profileFailed(ctx context.Context, span *observability.Span, action string, err error, fallback string) {
	span.SetError(err)
	s.profileLog.LogError(ctx, action, err)
	s.mu.Lock()
	s.profile.IsLoading = false
	if !isCanceled(err) {
		s.profile.Error = models.ServerMessage(err, fallback)
	}
	s.mu.Unlock()
	s.notify(SliceProfile, action+"/rejected")
}

// LoadMyProfile fetches the viewer's own profile.
func (s *Store) LoadMyProfile(ctx context.Context) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceProfile), "load_mine")
	defer span.End()

	s.profilePending("load_mine")
	p, err := s.deps.Profile.Mine(ctx)
	if err != nil {
		s.profileFailed(ctx, span, "load_mine", err, "Failed to load profile")
		return err
	}
	s.mu.Lock()
	s.profile.Mine = &p
	s.profile.IsLoading = false
	s.mu.Unlock()
	s.notify(SliceProfile, "load_mine/fulfilled")
	return nil
}

// UpdateMyProfile saves the edit form. The signed-in user and any view of the same
// profile pick up the new fields; counts the response omits are kept.
func (s *Store) UpdateMyProfile(ctx context.Context, in service.ProfileUpdate) (models.Profile, error) {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceProfile), "update_mine")
	defer span.End()

	s.profilePending("update_mine")
	updated, err := s.deps.Profile.Update(ctx, in)
	if err != nil {
		s.profileFailed(ctx, span, "update_mine", err, "Failed to update profile")
		return models.Profile{}, err
	}

	s.mu.Lock()
	if me := s.profile.Mine; me != nil && updated.Stats == (models.ProfileStats{}) {
		updated.Stats = me.Stats
	}
	s.profile.Mine = &updated
	s.profile.IsLoading = false
	if v := s.profile.Viewed; v != nil && v.ID == updated.ID {
		merged := updated
		merged.Stats = v.Stats
		merged.IsFollowing = v.IsFollowing
		s.profile.Viewed = &merged
	}
	var creds *session.Credentials
	if s.auth.User != nil && s.auth.User.ID == updated.ID {
		user := updated.User()
		s.auth.User = &user
		creds = &session.Credentials{Token: s.auth.Token, User: user}
	}
	s.mu.Unlock()

	if creds != nil && creds.Token != "" {
		if err := s.session.Save(ctx, *creds); err != nil {
			s.profileLog.LogError(ctx, "update_mine/persist", err)
		}
	}
	s.profileLog.LogAction(ctx, "update_mine", fields("user_id", updated.ID))
	s.notify(SliceProfile, "update_mine/fulfilled")
	return updated, nil
}

// LoadProfile fetches a user's profile and first page of posts concurrently. A posts failure
// leaves the grid empty; a profile failure fails the load. Only the latest load is applied.
func (s *Store) LoadProfile(ctx context.Context, username string) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceProfile), "load_profile")
	defer span.End()

	s.mu.Lock()
	s.viewGen++
	gen := s.viewGen
	s.mu.Unlock()
	s.profilePending("load_profile")

	var (
		profile models.Profile
		posts   []models.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.deps.Profile.ByUsername(gctx, username)
		return err
	})
	g.Go(func() error {
		page, err := s.deps.Posts.UserPosts(gctx, username, 1, s.opts.ProfilePageSize)
		if err != nil {
			if !isCanceled(err) {
				s.profileLog.LogError(ctx, "load_profile/posts", err)
			}
			return nil
		}
		posts = page.Items
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	if gen != s.viewGen {
		s.mu.Unlock()
		observability.StaleResponsesDropped.WithLabelValues("profile").Inc()
		return nil
	}
	s.mu.Unlock()
	if err != nil {
		s.profileFailed(ctx, span, "load_profile", err, "Failed to load profile")
		return err
	}

	s.mu.Lock()
	s.profile.Viewed = &profile
	s.profile.ViewedPosts = dedupe(nil, posts)
	s.profile.IsLoading = false
	if me := s.profile.Mine; me != nil && strings.EqualFold(me.Username, profile.Username) {
		me.Stats = profile.Stats
	}
	s.mu.Unlock()
	s.profileLog.LogAction(ctx, "load_profile", fields("username", username, "posts", len(posts)))
	s.notify(SliceProfile, "load_profile/fulfilled")
	return nil
}

// LoadSavedPosts fetches the first page of the viewer's bookmarks.
func (s *Store) LoadSavedPosts(ctx context.Context) error {
	span, ctx := observability.TraceStoreAction(ctx, string(SliceProfile), "load_saved")
	defer span.End()

	s.profilePending("load_saved")
	page, err := s.deps.Posts.SavedPosts(ctx, 1, s.opts.ProfilePageSize)
	if err != nil {
		s.profileFailed(ctx, span, "load_saved", err, "Failed to load saved posts")
		return err
	}
	s.mu.Lock()
	s.profile.SavedPosts = dedupe(nil, page.Items)
	s.profile.IsLoading = false
	s.mu.Unlock()
	s.notify(SliceProfile, "load_saved/fulfilled")
	return nil
}
