package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/cache"
	"snapfeed/internal/models"
	"snapfeed/internal/validation"
)

type ProfileService struct {
	api    API
	cache  *cache.Cache
	viewer func() string
}

// ProfileUpdate is the edit-profile form. Every field is sent; Avatar is optional.
type ProfileUpdate struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Bio      string
	Avatar   *Image
}

// Validate checks the form the way the edit screen does.
func (u ProfileUpdate) Validate() error {
	errs := []error{
		validation.ValidateName(u.Name),
		validation.ValidateUsername(u.Username),
		validation.ValidateEmail(u.Email),
		validation.ValidateBio(u.Bio),
	}
	if u.Avatar != nil {
		errs = append(errs, u.Avatar.Validate())
	}
	return errors.Join(errs...)
}

func NewProfileService(api API, c *cache.Cache) *ProfileService {
	return &ProfileService{api: api, cache: c}
}

// SetViewer reports the signed-in account id, or "" when signed out. Cached profiles
// are kept per viewer because they carry the viewer's follow flag.
func (s *ProfileService) SetViewer(fn func() string) {
	s.viewer = fn
}

func (s *ProfileService) viewerID() string {
	if s.viewer == nil {
		return ""
	}
	return s.viewer()
}

// Mine returns the viewer's own profile.
func (s *ProfileService) Mine(ctx context.Context) (models.Profile, error) {
	raw, err := s.api.Get(ctx, "/me", nil)
	if err != nil {
		return models.Profile{}, err
	}
	return decodeProfile(raw)
}

// decodeProfile reads the profile entity. Some endpoints send the counts beside the
// profile, as {data:{profile:{...},stats:{...}}}, rather than inside it.
func decodeProfile(raw json.RawMessage) (models.Profile, error) {
	p, err := apiclient.ExtractEntity[models.Profile](raw, "profile", "user")
	if err != nil {
		return models.Profile{}, err
	}
	if p.Stats == (models.ProfileStats{}) {
		if sibling := apiclient.Field(raw, "stats"); sibling != nil {
			var st models.ProfileStats
			if json.Unmarshal(sibling, &st) == nil {
				p.Stats = st
			}
		}
	}
	return p, nil
}

// Update replaces the viewer's profile fields and evicts the cached public profile.
func (s *ProfileService) Update(ctx context.Context, in ProfileUpdate) (models.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Bio = strings.TrimSpace(in.Bio)
	if err := in.Validate(); err != nil {
		return models.Profile{}, firstValidation(err)
	}

	form := apiclient.NewForm().
		Field("name", in.Name).
		Field("username", in.Username).
		Field("email", in.Email).
		Field("numberPhone", in.Phone).
		Field("bio", in.Bio)
	if in.Avatar != nil {
		form.File("avatar", in.Avatar.Filename, in.Avatar.ContentType, in.Avatar.Data)
	}
	raw, err := s.api.Upload(ctx, http.MethodPatch, "/me", form)
	if err != nil {
		return models.Profile{}, err
	}
	p, err := decodeProfile(raw)
	if err != nil {
		return models.Profile{}, err
	}
	if err := s.cache.Delete(ctx, cache.ProfileKey(in.Username), cache.ProfileKey(p.Username)); err != nil {
		serviceLogger.WarnContext(ctx, "profile cache eviction failed", slog.String("error", err.Error()))
	}
	return p, nil
}

// ByUsername returns a public profile, read through the cache when one is configured.
// Entries are scoped to the current viewer.
func (s *ProfileService) ByUsername(ctx context.Context, username string) (models.Profile, error) {
	if err := requireUsername(username); err != nil {
		return models.Profile{}, err
	}
	var p models.Profile
	field := cache.ViewerField(s.viewerID())
	err := s.cache.AsideField(ctx, "profile", cache.ProfileKey(username), field, &p, func() error {
		raw, err := s.api.Get(ctx, "/users/:username", nil, username)
		if err != nil {
			return err
		}
		p, err = decodeProfile(raw)
		return err
	})
	return p, err
}

// Forget evicts cached profiles for every viewer, e.g. after a follow changes their counts.
func (s *ProfileService) Forget(ctx context.Context, usernames ...string) {
	keys := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u != "" {
			keys = append(keys, cache.ProfileKey(u))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		serviceLogger.WarnContext(ctx, "profile cache eviction failed", slog.String("error", err.Error()))
	}
}
