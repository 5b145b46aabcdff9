package service

import (
	"context"
	"net/http"
	"strings"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/models"
)

type PostService struct {
	api API
}

func NewPostService(api API) *PostService {
	return &PostService{api: api}
}

// Create uploads image with an optional caption.
func (s *PostService) Create(ctx context.Context, image Image, caption string) (models.Post, error) {
	if err := image.Validate(); err != nil {
		return models.Post{}, err
	}
	form := apiclient.NewForm().File("image", image.Filename, image.ContentType, image.Data)
	if c := strings.TrimSpace(caption); c != "" {
		form.Field("caption", c)
	}
	raw, err := s.api.Upload(ctx, http.MethodPost, "/posts", form)
	if err != nil {
		return models.Post{}, err
	}
	return apiclient.ExtractEntity[models.Post](raw, "post")
}

func (s *PostService) Get(ctx context.Context, id models.ID) (models.Post, error) {
	raw, err := s.api.Get(ctx, "/posts/:id", nil, id.String())
	if err != nil {
		return models.Post{}, err
	}
	return apiclient.ExtractEntity[models.Post](raw, "post")
}

func (s *PostService) Delete(ctx context.Context, id models.ID) error {
	_, err := s.api.Delete(ctx, "/posts/:id", id.String())
	return err
}

// UserPosts lists a user's posts, newest first.
func (s *PostService) UserPosts(ctx context.Context, username string, page, limit int) (models.Page[models.Post], error) {
	if strings.TrimSpace(username) == "" {
		return models.Page[models.Post]{}, models.NewValidationError("Username is required")
	}
	page, limit = normalizePage(page, limit, DefaultProfileLimit)
	raw, err := s.api.Get(ctx, "/users/:username/posts", pageQuery(page, limit), username)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return decodePostPage(raw, page, limit, "items", "posts")
}

// SavedPosts lists the viewer's bookmarks.
func (s *PostService) SavedPosts(ctx context.Context, page, limit int) (models.Page[models.Post], error) {
	page, limit = normalizePage(page, limit, DefaultProfileLimit)
	raw, err := s.api.Get(ctx, "/me/saved", pageQuery(page, limit))
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	p, err := decodePostPage(raw, page, limit, "items", "posts")
	if err != nil {
		return p, err
	}
	// TODO: drop once /me/saved reports savedByMe itself.
	for i := range p.Items {
		p.Items[i].SavedByMe = true
	}
	return p, nil
}
