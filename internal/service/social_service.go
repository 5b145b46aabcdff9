package service

import (
	"context"
	"strings"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/models"
)

type LikeService struct {
	api API
}

func NewLikeService(api API) *LikeService {
	return &LikeService{api: api}
}

func (s *LikeService) Like(ctx context.Context, postID models.ID) error {
	_, err := s.api.Post(ctx, "/posts/:id/like", nil, postID.String())
	return err
}

func (s *LikeService) Unlike(ctx context.Context, postID models.ID) error {
	_, err := s.api.Delete(ctx, "/posts/:id/like", postID.String())
	return err
}

// PostLikes lists the users who liked a post.
func (s *LikeService) PostLikes(ctx context.Context, postID models.ID) ([]models.User, error) {
	raw, err := s.api.Get(ctx, "/posts/:id/likes", nil, postID.String())
	if err != nil {
		return nil, err
	}
	return apiclient.ExtractList[models.User](raw, "users", "likes", "items")
}

// LikedPosts lists posts the viewer liked.
func (s *LikeService) LikedPosts(ctx context.Context, page, limit int) (models.Page[models.Post], error) {
	page, limit = normalizePage(page, limit, DefaultProfileLimit)
	raw, err := s.api.Get(ctx, "/me/likes", pageQuery(page, limit))
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	p, err := decodePostPage(raw, page, limit, "items", "posts")
	if err != nil {
		return p, err
	}
	for i := range p.Items {
		p.Items[i].LikedByMe = true
	}
	return p, nil
}

type SaveService struct {
	api API
}

func NewSaveService(api API) *SaveService {
	return &SaveService{api: api}
}

func (s *SaveService) Save(ctx context.Context, postID models.ID) error {
	_, err := s.api.Post(ctx, "/posts/:id/save", nil, postID.String())
	return err
}

func (s *SaveService) Unsave(ctx context.Context, postID models.ID) error {
	_, err := s.api.Delete(ctx, "/posts/:id/save", postID.String())
	return err
}

type FollowService struct {
	api API
}

func NewFollowService(api API) *FollowService {
	return &FollowService{api: api}
}

func (s *FollowService) Follow(ctx context.Context, username string) error {
	if err := requireUsername(username); err != nil {
		return err
	}
	_, err := s.api.Post(ctx, "/follow/:username", nil, username)
	return err
}

func (s *FollowService) Unfollow(ctx context.Context, username string) error {
	if err := requireUsername(username); err != nil {
		return err
	}
	_, err := s.api.Delete(ctx, "/follow/:username", username)
	return err
}

func (s *FollowService) Followers(ctx context.Context, username string) ([]models.User, error) {
	return s.list(ctx, "/users/:username/followers", username, "followers")
}

func (s *FollowService) Following(ctx context.Context, username string) ([]models.User, error) {
	return s.list(ctx, "/users/:username/following", username, "following")
}

func (s *FollowService) list(ctx context.Context, route, username, key string) ([]models.User, error) {
	if err := requireUsername(username); err != nil {
		return nil, err
	}
	raw, err := s.api.Get(ctx, route, nil, username)
	if err != nil {
		return nil, err
	}
	return apiclient.ExtractList[models.User](raw, key, "users", "items")
}

func requireUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return models.NewValidationError("Username is required")
	}
	return nil
}
