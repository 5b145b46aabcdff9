package service

import (
	"context"
	"strings"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/models"
	"snapfeed/internal/validation"
)

type CommentService struct {
	api API
}

func NewCommentService(api API) *CommentService {
	return &CommentService{api: api}
}

func (s *CommentService) List(ctx context.Context, postID models.ID, page, limit int) (models.Page[models.Comment], error) {
	page, limit = normalizePage(page, limit, DefaultCommentsLimit)
	raw, err := s.api.Get(ctx, "/posts/:id/comments", pageQuery(page, limit), postID.String())
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	return decodePage[models.Comment](raw, page, limit, "comments", "items")
}

// Add posts a comment. Blank content is rejected without a request.
func (s *CommentService) Add(ctx context.Context, postID models.ID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateComment(content); err != nil {
		return models.Comment{}, err
	}
	raw, err := s.api.Post(ctx, "/posts/:id/comments", map[string]string{"content": content}, postID.String())
	if err != nil {
		return models.Comment{}, err
	}
	return apiclient.ExtractEntity[models.Comment](raw, "comment")
}

func (s *CommentService) Delete(ctx context.Context, commentID models.ID) error {
	_, err := s.api.Delete(ctx, "/comments/:id", commentID.String())
	return err
}
