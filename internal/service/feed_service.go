package service

import (
	"context"
	"errors"
	"log/slog"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/models"
)

type FeedService struct {
	api API
}

func NewFeedService(api API) *FeedService {
	return &FeedService{api: api}
}

// Feed returns posts from accounts the viewer follows.
func (s *FeedService) Feed(ctx context.Context, page, limit int) (models.Page[models.Post], error) {
	page, limit = normalizePage(page, limit, DefaultFeedLimit)
	raw, err := s.api.Get(ctx, "/feed", pageQuery(page, limit))
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return decodePostPage(raw, page, limit, "items")
}

// Explore returns the public timeline. On failure it returns an empty, final page
// alongside the error so callers that only render can ignore the error.
func (s *FeedService) Explore(ctx context.Context, page, limit int) (models.Page[models.Post], error) {
	page, limit = normalizePage(page, limit, DefaultExploreLimit)
	empty := models.Page[models.Post]{Items: []models.Post{}, Page: page, Limit: limit}

	raw, err := s.api.Get(ctx, "/posts", pageQuery(page, limit))
	if err == nil {
		var p models.Page[models.Post]
		if p, err = decodePostPage(raw, page, limit, "posts"); err == nil {
			return p, nil
		}
	}
	if !errors.Is(err, context.Canceled) {
		serviceLogger.WarnContext(ctx, "explore fetch failed",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
	}
	return empty, err
}

// decodePostPage builds a page from a listing. With a pagination block, hasMore
// compares against totalPages; without one, a full page implies more.
func decodePostPage(raw []byte, page, limit int, keys ...string) (models.Page[models.Post], error) {
	return decodePage[models.Post](raw, page, limit, keys...)
}

func decodePage[T any](raw []byte, page, limit int, keys ...string) (models.Page[T], error) {
	items, err := apiclient.ExtractList[T](raw, keys...)
	if err != nil {
		return models.Page[T]{}, err
	}
	pg := apiclient.ExtractPagination(raw, page, limit)
	hasMore := len(items) >= limit
	if pg.Present && pg.TotalPages > 0 {
		hasMore = pg.Page < pg.TotalPages
	}
	return models.Page[T]{
		Items:   items,
		Page:    pg.Page,
		Limit:   pg.Limit,
		Total:   pg.Total,
		HasMore: hasMore,
	}, nil
}
