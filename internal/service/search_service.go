package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/cache"
	"snapfeed/internal/models"
)

type SearchService struct {
	api   API
	cache *cache.Cache
}

func NewSearchService(api API, c *cache.Cache) *SearchService {
	return &SearchService{api: api, cache: c}
}

// Users finds accounts matching query. A blank query returns no users without a
// request. API failures are logged and yield an empty result; only cancellation is returned.
func (s *SearchService) Users(ctx context.Context, query string) ([]models.User, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []models.User{}, nil
	}
	users := []models.User{}
	err := s.cache.Aside(ctx, "search", cache.SearchKey(q), &users, func() error {
		raw, err := s.api.Get(ctx, "/users/search", url.Values{"q": {q}})
		if err != nil {
			return err
		}
		users, err = apiclient.ExtractList[models.User](raw, "users")
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return []models.User{}, err
		}
		serviceLogger.WarnContext(ctx, "user search failed",
			slog.String("query", q),
			slog.String("error", err.Error()),
		)
		return []models.User{}, nil
	}
	return users, nil
}
