// Package service exposes the REST API as typed, context-aware calls.
//
// Each service decodes the API's inconsistent envelopes into models types so
// callers never see raw JSON.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/cache"
	"snapfeed/internal/observability"
)

// API is the subset of *apiclient.Client the services use.
type API interface {
	Get(ctx context.Context, route string, query url.Values, params ...string) (json.RawMessage, error)
	Post(ctx context.Context, route string, body any, params ...string) (json.RawMessage, error)
	Patch(ctx context.Context, route string, body any, params ...string) (json.RawMessage, error)
	Delete(ctx context.Context, route string, params ...string) (json.RawMessage, error)
	Upload(ctx context.Context, method, route string, form *apiclient.Form, params ...string) (json.RawMessage, error)
}

var _ API = (*apiclient.Client)(nil)

// Default page sizes per listing.
const (
	DefaultFeedLimit     = 10
	DefaultExploreLimit  = 20
	DefaultProfileLimit  = 12
	DefaultCommentsLimit = 20
)

// Services bundles every service over one API client.
type Services struct {
	Auth     *AuthService
	Feed     *FeedService
	Posts    *PostService
	Likes    *LikeService
	Saves    *SaveService
	Comments *CommentService
	Follows  *FollowService
	Profile  *ProfileService
	Search   *SearchService
}

// New wires all services. c may be nil, which disables caching.
func New(api API, c *cache.Cache) *Services {
	return &Services{
		Auth:     NewAuthService(api),
		Feed:     NewFeedService(api),
		Posts:    NewPostService(api),
		Likes:    NewLikeService(api),
		Saves:    NewSaveService(api),
		Comments: NewCommentService(api),
		Follows:  NewFollowService(api),
		Profile:  NewProfileService(api, c),
		Search:   NewSearchService(api, c),
	}
}

func pageQuery(page, limit int) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return page, limit
}

var serviceLogger = observability.GlobalLogger.With("component", "service")
