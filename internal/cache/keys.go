package cache

import "strings"

// ProfileKey is the hash holding a user's public profile as each viewer sees it.
// Fields are ViewerField values, since the follow flag depends on who is asking.
func ProfileKey(username string) string {
	return "profile:" + strings.ToLower(username)
}

// ViewerField names one viewer's entry; signed-out browsing shares the anonymous field.
func ViewerField(viewerID string) string {
	if viewerID == "" {
		return "anonymous"
	}
	return "viewer:" + viewerID
}

// SearchKey is the cache key of a user search; queries differing only in case or surrounding space share it.
func SearchKey(query string) string {
	return "search:users:" + strings.ToLower(strings.TrimSpace(query))
}
