package models

import "encoding/json"

// ProfileStats aggregates a user's counts.
type ProfileStats struct {
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// UnmarshalJSON accepts posts|postsCount, followers|followersCount and following|followingCount.
func (st *ProfileStats) UnmarshalJSON(b []byte) error {
	var c struct {
		Posts          *int `json:"posts"`
		PostsCount     *int `json:"postsCount"`
		Followers      *int `json:"followers"`
		FollowersCount *int `json:"followersCount"`
		Following      *int `json:"following"`
		FollowingCount *int `json:"followingCount"`
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return err
	}
	*st = ProfileStats{
		Posts:     nonNegative(firstInt(c.Posts, c.PostsCount)),
		Followers: nonNegative(firstInt(c.Followers, c.FollowersCount)),
		Following: nonNegative(firstInt(c.Following, c.FollowingCount)),
	}
	return nil
}

// Profile is a user plus aggregate stats and the viewer's follow state.
type Profile struct {
	ID          ID           `json:"id"`
	Username    string       `json:"username"`
	Name        string       `json:"name"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"numberPhone,omitempty"`
	Avatar      string       `json:"avatar,omitempty"`
	Bio         string       `json:"bio,omitempty"`
	IsFollowing bool         `json:"isFollowing"`
	Stats       ProfileStats `json:"stats"`
}

// UnmarshalJSON accepts avatarUrl, phone, and both stats spellings.
// Stats may be nested under stats or sit next to the profile fields.
func (p *Profile) UnmarshalJSON(b []byte) error {
	type counts struct {
		Posts          *int `json:"posts"`
		PostsCount     *int `json:"postsCount"`
		Followers      *int `json:"followers"`
		FollowersCount *int `json:"followersCount"`
		Following      *int `json:"following"`
		FollowingCount *int `json:"followingCount"`
	}
	var w struct {
		ID          ID      `json:"id"`
		Username    string  `json:"username"`
		Name        string  `json:"name"`
		Email       string  `json:"email"`
		NumberPhone string  `json:"numberPhone"`
		Phone       string  `json:"phone"`
		Avatar      string  `json:"avatar"`
		AvatarURL   string  `json:"avatarUrl"`
		Bio         string  `json:"bio"`
		IsFollowing *bool   `json:"isFollowing"`
		Stats       *counts `json:"stats"`
		counts
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	c := w.counts
	if w.Stats != nil {
		c = *w.Stats
	}
	*p = Profile{
		ID:          w.ID,
		Username:    w.Username,
		Name:        w.Name,
		Email:       w.Email,
		Phone:       w.NumberPhone,
		Avatar:      w.Avatar,
		Bio:         w.Bio,
		IsFollowing: firstBool(w.IsFollowing),
		Stats: ProfileStats{
			Posts:     nonNegative(firstInt(c.Posts, c.PostsCount)),
			Followers: nonNegative(firstInt(c.Followers, c.FollowersCount)),
			Following: nonNegative(firstInt(c.Following, c.FollowingCount)),
		},
	}
	if p.Phone == "" {
		p.Phone = w.Phone
	}
	if p.Avatar == "" {
		p.Avatar = w.AvatarURL
	}
	return nil
}

// User returns the account fields of p.
func (p Profile) User() User {
	return User{ID: p.ID, Username: p.Username, Name: p.Name, Email: p.Email, Phone: p.Phone, Avatar: p.Avatar, Bio: p.Bio}
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}
