package models

import (
	"encoding/json"
	"time"
)

// Post is an image post with viewer-relative flags.
type Post struct {
	ID           ID        `json:"id"`
	ImageURL     string    `json:"imageUrl"`
	Caption      string    `json:"caption,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Author       Author    `json:"author"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	LikedByMe    bool      `json:"likedByMe"`
	SavedByMe    bool      `json:"savedByMe"`
}

// UnmarshalJSON accepts the field aliases the API uses across endpoints.
func (p *Post) UnmarshalJSON(b []byte) error {
	var w struct {
		ID            ID      `json:"id"`
		ImageURL      string  `json:"imageUrl"`
		Caption       *string `json:"caption"`
		CreatedAt     string  `json:"createdAt"`
		Author        *Author `json:"author"`
		User          *Author `json:"user"`
		LikeCount     *int    `json:"likeCount"`
		LikesCount    *int    `json:"likesCount"`
		CommentCount  *int    `json:"commentCount"`
		CommentsCount *int    `json:"commentsCount"`
		LikedByMe     *bool   `json:"likedByMe"`
		IsLiked       *bool   `json:"isLiked"`
		SavedByMe     *bool   `json:"savedByMe"`
		IsSaved       *bool   `json:"isSaved"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*p = Post{
		ID:           w.ID,
		ImageURL:     w.ImageURL,
		CreatedAt:    parseTimestamp(w.CreatedAt),
		LikeCount:    nonNegative(firstInt(w.LikeCount, w.LikesCount)),
		CommentCount: nonNegative(firstInt(w.CommentCount, w.CommentsCount)),
		LikedByMe:    firstBool(w.LikedByMe, w.IsLiked),
		SavedByMe:    firstBool(w.SavedByMe, w.IsSaved),
	}
	if w.Caption != nil {
		p.Caption = *w.Caption
	}
	switch {
	case w.Author != nil:
		p.Author = *w.Author
	case w.User != nil:
		p.Author = *w.User
	}
	return nil
}

// Comment is a comment on a post.
type Comment struct {
	ID        ID        `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    Author    `json:"author"`
}

// UnmarshalJSON accepts author or user for the comment's author.
func (c *Comment) UnmarshalJSON(b []byte) error {
	var w struct {
		ID        ID      `json:"id"`
		Content   string  `json:"content"`
		CreatedAt string  `json:"createdAt"`
		Author    *Author `json:"author"`
		User      *Author `json:"user"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = Comment{ID: w.ID, Content: w.Content, CreatedAt: parseTimestamp(w.CreatedAt)}
	switch {
	case w.Author != nil:
		c.Author = *w.Author
	case w.User != nil:
		c.Author = *w.User
	}
	return nil
}

// parseTimestamp returns the zero time for empty or unparseable input.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstInt(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstBool(vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return false
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
