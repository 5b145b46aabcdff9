package sandbox

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// The real API is not consistent about field names, so neither are these views.
// Feed style posts use author/likeCount/likedByMe, listing style posts use
// user/likesCount/isLiked.

type postStyle int

const (
	feedStyle postStyle = iota
	listingStyle
)

func (s *state) authorView(id int64) fiber.Map {
	a := s.accounts[id]
	if a == nil {
		return fiber.Map{"id": id}
	}
	return fiber.Map{
		"id":        a.ID,
		"username":  a.Username,
		"name":      a.Name,
		"avatarUrl": a.AvatarURL,
	}
}

func (s *state) userView(a *account) fiber.Map {
	return fiber.Map{
		"id":          a.ID,
		"username":    a.Username,
		"name":        a.Name,
		"email":       a.Email,
		"numberPhone": a.Phone,
		"avatar":      a.AvatarURL,
		"bio":         a.Bio,
	}
}

func (s *state) postView(p *post, viewer int64, style postStyle) fiber.Map {
	likes := len(s.likes[p.ID])
	comments := s.commentCount(p.ID)
	liked := marked(s.likes, p.ID, viewer)
	saved := marked(s.saves, p.ID, viewer)
	v := fiber.Map{
		"id":        p.ID,
		"imageUrl":  p.ImageURL,
		"caption":   nil,
		"createdAt": p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.Caption != "" {
		v["caption"] = p.Caption
	}
	if style == feedStyle {
		v["author"] = s.authorView(p.UserID)
		v["likeCount"] = likes
		v["commentCount"] = comments
		v["likedByMe"] = liked
		v["savedByMe"] = saved
		return v
	}
	v["user"] = s.authorView(p.UserID)
	v["likesCount"] = likes
	v["commentsCount"] = comments
	v["isLiked"] = liked
	v["isSaved"] = saved
	return v
}

func (s *state) postViews(posts []*post, viewer int64, style postStyle) []fiber.Map {
	out := make([]fiber.Map, len(posts))
	for i, p := range posts {
		out[i] = s.postView(p, viewer, style)
	}
	return out
}

func (s *state) commentView(c *comment) fiber.Map {
	return fiber.Map{
		"id":        c.ID,
		"content":   c.Content,
		"createdAt": c.CreatedAt.UTC().Format(time.RFC3339Nano),
		"author":    s.authorView(c.UserID),
	}
}

func (s *state) stats(id int64) (posts, followers, following int) {
	return s.postCount(id), len(s.followerIDs(id)), len(s.follows[id])
}

// profileView nests the counters under stats.
func (s *state) profileView(a *account, viewer int64) fiber.Map {
	posts, followers, following := s.stats(a.ID)
	return fiber.Map{
		"id":          a.ID,
		"username":    a.Username,
		"name":        a.Name,
		"avatarUrl":   a.AvatarURL,
		"bio":         a.Bio,
		"isFollowing": viewer != 0 && s.isFollowing(viewer, a.ID),
		"stats": fiber.Map{
			"posts":     posts,
			"followers": followers,
			"following": following,
		},
	}
}

// flatProfileView carries the counters beside the profile fields.
func (s *state) flatProfileView(a *account) fiber.Map {
	posts, followers, following := s.stats(a.ID)
	v := s.userView(a)
	v["postsCount"] = posts
	v["followersCount"] = followers
	v["followingCount"] = following
	return v
}

func (s *state) userViews(ids []int64) []fiber.Map {
	out := make([]fiber.Map, 0, len(ids))
	for _, id := range ids {
		if a := s.accounts[id]; a != nil {
			out = append(out, s.authorView(id))
		}
	}
	return out
}

func pageBlock(page, limit, total int) fiber.Map {
	return fiber.Map{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages(total, limit),
	}
}

func legacyPageBlock(page, limit, total int) fiber.Map {
	return fiber.Map{
		"currentPage": page,
		"pageSize":    limit,
		"totalItems":  total,
	}
}
