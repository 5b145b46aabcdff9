package sandbox

import (
	"sort"
	"strings"

	"snapfeed/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type markSet int

const (
	likeSet markSet = iota
	saveSet
)

func (s *Server) setMark(c *fiber.Ctx, which markSet, on bool) error {
	id, err := postParam(c)
	if err != nil {
		return err
	}
	viewer := viewerID(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.state.posts[id] == nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	set := s.state.likes
	if which == saveSet {
		set = s.state.saves
	}
	if on {
		mark(set, id, viewer, s.state.now())
	} else {
		unmark(set, id, viewer)
	}

	body := fiber.Map{"success": true}
	if which == likeSet {
		body["data"] = fiber.Map{"likeCount": len(s.state.likes[id]), "liked": on}
	} else {
		body["data"] = fiber.Map{"saved": on}
	}
	return c.JSON(body)
}

// LikePost handles POST /posts/:id/like. Repeated likes are idempotent.
func (s *Server) LikePost(c *fiber.Ctx) error { return s.setMark(c, likeSet, true) }

// UnlikePost handles DELETE /posts/:id/like.
func (s *Server) UnlikePost(c *fiber.Ctx) error { return s.setMark(c, likeSet, false) }

// SavePost handles POST /posts/:id/save.
func (s *Server) SavePost(c *fiber.Ctx) error { return s.setMark(c, saveSet, true) }

// UnsavePost handles DELETE /posts/:id/save.
func (s *Server) UnsavePost(c *fiber.Ctx) error { return s.setMark(c, saveSet, false) }

// PostLikes handles GET /posts/:id/likes.
func (s *Server) PostLikes(c *fiber.Ctx) error {
	id, err := postParam(c)
	if err != nil {
		return err
	}
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	if s.state.posts[id] == nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	ids := make([]int64, 0, len(s.state.likes[id]))
	for uid := range s.state.likes[id] {
		ids = append(ids, uid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return c.JSON(fiber.Map{"data": fiber.Map{"users": s.state.userViews(ids)}})
}

// ListComments handles GET /posts/:id/comments, newest first.
func (s *Server) ListComments(c *fiber.Ctx) error {
	id, err := postParam(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c, 20)
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	if s.state.posts[id] == nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	all := s.state.postComments(id)
	start, end := paginate(len(all), page, limit)
	views := make([]fiber.Map, 0, end-start)
	for _, cm := range all[start:end] {
		views = append(views, s.state.commentView(cm))
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"comments":   views,
			"pagination": pageBlock(page, limit, len(all)),
		},
	})
}

// AddComment handles POST /posts/:id/comments.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := postParam(c)
	if err != nil {
		return err
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	content := strings.TrimSpace(req.Content)
	if validation.ValidateComment(content) != nil {
		return fail(c, fiber.StatusBadRequest, "Comment cannot be empty")
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.state.posts[id] == nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	cm := s.state.addComment(&comment{PostID: id, UserID: viewerID(c), Content: content})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    s.state.commentView(cm),
	})
}

// DeleteComment handles DELETE /comments/:id. The comment author or the post author may delete.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fail(c, fiber.StatusBadRequest, "Invalid comment ID")
	}
	viewer := viewerID(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	cm := s.state.comments[int64(id)]
	if cm == nil {
		return fail(c, fiber.StatusNotFound, "Comment not found")
	}
	owner := cm.UserID == viewer
	if p := s.state.posts[cm.PostID]; p != nil && p.UserID == viewer {
		owner = true
	}
	if !owner {
		return fail(c, fiber.StatusForbidden, "You can only delete your own comments")
	}
	delete(s.state.comments, cm.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setFollow(c *fiber.Ctx, on bool) error {
	viewer := viewerID(c)
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	target := s.state.accountByUsername(c.Params("username"))
	if target == nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	if target.ID == viewer {
		return fail(c, fiber.StatusBadRequest, "You cannot follow yourself")
	}
	if on {
		s.state.follow(viewer, target.ID)
	} else {
		s.state.unfollow(viewer, target.ID)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"isFollowing":    on,
			"followersCount": len(s.state.followerIDs(target.ID)),
		},
	})
}

// Follow handles POST /follow/:username.
func (s *Server) Follow(c *fiber.Ctx) error { return s.setFollow(c, true) }

// Unfollow handles DELETE /follow/:username.
func (s *Server) Unfollow(c *fiber.Ctx) error { return s.setFollow(c, false) }
