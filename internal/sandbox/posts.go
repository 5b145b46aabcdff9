package sandbox

import (
	"fmt"
	"mime/multipart"

	"snapfeed/internal/models"
	"snapfeed/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxPageLimit = 50

func pageParams(c *fiber.Ctx, defaultLimit int) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func postParam(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid post ID")
	}
	return int64(id), nil
}

// uploadedImage checks an image part and returns the URL it would be served from.
func uploadedImage(file *multipart.FileHeader) (string, error) {
	if err := validation.ValidateImage(file.Header.Get(fiber.HeaderContentType), file.Size); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, models.MessageOf(err, "Invalid image"))
	}
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/800", uuid.NewString()), nil
}

// Feed handles GET /feed: posts by the viewer and the accounts they follow.
func (s *Server) Feed(c *fiber.Ctx) error {
	viewer := viewerID(c)
	page, limit := pageParams(c, 10)

	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	posts := s.state.newestPosts(func(p *post) bool {
		return p.UserID == viewer || s.state.isFollowing(viewer, p.UserID)
	})
	start, end := paginate(len(posts), page, limit)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"items":      s.state.postViews(posts[start:end], viewer, feedStyle),
			"pagination": pageBlock(page, limit, len(posts)),
		},
	})
}

// Explore handles GET /posts: every post, newest first.
func (s *Server) Explore(c *fiber.Ctx) error {
	viewer := viewerID(c)
	page, limit := pageParams(c, 20)

	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	posts := s.state.newestPosts(nil)
	start, end := paginate(len(posts), page, limit)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"posts":      s.state.postViews(posts[start:end], viewer, listingStyle),
			"pagination": pageBlock(page, limit, len(posts)),
		},
	})
}

// CreatePost handles POST /posts (multipart image and caption).
func (s *Server) CreatePost(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Image is required")
	}
	imageURL, err := uploadedImage(file)
	if err != nil {
		return err
	}
	viewer := viewerID(c)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	p := s.state.addPost(&post{UserID: viewer, ImageURL: imageURL, Caption: trimmed(c, "caption")})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Post created",
		"data":    s.state.postView(p, viewer, feedStyle),
	})
}

// GetPost handles GET /posts/:id.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := postParam(c)
	if err != nil {
		return err
	}
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	p := s.state.posts[id]
	if p == nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"post": s.state.postView(p, viewerID(c), feedStyle)},
	})
}

// DeletePost handles DELETE /posts/:id. Only the author may delete.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := postParam(c)
	if err != nil {
		return err
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	p := s.state.posts[id]
	if p == nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	if p.UserID != viewerID(c) {
		return fail(c, fiber.StatusForbidden, "You can only delete your own posts")
	}
	s.state.deletePost(id)
	return c.JSON(fiber.Map{"success": true, "message": "Post deleted"})
}

// UserPosts handles GET /users/:username/posts.
func (s *Server) UserPosts(c *fiber.Ctx) error {
	page, limit := pageParams(c, 12)
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	a := s.state.accountByUsername(c.Params("username"))
	if a == nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	posts := s.state.newestPosts(func(p *post) bool { return p.UserID == a.ID })
	return s.legacyPage(c, posts, page, limit)
}

// SavedPosts handles GET /me/saved.
func (s *Server) SavedPosts(c *fiber.Ctx) error {
	page, limit := pageParams(c, 12)
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return s.legacyPage(c, s.state.postsMarkedBy(s.state.saves, viewerID(c)), page, limit)
}

// LikedPosts handles GET /me/likes.
func (s *Server) LikedPosts(c *fiber.Ctx) error {
	page, limit := pageParams(c, 12)
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return s.legacyPage(c, s.state.postsMarkedBy(s.state.likes, viewerID(c)), page, limit)
}

// legacyPage writes {data:{items,pagination:{currentPage,pageSize,totalItems}}}. mu must be held.
func (s *Server) legacyPage(c *fiber.Ctx, posts []*post, page, limit int) error {
	start, end := paginate(len(posts), page, limit)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"items":      s.state.postViews(posts[start:end], viewerID(c), listingStyle),
			"pagination": legacyPageBlock(page, limit, len(posts)),
		},
	})
}
