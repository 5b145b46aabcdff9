package sandbox

import (
	"fmt"
	"sort"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxSearchResults = 20

// Me handles GET /me. Stats travel beside the profile rather than inside it.
func (s *Server) Me(c *fiber.Ctx) error {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	a := s.state.accounts[viewerID(c)]
	posts, followers, following := s.state.stats(a.ID)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profile": s.state.userView(a),
			"stats": fiber.Map{
				"postsCount":     posts,
				"followersCount": followers,
				"followingCount": following,
			},
		},
	})
}

// UpdateMe handles PATCH /me (multipart). Fields absent from the form keep their value.
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Expected multipart form data")
	}
	value := func(key string) (string, bool) {
		vs, ok := form.Value[key]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return strings.TrimSpace(vs[0]), true
	}

	avatarURL := ""
	if files := form.File["avatar"]; len(files) > 0 {
		if err := validation.ValidateImage(files[0].Header.Get(fiber.HeaderContentType), files[0].Size); err != nil {
			return fail(c, fiber.StatusBadRequest, models.MessageOf(err, "Invalid image"))
		}
		avatarURL = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", uuid.NewString())
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	a := s.state.accounts[viewerID(c)]
	next := *a

	if v, ok := value("name"); ok {
		if err := validation.ValidateName(v); err != nil {
			return fail(c, fiber.StatusBadRequest, models.MessageOf(err, "Invalid name"))
		}
		next.Name = v
	}
	if v, ok := value("username"); ok {
		if err := validation.ValidateUsername(v); err != nil {
			return fail(c, fiber.StatusBadRequest, models.MessageOf(err, "Invalid username"))
		}
		if other := s.state.accountByUsername(v); other != nil && other.ID != a.ID {
			return fail(c, fiber.StatusBadRequest, "Username already taken")
		}
		next.Username = v
	}
	if v, ok := value("email"); ok {
		if err := validation.ValidateEmail(v); err != nil {
			return fail(c, fiber.StatusBadRequest, models.MessageOf(err, "Invalid email"))
		}
		if other := s.state.accountByEmail(v); other != nil && other.ID != a.ID {
			return fail(c, fiber.StatusBadRequest, "Email already exists")
		}
		next.Email = v
	}
	if v, ok := value("numberPhone"); ok {
		if v != "" {
			if err := validation.ValidatePhone(v); err != nil {
				return fail(c, fiber.StatusBadRequest, models.MessageOf(err, "Invalid phone number"))
			}
		}
		next.Phone = v
	}
	if v, ok := value("bio"); ok {
		if err := validation.ValidateBio(v); err != nil {
			return fail(c, fiber.StatusBadRequest, models.MessageOf(err, "Invalid bio"))
		}
		next.Bio = v
	}
	if avatarURL != "" {
		next.AvatarURL = avatarURL
	}

	s.state.rename(a, next.Username, next.Email)
	*a = next
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated",
		"data":    s.state.flatProfileView(a),
	})
}

// GetProfile handles GET /users/:username.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	a := s.state.accountByUsername(c.Params("username"))
	if a == nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"profile": s.state.profileView(a, viewerID(c))},
	})
}

// Followers handles GET /users/:username/followers. The list is the data value itself.
func (s *Server) Followers(c *fiber.Ctx) error {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	a := s.state.accountByUsername(c.Params("username"))
	if a == nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": s.state.userViews(s.state.followerIDs(a.ID))})
}

// Following handles GET /users/:username/following. The list sits at the top level.
func (s *Server) Following(c *fiber.Ctx) error {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	a := s.state.accountByUsername(c.Params("username"))
	if a == nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(fiber.Map{"following": s.state.userViews(s.state.followingIDs(a.ID))})
}

// SearchUsers handles GET /users/search?q=, matching username or name case-insensitively.
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		return c.JSON(fiber.Map{"data": fiber.Map{"users": []fiber.Map{}}})
	}

	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	var ids []int64
	for id, a := range s.state.accounts {
		if strings.Contains(strings.ToLower(a.Username), q) || strings.Contains(strings.ToLower(a.Name), q) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > maxSearchResults {
		ids = ids[:maxSearchResults]
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"users": s.state.userViews(ids)}})
}
