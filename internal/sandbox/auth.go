package sandbox

import (
	"fmt"
	"strconv"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const userIDKey = "userID"

// IssueToken signs an HS256 token for userID.
func (s *Server) IssueToken(userID int64) (string, error) {
	now := s.cfg.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) parseToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.cfg.Now))
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q", sub)
	}
	return id, nil
}

// bearer returns the user id of a valid bearer token, or 0 with the reason.
func (s *Server) bearer(c *fiber.Ctx) (int64, string) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return 0, "Missing authorization header"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, "Invalid authorization header format"
	}
	id, err := s.parseToken(parts[1])
	if err != nil {
		return 0, "Invalid or expired token"
	}
	s.state.mu.RLock()
	_, exists := s.state.accounts[id]
	s.state.mu.RUnlock()
	if !exists {
		return 0, "User no longer exists"
	}
	return id, ""
}

// AuthRequired rejects requests without a valid bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, reason := s.bearer(c)
		if id == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": reason})
		}
		c.Locals(userIDKey, id)
		return c.Next()
	}
}

// AuthOptional records the viewer when a valid token is present and otherwise continues anonymously.
func (s *Server) AuthOptional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, _ := s.bearer(c); id != 0 {
			c.Locals(userIDKey, id)
		}
		return c.Next()
	}
}

func viewerID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(userIDKey).(int64)
	return id
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (r registerRequest) validate() error {
	checks := []error{
		validation.ValidateName(r.Name),
		validation.ValidateUsername(r.Username),
		validation.ValidateEmail(r.Email),
		validation.ValidatePassword(r.Password),
	}
	if r.Phone != "" {
		checks = append(checks, validation.ValidatePhone(r.Phone))
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// Register handles POST /auth/register.
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := req.validate(); err != nil {
		return fail(c, fiber.StatusBadRequest, models.MessageOf(err, "Invalid registration data"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.state.mu.Lock()
	if s.state.accountByEmail(req.Email) != nil {
		s.state.mu.Unlock()
		return fail(c, fiber.StatusBadRequest, "Email already exists")
	}
	if s.state.accountByUsername(req.Username) != nil {
		s.state.mu.Unlock()
		return fail(c, fiber.StatusBadRequest, "Username already taken")
	}
	a := s.state.addAccount(&account{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
	})
	user := s.state.userView(a)
	s.state.mu.Unlock()

	token, err := s.IssueToken(a.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"data":    fiber.Map{"token": token, "user": user},
	})
}

// Login handles POST /auth/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.state.mu.RLock()
	a := s.state.accountByEmail(req.Email)
	var hash []byte
	var user fiber.Map
	if a != nil {
		hash = a.PasswordHash
		user = s.state.userView(a)
	}
	s.state.mu.RUnlock()

	if a == nil || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid email or password")
	}
	token, err := s.IssueToken(a.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data":    fiber.Map{"token": token, "user": user},
	})
}
