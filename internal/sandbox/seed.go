package sandbox

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// seed fills the state with n fake accounts, each with a few posts, some follows,
// likes, saves and comments. Every account's password is SeedPassword.
func (s *Server) seed(n int, seedValue int64) error {
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	f := gofakeit.New(seedValue)

	// One hash for all accounts keeps startup fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	now := s.state.now()
	accounts := make([]*account, 0, n)
	for i := 0; i < n; i++ {
		username := strings.ToLower(f.Username()) + fmt.Sprintf("%d", f.Number(100, 999))
		for s.state.accountByUsername(username) != nil {
			username += fmt.Sprintf("%d", f.Number(0, 9))
		}
		accounts = append(accounts, s.state.addAccount(&account{
			Username:     username,
			Name:         f.Name(),
			Email:        fmt.Sprintf("%s@example.com", username),
			Phone:        f.Phone(),
			Bio:          f.Sentence(8),
			AvatarURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.UUID()),
			PasswordHash: hash,
			CreatedAt:    now.Add(-30 * 24 * time.Hour),
		}))
	}

	var posts []*post
	for _, a := range accounts {
		for j := f.Number(1, 4); j > 0; j-- {
			posts = append(posts, s.state.addPost(&post{
				UserID:    a.ID,
				ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.UUID()),
				Caption:   f.Sentence(f.Number(3, 10)),
				CreatedAt: now.Add(-time.Duration(f.Number(1, 14*24*60)) * time.Minute),
			}))
		}
	}

	for _, a := range accounts {
		for _, other := range accounts {
			if other.ID != a.ID && f.Bool() {
				s.state.follow(a.ID, other.ID)
			}
		}
		for _, p := range posts {
			switch f.Number(0, 9) {
			case 0, 1, 2:
				mark(s.state.likes, p.ID, a.ID, p.CreatedAt.Add(time.Hour))
			case 3:
				mark(s.state.saves, p.ID, a.ID, p.CreatedAt.Add(time.Hour))
			case 4:
				s.state.addComment(&comment{
					PostID:    p.ID,
					UserID:    a.ID,
					Content:   f.Sentence(f.Number(2, 12)),
					CreatedAt: p.CreatedAt.Add(time.Duration(f.Number(1, 600)) * time.Minute),
				})
			}
		}
	}

	s.log.Info("sandbox seeded",
		slog.Int("users", len(accounts)),
		slog.Int("posts", len(posts)),
		slog.String("password", SeedPassword),
	)
	return nil
}

// Usernames lists every account's username in id order.
func (s *Server) Usernames() []string {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	out := make([]string, 0, len(s.state.accounts))
	for id := int64(1); id <= s.state.nextAccount; id++ {
		if a := s.state.accounts[id]; a != nil {
			out = append(out, a.Username)
		}
	}
	return out
}
