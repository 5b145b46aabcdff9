package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"snapfeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Credentials is what survives between runs: the bearer token and the last known user.
type Credentials struct {
	Token   string
	User    models.User
	SavedAt time.Time
}

// Store persists credentials. Load reports ok=false when nothing is stored.
type Store interface {
	Load(ctx context.Context) (creds Credentials, ok bool, err error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

const defaultProfile = "default"

type credentialRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Profile   string `gorm:"uniqueIndex;not null"`
	Token     string `gorm:"not null"`
	UserJSON  string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (credentialRecord) TableName() string { return "credentials" }

// GormStore keeps one row of credentials per profile name.
type GormStore struct {
	db      *gorm.DB
	profile string
}

// NewGormStore returns a Store over db. An empty profile means "default".
func NewGormStore(db *gorm.DB, profile string) *GormStore {
	if profile == "" {
		profile = defaultProfile
	}
	return &GormStore{db: db, profile: profile}
}

func (s *GormStore) Load(ctx context.Context) (Credentials, bool, error) {
	var rec credentialRecord
	err := s.db.WithContext(withProfile(ctx, s.profile)).Where("profile = ?", s.profile).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, fmt.Errorf("loading credentials: %w", err)
	}
	creds := Credentials{Token: rec.Token, SavedAt: rec.UpdatedAt}
	if rec.UserJSON != "" {
		if err := json.Unmarshal([]byte(rec.UserJSON), &creds.User); err != nil {
			return Credentials{}, false, fmt.Errorf("decoding stored user: %w", err)
		}
	}
	return creds, creds.Token != "", nil
}

func (s *GormStore) Save(ctx context.Context, creds Credentials) error {
	if creds.Token == "" {
		return models.NewValidationError("refusing to store an empty token")
	}
	userJSON, err := json.Marshal(creds.User)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	rec := credentialRecord{Profile: s.profile, Token: creds.Token, UserJSON: string(userJSON)}
	err = s.db.WithContext(withProfile(ctx, s.profile)).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "user_json", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(withProfile(ctx, s.profile)).Where("profile = ?", s.profile).Delete(&credentialRecord{}).Error; err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return Credentials{}, false, nil
	}
	return *s.creds, true, nil
}

func (s *MemoryStore) Save(_ context.Context, creds Credentials) error {
	if creds.Token == "" {
		return models.NewValidationError("refusing to store an empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	creds.SavedAt = time.Now()
	s.creds = &creds
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}
