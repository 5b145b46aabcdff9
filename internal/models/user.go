// Package models contains the client's domain entities as they arrive from the API.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ID is a numeric identifier that also accepts quoted numbers on the wire.
type ID int64

// UnmarshalJSON accepts 42, "42" and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a path or CLI argument into an ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, NewValidationError("Invalid ID " + strconv.Quote(s))
	}
	return ID(n), nil
}

// User is an account as returned by auth and search endpoints.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// UnmarshalJSON also reads avatarUrl and numberPhone.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var w struct {
		plain
		AvatarURL   string `json:"avatarUrl"`
		NumberPhone string `json:"numberPhone"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*u = User(w.plain)
	if u.Avatar == "" {
		u.Avatar = w.AvatarURL
	}
	if u.Phone == "" {
		u.Phone = w.NumberPhone
	}
	return nil
}

// Author returns the public subset of u.
func (u User) Author() Author {
	return Author{ID: u.ID, Username: u.Username, Name: u.Name, Avatar: u.Avatar}
}

// DisplayName prefers the name, then the username.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Author is the public identity embedded in posts and comments.
type Author struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

// UnmarshalJSON also reads avatarUrl.
func (a *Author) UnmarshalJSON(b []byte) error {
	type plain Author
	var w struct {
		plain
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*a = Author(w.plain)
	if a.Avatar == "" {
		a.Avatar = w.AvatarURL
	}
	return nil
}
