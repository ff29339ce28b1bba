package entity

import (
	"encoding/json"
	"regexp"
	"strings"
)

type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// UnmarshalJSON accepts both "id" and the remote's "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s Session) Valid() bool {
	return s.Token != ""
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const minPasswordLength = 6

// Registration is the sign-up form.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return NewValidationError("", "all fields are required")
	}
	if !emailPattern.MatchString(r.Email) {
		return NewValidationError("email", "invalid email format")
	}
	if len(r.Password) < minPasswordLength {
		return NewValidationError("password", "password must be at least 6 characters")
	}
	return nil
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return NewValidationError("", "email and password are required")
	}
	return nil
}
