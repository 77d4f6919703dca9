package model

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var ErrValidation = errors.New("validation failed")

const (
	maxTitleLen       = 200
	maxOwnerLen       = 200
	maxNameLen        = 200
	maxDescriptionLen = 20000
	maxBodyLen        = 100000
	minPasswordLen    = 8
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IPInput carries the create/edit form. Blank values are accepted; the form
// marks every field required and that is the only emptiness check.
type IPInput struct {
	Title       string
	Description string
	Owner       string
}

func (in IPInput) Validate() error {
	if utf8.RuneCountInString(in.Title) > maxTitleLen {
		return invalid("title", "title is too long")
	}
	if utf8.RuneCountInString(in.Owner) > maxOwnerLen {
		return invalid("owner", "owner is too long")
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return invalid("description", "description is too long")
	}
	return nil
}

type WorldInput struct {
	Name string
}

func (in WorldInput) Normalize() WorldInput {
	in.Name = strings.TrimSpace(in.Name)
	return in
}

func (in WorldInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name", "world name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return invalid("name", "world name is too long")
	}
	return nil
}

type ItemInput struct {
	WorldID string
	Section string
	Title   string
	Body    string
}

func (in ItemInput) Normalize() ItemInput {
	in.WorldID = strings.TrimSpace(in.WorldID)
	in.Section = strings.TrimSpace(in.Section)
	in.Title = strings.TrimSpace(in.Title)
	return in
}

func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.WorldID) == "" {
		return invalid("world", "select a world first")
	}
	if strings.TrimSpace(in.Section) == "" {
		return invalid("section", "select a section first")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return invalid("title", "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return invalid("title", "title is too long")
	}
	if utf8.RuneCountInString(in.Body) > maxBodyLen {
		return invalid("body", "body is too long")
	}
	return nil
}

type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) Validate() error {
	email := NormalizeEmail(c.Email)
	if email == "" {
		return invalid("email", "email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return invalid("email", "email is not valid")
	}
	if c.Password == "" {
		return invalid("password", "password is required")
	}
	if utf8.RuneCountInString(c.Password) < minPasswordLen {
		return invalid("password", "password must be at least 8 characters")
	}
	return nil
}
