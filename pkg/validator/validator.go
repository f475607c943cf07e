package validator

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 10000
	MinPasswordBytes = 6
	// MaxPasswordBytes keeps passwords within what bcrypt can verify.
	MaxPasswordBytes = 72
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func ValidateSignup(username, email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateUsername("username", username, errs)

	// Email
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	// Password
	switch {
	case password == "":
		errs.Add("password", "Password is required")
	case len(password) < MinPasswordBytes:
		errs.Add("password", "Password must be at least 6 characters")
	case len(password) > MaxPasswordBytes:
		errs.Add("password", "Password is too long")
	}

	return errs
}

func ValidateLogin(username, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(username) == "" {
		errs.Add("username", "Username is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateNote(title, content string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(title) == "" {
		errs.Add("title", "Title is required")
	} else if utf8.RuneCountInString(title) > MaxTitleLength {
		errs.Add("title", "Title is too long")
	}

	if utf8.RuneCountInString(content) > MaxContentLength {
		errs.Add("content", "Content is too long")
	}

	return errs
}

func ValidateShare(sharedUsername string) ValidationErrors {
	errs := make(ValidationErrors)
	if strings.TrimSpace(sharedUsername) == "" {
		errs.Add("sharedUsername", "Username to share with is required")
	}
	return errs
}

func ValidateSearch(query string) ValidationErrors {
	errs := make(ValidationErrors)
	if strings.TrimSpace(query) == "" {
		errs.Add("q", "Search query is required")
	}
	return errs
}

func validateUsername(field, username string, errs ValidationErrors) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		errs.Add(field, "Username is required")
	case len(username) < 3:
		errs.Add(field, "Username must be at least 3 characters")
	case len(username) > 50:
		errs.Add(field, "Username is too long")
	case !usernameRegex.MatchString(username):
		errs.Add(field, "Username can only contain letters, numbers, _ and -")
	}
}
