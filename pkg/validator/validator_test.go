package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		fields   []string
	}{
		{name: "valid", username: "alice_01", email: "alice@example.com", password: "secret"},
		{name: "all missing", fields: []string{"username", "email", "password"}},
		{name: "short username", username: "al", email: "a@b.co", password: "secret", fields: []string{"username"}},
		{name: "long username", username: strings.Repeat("a", 51), email: "a@b.co", password: "secret", fields: []string{"username"}},
		{name: "bad chars", username: "al ice", email: "a@b.co", password: "secret", fields: []string{"username"}},
		{name: "bad email", username: "alice", email: "not-an-email", password: "secret", fields: []string{"email"}},
		{name: "short password", username: "alice", email: "a@b.co", password: "12345", fields: []string{"password"}},
		{name: "long password", username: "alice", email: "a@b.co", password: strings.Repeat("x", 73), fields: []string{"password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateSignup(tt.username, tt.email, tt.password)
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, errs, f)
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	assert.False(t, ValidateLogin("alice", "pw").HasErrors())

	errs := ValidateLogin(" ", "")
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "password")
}

func TestValidateNote(t *testing.T) {
	assert.False(t, ValidateNote("A", "").HasErrors())
	assert.False(t, ValidateNote(strings.Repeat("é", MaxTitleLength), strings.Repeat("x", MaxContentLength)).HasErrors())

	assert.Contains(t, ValidateNote("   ", "body"), "title")
	assert.Contains(t, ValidateNote(strings.Repeat("t", MaxTitleLength+1), ""), "title")
	assert.Contains(t, ValidateNote("t", strings.Repeat("c", MaxContentLength+1)), "content")
}

func TestValidateShareAndSearch(t *testing.T) {
	assert.False(t, ValidateShare("bob").HasErrors())
	assert.Contains(t, ValidateShare(""), "sharedUsername")

	assert.False(t, ValidateSearch("groceries").HasErrors())
	assert.Contains(t, ValidateSearch("  "), "q")
}
