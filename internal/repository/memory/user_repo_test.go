package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/notes/internal/domain"
	"github.com/vedran77/notes/internal/repository"
)

func TestUserRepo(t *testing.T) {
	r := NewUserRepo()
	ctx := context.Background()

	u := &domain.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, r.Create(ctx, u))

	err := r.Create(ctx, &domain.User{ID: uuid.New(), Username: "alice"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	got, err = r.GetByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}
