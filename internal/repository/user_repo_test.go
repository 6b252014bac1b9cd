package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/models"
)

func TestUserRepositoryBatchAndLookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, total)

	users := []models.User{
		{Login: "ana", Name: "Ana Lima", PasswordHash: "hash-a", IsAdmin: true},
		{Login: "bruno", Name: "Bruno Reis", PasswordHash: "hash-b"},
	}
	require.NoError(t, repo.CreateBatch(ctx, users))

	total, err = repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	user, err := repo.FindByLogin(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, "Ana Lima", user.Name)
	require.True(t, user.IsAdmin)

	_, err = repo.FindByLogin(ctx, "carla")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	existing, err := repo.ExistingLogins(ctx, []string{"ana", "carla"})
	require.NoError(t, err)
	require.Contains(t, existing, "ana")
	require.NotContains(t, existing, "carla")
}

func TestUserRepositoryBatchRejectsDuplicateLogin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateBatch(ctx, []models.User{{Login: "ana", Name: "Ana", PasswordHash: "x"}}))
	err := repo.CreateBatch(ctx, []models.User{{Login: "bruno", Name: "Bruno", PasswordHash: "y"}, {Login: "ana", Name: "Ana 2", PasswordHash: "z"}})
	require.Error(t, err)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), total, "failed batch leaves nothing behind")
}

func TestUserRepositorySetAdmin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateBatch(ctx, []models.User{{Login: "bruno", Name: "Bruno", PasswordHash: "x"}}))
	require.NoError(t, repo.SetAdmin(ctx, "bruno", true))

	user, err := repo.FindByLogin(ctx, "bruno")
	require.NoError(t, err)
	require.True(t, user.IsAdmin)

	require.ErrorIs(t, repo.SetAdmin(ctx, "nobody", true), gorm.ErrRecordNotFound)
}
