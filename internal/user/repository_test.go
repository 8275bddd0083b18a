package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielMhv/D-Market-sub000/internal/db/dbtest"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

func TestRepository_CreateAndLookup(t *testing.T) {
	pg := dbtest.New(t)
	repo := user.NewRepository(pg.Pool)
	ctx := context.Background()

	u := &user.User{Name: "Ama", Email: "Ama@Example.com", Role: user.RoleCustomer, PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "ama@example.com", u.Email)

	dup := &user.User{Name: "Other", Email: "ama@example.com", Role: user.RoleCustomer, PasswordHash: "hash"}
	assert.ErrorIs(t, repo.Create(ctx, dup), user.ErrEmailExists)

	byEmail, err := repo.GetByEmail(ctx, "AMA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	require.NoError(t, repo.UpdateProfile(ctx, u.ID, "Ama M.", "90000000"))
	require.NoError(t, repo.SetRole(ctx, u.ID, user.RoleAdmin))

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ama M.", byID.Name)
	assert.Equal(t, user.RoleAdmin, byID.Role)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
