package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  profile_pic TEXT,
  cover_pic TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec("DELETE FROM users").Error)
	return db
}

func seedUser(t *testing.T, repo *Repository, name, email, username string) uuid.UUID {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: "$argon2id$stub",
	})
	require.NoError(t, err)
	return user.ID
}

func TestRepositoryCreateAndLookups(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	ctx := context.Background()

	id := seedUser(t, repo, "Aditya Verma", "aditya@example.com", "adityaverma")

	byEmail, err := repo.FindByEmail(ctx, "aditya@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	byUsername, err := repo.FindByUsername(ctx, "adityaverma")
	require.NoError(t, err)
	assert.Equal(t, id, byUsername.ID)

	byID, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Aditya Verma", byID.Name)
}

func TestRepositoryFindMissingReturnsRecordNotFound(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))

	_, err := repo.FindByUsername(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryUsernameExists(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	ctx := context.Background()

	seedUser(t, repo, "Creator", "creator@example.com", "creator")

	exists, err := repo.UsernameExists(ctx, "creator")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoryUpdateProfilePartial(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	ctx := context.Background()

	id := seedUser(t, repo, "Old Name", "u@example.com", "olduser")

	newName := "New Name"
	pic := "https://cdn.example.com/p.png"
	require.NoError(t, repo.UpdateProfile(ctx, id, UpdateProfileInput{
		Name:       &newName,
		ProfilePic: &pic,
	}))

	user, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.Name)
	assert.Equal(t, "olduser", user.Username, "unset fields must not change")
	require.NotNil(t, user.ProfilePic)
	assert.Equal(t, pic, *user.ProfilePic)
}

func TestRepositorySearchMatchesNameAndUsername(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	ctx := context.Background()

	seedUser(t, repo, "Chai Lover", "a@example.com", "chailover")
	seedUser(t, repo, "Masala Chai", "b@example.com", "masala")
	seedUser(t, repo, "Coffee Person", "c@example.com", "coffee")

	found, err := repo.Search(ctx, "CHAI", 20)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "chailover", found[0].Username)
	assert.Equal(t, "masala", found[1].Username)
}
