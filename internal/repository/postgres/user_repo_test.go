package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/repository"
	"github.com/dom/techxchange/internal/repository/postgres"
	"github.com/dom/techxchange/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(username, email string) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         domain.RoleBuyer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_Create(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("testuser", "test@example.com")))

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{
			name: "second user",
			user: newUser("other", "other@example.com"),
		},
		{
			name:    "duplicate username",
			user:    newUser("testuser", "fresh@example.com"),
			wantErr: repository.ErrDuplicate,
		},
		{
			name:    "duplicate email",
			user:    newUser("fresh", "test@example.com"),
			wantErr: repository.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestUserRepository_ConcurrentDuplicateCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, newUser(fmt.Sprintf("racer%d", i), "race@example.com"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, repository.ErrDuplicate):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
}

func TestUserRepository_Lookups(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithUsername("lookup_user").
		WithEmail("lookup@example.com").
		Build(t, repo)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "lookup_user", got.Username)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
	})

	t.Run("get identity omits hash", func(t *testing.T) {
		got, err := repo.GetIdentity(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, domain.RoleBuyer, got.Role)
		assert.Empty(t, got.PasswordHash)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "lookup@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.GetIdentity(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.GetByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		tests := []struct {
			username string
			email    string
			want     bool
		}{
			{"lookup_user", "x@example.com", true},
			{"x", "lookup@example.com", true},
			{"x", "x@example.com", false},
		}
		for _, tt := range tests {
			got, err := repo.ExistsByUsernameOrEmail(ctx, tt.username, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "%s/%s", tt.username, tt.email)
		}
	})
}

func TestUserRepository_ListByRole(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	testutil.NewUserBuilder().WithUsername("zeta").WithRole(domain.RoleSeller).Build(t, repo)
	testutil.NewUserBuilder().WithUsername("alpha").WithRole(domain.RoleSeller).Build(t, repo)
	testutil.NewUserBuilder().WithUsername("buyer").Build(t, repo)

	sellers, err := repo.ListByRole(ctx, domain.RoleSeller)
	require.NoError(t, err)
	require.Len(t, sellers, 2)
	assert.Equal(t, "alpha", sellers[0].Username)
	assert.Equal(t, "zeta", sellers[1].Username)
	for _, s := range sellers {
		assert.Empty(t, s.PasswordHash)
	}
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, repo)

	user.Role = domain.RoleAdmin
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err = repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, user.ID), repository.ErrNotFound)
}
