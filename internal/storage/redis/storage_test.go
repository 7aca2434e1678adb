package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/identity-service/internal/models"
	"github.com/pribylovaa/identity-service/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func newStore(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := NewWithClient(rdb, "test:")
	t.Cleanup(st.Close)

	return st, mr
}

func newUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: testHash,
		DisplayName:  "",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestNew_URL(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	st, err := New(context.Background(), "redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	defer st.Close()
	require.Equal(t, defaultPrefix, st.prefix)
	require.NoError(t, st.Ping(context.Background()))

	_, err = New(context.Background(), "not a url", "")
	require.Error(t, err)
}

func TestSaveUser_And_Lookups(t *testing.T) {
	t.Parallel()

	st, mr := newStore(t)
	ctx := context.Background()

	u := newUser("alice@example.com")
	require.NoError(t, st.SaveUser(ctx, u))
	require.True(t, mr.Exists("test:email:alice@example.com"))
	require.True(t, mr.Exists("test:user:"+u.ID.String()))

	byEmail, err := st.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, testHash, byEmail.PasswordHash)
	require.True(t, u.CreatedAt.Equal(byEmail.CreatedAt))
	require.Nil(t, byEmail.Reset)

	byID, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)

	_, err = st.UserByEmail(ctx, "ALICE@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveUser_DuplicateEmail(t *testing.T) {
	t.Parallel()

	st, _ := newStore(t)
	ctx := context.Background()

	first := newUser("bob@example.com")
	require.NoError(t, st.SaveUser(ctx, first))

	err := st.SaveUser(ctx, newUser("bob@example.com"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := st.UserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
}

// TestSaveUser_ConcurrentSameEmail — ровно одна регистрация из N выигрывает.
func TestSaveUser_ConcurrentSameEmail(t *testing.T) {
	t.Parallel()

	st, _ := newStore(t)
	ctx := context.Background()

	const n = 10
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = st.SaveUser(ctx, newUser("race@example.com"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, storage.ErrAlreadyExists)
	}
	require.Equal(t, 1, ok)
}

func TestUpdatePassword_And_Profile(t *testing.T) {
	t.Parallel()

	st, _ := newStore(t)
	ctx := context.Background()

	u := newUser("carol@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	newHash := "$2a$10$abcdefghijklmnopqrstuv0123456789ABCDEFGHIJKLMNOPQRSTU"
	require.NoError(t, st.UpdatePassword(ctx, u.ID, newHash))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, newHash, got.PasswordHash)

	upd, err := st.UpdateProfile(ctx, u.ID, "Carol")
	require.NoError(t, err)
	require.Equal(t, "Carol", upd.DisplayName)
	require.Equal(t, newHash, upd.PasswordHash)

	missing := uuid.New()
	require.ErrorIs(t, st.UpdatePassword(ctx, missing, newHash), storage.ErrNotFound)
	_, err = st.UpdateProfile(ctx, missing, "x")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Обновление не должно создавать пустой hash для несуществующего пользователя.
	_, err = st.UserByID(ctx, missing)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResetToken_Lifecycle(t *testing.T) {
	t.Parallel()

	st, mr := newStore(t)
	ctx := context.Background()

	u := newUser("dave@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	exp := time.Now().Add(time.Hour).UTC()
	require.NoError(t, st.SetResetToken(ctx, u.ID, models.ResetToken{Lookup: "lk-1", Hash: testHash, ExpiresAt: exp}))
	require.True(t, mr.Exists("test:reset:lk-1"))
	require.Greater(t, mr.TTL("test:reset:lk-1"), time.Duration(0))

	got, err := st.UserByResetLookup(ctx, "lk-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.Reset)
	require.Equal(t, testHash, got.Reset.Hash)
	require.True(t, exp.Equal(got.Reset.ExpiresAt))

	// Замена токена удаляет индекс предыдущего.
	require.NoError(t, st.SetResetToken(ctx, u.ID, models.ResetToken{Lookup: "lk-2", Hash: testHash, ExpiresAt: exp}))
	require.False(t, mr.Exists("test:reset:lk-1"))
	_, err = st.UserByResetLookup(ctx, "lk-1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, st.ClearResetToken(ctx, u.ID))
	require.False(t, mr.Exists("test:reset:lk-2"))

	got, err = st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got.Reset)
	require.Empty(t, mr.HGet("test:user:"+u.ID.String(), fResetHash))
	require.Empty(t, mr.HGet("test:user:"+u.ID.String(), fResetExpires))

	// Повторная очистка — не ошибка.
	require.NoError(t, st.ClearResetToken(ctx, u.ID))

	require.ErrorIs(t, st.SetResetToken(ctx, uuid.New(), models.ResetToken{Lookup: "x", Hash: testHash, ExpiresAt: exp}), storage.ErrNotFound)
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	st, mr := newStore(t)
	ctx := context.Background()

	u := newUser("erin@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	exp := time.Now().Add(time.Hour).UTC()
	require.NoError(t, st.SetResetToken(ctx, u.ID, models.ResetToken{Lookup: "lk-1", Hash: testHash, ExpiresAt: exp}))
	require.NoError(t, st.SetResetToken(ctx, u.ID, models.ResetToken{Lookup: "lk-2", Hash: testHash, ExpiresAt: exp}))

	const newHash = "$2a$10$zyxwvutsrqponmlkjihgfe0123456789ABCDEFGHIJKLMNOPQRSTU"

	// Заменённый токен не меняет пароль.
	require.ErrorIs(t, st.ResetPassword(ctx, u.ID, "lk-1", newHash), storage.ErrNotFound)
	require.Equal(t, testHash, mr.HGet("test:user:"+u.ID.String(), fPasswordHash))

	require.NoError(t, st.ResetPassword(ctx, u.ID, "lk-2", newHash))
	require.Equal(t, newHash, mr.HGet("test:user:"+u.ID.String(), fPasswordHash))
	require.False(t, mr.Exists("test:reset:lk-2"))
	require.Empty(t, mr.HGet("test:user:"+u.ID.String(), fResetLookup))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got.Reset)

	// Повторное использование и неизвестный пользователь.
	require.ErrorIs(t, st.ResetPassword(ctx, u.ID, "lk-2", testHash), storage.ErrNotFound)
	require.ErrorIs(t, st.ResetPassword(ctx, uuid.New(), "lk-2", testHash), storage.ErrNotFound)
}

// TestUserByResetLookup_StaleIndex — индекс, указывающий на пользователя с
// другим токеном, не даёт совпадения.
func TestUserByResetLookup_StaleIndex(t *testing.T) {
	t.Parallel()

	st, mr := newStore(t)
	ctx := context.Background()

	u := newUser("erin@example.com")
	require.NoError(t, st.SaveUser(ctx, u))
	require.NoError(t, mr.Set("test:reset:forged", u.ID.String()))

	_, err := st.UserByResetLookup(ctx, "forged")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteExpiredResetTokens(t *testing.T) {
	t.Parallel()

	st, _ := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := newUser("old@example.com")
	live := newUser("new@example.com")
	plain := newUser("none@example.com")
	for _, u := range []*models.User{expired, live, plain} {
		require.NoError(t, st.SaveUser(ctx, u))
	}

	require.NoError(t, st.SetResetToken(ctx, expired.ID, models.ResetToken{Lookup: "old", Hash: testHash, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, st.SetResetToken(ctx, live.ID, models.ResetToken{Lookup: "new", Hash: testHash, ExpiresAt: now.Add(time.Hour)}))

	n, err := st.DeleteExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := st.UserByID(ctx, expired.ID)
	require.NoError(t, err)
	require.Nil(t, got.Reset)

	got, err = st.UserByID(ctx, live.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Reset)

	n, err = st.DeleteExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
}
