package identity

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/InsulaLabs/sphere/db/tkv/tkvtest"
	"github.com/InsulaLabs/sphere/service/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T) (*Manager, tkv.TKV) {
	t.Helper()
	store := tkvtest.New(t)
	m, err := New(Config{
		Logger:     tkvtest.Logger(),
		Store:      store,
		Accounts:   accounts.New(store),
		Secret:     "test-secret",
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	return m, store
}

func register(t *testing.T, m *Manager, username, password string) string {
	t.Helper()
	_, token, err := m.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return token
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(Config{Store: tkvtest.New(t)})
	assert.ErrorIs(t, err, ErrSecretMissing)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	user, token, err := m.Register(ctx, models.RegisterRequest{
		Username:  "alice",
		Password:  "abc123",
		Email:     "alice@example.com",
		FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Empty(t, user.PasswordHash)
	assert.True(t, user.IsOnline)
	assert.Equal(t, []string{}, user.Followers)

	raw, err := store.Get(models.WithUser("alice"))
	require.NoError(t, err)
	assert.NotContains(t, raw, "abc123", "password must not be stored in the clear")

	verified, ok, err := m.VerifySession(ctx, token, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alice", verified.FirstName)

	t.Run("duplicate is a conflict", func(t *testing.T) {
		_, _, err := m.Register(ctx, models.RegisterRequest{Username: "alice", Password: "xyz789"})
		assert.True(t, models.IsKind(err, models.KindConflict))
	})

	t.Run("weak passwords are rejected", func(t *testing.T) {
		for _, pw := range []string{"ab1", "abcdef", "123456", "", strings.Repeat("a", 79) + "1"} {
			_, _, err := m.Register(ctx, models.RegisterRequest{Username: "weak", Password: pw})
			assert.True(t, models.IsKind(err, models.KindInvalidInput), "password %q", pw)
		}
		exists, err := m.accounts.Exists(ctx, "weak")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("usernames that break the key scheme are rejected", func(t *testing.T) {
		for _, name := range []string{"", "a:b", "has space", strings.Repeat("x", 33)} {
			_, _, err := m.Register(ctx, models.RegisterRequest{Username: name, Password: "abc123"})
			assert.True(t, models.IsKind(err, models.KindInvalidInput), "username %q", name)
		}
	})
}

func TestLoginRateLimit(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	m.limiter.now = clock.now

	register(t, m, "alice", "abc123")

	for i := 0; i < 3; i++ {
		_, _, err := m.Login(ctx, "alice", "wrong")
		assert.True(t, models.IsKind(err, models.KindInvalidCredentials), "attempt %d", i+1)
	}

	_, _, err := m.Login(ctx, "alice", "abc123")
	require.True(t, models.IsKind(err, models.KindRateLimited))
	var e *models.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 15*time.Minute, e.RetryAfter)
	assert.Contains(t, e.Message, "15 minute")

	clock.advance(15 * time.Minute)
	user, token, err := m.Login(ctx, "alice", "abc123")
	require.NoError(t, err)
	assert.True(t, user.IsOnline)
	assert.NotEmpty(t, token)
}

func TestLoginConcurrentGuessesStopAtThreshold(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	register(t, m, "alice", "abc123")

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		invalid     int
		rateLimited int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Login(ctx, "alice", "wrong1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case models.IsKind(err, models.KindInvalidCredentials):
				invalid++
			case models.IsKind(err, models.KindRateLimited):
				rateLimited++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, invalid, "only three guesses reach the password check")
	assert.Equal(t, 17, rateLimited)
	assert.Positive(t, m.limiter.Check("alice"))
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	register(t, m, "alice", "abc123")

	m.Login(ctx, "alice", "wrong")
	m.Login(ctx, "alice", "wrong")
	_, _, err := m.Login(ctx, "alice", "abc123")
	require.NoError(t, err)

	m.Login(ctx, "alice", "wrong")
	m.Login(ctx, "alice", "wrong")
	_, _, err = m.Login(ctx, "alice", "abc123")
	assert.NoError(t, err)
}

func TestLoginUnknownUser(t *testing.T) {
	m, _ := newTestManager(t)
	_, _, err := m.Login(context.Background(), "ghost", "abc123")
	assert.True(t, models.IsKind(err, models.KindInvalidCredentials))
}

func TestVerifySession(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	token := register(t, m, "alice", "abc123")
	register(t, m, "bob", "abc123")

	tests := []struct {
		name     string
		token    string
		username string
		valid    bool
	}{
		{"matching", token, "alice", true},
		{"other user", token, "bob", false},
		{"garbage token", "not-a-token", "alice", false},
		{"empty token", "", "alice", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := m.VerifySession(ctx, tt.token, tt.username)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, ok)
		})
	}

	t.Run("token signed with another secret", func(t *testing.T) {
		forged, err := issueToken("alice", []byte("other"), time.Now())
		require.NoError(t, err)
		_, ok, err := m.VerifySession(ctx, forged, "alice")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("deleted user", func(t *testing.T) {
		carolToken := register(t, m, "carol", "abc123")
		require.NoError(t, store.Delete(models.WithUser("carol")))
		_, ok, err := m.VerifySession(ctx, carolToken, "carol")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLogoutAndRevoke(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	first := register(t, m, "alice", "abc123")
	_, second, err := m.Login(ctx, "alice", "abc123")
	require.NoError(t, err)
	bob := register(t, m, "bob", "abc123")

	require.NoError(t, m.Logout(ctx, first))
	_, ok, err := m.VerifySession(ctx, first, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = m.VerifySession(ctx, second, "alice")
	assert.True(t, ok)

	require.NoError(t, m.Logout(ctx, "unknown"))

	require.NoError(t, m.RevokeAll(ctx, "alice"))
	_, ok, _ = m.VerifySession(ctx, second, "alice")
	assert.False(t, ok)
	_, ok, _ = m.VerifySession(ctx, bob, "bob")
	assert.True(t, ok)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	created, err := m.EnsureAdmin(ctx, "admin", "admin123", "admin@example.com")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.EnsureAdmin(ctx, "admin", "different1", "admin@example.com")
	require.NoError(t, err)
	assert.False(t, created)

	user, _, err := m.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsVerified)
}
