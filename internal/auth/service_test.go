package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryIdentityStore struct {
	mu         sync.Mutex
	byUsername map[string]Identity
	failWith   error
}

func newMemoryIdentityStore() *memoryIdentityStore {
	return &memoryIdentityStore{byUsername: make(map[string]Identity)}
}

func (m *memoryIdentityStore) Create(_ context.Context, identity Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.byUsername[identity.Username]; ok {
		return ErrUsernameTaken
	}
	for _, existing := range m.byUsername {
		if existing.Email == identity.Email {
			return ErrEmailTaken
		}
	}
	m.byUsername[identity.Username] = identity
	return nil
}

func (m *memoryIdentityStore) GetByUsername(_ context.Context, username string) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Identity{}, m.failWith
	}
	identity, ok := m.byUsername[username]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return identity, nil
}

func (m *memoryIdentityStore) Taken(_ context.Context, username, email string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, false, m.failWith
	}
	_, usernameTaken := m.byUsername[username]
	emailTaken := false
	for _, existing := range m.byUsername {
		if existing.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

func newTestService() (*Service, *memoryIdentityStore, *TokenService) {
	store := newMemoryIdentityStore()
	tokens := NewTokenService(testSecret, 0)
	return NewService(store, tokens).WithHashCost(bcrypt.MinCost), store, tokens
}

func TestService_SignupThenLogin(t *testing.T) {
	service, store, tokens := newTestService()
	ctx := context.Background()

	signed, err := service.Signup(ctx, "alice", "alice@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", signed.TokenType)
	assert.Equal(t, int64(1800), signed.ExpiresIn)

	stored := store.byUsername["alice"]
	assert.NotEmpty(t, stored.ID)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw1")))

	logged, err := service.Login(ctx, "Alice ", "pw1")
	require.NoError(t, err)

	subject, err := tokens.Verify(logged.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestService_SignupDuplicates(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	_, err := service.Signup(ctx, "alice", "alice@x.com", "pw1")
	require.NoError(t, err)

	_, err = service.Signup(ctx, "alice", "other@x.com", "pw2")
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, err = service.Signup(ctx, "bob", "alice@x.com", "pw2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	_, err := service.Signup(ctx, "alice", "alice@x.com", "pw1")
	require.NoError(t, err)

	_, err = service.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(ctx, "nobody", "pw1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(ctx, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_StoreFailureIsNotCredentialError(t *testing.T) {
	service, store, _ := newTestService()
	store.failWith = errors.New("connection refused")

	_, err := service.Login(context.Background(), "alice", "pw1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_UnknownUserStillComparesHash(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.Login(context.Background(), "nobody", "pw1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NotEmpty(t, service.dummyHash)
	cost, err := bcrypt.Cost(service.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
