package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventory-hub/internal/types"
)

// mapUserStore serves identities from a fixed map
type mapUserStore struct {
	users map[string]*types.Identity
	err   error
}

func (s *mapUserStore) GetUser(ctx context.Context, userID string) (*types.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[userID], nil
}

func newTestSessionService() (*SessionService, *mapUserStore) {
	store := &mapUserStore{users: map[string]*types.Identity{
		"u1": {UserID: "u1", Email: "reseller@example.com"},
	}}
	return NewSessionService(store), store
}

func TestResolve_KnownUser(t *testing.T) {
	svc, _ := newTestSessionService()
	svc.Init()

	result := svc.Resolve(context.Background(), "u1")

	require.True(t, result.OK)
	assert.Equal(t, "u1", result.Identity.UserID)
	assert.Equal(t, result, svc.Current())
}

func TestResolve_UnknownOrEmptyUser(t *testing.T) {
	svc, _ := newTestSessionService()
	svc.Init()

	for _, userID := range []string{"", "nobody"} {
		result := svc.Resolve(context.Background(), userID)
		assert.False(t, result.OK)
		assert.Equal(t, "Unauthenticated", result.Kind)
		assert.Nil(t, result.Identity)
	}
}

func TestResolve_BeforeInitIsUnauthenticated(t *testing.T) {
	svc, _ := newTestSessionService()

	result := svc.Resolve(context.Background(), "u1")
	assert.False(t, result.OK)
}

func TestResolve_StoreFailureIsUnauthenticated(t *testing.T) {
	svc, store := newTestSessionService()
	svc.Init()
	store.err = errors.New("connection refused")

	// A query cannot proceed without a confirmed identity
	result := svc.Resolve(context.Background(), "u1")
	assert.False(t, result.OK)
}

func TestSubscribe_NotifiedOnChange(t *testing.T) {
	svc, _ := newTestSessionService()
	svc.Init()

	var seen []types.IdentityResult
	unsubscribe := svc.Subscribe(func(r types.IdentityResult) {
		seen = append(seen, r)
	})

	svc.Resolve(context.Background(), "u1") // unauthenticated -> u1
	svc.Resolve(context.Background(), "u1") // no change, no notification
	svc.Resolve(context.Background(), "")   // u1 -> unauthenticated

	require.Len(t, seen, 2)
	assert.True(t, seen[0].OK)
	assert.False(t, seen[1].OK)

	unsubscribe()
	svc.Resolve(context.Background(), "u1")
	assert.Len(t, seen, 2, "no notifications after unsubscribe")
}

func TestDispose_ResetsState(t *testing.T) {
	svc, _ := newTestSessionService()
	svc.Init()
	svc.Resolve(context.Background(), "u1")
	require.True(t, svc.Current().OK)

	svc.Dispose()

	assert.False(t, svc.Current().OK)
	// After dispose the service behaves as before Init
	assert.False(t, svc.Resolve(context.Background(), "u1").OK)
}

func TestSessionServicesAreIndependent(t *testing.T) {
	a, _ := newTestSessionService()
	b, _ := newTestSessionService()
	a.Init()
	b.Init()

	a.Resolve(context.Background(), "u1")

	assert.True(t, a.Current().OK)
	assert.False(t, b.Current().OK, "instances must not share session state")
}
