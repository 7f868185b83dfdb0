package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"aoe-companion-api/internal/cache"
	"aoe-companion-api/internal/gateway"
	"aoe-companion-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is a scriptable gateway.Client for service tests.
type fakeGateway struct {
	user     *gateway.UserInfo
	quota    *gateway.Quota
	err      error
	quotaErr error

	chatResponse string
	chatErr      error
	lastChat     gateway.ChatRequest

	quotaCalls int
	chatCalls  int
}

func (f *fakeGateway) Chat(ctx context.Context, req gateway.ChatRequest) (string, error) {
	f.chatCalls++
	f.lastChat = req
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatResponse, nil
}

func (f *fakeGateway) GetUser(ctx context.Context, authToken string) (*gateway.UserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil {
		return &gateway.UserInfo{}, nil
	}
	return f.user, nil
}

func (f *fakeGateway) GetQuota(ctx context.Context, authToken string) (*gateway.Quota, error) {
	f.quotaCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.quotaErr != nil {
		return nil, f.quotaErr
	}
	if f.quota == nil {
		return &gateway.Quota{}, nil
	}
	return f.quota, nil
}

func newTestAccountService(t *testing.T, gw gateway.Client) *AccountService {
	t.Helper()
	store := repository.NewMemoryStore()
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })
	return NewAccountService(store, gw, memCache, time.Minute)
}

func TestAddKeepsSingleActive(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	first, err := svc.Add(ctx, "alpha", "", "tok-a")
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := svc.Add(ctx, "beta", "", "tok-b")
	require.NoError(t, err)
	assert.True(t, second.IsActive)

	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	active := 0
	for _, acc := range accounts {
		if acc.IsActive {
			active++
			assert.Equal(t, "beta", acc.Username)
		}
	}
	assert.Equal(t, 1, active)
}

func TestAddEnrichesFromGateway(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{
		user:  &gateway.UserInfo{Username: "joueur42", UserID: "u-42", Email: "j@example.com", Subscription: "pro"},
		quota: &gateway.Quota{Used: 2500, Limit: 50000},
	}
	svc := newTestAccountService(t, gw)

	acc, err := svc.Add(ctx, "", "", "tok")
	require.NoError(t, err)

	assert.Equal(t, "joueur42", acc.Username)
	assert.Equal(t, "u-42", acc.ExternalUserID)
	assert.Equal(t, "j@example.com", acc.Email)
	assert.Equal(t, "pro", acc.Subscription)
	assert.Equal(t, int64(2500), acc.TokensUsed)
	assert.Equal(t, int64(50000), acc.TokensLimit)
	require.NotNil(t, acc.LastTokenCheck)
}

func TestAddGatewayDownDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{err: errors.New("connection refused")})

	acc, err := svc.Add(ctx, "", "", "tok")
	require.NoError(t, err, "gateway failure must not block adding an account")

	assert.Equal(t, "Unknown User", acc.Username)
	assert.Equal(t, int64(100000), acc.TokensLimit)
	assert.Zero(t, acc.TokensUsed)
	assert.True(t, acc.IsActive)
}

func TestSetActiveSwitches(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	first, _ := svc.Add(ctx, "alpha", "", "")
	_, _ = svc.Add(ctx, "beta", "", "")

	ok, err := svc.SetActive(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.ID, active.ID)

	accounts, _ := svc.List(ctx)
	count := 0
	for _, acc := range accounts {
		if acc.IsActive {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSetActiveUnknownID(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})
	_, _ = svc.Add(ctx, "alpha", "", "")

	ok, err := svc.SetActive(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveActivePromotesRemaining(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	first, _ := svc.Add(ctx, "alpha", "", "")
	second, _ := svc.Add(ctx, "beta", "", "")

	ok, err := svc.Remove(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active, "removing the active account must promote another")
	assert.Equal(t, first.ID, active.ID)
}

func TestRemoveNonActiveKeepsActive(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	first, _ := svc.Add(ctx, "alpha", "", "")
	second, _ := svc.Add(ctx, "beta", "", "")

	ok, err := svc.Remove(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID, "removing a non-active account must not change the active one")
}

func TestRemoveLastAccountEmptiesLedger(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	acc, _ := svc.Add(ctx, "alpha", "", "")
	ok, err := svc.Remove(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestRemoveUnknownID(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})
	_, _ = svc.Add(ctx, "alpha", "", "")

	ok, err := svc.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshMergesGatewayData(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	// No cache here so the refresh sees the gateway's latest quota figures.
	svc := NewAccountService(repository.NewMemoryStore(), gw, nil, time.Minute)

	acc, _ := svc.Add(ctx, "alpha", "ext-1", "tok")

	gw.user = &gateway.UserInfo{Username: "alpha-renamed"}
	gw.quota = &gateway.Quota{Used: 7777, Limit: 0}

	refreshed, err := svc.Refresh(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed)

	assert.Equal(t, "alpha-renamed", refreshed.Username)
	assert.Equal(t, "ext-1", refreshed.ExternalUserID, "fields the gateway omitted keep their last-known values")
	assert.Equal(t, int64(7777), refreshed.TokensUsed)
	assert.Equal(t, int64(100000), refreshed.TokensLimit, "zero limit from the gateway keeps the stored limit")
}

func TestRefreshGatewayDownReturnsNil(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	svc := newTestAccountService(t, gw)

	acc, _ := svc.Add(ctx, "alpha", "", "tok")
	gw.err = errors.New("timeout")

	refreshed, err := svc.Refresh(ctx, acc.ID)
	require.NoError(t, err)
	assert.Nil(t, refreshed)

	// The stored record keeps its last-known values.
	stored, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "alpha", stored.Username)
}

func TestRefreshQuotaFailureLeavesTokenCheckUnset(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{
		user:     &gateway.UserInfo{Username: "alpha"},
		quotaErr: errors.New("quota endpoint down"),
	}
	svc := NewAccountService(repository.NewMemoryStore(), gw, nil, time.Minute)

	acc, err := svc.Add(ctx, "alpha", "", "tok")
	require.NoError(t, err)
	require.Nil(t, acc.LastTokenCheck)

	refreshed, err := svc.Refresh(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed)

	assert.Nil(t, refreshed.LastTokenCheck, "no token check happened, so no timestamp")
	assert.False(t, refreshed.UpdatedAt.IsZero())
}

func TestRefreshEmptyIDTargetsActive(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	svc := newTestAccountService(t, gw)

	_, _ = svc.Add(ctx, "alpha", "", "tok-a")
	second, _ := svc.Add(ctx, "beta", "", "tok-b")

	gw.user = &gateway.UserInfo{Username: "beta-renamed"}

	refreshed, err := svc.Refresh(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.Equal(t, second.ID, refreshed.ID)
	assert.Equal(t, "beta-renamed", refreshed.Username)
}

func TestQuotaFetchUsesCache(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{quota: &gateway.Quota{Used: 10, Limit: 1000}}
	svc := newTestAccountService(t, gw)

	acc, _ := svc.Add(ctx, "alpha", "", "tok")
	require.Equal(t, 1, gw.quotaCalls)

	_, err := svc.Refresh(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.quotaCalls, "a refresh inside the TTL must reuse the cached quota")
}

func TestUpdateTokens(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	acc, _ := svc.Add(ctx, "alpha", "", "")

	ok, err := svc.UpdateTokens(ctx, acc.ID, 4200, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, _ := svc.Get(ctx, acc.ID)
	assert.Equal(t, int64(4200), stored.TokensUsed)
	assert.Equal(t, int64(100000), stored.TokensLimit, "zero limit keeps the previous limit")

	ok, err = svc.UpdateTokens(ctx, "missing", 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImportJSONReestablishesSingleActive(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	backup := []byte(`[
		{"id":"a","username":"alpha","is_active":true,"tokens_limit":100000},
		{"id":"b","username":"beta","is_active":true,"tokens_limit":100000}
	]`)
	require.NoError(t, svc.ImportJSON(ctx, backup))

	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	active := 0
	for _, acc := range accounts {
		if acc.IsActive {
			active++
			assert.Equal(t, "alpha", acc.Username, "the first active account in the backup wins")
		}
	}
	assert.Equal(t, 1, active)
}

func TestImportJSONActivatesFirstWhenNoneActive(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	backup := []byte(`[{"id":"a","username":"alpha","is_active":false}]`)
	require.NoError(t, svc.ImportJSON(ctx, backup))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "alpha", active.Username)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	_, _ = svc.Add(ctx, "alpha", "", "")
	require.NoError(t, svc.ClearAll(ctx))

	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestListOrdersActiveFirstThenNewest(t *testing.T) {
	ctx := context.Background()
	svc := newTestAccountService(t, &fakeGateway{})

	first, _ := svc.Add(ctx, "alpha", "", "")
	_, _ = svc.Add(ctx, "beta", "", "")
	_, _ = svc.Add(ctx, "gamma", "", "")

	ok, err := svc.SetActive(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)

	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "alpha", accounts[0].Username, "active account sorts first")
}
