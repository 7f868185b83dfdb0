package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"aoe-companion-api/internal/cache"
	"aoe-companion-api/internal/gateway"
	"aoe-companion-api/internal/model"
	"aoe-companion-api/internal/repository"

	"aoe-companion-api/pkg/uid"
)

const (
	// accountsKey is the document key holding the whole ledger.
	accountsKey = "aoe:accounts"

	// quotaCachePrefix namespaces cached quota responses per auth token.
	quotaCachePrefix = "quota:"
)

// AccountService maintains the ledger of linked gateway accounts and
// enforces the single-active invariant: after any mutation at most one
// account is active, and zero only when the ledger is empty.
//
// Every mutation is a read-modify-write of the whole ledger document, so
// mutations are serialized with an in-process mutex.
type AccountService struct {
	store   repository.Store
	gateway gateway.Client
	cache   cache.Cache

	quotaTTL time.Duration
	mu       sync.Mutex
}

// NewAccountService creates an account service. gatewayClient and quotaCache
// are optional; without them Add and Refresh keep last-known values.
func NewAccountService(store repository.Store, gatewayClient gateway.Client, quotaCache cache.Cache, quotaTTL time.Duration) *AccountService {
	if store == nil {
		return nil
	}
	return &AccountService{
		store:    store,
		gateway:  gatewayClient,
		cache:    quotaCache,
		quotaTTL: quotaTTL,
	}
}

// load reads the full ledger. A missing document is an empty ledger.
func (s *AccountService) load(ctx context.Context) ([]model.Account, error) {
	data, err := s.store.Get(ctx, accountsKey)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	var accounts []model.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

// save writes the full ledger back before the mutation returns.
func (s *AccountService) save(ctx context.Context, accounts []model.Account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to serialize accounts: %w", err)
	}
	if err := s.store.Set(ctx, accountsKey, data); err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

// Add deactivates every existing account and appends a new active one.
// Gateway profile/quota data is fetched best-effort; when the gateway is
// unreachable the account starts with defaulted counters.
func (s *AccountService) Add(ctx context.Context, username, externalUserID, authToken string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range accounts {
		accounts[i].IsActive = false
	}

	now := time.Now().UTC()
	account := model.Account{
		ID:          uid.New(),
		Username:    username,
		IsActive:    true,
		TokensLimit: model.DefaultTokensLimit,
		AuthToken:   authToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	account.ExternalUserID = externalUserID

	// Best-effort enrichment from the gateway; absence of this data is not an error.
	if s.gateway != nil && authToken != "" {
		if user, err := s.gateway.GetUser(ctx, authToken); err != nil {
			log.Printf("[AccountService] Warning: could not fetch gateway user: %v", err)
		} else {
			if account.Username == "" {
				account.Username = user.Username
			}
			if account.ExternalUserID == "" {
				account.ExternalUserID = user.UserID
			}
			account.Email = user.Email
			account.Subscription = user.Subscription
		}

		if quota, err := s.fetchQuota(ctx, authToken); err != nil {
			log.Printf("[AccountService] Warning: could not fetch gateway quota: %v", err)
		} else {
			account.TokensUsed = quota.Used
			if quota.Limit > 0 {
				account.TokensLimit = quota.Limit
			}
			account.LastTokenCheck = &now
		}
	}

	if account.Username == "" {
		account.Username = "Unknown User"
	}

	accounts = append(accounts, account)
	if err := s.save(ctx, accounts); err != nil {
		return nil, err
	}

	log.Printf("[AccountService] Added account %s (%s)", account.ID, account.Username)
	return &account, nil
}

// List returns all accounts, active first, then newest first.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].IsActive != accounts[j].IsActive {
			return accounts[i].IsActive
		}
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Active returns the currently active account, or nil when the ledger has none.
func (s *AccountService) Active(ctx context.Context) (*model.Account, error) {
	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].IsActive {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

// Get returns the account with the given id, or nil if not found.
func (s *AccountService) Get(ctx context.Context, id string) (*model.Account, error) {
	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

// SetActive deactivates all accounts and activates the target.
// Returns false when the id is unknown.
func (s *AccountService) SetActive(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	found := false
	for i := range accounts {
		accounts[i].IsActive = false
		if accounts[i].ID == id {
			accounts[i].IsActive = true
			accounts[i].UpdatedAt = time.Now().UTC()
			found = true
		}
	}
	if !found {
		return false, nil
	}

	if err := s.save(ctx, accounts); err != nil {
		return false, err
	}
	log.Printf("[AccountService] Activated account %s", id)
	return true, nil
}

// Remove deletes the account. If the removed account was active and others
// remain, the first remaining account is promoted; removing a non-active
// account never changes which account is active.
func (s *AccountService) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	kept := accounts[:0]
	removed := false
	for _, acc := range accounts {
		if acc.ID == id {
			removed = true
			continue
		}
		kept = append(kept, acc)
	}
	if !removed {
		return false, nil
	}

	if len(kept) > 0 {
		hasActive := false
		for i := range kept {
			if kept[i].IsActive {
				hasActive = true
				break
			}
		}
		if !hasActive {
			kept[0].IsActive = true
		}
	}

	if err := s.save(ctx, kept); err != nil {
		return false, err
	}
	log.Printf("[AccountService] Removed account %s", id)
	return true, nil
}

// Refresh re-queries the gateway for the given account (or the active one
// when id is empty) and merges the returned fields into the stored record
// without discarding previously known values the gateway didn't return.
// Returns nil when the account doesn't exist or the gateway is unreachable:
// the stored record stays valid with its last-known values either way.
func (s *AccountService) Refresh(ctx context.Context, id string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range accounts {
		if (id == "" && accounts[i].IsActive) || (id != "" && accounts[i].ID == id) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}

	if s.gateway == nil {
		return nil, nil
	}

	acc := &accounts[idx]
	user, err := s.gateway.GetUser(ctx, acc.AuthToken)
	if err != nil {
		log.Printf("[AccountService] Warning: refresh failed for %s: %v", acc.ID, err)
		return nil, nil
	}

	if user.Username != "" {
		acc.Username = user.Username
	}
	if user.Email != "" {
		acc.Email = user.Email
	}
	if user.UserID != "" {
		acc.ExternalUserID = user.UserID
	}
	if user.Subscription != "" {
		acc.Subscription = user.Subscription
	}

	if quota, err := s.fetchQuota(ctx, acc.AuthToken); err != nil {
		log.Printf("[AccountService] Warning: quota fetch failed for %s: %v", acc.ID, err)
	} else {
		acc.TokensUsed = quota.Used
		if quota.Limit > 0 {
			acc.TokensLimit = quota.Limit
		}
		now := time.Now().UTC()
		acc.LastTokenCheck = &now
	}

	acc.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, accounts); err != nil {
		return nil, err
	}

	result := *acc
	return &result, nil
}

// UpdateTokens overwrites the token counters for the account.
// Returns false when the id is unknown.
func (s *AccountService) UpdateTokens(ctx context.Context, id string, used, limit int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	for i := range accounts {
		if accounts[i].ID != id {
			continue
		}
		now := time.Now().UTC()
		accounts[i].TokensUsed = used
		if limit > 0 {
			accounts[i].TokensLimit = limit
		}
		accounts[i].LastTokenCheck = &now
		accounts[i].UpdatedAt = now

		if err := s.save(ctx, accounts); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ExportJSON serializes the whole ledger for backup.
func (s *AccountService) ExportJSON(ctx context.Context) ([]byte, error) {
	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return json.MarshalIndent(accounts, "", "  ")
}

// ImportJSON replaces the ledger with a previously exported backup.
func (s *AccountService) ImportJSON(ctx context.Context, data []byte) error {
	var accounts []model.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return fmt.Errorf("invalid accounts backup: %w", err)
	}

	// Re-establish the single-active invariant on whatever came in.
	activeSeen := false
	for i := range accounts {
		if accounts[i].IsActive {
			if activeSeen {
				accounts[i].IsActive = false
			}
			activeSeen = true
		}
	}
	if !activeSeen && len(accounts) > 0 {
		accounts[0].IsActive = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, accounts)
}

// ClearAll removes every account from the ledger.
func (s *AccountService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, accountsKey)
}

// fetchQuota queries the quota endpoint through the cache, so repeated
// refreshes inside the TTL reuse the last response.
func (s *AccountService) fetchQuota(ctx context.Context, authToken string) (*gateway.Quota, error) {
	if s.cache == nil {
		return s.gateway.GetQuota(ctx, authToken)
	}

	data, err := s.cache.GetOrSet(ctx, quotaCachePrefix+authToken, s.quotaTTL, func() ([]byte, error) {
		quota, err := s.gateway.GetQuota(ctx, authToken)
		if err != nil {
			return nil, err
		}
		return json.Marshal(quota)
	})
	if err != nil {
		return nil, err
	}

	var quota gateway.Quota
	if err := json.Unmarshal(data, &quota); err != nil {
		return nil, err
	}
	return &quota, nil
}
