package model

import (
	"fmt"
	"time"
)

// DefaultTokensLimit is assumed when the gateway never reported a quota.
const DefaultTokensLimit = 100000

// Account represents one linked AI-gateway identity stored in the local ledger.
type Account struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	ExternalUserID string     `json:"external_user_id,omitempty"`
	Email          string     `json:"email,omitempty"`
	IsActive       bool       `json:"is_active"`
	TokensUsed     int64      `json:"tokens_used"`
	TokensLimit    int64      `json:"tokens_limit"`
	Subscription   string     `json:"subscription,omitempty"`
	AuthToken      string     `json:"auth_token,omitempty"`
	LastTokenCheck *time.Time `json:"last_token_check,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TokenMetrics contains display-ready token figures for one account.
type TokenMetrics struct {
	Used       int64   `json:"tokens_used"`
	Limit      int64   `json:"tokens_limit"`
	Remaining  int64   `json:"tokens_remaining"`
	Percentage float64 `json:"tokens_percentage"`
}

// Metrics computes the token metrics for the account.
// A zero limit yields percentage 0 rather than a division by zero.
func (a *Account) Metrics() TokenMetrics {
	used := a.TokensUsed
	limit := a.TokensLimit

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	var percentage float64
	if limit > 0 {
		percentage = float64(used) / float64(limit) * 100
	}

	return TokenMetrics{
		Used:       used,
		Limit:      limit,
		Remaining:  remaining,
		Percentage: percentage,
	}
}

// AccountInfo is the display-ready view of an account, token metrics included.
type AccountInfo struct {
	ID             string       `json:"id"`
	Username       string       `json:"username"`
	ExternalUserID string       `json:"external_user_id,omitempty"`
	Email          string       `json:"email,omitempty"`
	IsActive       bool         `json:"is_active"`
	Subscription   string       `json:"subscription,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	Tokens         TokenMetrics `json:"tokens"`
	TokensStatus   string       `json:"tokens_status"`
}

// Info builds the display-ready view of the account.
func (a *Account) Info() AccountInfo {
	metrics := a.Metrics()
	return AccountInfo{
		ID:             a.ID,
		Username:       a.Username,
		ExternalUserID: a.ExternalUserID,
		Email:          a.Email,
		IsActive:       a.IsActive,
		Subscription:   a.Subscription,
		CreatedAt:      a.CreatedAt,
		Tokens:         metrics,
		TokensStatus:   TokenStatusLabel(metrics.Percentage),
	}
}

// FormatTokens renders a token count in compact form (1.5K, 2.3M).
func FormatTokens(tokens int64) string {
	switch {
	case tokens >= 1000000:
		return fmt.Sprintf("%.1fM", float64(tokens)/1000000)
	case tokens >= 1000:
		return fmt.Sprintf("%.1fK", float64(tokens)/1000)
	default:
		return fmt.Sprintf("%d", tokens)
	}
}

// TokenStatusLabel classifies quota pressure for display.
func TokenStatusLabel(percentage float64) string {
	switch {
	case percentage < 50:
		return "ok"
	case percentage < 80:
		return "warning"
	default:
		return "critical"
	}
}
