package gateway

import "context"

// ChatRequest is one completion request against the AI gateway.
type ChatRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"image,omitempty"`
	Model       string `json:"model,omitempty"`

	// AuthToken identifies the linked account making the call.
	// Not serialized; sent as a bearer header.
	AuthToken string `json:"-"`
}

// UserInfo is the gateway's view of the authenticated account.
type UserInfo struct {
	Username     string `json:"username"`
	UserID       string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Subscription string `json:"subscription,omitempty"`
}

// Quota holds usage/limit figures from the gateway's quota endpoint.
type Quota struct {
	Used         int64 `json:"used"`
	Limit        int64 `json:"limit"`
	StorageUsed  int64 `json:"storage_used,omitempty"`
	StorageLimit int64 `json:"storage_limit,omitempty"`
}

// Client defines the AI gateway boundary. Authentication/session state is
// entirely owned by the gateway; callers only consume its output.
type Client interface {
	// Chat sends a prompt (optionally with an image) and returns the
	// response text, whatever wrapper shape the gateway used.
	Chat(ctx context.Context, req ChatRequest) (string, error)

	// GetUser fetches the account profile for the given auth token.
	GetUser(ctx context.Context, authToken string) (*UserInfo, error)

	// GetQuota fetches current usage/limit figures for the given auth token.
	GetQuota(ctx context.Context, authToken string) (*Quota, error)
}
