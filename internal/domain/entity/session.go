package entity

import (
	"time"
)

// Session is the durable audit record written whenever a session token is
// issued. Token resolution never reads this table; the cache is the only
// authority for whether a token is live.
type Session struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	AccountID    *string   `json:"account_id"`    // Set when the session was established with local credentials.
	ConnectionID *string   `json:"connection_id"` // Set when the session was established through a provider.
	IP           string    `json:"ip"`
	UserAgent    string    `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionLink is the cached field-set a live token resolves to: the user plus
// exactly one of account id or connection id.
type SessionLink struct {
	UserID       string
	AccountID    string
	ConnectionID string
}
