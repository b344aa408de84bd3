package domain

import "time"

// Profile is the identity the commerce backend reports for the current
// session. It is cached alongside the token and cleared with it; the token
// itself stays the single source of truth for roles.
type Profile struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	ShopID      string    `json:"shop_id,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}
