package models

// Roles assigned at sign-in. There is no account database; identities are
// fabricated from the credentials and kept only for the session.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Subscription tiers, lowest to highest.
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Subscription string `json:"subscription"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

type UpdateSubscriptionRequest struct {
	Tier string `json:"tier"`
}

func ValidTier(tier string) bool {
	switch tier {
	case TierFree, TierPro, TierEnterprise:
		return true
	}
	return false
}
