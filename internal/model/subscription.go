package model

// Subscription mirrors the API store subscription resource.
type Subscription struct {
	SubscriptionID string `json:"subscriptionId,omitempty"`
	ApplicationID  string `json:"applicationId"`
	APIIdentifier  string `json:"apiIdentifier"`
	Tier           string `json:"tier"`
	Status         string `json:"status,omitempty"`
}

// Subscription states reported by the API store.
const (
	SubscriptionBlocked         = "BLOCKED"
	SubscriptionProdOnlyBlocked = "PROD_ONLY_BLOCKED"
	SubscriptionUnblocked       = "UNBLOCKED"
	SubscriptionOnHold          = "ON_HOLD"
	SubscriptionRejected        = "REJECTED"
)

// Active reports whether the store lets traffic through the subscription in
// every environment.
func (s *Subscription) Active() bool {
	return s != nil && s.Status == SubscriptionUnblocked
}
