package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionActive(t *testing.T) {
	cases := map[string]bool{
		SubscriptionUnblocked:       true,
		SubscriptionBlocked:         false,
		SubscriptionProdOnlyBlocked: false,
		SubscriptionOnHold:          false,
		SubscriptionRejected:        false,
		"":                          false,
	}
	for status, want := range cases {
		sub := &Subscription{SubscriptionID: "sub-1", Status: status}
		assert.Equal(t, want, sub.Active(), status)
	}

	var missing *Subscription
	assert.False(t, missing.Active())
}
