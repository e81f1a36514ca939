package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vigil-sec/vigil/internal/session"
)

// checkoutRequest is the wire shape of checkout session creation.
type checkoutRequest struct {
	Tier       session.Tier `json:"tier"`
	SuccessURL string       `json:"success_url"`
	CancelURL  string       `json:"cancel_url"`
}

// CheckoutSubscription starts a hosted checkout for upgrading to tier. The
// returned session URL is where the user completes payment.
func (c *Client) CheckoutSubscription(ctx context.Context, tier session.Tier, successURL, cancelURL string) (*CheckoutSession, error) {
	if !tier.Valid() || tier == session.TierFree {
		return nil, fmt.Errorf("invalid checkout tier %q", tier)
	}

	var checkout CheckoutSession
	err := c.doJSON(ctx, &request{
		method: http.MethodPost,
		path:   "/subscriptions/checkout",
		body:   checkoutRequest{Tier: tier, SuccessURL: successURL, CancelURL: cancelURL},
	}, &checkout)
	if err != nil {
		return nil, err
	}
	return &checkout, nil
}

// CurrentSubscription returns the account's active subscription, or
// (nil, nil) when the account has none. Free-tier accounts commonly have no
// subscription record at all.
func (c *Client) CurrentSubscription(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	err := c.doJSON(ctx, &request{
		method: http.MethodGet,
		path:   "/subscriptions/current",
	}, &sub)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription schedules the active subscription to end at the close
// of the current billing period.
func (c *Client) CancelSubscription(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	err := c.doJSON(ctx, &request{
		method: http.MethodPost,
		path:   "/subscriptions/cancel",
	}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
