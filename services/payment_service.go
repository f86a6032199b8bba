package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"luvlang_server/models"

	"golang.org/x/oauth2/clientcredentials"
)

// PaymentService proxies checkout orders to the payment provider's REST API
// and activates the purchased membership on capture.
type PaymentService struct {
	HTTP        *http.Client
	BaseURL     string
	ReturnURL   string
	CancelURL   string
	Memberships *MembershipService
}

// NewPaymentService builds an HTTP client that fetches and refreshes
// client-credentials tokens from {baseURL}/v1/oauth2/token. ctx bounds token
// fetches for the client's lifetime.
func NewPaymentService(ctx context.Context, baseURL, clientID, clientSecret, returnURL, cancelURL string, memberships *MembershipService) *PaymentService {
	base := strings.TrimRight(baseURL, "/")
	creds := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     base + "/v1/oauth2/token",
	}
	return &PaymentService{
		HTTP:        creds.Client(ctx),
		BaseURL:     base,
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
		Memberships: memberships,
	}
}

type PaymentOrder struct {
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	ApproveURL string `json:"approveUrl,omitempty"`
	PlanID     string `json:"planId"`
}

type CaptureResult struct {
	OrderID      string                   `json:"orderId"`
	Status       string                   `json:"status"`
	Subscription *models.UserSubscription `json:"subscription,omitempty"`
}

type providerAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type providerUnit struct {
	ReferenceID string          `json:"reference_id,omitempty"`
	CustomID    string          `json:"custom_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      *providerAmount `json:"amount,omitempty"`
	Payments    *struct {
		Captures []struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			CustomID string `json:"custom_id"`
		} `json:"captures"`
	} `json:"payments,omitempty"`
}

type providerOrder struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []providerUnit `json:"purchase_units"`
	Links         []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreateOrder opens a checkout order for planID on behalf of userID.
func (ps *PaymentService) CreateOrder(ctx context.Context, userID, planID string) (*PaymentOrder, error) {
	plan, err := ps.Memberships.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []providerUnit{{
			ReferenceID: plan.PlanID,
			CustomID:    userID,
			Description: plan.Name,
			Amount:      &providerAmount{CurrencyCode: plan.Currency, Value: plan.Price},
		}},
		"application_context": map[string]string{
			"return_url": ps.ReturnURL,
			"cancel_url": ps.CancelURL,
		},
	}

	var order providerOrder
	if err := ps.post(ctx, "/v2/checkout/orders", body, &order); err != nil {
		log.Printf("❌ Failed to create order for %s: %v", userID, err)
		return nil, err
	}

	result := &PaymentOrder{OrderID: order.ID, Status: order.Status, PlanID: plan.PlanID}
	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			result.ApproveURL = link.Href
		}
	}
	log.Printf("✅ Created order %s for %s (%s)", order.ID, userID, plan.PlanID)
	return result, nil
}

// CaptureOrder captures an approved order and, when the provider reports it
// COMPLETED, activates the purchased plan for userID.
func (ps *PaymentService) CaptureOrder(ctx context.Context, userID, orderID string) (*CaptureResult, error) {
	var order providerOrder
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := ps.post(ctx, path, struct{}{}, &order); err != nil {
		log.Printf("❌ Failed to capture order %s: %v", orderID, err)
		return nil, err
	}

	result := &CaptureResult{OrderID: order.ID, Status: order.Status}
	if order.Status != "COMPLETED" {
		return result, ErrPaymentDeclined
	}
	if len(order.PurchaseUnits) == 0 {
		return result, fmt.Errorf("capture %s returned no purchase units", orderID)
	}

	unit := order.PurchaseUnits[0]
	if !ownedBy(unit, userID) {
		log.Printf("❌ Refusing to activate order %s for %s: captures name another or no user", orderID, userID)
		return result, fmt.Errorf("order %s: %w", orderID, ErrOrderNotOwned)
	}

	plan, err := ps.Memberships.GetPlan(ctx, unit.ReferenceID)
	if err != nil {
		return result, err
	}
	sub, err := ps.Memberships.Activate(ctx, userID, *plan, order.ID)
	if err != nil {
		return result, err
	}
	result.Subscription = sub
	return result, nil
}

// ownedBy requires every capture to carry userID as its custom_id, which
// CreateOrder sets. An order with no captures is not owned by anyone.
func ownedBy(unit providerUnit, userID string) bool {
	if unit.Payments == nil || len(unit.Payments.Captures) == 0 {
		return false
	}
	for _, c := range unit.Payments.Captures {
		if c.CustomID != userID {
			return false
		}
	}
	return true
}

func (ps *PaymentService) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ps.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ps.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("payment provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}
