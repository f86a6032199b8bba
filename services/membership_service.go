package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"luvlang_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

const allPlansKey = "all"

// MembershipService reads plans and subscriptions. Plans and per-user active
// status are cached; Activate invalidates the user's entry.
type MembershipService struct {
	Dynamo *DynamoService
	Now    func() time.Time

	plans  *TTLCache[[]models.MembershipPlan]
	active *TTLCache[bool]
}

func NewMembershipService(dynamo *DynamoService, ttl time.Duration) *MembershipService {
	return &MembershipService{
		Dynamo: dynamo,
		plans:  NewTTLCache[[]models.MembershipPlan](1, ttl),
		active: NewTTLCache[bool](4096, ttl),
	}
}

func (ms *MembershipService) now() time.Time {
	if ms.Now != nil {
		return ms.Now()
	}
	return time.Now()
}

// ListPlans returns every plan, cheapest first.
func (ms *MembershipService) ListPlans(ctx context.Context) ([]models.MembershipPlan, error) {
	return ms.plans.GetOrFetch(ctx, allPlansKey, func(ctx context.Context) ([]models.MembershipPlan, error) {
		log.Println("🔍 Loading membership plans")
		items, err := ms.Dynamo.ScanExcluding(ctx, models.MembershipPlansTable, nil, 0)
		if err != nil {
			return nil, err
		}
		var plans []models.MembershipPlan
		if err := attributevalue.UnmarshalListOfMaps(items, &plans); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plans: %w", err)
		}
		sort.SliceStable(plans, func(i, j int) bool {
			pi, _ := strconv.ParseFloat(plans[i].Price, 64)
			pj, _ := strconv.ParseFloat(plans[j].Price, 64)
			return pi < pj
		})
		return plans, nil
	})
}

func (ms *MembershipService) GetPlan(ctx context.Context, planID string) (*models.MembershipPlan, error) {
	plans, err := ms.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].PlanID == planID {
			return &plans[i], nil
		}
	}
	return nil, ErrPlanNotFound
}

// GetSubscription returns the stored subscription, or nil when there is none.
func (ms *MembershipService) GetSubscription(ctx context.Context, userID string) (*models.UserSubscription, error) {
	item, err := ms.Dynamo.GetItem(ctx, models.UserSubscriptionsTable, StringKey("userId", userID))
	if errors.Is(err, ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sub models.UserSubscription
	if err := attributevalue.UnmarshalMap(item, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return &sub, nil
}

// HasActiveSubscription reports whether userID holds an unexpired, active
// subscription.
func (ms *MembershipService) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	return ms.active.GetOrFetch(ctx, userID, func(ctx context.Context) (bool, error) {
		sub, err := ms.GetSubscription(ctx, userID)
		if err != nil || sub == nil {
			return false, err
		}
		if sub.Status != models.StatusActive {
			return false, nil
		}
		expires, err := time.Parse(time.RFC3339, sub.ExpiresAt)
		if err != nil {
			log.Printf("⚠️ Subscription for %s has bad expiry %q", userID, sub.ExpiresAt)
			return false, nil
		}
		return ms.now().Before(expires), nil
	})
}

// Activate writes an active subscription for plan starting now.
func (ms *MembershipService) Activate(ctx context.Context, userID string, plan models.MembershipPlan, orderID string) (*models.UserSubscription, error) {
	start := ms.now().UTC()
	sub := models.UserSubscription{
		UserID:    userID,
		PlanID:    plan.PlanID,
		OrderID:   orderID,
		Status:    models.StatusActive,
		StartsAt:  start.Format(time.RFC3339),
		ExpiresAt: start.AddDate(0, 0, plan.DurationDays).Format(time.RFC3339),
	}
	if err := ms.Dynamo.PutItem(ctx, models.UserSubscriptionsTable, sub); err != nil {
		log.Printf("❌ Failed to store subscription for %s: %v", userID, err)
		return nil, err
	}
	ms.active.Invalidate(userID)
	log.Printf("✅ %s subscribed to %s until %s", userID, plan.PlanID, sub.ExpiresAt)
	return &sub, nil
}
