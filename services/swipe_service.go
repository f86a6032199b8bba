package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"luvlang_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// MatchHook runs once per newly created mutual match.
type MatchHook func(ctx context.Context, match models.Match)

// SwipeService records likes and passes and turns mutual likes into matches.
type SwipeService struct {
	Dynamo   *DynamoService
	Notifier Notifier
	OnMatch  []MatchHook
	Now      func() time.Time
}

type SwipeResult struct {
	Swipe models.Swipe  `json:"swipe"`
	Match *models.Match `json:"match,omitempty"`
}

func (s *SwipeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func swipeKey(from, to string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#" + from},
		"SK": &types.AttributeValueMemberS{Value: "SWIPE#" + to},
	}
}

// GetSwipe returns from's swipe on to, or nil when there is none.
func (s *SwipeService) GetSwipe(ctx context.Context, from, to string) (*models.Swipe, error) {
	item, err := s.Dynamo.GetItem(ctx, models.SwipesTable, swipeKey(from, to))
	if errors.Is(err, ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("❌ DynamoDB error while fetching swipe: %v", err)
		return nil, err
	}
	var swipe models.Swipe
	if err := attributevalue.UnmarshalMap(item, &swipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal swipe: %w", err)
	}
	return &swipe, nil
}

// Swipe records from's like or pass on to. A like answered by a pending like
// from the other side creates a mutual match.
func (s *SwipeService) Swipe(ctx context.Context, from, to, action string) (*SwipeResult, error) {
	if from == "" || to == "" || from == to {
		return nil, fmt.Errorf("%w: users must be two different people", ErrInvalidSwipe)
	}
	if action != models.SwipeActionLike && action != models.SwipeActionPass {
		return nil, fmt.Errorf("%w: unsupported action %q", ErrInvalidSwipe, action)
	}
	log.Printf("🔄 Processing %s from %s -> %s", action, from, to)

	existing, err := s.GetSwipe(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.StatusMatch && action == models.SwipeActionLike {
		return &SwipeResult{Swipe: *existing}, nil
	}

	now := s.now().UTC().Format(time.RFC3339)
	swipe := models.Swipe{
		PK:          "USER#" + from,
		SK:          "SWIPE#" + to,
		FromUser:    from,
		ToUser:      to,
		Action:      action,
		Status:      models.StatusPending,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if existing != nil {
		swipe.CreatedAt = existing.CreatedAt
	}
	if action == models.SwipeActionPass {
		swipe.Status = models.StatusDeclined
	}

	var match *models.Match
	if action == models.SwipeActionLike {
		reverse, err := s.GetSwipe(ctx, to, from)
		if err != nil {
			return nil, err
		}
		if reverse != nil && reverse.Action == models.SwipeActionLike && reverse.Status == models.StatusPending {
			match = &models.Match{
				MatchID:   uuid.New().String(),
				Users:     []string{to, from},
				Type:      models.MatchKindMutual,
				Status:    models.StatusActive,
				CreatedAt: now,
			}
			if err := s.Dynamo.PutItem(ctx, models.MatchesTable, match); err != nil {
				return nil, fmt.Errorf("failed to create match: %w", err)
			}
			swipe.Status = models.StatusMatch
			swipe.MatchID = &match.MatchID

			reverse.Status = models.StatusMatch
			reverse.MatchID = &match.MatchID
			reverse.LastUpdated = now
			if err := s.Dynamo.PutItem(ctx, models.SwipesTable, reverse); err != nil {
				return nil, fmt.Errorf("failed to update reverse swipe: %w", err)
			}
		}
	}

	if err := s.Dynamo.PutItem(ctx, models.SwipesTable, swipe); err != nil {
		log.Printf("❌ Error saving swipe: %v", err)
		return nil, fmt.Errorf("failed to save swipe: %w", err)
	}

	if match != nil {
		log.Printf("💘 Mutual match %s between %s and %s", match.MatchID, to, from)
		s.announce(ctx, *match)
	}
	return &SwipeResult{Swipe: swipe, Match: match}, nil
}

func (s *SwipeService) announce(ctx context.Context, match models.Match) {
	if s.Notifier != nil {
		for _, user := range match.Users {
			s.Notifier.Notify(ctx, user, models.Notification{
				Kind:    models.NotifySuccess,
				Title:   "It's a Match!",
				Message: "You have a new match. Say hello!",
			})
		}
	}
	for _, hook := range s.OnMatch {
		hook(ctx, match)
	}
}

// ListMutualMatches returns userID's swipes that turned into matches.
func (s *SwipeService) ListMutualMatches(ctx context.Context, userID string) ([]models.Swipe, error) {
	items, err := s.Dynamo.QueryItems(ctx, models.SwipesTable, "PK = :PK",
		map[string]types.AttributeValue{":PK": &types.AttributeValueMemberS{Value: "USER#" + userID}}, nil, 0)
	if err != nil {
		log.Printf("❌ Error fetching mutual matches: %v", err)
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}
	var swipes []models.Swipe
	if err := attributevalue.UnmarshalListOfMaps(items, &swipes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal swipes: %w", err)
	}
	matches := make([]models.Swipe, 0, len(swipes))
	for _, sw := range swipes {
		if sw.Status == models.StatusMatch {
			matches = append(matches, sw)
		}
	}
	log.Printf("✅ Found %d matches for %s", len(matches), userID)
	return matches, nil
}
