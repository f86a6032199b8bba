package services

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"luvlang_server/models"
	"luvlang_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
}

// MatchService generates and lists daily and executive suggestions. Scores
// are random; there is no ranking model.
type MatchService struct {
	Dynamo         *DynamoService
	Subscriptions  SubscriptionChecker
	Now            func() time.Time
	PoolSize       int
	DailyCount     int
	ExecutiveCount int

	mu  sync.Mutex
	rnd *rand.Rand
}

type matchRun struct {
	kind     string
	count    int
	minScore int
	maxScore int
}

// NewMatchService uses seed for shuffling and scoring; pass 0 for a time seed.
func NewMatchService(dynamo *DynamoService, subs SubscriptionChecker, seed uint64) *MatchService {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &MatchService{
		Dynamo:         dynamo,
		Subscriptions:  subs,
		PoolSize:       50,
		DailyCount:     5,
		ExecutiveCount: 3,
		rnd:            rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

func (ms *MatchService) now() time.Time {
	if ms.Now != nil {
		return ms.Now()
	}
	return time.Now()
}

func matchPrefix(date, kind string) string {
	return date + "#" + kind + "#"
}

// GenerateDailyMatches replaces today's daily suggestions for userID.
func (ms *MatchService) GenerateDailyMatches(ctx context.Context, userID string) ([]models.MatchWithProfile, error) {
	return ms.generate(ctx, userID, matchRun{kind: models.MatchKindDaily, count: ms.DailyCount, minScore: 60, maxScore: 99})
}

// GenerateExecutiveMatches replaces today's executive suggestions. It needs an
// active subscription.
func (ms *MatchService) GenerateExecutiveMatches(ctx context.Context, userID string) ([]models.MatchWithProfile, error) {
	if ms.Subscriptions == nil {
		return nil, ErrSubscriptionRequired
	}
	active, err := ms.Subscriptions.HasActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check subscription: %w", err)
	}
	if !active {
		return nil, ErrSubscriptionRequired
	}
	return ms.generate(ctx, userID, matchRun{kind: models.MatchKindExecutive, count: ms.ExecutiveCount, minScore: 80, maxScore: 99})
}

func (ms *MatchService) generate(ctx context.Context, userID string, run matchRun) ([]models.MatchWithProfile, error) {
	log.Printf("🎯 Generating %s matches for %s", run.kind, userID)

	items, err := ms.Dynamo.ScanExcluding(ctx, models.ProfilesTable, map[string]string{"userId": userID}, ms.PoolSize)
	if err != nil {
		log.Printf("❌ Candidate scan failed for %s: %v", userID, err)
		return nil, err
	}
	var candidates []models.Profile
	if err := attributevalue.UnmarshalListOfMaps(items, &candidates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal candidates: %w", err)
	}

	ms.mu.Lock()
	ms.rnd.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	if len(candidates) > run.count {
		candidates = candidates[:run.count]
	}
	scores := make([]int, len(candidates))
	for i := range scores {
		scores[i] = run.minScore + ms.rnd.IntN(run.maxScore-run.minScore+1)
	}
	ms.mu.Unlock()

	now := ms.now().UTC()
	date := now.Format(time.DateOnly)
	prefix := matchPrefix(date, run.kind)

	if err := ms.clear(ctx, userID, prefix); err != nil {
		return nil, err
	}

	rows := make([]models.DailyMatch, 0, len(candidates))
	out := make([]models.MatchWithProfile, 0, len(candidates))
	for i, c := range candidates {
		row := models.DailyMatch{
			UserID:      userID,
			MatchKey:    prefix + c.UserID,
			CandidateID: c.UserID,
			Kind:        run.kind,
			Score:       scores[i],
			MatchDate:   date,
			CreatedAt:   now.Format(time.RFC3339),
		}
		rows = append(rows, row)
		out = append(out, withProfile(row, &c))
	}

	requests, err := PutRequests(rows)
	if err != nil {
		return nil, err
	}
	if err := ms.Dynamo.BatchWriteItems(ctx, models.DailyMatchesTable, requests); err != nil {
		log.Printf("❌ Failed to store %s matches for %s: %v", run.kind, userID, err)
		return nil, err
	}

	log.Printf("✅ Stored %d %s matches for %s", len(rows), run.kind, userID)
	return out, nil
}

// clear deletes the rows under prefix so a regeneration replaces them.
func (ms *MatchService) clear(ctx context.Context, userID, prefix string) error {
	existing, err := ms.query(ctx, userID, prefix)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}
	requests := make([]types.WriteRequest, 0, len(existing))
	for _, row := range existing {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{
			"userId":   &types.AttributeValueMemberS{Value: userID},
			"matchKey": &types.AttributeValueMemberS{Value: row.MatchKey},
		}}})
	}
	return ms.Dynamo.BatchWriteItems(ctx, models.DailyMatchesTable, requests)
}

func (ms *MatchService) query(ctx context.Context, userID, prefix string) ([]models.DailyMatch, error) {
	items, err := ms.Dynamo.QueryItems(ctx, models.DailyMatchesTable,
		"userId = :userId AND begins_with(matchKey, :matchKeyPrefix)",
		map[string]types.AttributeValue{
			":userId":         &types.AttributeValueMemberS{Value: userID},
			":matchKeyPrefix": &types.AttributeValueMemberS{Value: prefix},
		}, nil, 0)
	if err != nil {
		return nil, err
	}
	var rows []models.DailyMatch
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matches: %w", err)
	}
	return rows, nil
}

// ListMatches returns today's suggestions of kind, enriched with each
// candidate's profile. Candidates whose profile is gone are skipped.
func (ms *MatchService) ListMatches(ctx context.Context, userID, kind string) ([]models.MatchWithProfile, error) {
	date := ms.now().UTC().Format(time.DateOnly)
	rows, err := ms.query(ctx, userID, matchPrefix(date, kind))
	if err != nil {
		log.Printf("❌ Failed to list %s matches for %s: %v", kind, userID, err)
		return nil, err
	}

	out := make([]models.MatchWithProfile, 0, len(rows))
	for _, row := range rows {
		item, err := ms.Dynamo.GetItem(ctx, models.ProfilesTable, StringKey("userId", row.CandidateID))
		if err != nil {
			log.Printf("⚠️ Warning: Failed to fetch profile for %s: %v", row.CandidateID, err)
			continue
		}
		candidate := &models.Profile{
			UserID:   row.CandidateID,
			FullName: utils.ExtractString(item, "fullName"),
			Age:      utils.ExtractString(item, "age"),
			Gender:   utils.ExtractString(item, "gender"),
			Location: utils.ExtractString(item, "location"),
			Bio:      utils.ExtractString(item, "bio"),
			Photos:   utils.ExtractStringList(item, "photos"),
		}
		out = append(out, withProfile(row, candidate))
	}
	return out, nil
}

func withProfile(row models.DailyMatch, p *models.Profile) models.MatchWithProfile {
	return models.MatchWithProfile{
		MatchKey:     row.MatchKey,
		Kind:         row.Kind,
		Score:        row.Score,
		MatchDate:    row.MatchDate,
		CandidateID:  row.CandidateID,
		FullName:     p.FullName,
		Age:          p.Age,
		Gender:       p.Gender,
		Location:     p.Location,
		Bio:          p.Bio,
		PrimaryPhoto: p.PrimaryPhoto(),
		Photos:       p.PhotoViews(),
	}
}
