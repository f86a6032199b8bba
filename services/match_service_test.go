package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"luvlang_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubscriptions map[string]bool

func (s stubSubscriptions) HasActiveSubscription(_ context.Context, userID string) (bool, error) {
	return s[userID], nil
}

func seedProfiles(t *testing.T, ups *UserProfileService, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		p := &models.Profile{
			UserID:   fmt.Sprintf("c%02d", i),
			FullName: fmt.Sprintf("Candidate %d", i),
			Photos:   []string{fmt.Sprintf("https://cdn.test/c%02d/1.jpg", i), fmt.Sprintf("https://cdn.test/c%02d/2.jpg", i)},
		}
		require.NoError(t, ups.Save(context.Background(), p, false))
	}
}

func newTestMatchService(t *testing.T, candidates int) (*MatchService, *fakeDynamo) {
	ups, fake := newTestProfileService()
	seedProfiles(t, ups, candidates)
	require.NoError(t, ups.Save(context.Background(), &models.Profile{UserID: "u1", FullName: "Me"}, false))

	ms := NewMatchService(ups.Dynamo, stubSubscriptions{"vip": true}, 42)
	ms.Now = fixedNow
	return ms, fake
}

func TestMatchService_GenerateDailyMatches(t *testing.T) {
	ctx := context.Background()
	ms, fake := newTestMatchService(t, 12)

	matches, err := ms.GenerateDailyMatches(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, matches, 5)

	seen := map[string]bool{}
	for _, m := range matches {
		assert.NotEqual(t, "u1", m.CandidateID)
		assert.False(t, seen[m.CandidateID], "duplicate candidate %s", m.CandidateID)
		seen[m.CandidateID] = true
		assert.GreaterOrEqual(t, m.Score, 60)
		assert.LessOrEqual(t, m.Score, 99)
		assert.Equal(t, "2026-10-18", m.MatchDate)
		assert.True(t, strings.HasPrefix(m.MatchKey, "2026-10-18#daily#"))
		assert.Equal(t, m.Photos[0].URL, m.PrimaryPhoto)
		assert.True(t, m.Photos[0].IsPrimary)
		assert.False(t, m.Photos[1].IsPrimary)
	}
	assert.Equal(t, 5, fake.count(models.DailyMatchesTable))

	// Regenerating replaces the day's rows instead of accumulating them.
	_, err = ms.GenerateDailyMatches(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, fake.count(models.DailyMatchesTable))

	listed, err := ms.ListMatches(ctx, "u1", models.MatchKindDaily)
	require.NoError(t, err)
	require.Len(t, listed, 5)
	assert.NotEmpty(t, listed[0].FullName)
	assert.NotEmpty(t, listed[0].PrimaryPhoto)
}

func TestMatchService_FewerCandidatesThanCount(t *testing.T) {
	ms, _ := newTestMatchService(t, 2)

	matches, err := ms.GenerateDailyMatches(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMatchService_GenerateExecutiveMatches(t *testing.T) {
	ctx := context.Background()
	ms, fake := newTestMatchService(t, 10)

	_, err := ms.GenerateExecutiveMatches(ctx, "u1")
	assert.ErrorIs(t, err, ErrSubscriptionRequired)
	assert.Equal(t, 0, fake.count(models.DailyMatchesTable))

	matches, err := ms.GenerateExecutiveMatches(ctx, "vip")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, models.MatchKindExecutive, m.Kind)
		assert.GreaterOrEqual(t, m.Score, 80)
	}

	daily, err := ms.ListMatches(ctx, "vip", models.MatchKindDaily)
	require.NoError(t, err)
	assert.Empty(t, daily)
}

func TestMatchService_ListSkipsMissingCandidates(t *testing.T) {
	ctx := context.Background()
	ms, fake := newTestMatchService(t, 3)

	matches, err := ms.GenerateDailyMatches(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, matches, 3)

	require.NoError(t, ms.Dynamo.DeleteItem(ctx, models.ProfilesTable, StringKey("userId", matches[0].CandidateID)))
	listed, err := ms.ListMatches(ctx, "u1", models.MatchKindDaily)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.Equal(t, 3, fake.count(models.DailyMatchesTable))
}
