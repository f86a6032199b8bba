package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"luvlang_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// CompatibilityService stores question-id -> answer maps, one row per user.
type CompatibilityService struct {
	Dynamo *DynamoService
	Now    func() time.Time
}

// Get returns the user's answers; a user with none gets an empty map.
func (cs *CompatibilityService) Get(ctx context.Context, userID string) (map[string]string, error) {
	item, err := cs.Dynamo.GetItem(ctx, models.CompatibilityAnswersTable, StringKey("userId", userID))
	if errors.Is(err, ErrItemNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var row models.CompatibilityAnswers
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compatibility answers: %w", err)
	}
	if row.Answers == nil {
		row.Answers = map[string]string{}
	}
	return row.Answers, nil
}

// Save merges answers onto the stored ones. An empty answer deletes the key.
func (cs *CompatibilityService) Save(ctx context.Context, userID string, answers map[string]string) (map[string]string, error) {
	merged, err := cs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for question, answer := range answers {
		if answer == "" {
			delete(merged, question)
			continue
		}
		merged[question] = answer
	}

	now := time.Now
	if cs.Now != nil {
		now = cs.Now
	}
	row := models.CompatibilityAnswers{
		UserID:    userID,
		Answers:   merged,
		UpdatedAt: now().UTC().Format(time.RFC3339),
	}
	if err := cs.Dynamo.PutItem(ctx, models.CompatibilityAnswersTable, row); err != nil {
		return nil, err
	}
	return merged, nil
}
